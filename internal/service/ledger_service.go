package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/restaurant-reservation/internal/database"
    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/queue"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
)

// ReservationInput is what createReservation needs.  MenuID, when set,
// books one slot of that menu in the same transaction.
type ReservationInput struct {
    StartDate        time.Time
    EndDate          time.Time
    ReservationPrice decimal.Decimal
    IsTableCommunal  bool
    Message          *string
    MenuID           *uint64
    Participants     []model.ParticipantInput
}

// LedgerService owns reservations, their participants and the payment
// totals.  Multi-row writes run in one transaction and events are
// published only after commit.
type LedgerService struct {
    db           *sql.DB
    reservations *repository.ReservationRepo
    participants *repository.ParticipantRepo
    menus        *repository.MenuRepo
    dishes       *repository.DishRepo
    users        *repository.UserRepo
    catalog      *repository.CatalogRepo
    publisher    EventPublisher
    policy       StatusPolicy
}

// NewLedgerService wires the repositories on db.  A nil publisher drops
// events; the status policy starts permissive.
func NewLedgerService(db *sql.DB, publisher EventPublisher) *LedgerService {
    if publisher == nil {
        publisher = NopPublisher{}
    }
    return &LedgerService{
        db:           db,
        reservations: repository.NewReservationRepo(db),
        participants: repository.NewParticipantRepo(db),
        menus:        repository.NewMenuRepo(db),
        dishes:       repository.NewDishRepo(db),
        users:        repository.NewUserRepo(db),
        catalog:      repository.NewCatalogRepo(db),
        publisher:    publisher,
        policy:       PermissivePolicy{},
    }
}

// SetStatusPolicy replaces the transition rule used by SetStatus.
func (s *LedgerService) SetStatusPolicy(p StatusPolicy) {
    if p == nil {
        p = PermissivePolicy{}
    }
    s.policy = p
}

// ParticipantError formats the message used for participant i.
func ParticipantError(i int, detail string) *ValidationError {
    msg := fmt.Sprintf("Invalid participant at index %d", i)
    if detail != "" {
        msg += ". " + detail
    }
    return Invalid("participants", msg)
}

// ValidateParticipants checks the shape of a participant list.
func ValidateParticipants(list []model.ParticipantInput) error {
    if len(list) == 0 {
        return Invalid("participants", "Participants must be a non-empty array")
    }
    for i, p := range list {
        switch id := p.Identity.(type) {
        case model.UserParticipant:
            if id.UserID == 0 {
                return ParticipantError(i, "Invalid user id")
            }
        case model.GuestParticipant:
            if id.Name == "" || id.Email == "" {
                return ParticipantError(i, "Invalid name or email")
            }
        default:
            return ParticipantError(i, "")
        }
        if p.ReservationPrice.IsNegative() {
            return ParticipantError(i, "Invalid reservation price")
        }
        if len(p.DishIDs) == 0 {
            return ParticipantError(i, "Missing dishes IDs array")
        }
        for j, d := range p.DishIDs {
            if d == 0 {
                return ParticipantError(i, fmt.Sprintf("Invalid dish ID at index %d", j))
            }
        }
    }
    return nil
}

// checkReferences fails with a not-found error naming the first dish,
// user or discount in the list that does not exist.
func (s *LedgerService) checkReferences(ctx context.Context, tx *sql.Tx, list []model.ParticipantInput) error {
    var dishIDs, userIDs, discountIDs []uint64
    for _, p := range list {
        dishIDs = append(dishIDs, p.DishIDs...)
        if u, ok := p.Identity.(model.UserParticipant); ok {
            userIDs = append(userIDs, u.UserID)
        }
        if p.DiscountID != nil {
            discountIDs = append(discountIDs, uint64(*p.DiscountID))
        }
    }
    checks := []struct {
        entity string
        ids    []uint64
        lookup func(context.Context, []uint64) (map[uint64]bool, error)
    }{
        {"Dish", dishIDs, s.dishes.WithTx(tx).ExistingIDs},
        {"User", userIDs, s.users.WithTx(tx).ExistingIDs},
        {"Discount", discountIDs, s.catalog.WithTx(tx).ExistingDiscountIDs},
    }
    for _, c := range checks {
        if len(c.ids) == 0 {
            continue
        }
        found, err := c.lookup(ctx, c.ids)
        if err != nil {
            return err
        }
        for _, id := range c.ids {
            if !found[id] {
                return &repository.NotFoundError{Entity: c.entity, ID: id}
            }
        }
    }
    return nil
}

// insertParticipants creates each participant of reservationID and its
// dish selections.  The first participant matching a key of carried
// starts with that amount paid.
func (s *LedgerService) insertParticipants(ctx context.Context, tx *sql.Tx, reservationID uint64, list []model.ParticipantInput, carried map[string]decimal.Decimal) error {
    parts := s.participants.WithTx(tx)
    for i, p := range list {
        paid := decimal.Zero
        if v, ok := carried[model.IdentityKey(p.Identity)]; ok {
            paid = v
            delete(carried, model.IdentityKey(p.Identity))
        }
        pid, err := parts.Create(ctx, reservationID, p, paid)
        if err != nil {
            return fmt.Errorf("insert participant %d: %w", i, err)
        }
        if err := parts.AttachDishes(ctx, pid, p.DishIDs); err != nil {
            return fmt.Errorf("attach dishes of participant %d: %w", i, err)
        }
    }
    return nil
}

// CreateReservation inserts a pending reservation and all of its
// participants in one transaction and returns the new id once committed.
func (s *LedgerService) CreateReservation(ctx context.Context, in ReservationInput) (uint64, error) {
    if err := ValidateParticipants(in.Participants); err != nil {
        return 0, err
    }
    if in.ReservationPrice.IsNegative() {
        return 0, Invalid("reservationPrice", "Invalid reservation price")
    }
    res := model.Reservation{
        StartDate:        in.StartDate,
        EndDate:          in.EndDate,
        ReservationPrice: in.ReservationPrice,
        IsTableCommunal:  in.IsTableCommunal,
        Message:          in.Message,
        MenuID:           in.MenuID,
    }
    err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
        if err := s.checkReferences(ctx, tx, in.Participants); err != nil {
            return err
        }
        if err := s.reservations.WithTx(tx).Create(ctx, &res); err != nil {
            if repository.IsMissingParent(err) && in.MenuID != nil {
                return &repository.NotFoundError{Entity: "Menu", ID: *in.MenuID}
            }
            return fmt.Errorf("insert reservation: %w", err)
        }
        if in.MenuID != nil {
            if err := capacityConflict(s.menus.WithTx(tx).DecrementOpenReservations(ctx, *in.MenuID), *in.MenuID); err != nil {
                return err
            }
        }
        return s.insertParticipants(ctx, tx, res.ID, in.Participants, nil)
    })
    if err != nil {
        return 0, err
    }
    ev := queue.NewLedgerEvent(queue.EventReservationCreated, res.ID)
    ev.ParticipantCount = len(in.Participants)
    ev.MenuID = in.MenuID
    publish(s.publisher, ev)
    return res.ID, nil
}

// UpdateParticipants replaces the whole participant set of a reservation.
// Applying the same list twice leaves the same live rows.  What a
// participant already paid moves to the replacement with the same
// identity, so amountReceived keeps matching the live rows whenever every
// payer is kept.
func (s *LedgerService) UpdateParticipants(ctx context.Context, reservationID uint64, list []model.ParticipantInput) error {
    if err := ValidateParticipants(list); err != nil {
        return err
    }
    err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
        if _, err := s.reservations.WithTx(tx).Lock(ctx, reservationID); err != nil {
            return err
        }
        if err := s.checkReferences(ctx, tx, list); err != nil {
            return err
        }
        parts := s.participants.WithTx(tx)
        carried, err := parts.PaidByIdentity(ctx, reservationID)
        if err != nil {
            return fmt.Errorf("read payments: %w", err)
        }
        if err := parts.DetachDishesByReservation(ctx, reservationID); err != nil {
            return fmt.Errorf("detach dishes: %w", err)
        }
        if _, err := parts.SoftDeleteByReservation(ctx, reservationID); err != nil {
            return fmt.Errorf("delete participants: %w", err)
        }
        return s.insertParticipants(ctx, tx, reservationID, list, carried)
    })
    if err != nil {
        return err
    }
    ev := queue.NewLedgerEvent(queue.EventParticipantsReplaced, reservationID)
    ev.ParticipantCount = len(list)
    publish(s.publisher, ev)
    return nil
}

// RecordPayment credits amount to the participant and to the
// reservation's received total in one transaction.
func (s *LedgerService) RecordPayment(ctx context.Context, reservationID, participantID uint64, amount decimal.Decimal) error {
    if !amount.IsPositive() {
        return Invalid("amountPaid", "Amount paid must be greater than 0")
    }
    err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
        reservations := s.reservations.WithTx(tx)
        if _, err := reservations.Lock(ctx, reservationID); err != nil {
            return err
        }
        if err := s.participants.WithTx(tx).CreditPayment(ctx, reservationID, participantID, amount); err != nil {
            return err
        }
        return reservations.AddReceived(ctx, reservationID, amount)
    })
    if err != nil {
        if repository.IsOutOfRange(err) {
            return Invalid("amountPaid", "Amount paid exceeds the ledger limit")
        }
        return err
    }
    ev := queue.NewLedgerEvent(queue.EventPaymentRecorded, reservationID)
    ev.ParticipantID = &participantID
    ev.Amount = amount.StringFixed(2)
    publish(s.publisher, ev)
    return nil
}

// ApplySupplement sets the supplements price.  Nothing is received.
func (s *LedgerService) ApplySupplement(ctx context.Context, reservationID uint64, amount decimal.Decimal) error {
    return s.UpdateReservation(ctx, reservationID, ReservationUpdate{SupplementsPrice: &amount})
}

// DeleteReservation soft-deletes the reservation and its participants,
// drops their dish links and gives a booked menu slot back, all in one
// transaction.
func (s *LedgerService) DeleteReservation(ctx context.Context, reservationID uint64) error {
    var menuID *uint64
    err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
        reservations := s.reservations.WithTx(tx)
        head, err := reservations.Lock(ctx, reservationID)
        if err != nil {
            return err
        }
        menuID = head.MenuID
        parts := s.participants.WithTx(tx)
        if err := parts.DetachDishesByReservation(ctx, reservationID); err != nil {
            return fmt.Errorf("detach dishes: %w", err)
        }
        if _, err := parts.SoftDeleteByReservation(ctx, reservationID); err != nil {
            return fmt.Errorf("delete participants: %w", err)
        }
        if err := reservations.SoftDelete(ctx, reservationID); err != nil {
            return err
        }
        if menuID != nil {
            if err := s.menus.WithTx(tx).IncrementOpenReservations(ctx, *menuID); err != nil {
                return fmt.Errorf("restore menu slot: %w", err)
            }
        }
        return nil
    })
    if err != nil {
        return err
    }
    ev := queue.NewLedgerEvent(queue.EventReservationDeleted, reservationID)
    ev.MenuID = menuID
    publish(s.publisher, ev)
    return nil
}

// ReservationUpdate carries the optional header changes of
// PUT /reservations/:id.
type ReservationUpdate struct {
    StatusID         *uint8
    SupplementsPrice *decimal.Decimal
}

// SetStatus is the single entry point for status changes.  The status id
// must exist and the configured policy must allow the move.
func (s *LedgerService) SetStatus(ctx context.Context, reservationID uint64, statusID uint8) error {
    return s.UpdateReservation(ctx, reservationID, ReservationUpdate{StatusID: &statusID})
}

// UpdateReservation applies a status change and/or a supplement in one
// transaction: either both are written or neither is.
func (s *LedgerService) UpdateReservation(ctx context.Context, reservationID uint64, upd ReservationUpdate) error {
    if upd.SupplementsPrice != nil && upd.SupplementsPrice.IsNegative() {
        return Invalid("supplementsPrice", "Invalid supplements price")
    }
    if upd.StatusID == nil && upd.SupplementsPrice == nil {
        return nil
    }
    err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
        if upd.StatusID != nil {
            if _, err := s.catalog.WithTx(tx).Status(ctx, *upd.StatusID); err != nil {
                return err
            }
        }
        reservations := s.reservations.WithTx(tx)
        head, err := reservations.Lock(ctx, reservationID)
        if err != nil {
            return err
        }
        if upd.StatusID != nil {
            if err := s.policy.Allow(head.StatusID, *upd.StatusID); err != nil {
                var ce *ConflictError
                if errors.As(err, &ce) {
                    return err
                }
                return &ConflictError{Message: err.Error()}
            }
            if err := reservations.SetStatus(ctx, reservationID, *upd.StatusID); err != nil {
                return err
            }
        }
        if upd.SupplementsPrice != nil {
            return reservations.SetSupplement(ctx, reservationID, *upd.SupplementsPrice)
        }
        return nil
    })
    if err != nil {
        return err
    }
    if upd.StatusID != nil {
        ev := queue.NewLedgerEvent(queue.EventStatusChanged, reservationID)
        ev.StatusID = upd.StatusID
        publish(s.publisher, ev)
    }
    if upd.SupplementsPrice != nil {
        ev := queue.NewLedgerEvent(queue.EventSupplementApplied, reservationID)
        ev.Amount = upd.SupplementsPrice.StringFixed(2)
        publish(s.publisher, ev)
    }
    return nil
}

// Get returns one reservation with everything eager-loaded.
func (s *LedgerService) Get(ctx context.Context, reservationID uint64) (*model.Reservation, error) {
    return s.reservations.GetByID(ctx, reservationID)
}

// List returns one page of reservations.
func (s *LedgerService) List(ctx context.Context, q repository.ReservationSearchQuery) (model.Page[model.Reservation], error) {
    rows, total, err := s.reservations.Search(ctx, q)
    if err != nil {
        return model.Page[model.Reservation]{}, err
    }
    return model.Page[model.Reservation]{Rows: rows, TotalPages: model.TotalPages(total, q.PageSize)}, nil
}
