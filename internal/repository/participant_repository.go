package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// ParticipantRepo provides access to `participants` and their dish
// selections in `participant_dishes`.
type ParticipantRepo struct {
    db DBTX
}

func NewParticipantRepo(db DBTX) *ParticipantRepo { return &ParticipantRepo{db: db} }

// WithTx returns a ParticipantRepo bound to tx.
func (r *ParticipantRepo) WithTx(tx *sql.Tx) *ParticipantRepo { return &ParticipantRepo{db: tx} }

// Create inserts one participant of reservationID with amount_paid set to
// paid and returns its id.  The identity is split into user_id or
// name/email; a nil identity is rejected before reaching the store.
func (r *ParticipantRepo) Create(ctx context.Context, reservationID uint64, in model.ParticipantInput, paid decimal.Decimal) (uint64, error) {
    userID, name, email := model.IdentityColumns(in.Identity)
    if userID == nil && name == nil {
        return 0, fmt.Errorf("participant has no identity")
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO participants (reservation_id, user_id, name, email, reservation_price, amount_paid, discount_id)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
        reservationID, userID, name, email, in.ReservationPrice, paid, in.DiscountID)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// AttachDishes links the participant to each dish id, duplicates kept.
func (r *ParticipantRepo) AttachDishes(ctx context.Context, participantID uint64, dishIDs []uint64) error {
    if len(dishIDs) == 0 {
        return nil
    }
    query := "INSERT INTO participant_dishes (participant_id, dish_id) VALUES "
    args := make([]any, 0, len(dishIDs)*2)
    for i, d := range dishIDs {
        if i > 0 {
            query += ","
        }
        query += "(?, ?)"
        args = append(args, participantID, d)
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

// PaidByIdentity sums what the live participants of the reservation have
// paid so far, keyed by model.IdentityKey.  Participants that paid
// nothing are left out.
func (r *ParticipantRepo) PaidByIdentity(ctx context.Context, reservationID uint64) (map[string]decimal.Decimal, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT user_id, email, amount_paid FROM participants
         WHERE reservation_id = ? AND deleted_at IS NULL AND amount_paid > 0`, reservationID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[string]decimal.Decimal)
    for rows.Next() {
        var uid sql.NullInt64
        var email sql.NullString
        var paid decimal.Decimal
        if err := rows.Scan(&uid, &email, &paid); err != nil {
            return nil, err
        }
        var id model.ParticipantIdentity = model.GuestParticipant{Email: email.String}
        if uid.Valid {
            id = model.UserParticipant{UserID: uint64(uid.Int64)}
        }
        k := model.IdentityKey(id)
        out[k] = out[k].Add(paid)
    }
    return out, rows.Err()
}

// DetachDishesByReservation removes the dish links of every live
// participant of the reservation.
func (r *ParticipantRepo) DetachDishesByReservation(ctx context.Context, reservationID uint64) error {
    _, err := r.db.ExecContext(ctx,
        `DELETE pd FROM participant_dishes pd
         JOIN participants p ON p.id = pd.participant_id
         WHERE p.reservation_id = ? AND p.deleted_at IS NULL`, reservationID)
    return err
}

// SoftDeleteByReservation marks every live participant of the
// reservation deleted and returns how many were.
func (r *ParticipantRepo) SoftDeleteByReservation(ctx context.Context, reservationID uint64) (int64, error) {
    res, err := r.db.ExecContext(ctx,
        "UPDATE participants SET deleted_at = UTC_TIMESTAMP() WHERE reservation_id = ? AND deleted_at IS NULL", reservationID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// CreditPayment adds amount to the participant's amount_paid.  The
// participant must belong to reservationID.
func (r *ParticipantRepo) CreditPayment(ctx context.Context, reservationID, participantID uint64, amount decimal.Decimal) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE participants SET amount_paid = amount_paid + ? WHERE id = ? AND reservation_id = ? AND deleted_at IS NULL",
        amount, participantID, reservationID)
    if err != nil {
        return err
    }
    return expectOne(res, "Participant", participantID)
}

// attachParticipants fills Participants on every reservation.
func attachParticipants(ctx context.Context, q DBTX, list []model.Reservation) error {
    if len(list) == 0 {
        return nil
    }
    ids := make([]uint64, len(list))
    for i := range list {
        ids[i] = list[i].ID
    }
    byRes, err := loadParticipants(ctx, q, ids)
    if err != nil {
        return err
    }
    for i := range list {
        if ps, ok := byRes[list[i].ID]; ok {
            list[i].Participants = ps
        } else {
            list[i].Participants = []model.Participant{}
        }
    }
    return nil
}

// loadParticipants reads participants with their discount, then their
// dishes, for a set of reservations: two queries regardless of size.
func loadParticipants(ctx context.Context, q DBTX, reservationIDs []uint64) (map[uint64][]model.Participant, error) {
    const pq = `SELECT p.id, p.reservation_id, p.user_id, p.name, p.email, p.reservation_price, p.amount_paid,
            dc.id, dc.description, dc.percentage
        FROM participants p
        LEFT JOIN discounts dc ON dc.id = p.discount_id
        WHERE p.reservation_id IN (%s) AND p.deleted_at IS NULL
        ORDER BY p.reservation_id, p.id`
    rows, err := q.QueryContext(ctx, fmt.Sprintf(pq, placeholders(len(reservationIDs))), idArgs(reservationIDs)...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    type slot struct {
        resID uint64
        pos   int
    }
    out := make(map[uint64][]model.Participant, len(reservationIDs))
    where := make(map[uint64]slot)
    pids := make([]uint64, 0)
    for rows.Next() {
        var p model.Participant
        var dID sql.NullInt64
        var dDesc sql.NullString
        var dPct decimal.NullDecimal
        if err := rows.Scan(&p.ID, &p.ReservationID, &p.UserID, &p.Name, &p.Email,
            &p.ReservationPrice, &p.AmountPaid, &dID, &dDesc, &dPct); err != nil {
            return nil, err
        }
        if dID.Valid {
            p.Discount = &model.Discount{ID: uint8(dID.Int64), Description: dDesc.String, Percentage: dPct.Decimal}
        }
        p.Dishes = []model.Dish{}
        where[p.ID] = slot{resID: p.ReservationID, pos: len(out[p.ReservationID])}
        out[p.ReservationID] = append(out[p.ReservationID], p)
        pids = append(pids, p.ID)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    if len(pids) == 0 {
        return out, nil
    }

    const dq = `SELECT pd.participant_id, d.id, d.name, d.is_a_la_carte, c.id, c.name
        FROM participant_dishes pd
        JOIN dishes d  ON d.id = pd.dish_id AND d.deleted_at IS NULL
        JOIN courses c ON c.id = d.course_id
        WHERE pd.participant_id IN (%s)
        ORDER BY pd.participant_id, pd.id`
    drows, err := q.QueryContext(ctx, fmt.Sprintf(dq, placeholders(len(pids))), idArgs(pids)...)
    if err != nil {
        return nil, err
    }
    defer drows.Close()
    for drows.Next() {
        var pid uint64
        var d model.Dish
        if err := drows.Scan(&pid, &d.ID, &d.Name, &d.IsALaCarte, &d.Course.ID, &d.Course.Name); err != nil {
            return nil, err
        }
        d.CourseID = d.Course.ID
        if s, ok := where[pid]; ok {
            ps := out[s.resID]
            ps[s.pos].Dishes = append(ps[s.pos].Dishes, d)
        }
    }
    return out, drows.Err()
}
