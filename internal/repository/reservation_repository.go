package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// ReservationRepo provides access to the `reservations` table.  Reads
// assemble the reservation with its status and live participants.
type ReservationRepo struct {
    db DBTX
}

func NewReservationRepo(db DBTX) *ReservationRepo { return &ReservationRepo{db: db} }

// WithTx returns a ReservationRepo bound to tx.
func (r *ReservationRepo) WithTx(tx *sql.Tx) *ReservationRepo { return &ReservationRepo{db: tx} }

// ReservationSearchQuery filters reservations whose start date falls in
// [From, To) and, when UserID is set, that have a live participant for
// that user.
type ReservationSearchQuery struct {
    From     *time.Time
    To       *time.Time
    UserID   *uint64
    Page     int
    PageSize int
}

const reservationColumns = `r.id, r.start_date, r.end_date, r.reservation_price, r.supplements_price,
        r.amount_received, r.message, r.is_table_communal, r.menu_id, s.id, s.description
        FROM reservations r
        JOIN reservation_statuses s ON s.id = r.status_id`

func scanReservation(sc interface{ Scan(...any) error }, res *model.Reservation) error {
    if err := sc.Scan(
        &res.ID, &res.StartDate, &res.EndDate, &res.ReservationPrice, &res.SupplementsPrice,
        &res.AmountReceived, &res.Message, &res.IsTableCommunal, &res.MenuID,
        &res.Status.ID, &res.Status.Description,
    ); err != nil {
        return err
    }
    res.StatusID = res.Status.ID
    return nil
}

// Create inserts a pending reservation with nothing received yet.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
    const q = `INSERT INTO reservations
        (start_date, end_date, reservation_price, supplements_price, amount_received, message, is_table_communal, status_id, menu_id)
        VALUES (?, ?, ?, ?, 0, ?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q,
        res.StartDate, res.EndDate, res.ReservationPrice, res.SupplementsPrice,
        res.Message, res.IsTableCommunal, model.StatusPending, res.MenuID)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    res.StatusID = model.StatusPending
    res.AmountReceived = decimal.Zero
    return nil
}

// Lock reads the reservation header and holds a row lock until the
// enclosing transaction ends.  Participants are not loaded.
func (r *ReservationRepo) Lock(ctx context.Context, id uint64) (*model.Reservation, error) {
    var res model.Reservation
    err := r.db.QueryRowContext(ctx,
        "SELECT id, status_id, menu_id FROM reservations WHERE id = ? AND deleted_at IS NULL FOR UPDATE", id).
        Scan(&res.ID, &res.StatusID, &res.MenuID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, notFound("Reservation", id)
        }
        return nil, err
    }
    return &res, nil
}

// SetStatus writes status_id.
func (r *ReservationRepo) SetStatus(ctx context.Context, id uint64, statusID uint8) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET status_id = ? WHERE id = ? AND deleted_at IS NULL", statusID, id)
    if err != nil {
        return err
    }
    return expectOne(res, "Reservation", id)
}

// SetSupplement writes supplements_price.  amount_received is untouched.
func (r *ReservationRepo) SetSupplement(ctx context.Context, id uint64, amount decimal.Decimal) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET supplements_price = ? WHERE id = ? AND deleted_at IS NULL", amount, id)
    if err != nil {
        return err
    }
    return expectOne(res, "Reservation", id)
}

// AddReceived credits amount to amount_received.
func (r *ReservationRepo) AddReceived(ctx context.Context, id uint64, amount decimal.Decimal) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET amount_received = amount_received + ? WHERE id = ? AND deleted_at IS NULL", amount, id)
    if err != nil {
        return err
    }
    return expectOne(res, "Reservation", id)
}

// SoftDelete marks the reservation deleted.  Participants are handled by
// the caller in the same transaction.
func (r *ReservationRepo) SoftDelete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE reservations SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL", id)
    if err != nil {
        return err
    }
    return expectOne(res, "Reservation", id)
}

// GetByID returns the reservation with status, participants, their
// discount and dishes.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    var res model.Reservation
    row := r.db.QueryRowContext(ctx, "SELECT "+reservationColumns+" WHERE r.id = ? AND r.deleted_at IS NULL", id)
    if err := scanReservation(row, &res); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, notFound("Reservation", id)
        }
        return nil, err
    }
    list := []model.Reservation{res}
    if err := attachParticipants(ctx, r.db, list); err != nil {
        return nil, err
    }
    return &list[0], nil
}

// Search returns one page of reservations ordered by start date.
func (r *ReservationRepo) Search(ctx context.Context, q ReservationSearchQuery) ([]model.Reservation, int64, error) {
    where := []string{"r.deleted_at IS NULL"}
    args := []any{}
    if q.From != nil {
        where = append(where, "r.start_date >= ?")
        args = append(args, *q.From)
    }
    if q.To != nil {
        where = append(where, "r.start_date < ?")
        args = append(args, *q.To)
    }
    if q.UserID != nil {
        where = append(where, `EXISTS (SELECT 1 FROM participants p
            WHERE p.reservation_id = r.id AND p.user_id = ? AND p.deleted_at IS NULL)`)
        args = append(args, *q.UserID)
    }
    cond := strings.Join(where, " AND ")

    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations r WHERE "+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    dataSQL := "SELECT " + reservationColumns + " WHERE " + cond + " ORDER BY r.start_date ASC, r.id ASC"
    argsData := append([]any{}, args...)
    if q.PageSize > 0 {
        dataSQL += " LIMIT ? OFFSET ?"
        argsData = append(argsData, q.PageSize, offset(q.Page, q.PageSize))
    }
    rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := make([]model.Reservation, 0)
    for rows.Next() {
        var res model.Reservation
        if err := scanReservation(rows, &res); err != nil {
            return nil, 0, err
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    if err := attachParticipants(ctx, r.db, out); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}
