package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// CatalogRepo reads the seeded reference tables: courses, discounts and
// reservation statuses.
type CatalogRepo struct {
    db DBTX
}

func NewCatalogRepo(db DBTX) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) WithTx(tx *sql.Tx) *CatalogRepo { return &CatalogRepo{db: tx} }

// Courses lists the three courses in id order.
func (r *CatalogRepo) Courses(ctx context.Context) ([]model.Course, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM courses ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Course, 0, 3)
    for rows.Next() {
        var c model.Course
        if err := rows.Scan(&c.ID, &c.Name); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// Discounts lists every discount.
func (r *CatalogRepo) Discounts(ctx context.Context) ([]model.Discount, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT id, description, percentage FROM discounts ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Discount, 0)
    for rows.Next() {
        var d model.Discount
        if err := rows.Scan(&d.ID, &d.Description, &d.Percentage); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    return out, rows.Err()
}

// ExistingDiscountIDs returns which ids name a discount.
func (r *CatalogRepo) ExistingDiscountIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
    return existing(ctx, r.db, "SELECT id FROM discounts WHERE id IN (?)", ids)
}

// Status returns one reservation status.
func (r *CatalogRepo) Status(ctx context.Context, id uint8) (*model.ReservationStatus, error) {
    var s model.ReservationStatus
    err := r.db.QueryRowContext(ctx,
        "SELECT id, description FROM reservation_statuses WHERE id = ?", id).Scan(&s.ID, &s.Description)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, notFound("Status", uint64(id))
        }
        return nil, err
    }
    return &s, nil
}
