package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// DishRepo reads and writes the `dishes` table.  Soft-deleted dishes are
// invisible to every method.
type DishRepo struct {
    db DBTX
}

func NewDishRepo(db DBTX) *DishRepo { return &DishRepo{db: db} }

// WithTx returns a DishRepo bound to tx.
func (r *DishRepo) WithTx(tx *sql.Tx) *DishRepo { return &DishRepo{db: tx} }

// DishSearchQuery defines filters & pagination for listing dishes.
// Order is one of asc, desc (by name), newest, oldest (by creation time).
// PageSize 0 returns every matching row.
type DishSearchQuery struct {
    Name     string
    CourseID uint8
    Order    string
    Page     int
    PageSize int
}

const dishColumns = `d.id, d.name, d.is_a_la_carte, c.id, c.name
        FROM dishes d
        JOIN courses c ON c.id = d.course_id`

func scanDish(sc interface{ Scan(...any) error }, d *model.Dish) error {
    if err := sc.Scan(&d.ID, &d.Name, &d.IsALaCarte, &d.Course.ID, &d.Course.Name); err != nil {
        return err
    }
    d.CourseID = d.Course.ID
    return nil
}

// Create inserts a dish and sets its ID.
func (r *DishRepo) Create(ctx context.Context, d *model.Dish) error {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO dishes (name, course_id, is_a_la_carte) VALUES (?,?,?)",
        d.Name, d.CourseID, d.IsALaCarte)
    if err != nil {
        if IsMissingParent(err) {
            return notFound("Course", uint64(d.CourseID))
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    d.ID = uint64(id)
    return nil
}

// GetByID returns a dish with its course.
func (r *DishRepo) GetByID(ctx context.Context, id uint64) (*model.Dish, error) {
    var d model.Dish
    row := r.db.QueryRowContext(ctx, "SELECT "+dishColumns+" WHERE d.id = ? AND d.deleted_at IS NULL", id)
    if err := scanDish(row, &d); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, notFound("Dish", id)
        }
        return nil, err
    }
    return &d, nil
}

// Update overwrites name, course and flag.
func (r *DishRepo) Update(ctx context.Context, d *model.Dish) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE dishes SET name = ?, course_id = ?, is_a_la_carte = ? WHERE id = ? AND deleted_at IS NULL",
        d.Name, d.CourseID, d.IsALaCarte, d.ID)
    if err != nil {
        if IsMissingParent(err) {
            return notFound("Course", uint64(d.CourseID))
        }
        return err
    }
    return expectOne(res, "Dish", d.ID)
}

// SoftDelete marks the dish deleted.  Menus and participants keep their
// links for audit.
func (r *DishRepo) SoftDelete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE dishes SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL", id)
    if err != nil {
        return err
    }
    return expectOne(res, "Dish", id)
}

// ExistingIDs returns which of ids name live dishes.
func (r *DishRepo) ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
    return existing(ctx, r.db, "SELECT id FROM dishes WHERE id IN (?) AND deleted_at IS NULL", ids)
}

// Search returns one page of dishes and the total number of matches.
func (r *DishRepo) Search(ctx context.Context, q DishSearchQuery) ([]model.Dish, int64, error) {
    where := []string{"d.deleted_at IS NULL"}
    args := []any{}

    if q.Name != "" {
        where = append(where, "LOWER(d.name) LIKE ? ESCAPE '!'")
        args = append(args, containsPattern(q.Name))
    }
    if q.CourseID != 0 {
        where = append(where, "d.course_id = ?")
        args = append(args, q.CourseID)
    }
    cond := strings.Join(where, " AND ")

    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dishes d WHERE "+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    order := "d.id ASC"
    switch strings.ToLower(q.Order) {
    case "asc":
        order = "d.name ASC"
    case "desc":
        order = "d.name DESC"
    case "newest":
        order = "d.created_at DESC, d.id DESC"
    case "oldest":
        order = "d.created_at ASC, d.id ASC"
    }

    dataSQL := "SELECT " + dishColumns + " WHERE " + cond + " ORDER BY " + order
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

    out := make([]model.Dish, 0)
    for rows.Next() {
        var d model.Dish
        if err := scanDish(rows, &d); err != nil {
            return nil, 0, err
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// expectOne turns a zero-row update into a not-found error.
func expectOne(res sql.Result, entity string, id uint64) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return notFound(entity, id)
    }
    return nil
}
