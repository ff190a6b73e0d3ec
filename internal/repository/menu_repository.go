package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// MenuRepo provides access to `menus` and the `menu_dishes` join.
type MenuRepo struct {
    db DBTX
}

func NewMenuRepo(db DBTX) *MenuRepo { return &MenuRepo{db: db} }

// WithTx returns a MenuRepo bound to tx.
func (r *MenuRepo) WithTx(tx *sql.Tx) *MenuRepo { return &MenuRepo{db: tx} }

// MenuSearchQuery filters menus whose start date falls in [From, To).
// A nil bound is open.  PageSize 0 returns every match.
type MenuSearchQuery struct {
    From     *time.Time
    To       *time.Time
    Page     int
    PageSize int
}

const menuColumns = "id, start_date, end_date, price, open_reservations FROM menus"

func scanMenu(sc interface{ Scan(...any) error }, m *model.Menu) error {
    return sc.Scan(&m.ID, &m.StartDate, &m.EndDate, &m.Price, &m.OpenReservations)
}

// Create inserts the menu row only; lines are added with InsertLines.
func (r *MenuRepo) Create(ctx context.Context, m *model.Menu) error {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO menus (start_date, end_date, price, open_reservations) VALUES (?,?,?,?)",
        m.StartDate, m.EndDate, m.Price, m.OpenReservations)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    return nil
}

// Update overwrites the scalar columns of a live menu.
func (r *MenuRepo) Update(ctx context.Context, m *model.Menu) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE menus SET start_date = ?, end_date = ?, price = ?, open_reservations = ? WHERE id = ? AND deleted_at IS NULL",
        m.StartDate, m.EndDate, m.Price, m.OpenReservations, m.ID)
    if err != nil {
        return err
    }
    return expectOne(res, "Menu", m.ID)
}

// ClearLines removes every line of the menu.
func (r *MenuRepo) ClearLines(ctx context.Context, menuID uint64) error {
    _, err := r.db.ExecContext(ctx, "DELETE FROM menu_dishes WHERE menu_id = ?", menuID)
    return err
}

// InsertLines adds all lines in one statement.  An empty slice is a no-op.
func (r *MenuRepo) InsertLines(ctx context.Context, menuID uint64, lines []model.MenuLine) error {
    if len(lines) == 0 {
        return nil
    }
    query := "INSERT INTO menu_dishes (menu_id, dish_id, dish_quantity) VALUES "
    args := make([]any, 0, len(lines)*3)
    for i, l := range lines {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, menuID, l.DishID, l.Quantity)
    }
    _, err := r.db.ExecContext(ctx, query, args...)
    return err
}

// Exists reports whether a live menu has this id.
func (r *MenuRepo) Exists(ctx context.Context, id uint64) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx, "SELECT 1 FROM menus WHERE id = ? AND deleted_at IS NULL", id).Scan(&one)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    return err == nil, err
}

// DecrementOpenReservations takes one slot from the menu in a single
// conditional UPDATE.  When no row matches, the menu is either missing
// (not-found) or already at zero (ErrConflict).
func (r *MenuRepo) DecrementOpenReservations(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE menus SET open_reservations = open_reservations - 1 WHERE id = ? AND open_reservations > 0 AND deleted_at IS NULL", id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    ok, err := r.Exists(ctx, id)
    if err != nil {
        return err
    }
    if !ok {
        return notFound("Menu", id)
    }
    return fmt.Errorf("%w: menu %d has no open reservations", ErrConflict, id)
}

// IncrementOpenReservations gives a slot back.  A deleted menu is left
// untouched.
func (r *MenuRepo) IncrementOpenReservations(ctx context.Context, id uint64) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE menus SET open_reservations = open_reservations + 1 WHERE id = ? AND deleted_at IS NULL", id)
    return err
}

// SoftDelete marks the menu deleted.  Lines stay for audit.
func (r *MenuRepo) SoftDelete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE menus SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL", id)
    if err != nil {
        return err
    }
    return expectOne(res, "Menu", id)
}

// GetByID returns the menu with its lines.
func (r *MenuRepo) GetByID(ctx context.Context, id uint64) (*model.Menu, error) {
    var m model.Menu
    row := r.db.QueryRowContext(ctx, "SELECT "+menuColumns+" WHERE id = ? AND deleted_at IS NULL", id)
    if err := scanMenu(row, &m); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, notFound("Menu", id)
        }
        return nil, err
    }
    menus := []model.Menu{m}
    if err := r.loadLines(ctx, menus); err != nil {
        return nil, err
    }
    return &menus[0], nil
}

// Next returns the earliest live menu that has not ended at now, or nil.
func (r *MenuRepo) Next(ctx context.Context, now time.Time) (*model.Menu, error) {
    var m model.Menu
    row := r.db.QueryRowContext(ctx,
        "SELECT "+menuColumns+" WHERE deleted_at IS NULL AND end_date >= ? ORDER BY start_date ASC, id ASC LIMIT 1", now)
    if err := scanMenu(row, &m); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, nil
        }
        return nil, err
    }
    menus := []model.Menu{m}
    if err := r.loadLines(ctx, menus); err != nil {
        return nil, err
    }
    return &menus[0], nil
}

// Search returns one page of menus ordered by start date, lines included.
func (r *MenuRepo) Search(ctx context.Context, q MenuSearchQuery) ([]model.Menu, int64, error) {
    where := []string{"deleted_at IS NULL"}
    args := []any{}
    if q.From != nil {
        where = append(where, "start_date >= ?")
        args = append(args, *q.From)
    }
    if q.To != nil {
        where = append(where, "start_date < ?")
        args = append(args, *q.To)
    }
    cond := strings.Join(where, " AND ")

    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM menus WHERE "+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    dataSQL := "SELECT " + menuColumns + " WHERE " + cond + " ORDER BY start_date ASC, id ASC"
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

    out := make([]model.Menu, 0)
    for rows.Next() {
        var m model.Menu
        if err := scanMenu(rows, &m); err != nil {
            return nil, 0, err
        }
        out = append(out, m)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    if err := r.loadLines(ctx, out); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// loadLines fills Dishes on every menu with one query.
func (r *MenuRepo) loadLines(ctx context.Context, menus []model.Menu) error {
    if len(menus) == 0 {
        return nil
    }
    index := make(map[uint64]int, len(menus))
    ids := make([]uint64, 0, len(menus))
    for i := range menus {
        menus[i].Dishes = []model.MenuDish{}
        index[menus[i].ID] = i
        ids = append(ids, menus[i].ID)
    }
    const q = `SELECT md.menu_id, md.dish_quantity, d.id, d.name, d.is_a_la_carte, c.id, c.name
        FROM menu_dishes md
        JOIN dishes d  ON d.id = md.dish_id AND d.deleted_at IS NULL
        JOIN courses c ON c.id = d.course_id
        WHERE md.menu_id IN (%s)
        ORDER BY md.menu_id, c.id, d.id`
    rows, err := r.db.QueryContext(ctx, fmt.Sprintf(q, placeholders(len(ids))), idArgs(ids)...)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var menuID uint64
        var md model.MenuDish
        if err := rows.Scan(&menuID, &md.Quantity, &md.ID, &md.Name, &md.IsALaCarte, &md.Course.ID, &md.Course.Name); err != nil {
            return err
        }
        md.CourseID = md.Course.ID
        if i, ok := index[menuID]; ok {
            menus[i].Dishes = append(menus[i].Dishes, md)
        }
    }
    return rows.Err()
}
