package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/utils"
)

// UserRepo provides access to `users`.  Users are the only hard-deleted
// entity.
type UserRepo struct {
    db DBTX
}

func NewUserRepo(db DBTX) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) WithTx(tx *sql.Tx) *UserRepo { return &UserRepo{db: tx} }

// UserSearchQuery selects users by id set, by a substring of the first or
// last name, or by exact email.  An email search returns at most one row.
type UserSearchQuery struct {
    IDs      []uint64
    Name     string
    Email    string
    Page     int
    PageSize int
}

const userColumns = `u.id, u.first_name, u.last_name, u.email, u.hashed_password, u.avatar_reference, u.role_id, ro.description
        FROM users u
        JOIN roles ro ON ro.id = u.role_id`

func scanUser(sc interface{ Scan(...any) error }, u *model.User) error {
    return sc.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.AvatarReference, &u.RoleID, &u.Role)
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create hashes the password, inserts a user with the default role and
// returns its ID.
func (r *UserRepo) Create(ctx context.Context, firstName, lastName, email, password string, cost int) (uint64, error) {
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO users (first_name, last_name, email, hashed_password, role_id) VALUES (?,?,?,?,?)",
        strings.TrimSpace(firstName), strings.TrimSpace(lastName), normalizeEmail(email), hash, model.RoleUserID)
    if err != nil {
        if IsDuplicate(err) {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    var u model.User
    if err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" WHERE u.email = ? LIMIT 1", normalizeEmail(email)), &u); err != nil {
        return nil, err
    }
    return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    var u model.User
    if err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userColumns+" WHERE u.id = ? LIMIT 1", id), &u); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, notFound("User", id)
        }
        return nil, err
    }
    return &u, nil
}

// UpdateNames overwrites first and last name.
func (r *UserRepo) UpdateNames(ctx context.Context, id uint64, firstName, lastName string) error {
    res, err := r.db.ExecContext(ctx,
        "UPDATE users SET first_name = ?, last_name = ? WHERE id = ?",
        strings.TrimSpace(firstName), strings.TrimSpace(lastName), id)
    if err != nil {
        return err
    }
    return expectOne(res, "User", id)
}

// UpdateAvatar sets or clears the avatar reference.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, ref *string) error {
    res, err := r.db.ExecContext(ctx, "UPDATE users SET avatar_reference = ? WHERE id = ?", ref, id)
    if err != nil {
        return err
    }
    return expectOne(res, "User", id)
}

// UpdatePassword stores a new bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return err
    }
    res, err := r.db.ExecContext(ctx, "UPDATE users SET hashed_password = ? WHERE id = ?", hash, id)
    if err != nil {
        return err
    }
    return expectOne(res, "User", id)
}

// Delete removes the user row.  A user still named by a participant
// cannot be removed and yields ErrConflict; refresh tokens cascade.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
    if err != nil {
        if IsRowReferenced(err) {
            return fmt.Errorf("%w: user %d is referenced by reservations", ErrConflict, id)
        }
        return err
    }
    return expectOne(res, "User", id)
}

// ExistingIDs returns which of ids name a user.
func (r *UserRepo) ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
    return existing(ctx, r.db, "SELECT id FROM users WHERE id IN (?)", ids)
}

// Search returns one page of users ordered by id.
func (r *UserRepo) Search(ctx context.Context, q UserSearchQuery) ([]model.User, int64, error) {
    where := []string{}
    args := []any{}
    if len(q.IDs) > 0 {
        ids := uniqueIDs(q.IDs)
        where = append(where, "u.id IN ("+placeholders(len(ids))+")")
        args = append(args, idArgs(ids)...)
    }
    if q.Name != "" {
        where = append(where, "(LOWER(u.first_name) LIKE ? ESCAPE '!' OR LOWER(u.last_name) LIKE ? ESCAPE '!')")
        like := containsPattern(q.Name)
        args = append(args, like, like)
    }
    if q.Email != "" {
        where = append(where, "u.email = ?")
        args = append(args, normalizeEmail(q.Email))
    }
    cond := "1=1"
    if len(where) > 0 {
        cond = strings.Join(where, " AND ")
    }

    var total int64
    if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users u WHERE "+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    dataSQL := "SELECT " + userColumns + " WHERE " + cond + " ORDER BY u.id ASC"
    argsData := append([]any{}, args...)
    switch {
    case q.Email != "":
        dataSQL += " LIMIT 1"
    case q.PageSize > 0:
        dataSQL += " LIMIT ? OFFSET ?"
        argsData = append(argsData, q.PageSize, offset(q.Page, q.PageSize))
    }
    rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()

    out := make([]model.User, 0)
    for rows.Next() {
        var u model.User
        if err := scanUser(rows, &u); err != nil {
            return nil, 0, err
        }
        out = append(out, u)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    return out, total, nil
}
