package repository

import (
    "context"
    "database/sql"
    "strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func idArgs(ids []uint64) []any {
    out := make([]any, len(ids))
    for i, id := range ids {
        out[i] = id
    }
    return out
}

// uniqueIDs drops duplicates while keeping first-seen order.
func uniqueIDs(ids []uint64) []uint64 {
    seen := make(map[uint64]bool, len(ids))
    out := make([]uint64, 0, len(ids))
    for _, id := range ids {
        if !seen[id] {
            seen[id] = true
            out = append(out, id)
        }
    }
    return out
}

// existing runs a "SELECT id ... WHERE id IN (...)" style query and returns
// the set of ids that came back.
func existing(ctx context.Context, q DBTX, query string, ids []uint64) (map[uint64]bool, error) {
    found := make(map[uint64]bool, len(ids))
    ids = uniqueIDs(ids)
    if len(ids) == 0 {
        return found, nil
    }
    rows, err := q.QueryContext(ctx, strings.Replace(query, "(?)", "("+placeholders(len(ids))+")", 1), idArgs(ids)...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        found[id] = true
    }
    return found, rows.Err()
}

// likeEscape is the escape character declared by every LIKE built with
// containsPattern.
const likeEscape = "!"

// containsPattern turns user text into a lowercase substring pattern for
// `LIKE ? ESCAPE '!'`, so % and _ match themselves.
func containsPattern(s string) string {
    r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
    return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// offset converts a 1-based page into a row offset.
func offset(page, pageSize int) int {
    if page < 1 {
        page = 1
    }
    return (page - 1) * pageSize
}
