package database

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
)

// Seed inserts the fixed reference rows: courses, discounts, reservation
// statuses and roles.  Rows use explicit ids so handlers can rely on them
// (course 1..3, status 1 = pending, role 1 = user) and INSERT IGNORE keeps
// the call idempotent across restarts.
func Seed(ctx context.Context, db *sql.DB) error {
    stmts := []string{
        `INSERT IGNORE INTO courses (id, name) VALUES (1,'starter'),(2,'main'),(3,'dessert')`,
        `INSERT IGNORE INTO discounts (id, description, percentage) VALUES (1,'Child under 12',0.20),(2,'IPP community',0.20)`,
        `INSERT IGNORE INTO reservation_statuses (id, description) VALUES
            (1,'pending'),(2,'approved'),(3,'rejected'),(4,'canceled'),(5,'completed'),(6,'non-attendance')`,
        `INSERT IGNORE INTO roles (id, description) VALUES (1,'user'),(2,'admin')`,
    }
    return WithTx(ctx, db, func(tx *sql.Tx) error {
        for _, s := range stmts {
            if _, err := tx.ExecContext(ctx, s); err != nil {
                return err
            }
        }
        return nil
    })
}

// isDuplicateKeyName reports MySQL error 1061, raised when an index being
// created already exists.
func isDuplicateKeyName(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1061
}
