// Package repository holds the SQL for every entity.  Repositories are bound
// to a DBTX so the same code runs against the pool or inside a transaction;
// WithTx returns a copy scoped to tx.
//
// The error values below let handlers tell failure kinds apart without
// inspecting driver errors.
package repository

import (
    "errors"
    "fmt"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller acts on a resource they do
// not own.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot proceed because of the
// current state: an exhausted menu, or a user still referenced by
// participants.  Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// NotFoundError names the entity kind and id that could not be found
// (missing or soft-deleted).
type NotFoundError struct {
    Entity string
    ID     uint64
}

func (e *NotFoundError) Error() string {
    return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(entity string, id uint64) error { return &NotFoundError{Entity: entity, ID: id} }

// MySQL server error numbers we classify.
const (
    errDupEntry        = 1062
    errRowIsReferenced = 1451
    errNoReferencedRow = 1452
    errOutOfRange      = 1264
)

func mysqlErrorNumber(err error) uint16 {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number
    }
    return 0
}

// IsDuplicate reports a unique-key violation.
func IsDuplicate(err error) bool { return mysqlErrorNumber(err) == errDupEntry }

// IsRowReferenced reports a delete blocked by a foreign key.
func IsRowReferenced(err error) bool { return mysqlErrorNumber(err) == errRowIsReferenced }

// IsMissingParent reports an insert or update pointing at a missing row.
func IsMissingParent(err error) bool { return mysqlErrorNumber(err) == errNoReferencedRow }

// IsOutOfRange reports a numeric value too large for its column.
func IsOutOfRange(err error) bool { return mysqlErrorNumber(err) == errOutOfRange }
