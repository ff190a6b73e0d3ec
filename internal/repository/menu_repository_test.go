package repository

import (
    "context"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
)

const decrementSQL = `UPDATE menus SET open_reservations = open_reservations - 1`

func TestDecrementOpenReservations(t *testing.T) {
    tests := []struct {
        name     string
        affected int64
        exists   bool
        want     error
    }{
        {name: "slot taken", affected: 1},
        {name: "exhausted", affected: 0, exists: true, want: ErrConflict},
        {name: "missing", affected: 0, exists: false, want: ErrNotFound},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            db, mock, err := sqlmock.New()
            if err != nil {
                t.Fatal(err)
            }
            defer db.Close()

            mock.ExpectExec(decrementSQL).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, tt.affected))
            if tt.affected == 0 {
                rows := sqlmock.NewRows([]string{"1"})
                if tt.exists {
                    rows.AddRow(1)
                }
                mock.ExpectQuery("SELECT 1 FROM menus").WithArgs(uint64(7)).WillReturnRows(rows)
            }

            err = NewMenuRepo(db).DecrementOpenReservations(context.Background(), 7)
            if tt.want == nil && err != nil {
                t.Fatalf("unexpected error %v", err)
            }
            if tt.want != nil && !errors.Is(err, tt.want) {
                t.Fatalf("got %v, want %v", err, tt.want)
            }
            if err := mock.ExpectationsWereMet(); err != nil {
                t.Fatal(err)
            }
        })
    }
}

func TestMenuNotFoundMessage(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    mock.ExpectExec("UPDATE menus SET deleted_at").WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

    err = NewMenuRepo(db).SoftDelete(context.Background(), 3)
    var nf *NotFoundError
    if !errors.As(err, &nf) {
        t.Fatalf("got %v, want NotFoundError", err)
    }
    if got := nf.Error(); got != "Menu with id 3 not found" {
        t.Fatalf("message = %q", got)
    }
}
