package service

import (
    "context"
    "errors"
    "sync/atomic"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/shopspring/decimal"
    "golang.org/x/sync/errgroup"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
)

func menuInput(lines ...model.MenuLine) MenuInput {
    start := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
    return MenuInput{
        StartDate:        start,
        EndDate:          start.Add(3 * time.Hour),
        Price:            decimal.RequireFromString("25.50"),
        OpenReservations: 10,
        Lines:            lines,
    }
}

func TestCreateMenuRollsBackOnUnknownDish(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO menus").WillReturnResult(sqlmock.NewResult(11, 1))
    mock.ExpectQuery("SELECT id FROM dishes").WithArgs(uint64(1), uint64(2)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
    mock.ExpectRollback()

    _, err = NewMenuService(db).CreateMenu(context.Background(),
        menuInput(model.MenuLine{DishID: 1, Quantity: 2}, model.MenuLine{DishID: 2, Quantity: 1}))
    var nf *repository.NotFoundError
    if !errors.As(err, &nf) || nf.Entity != "Dish" || nf.ID != 2 {
        t.Fatalf("got %v, want Dish 2 not found", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestCreateMenuCommits(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO menus").WillReturnResult(sqlmock.NewResult(11, 1))
    mock.ExpectQuery("SELECT id FROM dishes").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
    mock.ExpectExec("INSERT INTO menu_dishes").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    id, err := NewMenuService(db).CreateMenu(context.Background(), menuInput(model.MenuLine{DishID: 1, Quantity: 2}))
    if err != nil {
        t.Fatal(err)
    }
    if id != 11 {
        t.Fatalf("id = %d, want 11", id)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestReplaceMenuTwiceIsStable(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    in := menuInput(model.MenuLine{DishID: 1, Quantity: 2}, model.MenuLine{DishID: 2, Quantity: 1})
    for i := 0; i < 2; i++ {
        mock.ExpectBegin()
        mock.ExpectExec("UPDATE menus SET start_date").WillReturnResult(sqlmock.NewResult(0, 1))
        mock.ExpectExec("DELETE FROM menu_dishes").WithArgs(uint64(11)).WillReturnResult(sqlmock.NewResult(0, 2))
        mock.ExpectQuery("SELECT id FROM dishes").WithArgs(uint64(1), uint64(2)).
            WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
        mock.ExpectExec("INSERT INTO menu_dishes").
            WithArgs(uint64(11), uint64(1), 2, uint64(11), uint64(2), 1).
            WillReturnResult(sqlmock.NewResult(0, 2))
        mock.ExpectCommit()
    }

    svc := NewMenuService(db)
    for i := 0; i < 2; i++ {
        if err := svc.ReplaceMenu(context.Background(), 11, in); err != nil {
            t.Fatalf("replace %d: %v", i+1, err)
        }
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestReplaceMenuRollsBackOnUnknownDish(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec("UPDATE menus SET start_date").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("DELETE FROM menu_dishes").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery("SELECT id FROM dishes").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
    mock.ExpectRollback()

    err = NewMenuService(db).ReplaceMenu(context.Background(), 11,
        menuInput(model.MenuLine{DishID: 1, Quantity: 1}, model.MenuLine{DishID: 9, Quantity: 1}))
    var nf *repository.NotFoundError
    if !errors.As(err, &nf) || nf.Entity != "Dish" || nf.ID != 9 {
        t.Fatalf("got %v, want Dish 9 not found", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestValidateMenu(t *testing.T) {
    tests := []struct {
        name string
        in   MenuInput
        msg  string
    }{
        {"duplicate dish", menuInput(model.MenuLine{DishID: 3, Quantity: 1}, model.MenuLine{DishID: 3, Quantity: 2}), "Duplicate dish ID 3"},
        {"zero quantity", menuInput(model.MenuLine{DishID: 3, Quantity: 0}), "Invalid quantity for dish ID 3"},
        {"no capacity", func() MenuInput { in := menuInput(); in.OpenReservations = 0; return in }(), "Open reservations must be a positive integer"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            var ve *ValidationError
            if err := validateMenu(tt.in); !errors.As(err, &ve) || ve.Errors[0].Message != tt.msg {
                t.Fatalf("got %v, want %q", err, tt.msg)
            }
        })
    }
}

// With K slots left and C concurrent callers, exactly K succeed and the
// rest get a ConflictError.  The mock scripts which UPDATEs match a row,
// so this covers the zero-rows to ConflictError mapping under concurrency;
// the min(C, K) guarantee itself comes from the conditional UPDATE in
// MySQL and is not exercised here.
func TestDecrementOpenReservationsConcurrent(t *testing.T) {
    const callers, slots = 8, 3

    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()
    mock.MatchExpectationsInOrder(false)

    for i := 0; i < slots; i++ {
        mock.ExpectExec("UPDATE menus SET open_reservations").WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
    }
    for i := 0; i < callers-slots; i++ {
        mock.ExpectExec("UPDATE menus SET open_reservations").WithArgs(uint64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
        mock.ExpectQuery("SELECT 1 FROM menus").WithArgs(uint64(5)).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
    }

    svc := NewMenuService(db)
    var ok, conflicts atomic.Int32
    var g errgroup.Group
    for i := 0; i < callers; i++ {
        g.Go(func() error {
            err := svc.DecrementOpenReservations(context.Background(), 5)
            var ce *ConflictError
            switch {
            case err == nil:
                ok.Add(1)
            case errors.As(err, &ce):
                if ce.Message != "Menu with id 5 has no open reservations left" {
                    return err
                }
                conflicts.Add(1)
            default:
                return err
            }
            return nil
        })
    }
    if err := g.Wait(); err != nil {
        t.Fatal(err)
    }
    if ok.Load() != slots || conflicts.Load() != callers-slots {
        t.Fatalf("ok=%d conflicts=%d", ok.Load(), conflicts.Load())
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}
