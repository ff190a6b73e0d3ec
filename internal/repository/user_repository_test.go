package repository

import (
    "context"
    "errors"
    "regexp"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
)

func TestUserCreateDuplicateEmail(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectExec("INSERT INTO users").
        WithArgs("Ada", "Lovelace", "ada@example.com", sqlmock.AnyArg(), 1).
        WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

    _, err = NewUserRepo(db).Create(context.Background(), " Ada ", "Lovelace", "ADA@example.com ", "secret123", 4)
    if !errors.Is(err, ErrEmailExists) {
        t.Fatalf("got %v, want ErrEmailExists", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestUserDeleteReferenced(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectExec("DELETE FROM users").WithArgs(uint64(5)).
        WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})

    err = NewUserRepo(db).Delete(context.Background(), 5)
    if !errors.Is(err, ErrConflict) {
        t.Fatalf("got %v, want ErrConflict", err)
    }
}

func TestUserGetByIDMissing(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectQuery("SELECT u.id").WithArgs(uint64(9)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

    _, err = NewUserRepo(db).GetByID(context.Background(), 9)
    var nf *NotFoundError
    if !errors.As(err, &nf) || nf.Entity != "User" || nf.ID != 9 {
        t.Fatalf("got %v, want User not found", err)
    }
}

func TestMySQLClassification(t *testing.T) {
    tests := []struct {
        number uint16
        check  func(error) bool
    }{
        {1062, IsDuplicate},
        {1451, IsRowReferenced},
        {1452, IsMissingParent},
        {1264, IsOutOfRange},
    }
    for _, tt := range tests {
        err := &mysql.MySQLError{Number: tt.number}
        if !tt.check(err) {
            t.Errorf("%d not classified", tt.number)
        }
        if tt.check(errors.New("plain")) {
            t.Errorf("%d: plain error classified", tt.number)
        }
    }
}

func TestUserSearchNameIsLiteral(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users u WHERE (LOWER(u.first_name) LIKE ? ESCAPE '!'")).
        WithArgs("%!_%", "%!_%").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
    mock.ExpectQuery("ORDER BY u.id ASC").WithArgs("%!_%", "%!_%").
        WillReturnRows(sqlmock.NewRows([]string{"id"}))

    if _, _, err := NewUserRepo(db).Search(context.Background(), UserSearchQuery{Name: "_"}); err != nil {
        t.Fatal(err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}
