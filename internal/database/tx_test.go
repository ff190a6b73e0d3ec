package database

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
)

func TestWithTxCommitsOnSuccess(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec("UPDATE menus").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    err = WithTx(context.Background(), db, func(tx *sql.Tx) error {
        _, err := tx.Exec("UPDATE menus SET price = 1")
        return err
    })
    if err != nil {
        t.Fatalf("WithTx: %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestWithTxRollsBackOnError(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    boom := errors.New("boom")
    mock.ExpectBegin()
    mock.ExpectRollback()

    err = WithTx(context.Background(), db, func(*sql.Tx) error { return boom })
    if !errors.Is(err, boom) {
        t.Fatalf("got %v, want boom", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectRollback()

    func() {
        defer func() { _ = recover() }()
        _ = WithTx(context.Background(), db, func(*sql.Tx) error { panic("bad") })
    }()
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestIsDuplicateKeyName(t *testing.T) {
    dup := &mysql.MySQLError{Number: 1061, Message: "Duplicate key name"}
    if !isDuplicateKeyName(dup) {
        t.Fatal("bare 1061 not detected")
    }
    if !isDuplicateKeyName(fmt.Errorf("create index: %w", dup)) {
        t.Fatal("wrapped 1061 not detected")
    }
    if isDuplicateKeyName(&mysql.MySQLError{Number: 1062}) {
        t.Fatal("1062 taken for a duplicate key name")
    }
}
