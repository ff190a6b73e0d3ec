package repository

import (
    "context"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestRevokeByHashSpendsOnce(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").WithArgs("h1").WillReturnResult(sqlmock.NewResult(0, 0))

    tokens := NewTokenRepo(db)
    if err := tokens.RevokeByHash(context.Background(), "h1"); err != nil {
        t.Fatal(err)
    }
    if err := tokens.RevokeByHash(context.Background(), "h1"); !errors.Is(err, ErrInvalidRefresh) {
        t.Fatalf("second revoke: got %v", err)
    }
}

func TestValidateRefreshUnknown(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectQuery("SELECT user_id FROM refresh_tokens").WithArgs("nope").WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
    if _, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "nope"); !errors.Is(err, ErrInvalidRefresh) {
        t.Fatalf("got %v", err)
    }
}
