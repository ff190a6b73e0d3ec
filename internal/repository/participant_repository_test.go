package repository

import (
    "context"
    "errors"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/shopspring/decimal"
)

func TestCreditPaymentUnknownParticipant(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    mock.ExpectExec("UPDATE participants SET amount_paid").
        WithArgs(sqlmock.AnyArg(), uint64(4), uint64(2)).
        WillReturnResult(sqlmock.NewResult(0, 0))

    err = NewParticipantRepo(db).CreditPayment(context.Background(), 2, 4, decimal.RequireFromString("10.50"))
    if !errors.Is(err, ErrNotFound) || err.Error() != "Participant with id 4 not found" {
        t.Fatalf("got %v", err)
    }
}
