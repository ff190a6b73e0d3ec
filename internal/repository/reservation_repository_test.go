package repository

import (
    "context"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
)

func TestReservationGetByIDSkipsDeletedDishes(t *testing.T) {
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatal(err)
    }
    defer db.Close()

    start := time.Date(2026, 12, 24, 20, 0, 0, 0, time.UTC)
    mock.ExpectQuery("FROM reservations r").WithArgs(uint64(7)).WillReturnRows(
        sqlmock.NewRows([]string{"id", "start_date", "end_date", "reservation_price", "supplements_price",
            "amount_received", "message", "is_table_communal", "menu_id", "status_id", "description"}).
            AddRow(int64(7), start, start.Add(2*time.Hour), "60.00", nil, "0.00", nil, false, nil, int64(1), "pending"))
    mock.ExpectQuery(regexp.QuoteMeta("FROM participants p")).WithArgs(uint64(7)).WillReturnRows(
        sqlmock.NewRows([]string{"id", "reservation_id", "user_id", "name", "email", "reservation_price",
            "amount_paid", "dc_id", "dc_description", "dc_percentage"}).
            AddRow(int64(2), int64(7), int64(3), nil, nil, "30.00", "0.00", nil, nil, nil))
    mock.ExpectQuery(regexp.QuoteMeta("JOIN dishes d ON d.id = pd.dish_id AND d.deleted_at IS NULL")).
        WithArgs(uint64(2)).WillReturnRows(
        sqlmock.NewRows([]string{"participant_id", "id", "name", "is_a_la_carte", "course_id", "course_name"}).
            AddRow(int64(2), int64(5), "Soup", false, int64(1), "starter"))

    res, err := NewReservationRepo(db).GetByID(context.Background(), 7)
    if err != nil {
        t.Fatal(err)
    }
    if len(res.Participants) != 1 {
        t.Fatalf("participants = %d, want 1", len(res.Participants))
    }
    if d := res.Participants[0].Dishes; len(d) != 1 || d[0].ID != 5 {
        t.Fatalf("dishes = %+v", d)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}
