package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestFormatLine(t *testing.T) {
    pid := uint64(4)
    ev := LedgerEvent{
        ID:            "e1",
        Type:          EventPaymentRecorded,
        ReservationID: 9,
        ParticipantID: &pid,
        Amount:        "12.50",
        OccurredAt:    "2026-10-16T10:00:00Z",
    }
    want := "[2026-10-16T10:00:00Z] reservation.payment_recorded | event_id=e1 | reservation_id=9 | participant_id=4 | amount=12.50\n"
    if got := FormatLine(ev); got != want {
        t.Fatalf("got  %q\nwant %q", got, want)
    }
}

func TestHandleMessageAppends(t *testing.T) {
    dir := filepath.Join(t.TempDir(), "logs")
    for _, typ := range []string{EventReservationCreated, EventReservationDeleted} {
        body, err := json.Marshal(NewLedgerEvent(typ, 3))
        if err != nil {
            t.Fatal(err)
        }
        if err := HandleMessage(dir, body); err != nil {
            t.Fatal(err)
        }
    }
    data, err := os.ReadFile(filepath.Join(dir, "ledger.log"))
    if err != nil {
        t.Fatal(err)
    }
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    if len(lines) != 2 || !strings.Contains(lines[1], EventReservationDeleted) {
        t.Fatalf("unexpected log:\n%s", data)
    }
}

func TestHandleMessageRejectsBadBodies(t *testing.T) {
    dir := t.TempDir()
    for _, body := range []string{"not json", `{"type":"reservation.created"}`} {
        if err := HandleMessage(dir, []byte(body)); err == nil {
            t.Errorf("%q accepted", body)
        }
    }
}
