// Package queue defines ledger events exchanged over RabbitMQ and the
// consumer that turns them into an audit log.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// LedgerQueueName is the durable queue every ledger event goes to.
const LedgerQueueName = "reservation.events"

// Ledger event types.
const (
    EventReservationCreated   = "reservation.created"
    EventParticipantsReplaced = "reservation.participants_replaced"
    EventPaymentRecorded      = "reservation.payment_recorded"
    EventSupplementApplied    = "reservation.supplement_applied"
    EventStatusChanged        = "reservation.status_changed"
    EventReservationDeleted   = "reservation.deleted"
)

// LedgerEvent is published after a ledger transaction commits.  Optional
// fields are only set by the event types they concern.
type LedgerEvent struct {
    ID               string  `json:"id"`
    Type             string  `json:"type"`
    ReservationID    uint64  `json:"reservation_id"`
    ParticipantID    *uint64 `json:"participant_id,omitempty"`
    ParticipantCount int     `json:"participant_count,omitempty"`
    MenuID           *uint64 `json:"menu_id,omitempty"`
    StatusID         *uint8  `json:"status_id,omitempty"`
    Amount           string  `json:"amount,omitempty"`
    OccurredAt       string  `json:"occurred_at"`
}

// NewLedgerEvent stamps a fresh id and the current UTC time.
func NewLedgerEvent(eventType string, reservationID uint64) LedgerEvent {
    return LedgerEvent{
        ID:            uuid.NewString(),
        Type:          eventType,
        ReservationID: reservationID,
        OccurredAt:    time.Now().UTC().Format(time.RFC3339),
    }
}
