package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Reservation status ids, seeded in this order.
const (
    StatusPending       uint8 = 1
    StatusApproved      uint8 = 2
    StatusRejected      uint8 = 3
    StatusCanceled      uint8 = 4
    StatusCompleted     uint8 = 5
    StatusNonAttendance uint8 = 6
)

// ReservationStatus is one row of `reservation_statuses`.
type ReservationStatus struct {
    ID          uint8  `json:"id"`
    Description string `json:"description"`
}

// Reservation is a table booking together with its ledger totals.
// AmountReceived only grows, always by the same amount credited to one
// of its participants.
type Reservation struct {
    ID               uint64              `json:"id"`
    StartDate        time.Time           `json:"startDate"`
    EndDate          time.Time           `json:"endDate"`
    ReservationPrice decimal.Decimal     `json:"reservationPrice"`
    SupplementsPrice decimal.NullDecimal `json:"supplementsPrice"`
    AmountReceived   decimal.Decimal     `json:"amountReceived"`
    Message          *string             `json:"message"`
    IsTableCommunal  bool                `json:"isTableCommunal"`
    MenuID           *uint64             `json:"menuId,omitempty"`
    StatusID         uint8               `json:"-"`
    Status           ReservationStatus   `json:"status"`
    Participants     []Participant       `json:"participants"`
}
