package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Menu is a priced, dated set of dishes with a capacity counter.
// OpenReservations is decremented by bookings and never goes below zero.
type Menu struct {
    ID               uint64          `json:"id"`
    StartDate        time.Time       `json:"startDate"`
    EndDate          time.Time       `json:"endDate"`
    Price            decimal.Decimal `json:"price"`
    OpenReservations int             `json:"openReservations"`
    Dishes           []MenuDish      `json:"dishes"`
}

// MenuLine is one (dish, quantity) pair as supplied by a caller.
type MenuLine struct {
    DishID   uint64 `json:"dishId"`
    Quantity int    `json:"quantity"`
}

// MenuDish is a menu line as read back, with the dish expanded.
type MenuDish struct {
    Dish
    Quantity int `json:"quantity"`
}
