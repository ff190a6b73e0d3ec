package handler

import (
    "encoding/json"
    "fmt"
    "strings"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

// parseParticipants turns the JSON participants array into inputs.  The
// first bad entry stops parsing and its index is named in the message.
func parseParticipants(raw json.RawMessage) ([]model.ParticipantInput, *service.ValidationError) {
    var items []json.RawMessage
    if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
        return nil, service.Invalid("participants", "Participants must be a non-empty array")
    }
    out := make([]model.ParticipantInput, 0, len(items))
    for i, item := range items {
        p, err := parseParticipant(i, item)
        if err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, nil
}

func parseParticipant(i int, raw json.RawMessage) (model.ParticipantInput, *service.ValidationError) {
    var p model.ParticipantInput
    var f map[string]json.RawMessage
    if err := json.Unmarshal(raw, &f); err != nil || f == nil {
        return p, service.ParticipantError(i, "")
    }

    hasUser := !isNull(f["userId"])
    hasGuest := !isNull(f["name"]) || !isNull(f["email"])
    switch {
    case hasUser && hasGuest:
        return p, service.ParticipantError(i, "Provide either a user id or a name and email, not both")
    case hasUser:
        uid, ok := parseID(f["userId"])
        if !ok {
            return p, service.ParticipantError(i, "Invalid user id")
        }
        p.Identity = model.UserParticipant{UserID: uid}
    default:
        var name, email string
        errName := json.Unmarshal(f["name"], &name)
        errEmail := json.Unmarshal(f["email"], &email)
        name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
        if errName != nil || errEmail != nil || name == "" || len(name) > 255 || !validEmail(email) {
            return p, service.ParticipantError(i, "Invalid name or email")
        }
        p.Identity = model.GuestParticipant{Name: name, Email: email}
    }

    price, ok := parsePrice(f["reservationPrice"], maxLedgerPrice)
    if !ok {
        return p, service.ParticipantError(i, "Invalid reservation price")
    }
    p.ReservationPrice = price

    if !isNull(f["discountId"]) {
        did, ok := parseID(f["discountId"])
        if !ok || did > 255 {
            return p, service.ParticipantError(i, "Invalid discount id")
        }
        d := uint8(did)
        p.DiscountID = &d
    }

    var dishes []json.RawMessage
    if err := json.Unmarshal(f["dishesIds"], &dishes); err != nil || len(dishes) == 0 {
        return p, service.ParticipantError(i, "Missing dishes IDs array")
    }
    for j, d := range dishes {
        id, ok := parseID(d)
        if !ok {
            return p, service.ParticipantError(i, fmt.Sprintf("Invalid dish ID at index %d", j))
        }
        p.DishIDs = append(p.DishIDs, id)
    }
    return p, nil
}
