package model

import (
    "strconv"
    "strings"

    "github.com/shopspring/decimal"
)

// ParticipantIdentity is either a UserParticipant or a GuestParticipant.
// The unexported method closes the set so no other form can be built.
type ParticipantIdentity interface {
    participantIdentity()
}

// UserParticipant identifies a participant by a registered user.
type UserParticipant struct {
    UserID uint64
}

// GuestParticipant identifies a participant who has no account.
type GuestParticipant struct {
    Name  string
    Email string
}

func (UserParticipant) participantIdentity()  {}
func (GuestParticipant) participantIdentity() {}

// ParticipantInput is everything needed to create one participant row and
// its dish selections.  DishIDs may contain duplicates.
type ParticipantInput struct {
    Identity         ParticipantIdentity
    ReservationPrice decimal.Decimal
    DiscountID       *uint8
    DishIDs          []uint64
}

// Participant is a participant row as read back.  Exactly one of UserID or
// the Name/Email pair is set.
type Participant struct {
    ID               uint64          `json:"id"`
    ReservationID    uint64          `json:"-"`
    UserID           *uint64         `json:"userId,omitempty"`
    Name             *string         `json:"name,omitempty"`
    Email            *string         `json:"email,omitempty"`
    ReservationPrice decimal.Decimal `json:"reservationPrice"`
    AmountPaid       decimal.Decimal `json:"amountPaid"`
    Discount         *Discount       `json:"discount"`
    Dishes           []Dish          `json:"dishes"`
}

// Identity rebuilds the tagged identity from the stored columns.
func (p Participant) Identity() ParticipantIdentity {
    if p.UserID != nil {
        return UserParticipant{UserID: *p.UserID}
    }
    var g GuestParticipant
    if p.Name != nil {
        g.Name = *p.Name
    }
    if p.Email != nil {
        g.Email = *p.Email
    }
    return g
}

// IdentityColumns splits an identity into the nullable user_id, name and
// email column values.
func IdentityColumns(id ParticipantIdentity) (userID *uint64, name, email *string) {
    switch v := id.(type) {
    case UserParticipant:
        uid := v.UserID
        return &uid, nil, nil
    case GuestParticipant:
        n, e := v.Name, v.Email
        return nil, &n, &e
    }
    return nil, nil, nil
}

// IdentityKey is a comparable form of an identity: "user:<id>" or
// "guest:<email>" with the email lowercased.
func IdentityKey(id ParticipantIdentity) string {
    switch v := id.(type) {
    case UserParticipant:
        return "user:" + strconv.FormatUint(v.UserID, 10)
    case GuestParticipant:
        return "guest:" + strings.ToLower(v.Email)
    }
    return ""
}
