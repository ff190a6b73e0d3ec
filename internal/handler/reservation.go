package handler

import (
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

// ReservationHandler exposes the reservation ledger.  Admins see every
// reservation; other users only those they take part in.
type ReservationHandler struct {
    Ledger *service.LedgerService
}

func NewReservationHandler(l *service.LedgerService) *ReservationHandler {
    return &ReservationHandler{Ledger: l}
}

type reservationReq struct {
    StartDate        string          `json:"startDate"`
    EndDate          string          `json:"endDate"`
    ReservationPrice json.RawMessage `json:"reservationPrice"`
    IsTableCommunal  json.RawMessage `json:"isTableCommunal"`
    Message          *string         `json:"message"`
    MenuID           json.RawMessage `json:"menuId"`
    Participants     json.RawMessage `json:"participants"`
}

type participantsReq struct {
    Participants json.RawMessage `json:"participants"`
}

type reservationUpdateReq struct {
    StatusID         json.RawMessage `json:"statusId"`
    SupplementsPrice json.RawMessage `json:"supplementsPrice"`
}

type paymentReq struct {
    AmountPaid json.RawMessage `json:"amountPaid"`
}

// participates reports whether uid is one of the reservation's participants.
func participates(r *model.Reservation, uid uint64) bool {
    for _, p := range r.Participants {
        if p.UserID != nil && *p.UserID == uid {
            return true
        }
    }
    return false
}

// loadForCaller returns the reservation when the caller is an admin or a
// participant.
func (h *ReservationHandler) loadForCaller(c echo.Context, id uint64) (*model.Reservation, error) {
    ctx, cancel := reqCtx(c)
    defer cancel()
    res, err := h.Ledger.Get(ctx, id)
    if err != nil {
        return nil, err
    }
    if isAdmin(c) {
        return res, nil
    }
    uid, err := getUserID(c)
    if err != nil || !participates(res, uid) {
        return nil, repository.ErrForbidden
    }
    return res, nil
}

// List handles GET /reservations?date=|between=&userId=&page=&pageSize=
func (h *ReservationHandler) List(c echo.Context) error {
    var v validator
    q := repository.ReservationSearchQuery{}
    q.From, q.To = dayFilter(c, &v)
    q.Page, q.PageSize = paging(c, &v)
    if s := c.QueryParam("userId"); s != "" {
        n, err := strconv.ParseUint(s, 10, 64)
        if err != nil || !idRe.MatchString(s) {
            v.fail("userId", "Invalid user id")
        } else {
            q.UserID = &n
        }
    }
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    if !isAdmin(c) {
        uid, err := getUserID(c)
        if err != nil || (q.UserID != nil && *q.UserID != uid) {
            return respondError(c, repository.ErrForbidden)
        }
        q.UserID = &uid
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    page, err := h.Ledger.List(ctx, q)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, page)
}

// Get handles GET /reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    res, err := h.loadForCaller(c, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Create handles POST /reservations.  The location is returned only after
// the ledger transaction has committed.
func (h *ReservationHandler) Create(c echo.Context) error {
    var req reservationReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    in := service.ReservationInput{}
    in.StartDate, in.EndDate = dateRange(&v, req.StartDate, req.EndDate)
    if p, ok := parsePrice(req.ReservationPrice, maxLedgerPrice); ok {
        in.ReservationPrice = p
    } else {
        v.fail("reservationPrice", "Reservation price must be a non-negative amount with up to 2 decimals")
    }
    if b, ok := parseBool(req.IsTableCommunal); ok {
        in.IsTableCommunal = b
    } else {
        v.fail("isTableCommunal", "isTableCommunal must be a boolean")
    }
    if req.Message != nil {
        if m := strings.TrimSpace(*req.Message); m != "" {
            in.Message = &m
        }
    }
    if !isNull(req.MenuID) {
        if id, ok := parseID(req.MenuID); ok {
            in.MenuID = &id
        } else {
            v.fail("menuId", "Invalid menu id")
        }
    }
    parts, perr := parseParticipants(req.Participants)
    v.merge(perr)
    in.Participants = parts
    if err := v.err(); err != nil {
        return respondError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    id, err := h.Ledger.CreateReservation(ctx, in)
    if err != nil {
        return respondError(c, err)
    }
    return created(c, fmt.Sprintf("%s/reservations/%d", APIPrefix, id))
}

// ReplaceParticipants handles POST /reservations/:id/participants.
func (h *ReservationHandler) ReplaceParticipants(c echo.Context) error {
    var req participantsReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    id := pathID(c, &v, "id")
    parts, perr := parseParticipants(req.Participants)
    v.merge(perr)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    if _, err := h.loadForCaller(c, id); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Ledger.UpdateParticipants(ctx, id, parts); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Update handles PUT /reservations/:id with statusId and/or
// supplementsPrice.
func (h *ReservationHandler) Update(c echo.Context) error {
    var req reservationUpdateReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    id := pathID(c, &v, "id")
    hasStatus, hasSupplement := !isNull(req.StatusID), !isNull(req.SupplementsPrice)
    if !hasStatus && !hasSupplement {
        v.fail("statusId", "Provide statusId or supplementsPrice")
    }
    var statusID uint8
    if hasStatus {
        n, ok := parseID(req.StatusID)
        if !ok || n > 255 {
            v.fail("statusId", "Invalid status id")
        }
        statusID = uint8(n)
    }
    supplement, ok := parsePrice(req.SupplementsPrice, maxLedgerPrice)
    if hasSupplement && !ok {
        v.fail("supplementsPrice", "Supplements price must be a non-negative amount with up to 2 decimals")
    }
    if err := v.err(); err != nil {
        return respondError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    var upd service.ReservationUpdate
    if hasStatus {
        upd.StatusID = &statusID
    }
    if hasSupplement {
        upd.SupplementsPrice = &supplement
    }
    if err := h.Ledger.UpdateReservation(ctx, id, upd); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// RecordPayment handles PUT /reservations/:id/participants/:participantId/payment.
func (h *ReservationHandler) RecordPayment(c echo.Context) error {
    var req paymentReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    id := pathID(c, &v, "id")
    pid := pathID(c, &v, "participantId")
    amount, ok := parsePrice(req.AmountPaid, maxLedgerPrice)
    if !ok || !amount.IsPositive() {
        v.fail("amountPaid", "Amount paid must be a positive amount with up to 2 decimals")
    }
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Ledger.RecordPayment(ctx, id, pid, amount); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /reservations/:id.
func (h *ReservationHandler) Delete(c echo.Context) error {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Ledger.DeleteReservation(ctx, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
