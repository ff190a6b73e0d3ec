package handler

import (
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

// MenuHandler serves menus.  Reads go to the repository, writes through
// the composer.
type MenuHandler struct {
    Menus    *repository.MenuRepo
    Composer *service.MenuService
    Now      func() time.Time
}

func NewMenuHandler(m *repository.MenuRepo, s *service.MenuService) *MenuHandler {
    return &MenuHandler{Menus: m, Composer: s, Now: time.Now}
}

type menuReq struct {
    StartDate        string          `json:"startDate"`
    EndDate          string          `json:"endDate"`
    Price            json.RawMessage `json:"price"`
    OpenReservations json.RawMessage `json:"openReservations"`
    Dishes           json.RawMessage `json:"dishes"`
}

type menuLineReq struct {
    DishID   json.RawMessage `json:"dishId"`
    Quantity json.RawMessage `json:"quantity"`
}

func (r menuReq) toInput(v *validator) service.MenuInput {
    var in service.MenuInput
    in.StartDate, in.EndDate = dateRange(v, r.StartDate, r.EndDate)

    if p, ok := parsePrice(r.Price, maxMenuPrice); ok {
        in.Price = p
    } else {
        v.fail("price", "Price must be a non-negative amount with up to 2 decimals, at most 99.99")
    }

    s, _ := rawScalar(r.OpenReservations)
    n, err := strconv.Atoi(s)
    if err != nil || n < 1 || n > 99 {
        v.fail("openReservations", "Open reservations must be an integer between 1 and 99")
    }
    in.OpenReservations = n

    var lines []json.RawMessage
    if err := json.Unmarshal(r.Dishes, &lines); err != nil || len(lines) == 0 {
        v.fail("dishes", "Dishes must be a non-empty array")
        return in
    }
    for j, raw := range lines {
        var l menuLineReq
        if err := json.Unmarshal(raw, &l); err != nil {
            v.fail("dishes", fmt.Sprintf("Invalid dish at index %d", j))
            return in
        }
        id, ok := parseID(l.DishID)
        if !ok {
            v.fail("dishes", fmt.Sprintf("Invalid dish ID at index %d", j))
            return in
        }
        qs, _ := rawScalar(l.Quantity)
        q, err := strconv.Atoi(qs)
        if err != nil || q < 1 {
            v.fail("dishes", fmt.Sprintf("Invalid quantity at index %d", j))
            return in
        }
        in.Lines = append(in.Lines, model.MenuLine{DishID: id, Quantity: q})
    }
    return in
}

// List handles GET /menus?date=|between=&page=&pageSize=
func (h *MenuHandler) List(c echo.Context) error {
    var v validator
    q := repository.MenuSearchQuery{}
    q.From, q.To = dayFilter(c, &v)
    q.Page, q.PageSize = paging(c, &v)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    rows, total, err := h.Menus.Search(ctx, q)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, model.Page[model.Menu]{Rows: rows, TotalPages: model.TotalPages(total, q.PageSize)})
}

// Next handles GET /menus/nextMenu: the earliest menu that has not ended.
func (h *MenuHandler) Next(c echo.Context) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    m, err := h.Menus.Next(ctx, h.Now().UTC())
    if err != nil {
        return respondError(c, err)
    }
    if m == nil {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "No upcoming menu found"})
    }
    return c.JSON(http.StatusOK, m)
}

// Get handles GET /menus/:id.
func (h *MenuHandler) Get(c echo.Context) error {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    m, err := h.Menus.GetByID(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, m)
}

// Create handles POST /menus.
func (h *MenuHandler) Create(c echo.Context) error {
    var req menuReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    in := req.toInput(&v)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    id, err := h.Composer.CreateMenu(ctx, in)
    if err != nil {
        return respondError(c, err)
    }
    return created(c, fmt.Sprintf("%s/menus/%d", APIPrefix, id))
}

// Replace handles PUT /menus/:id.  The dish set is replaced as a whole.
func (h *MenuHandler) Replace(c echo.Context) error {
    var req menuReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    id := pathID(c, &v, "id")
    in := req.toInput(&v)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Composer.ReplaceMenu(ctx, id, in); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /menus/:id.
func (h *MenuHandler) Delete(c echo.Context) error {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Composer.DeleteMenu(ctx, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Book handles POST /menus/:id/book: takes one open reservation slot.
func (h *MenuHandler) Book(c echo.Context) error {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Composer.DecrementOpenReservations(ctx, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
