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
)

// DishHandler serves the dish catalog.
type DishHandler struct {
    Dishes *repository.DishRepo
}

func NewDishHandler(d *repository.DishRepo) *DishHandler { return &DishHandler{Dishes: d} }

type dishReq struct {
    Name       json.RawMessage `json:"name"`
    CourseID   json.RawMessage `json:"courseId"`
    IsALaCarte json.RawMessage `json:"isALaCarte"`
}

func (r dishReq) toDish(v *validator) model.Dish {
    var d model.Dish
    var name string
    if err := json.Unmarshal(r.Name, &name); err != nil || strings.TrimSpace(name) == "" || len(name) > 65 {
        v.fail("name", "Name must be a non-empty string of at most 65 characters")
    }
    d.Name = strings.TrimSpace(name)
    if id, ok := parseID(r.CourseID); ok && id <= 3 {
        d.CourseID = uint8(id)
    } else {
        v.fail("courseId", "Course id must be 1, 2 or 3")
    }
    if b, ok := parseBool(r.IsALaCarte); ok {
        d.IsALaCarte = b
    } else {
        v.fail("isALaCarte", "isALaCarte must be a boolean")
    }
    return d
}

// List handles GET /dishes?name=&course=&order=asc|desc|newest|oldest&page=&pageSize=
func (h *DishHandler) List(c echo.Context) error {
    var v validator
    q := repository.DishSearchQuery{Name: strings.TrimSpace(c.QueryParam("name"))}
    if s := c.QueryParam("course"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 1 || n > 3 {
            v.fail("course", "Course must be 1, 2 or 3")
        }
        q.CourseID = uint8(n)
    }
    switch o := strings.ToLower(c.QueryParam("order")); o {
    case "", "asc", "desc", "newest", "oldest":
        q.Order = o
    default:
        v.fail("order", "Order must be one of asc, desc, newest, oldest")
    }
    q.Page, q.PageSize = paging(c, &v)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    rows, total, err := h.Dishes.Search(ctx, q)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, model.Page[model.Dish]{Rows: rows, TotalPages: model.TotalPages(total, q.PageSize)})
}

// Create handles POST /dishes.
func (h *DishHandler) Create(c echo.Context) error {
    var req dishReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    d := req.toDish(&v)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Dishes.Create(ctx, &d); err != nil {
        return respondError(c, err)
    }
    return created(c, fmt.Sprintf("%s/dishes/%d", APIPrefix, d.ID))
}

// Get handles GET /dishes/:id.
func (h *DishHandler) Get(c echo.Context) error {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    d, err := h.Dishes.GetByID(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, d)
}

// Update handles PUT /dishes/:id as a full replacement.
func (h *DishHandler) Update(c echo.Context) error {
    var req dishReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    id := pathID(c, &v, "id")
    d := req.toDish(&v)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    d.ID = id
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Dishes.Update(ctx, &d); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /dishes/:id (soft delete).
func (h *DishHandler) Delete(c echo.Context) error {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Dishes.SoftDelete(ctx, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
