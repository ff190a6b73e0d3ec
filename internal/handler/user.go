package handler

import (
    "encoding/json"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
)

// UserHandler serves the user directory.
type UserHandler struct {
    Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler { return &UserHandler{Users: u} }

type userNamesReq struct {
    FirstName string `json:"firstName"`
    LastName  string `json:"lastName"`
}

type avatarReq struct {
    AvatarReference json.RawMessage `json:"avatarReference"`
}

// List handles GET /users?ids=1,2&name=&email=&page=&pageSize=
func (h *UserHandler) List(c echo.Context) error {
    var v validator
    q := repository.UserSearchQuery{
        Name:  strings.TrimSpace(c.QueryParam("name")),
        Email: strings.TrimSpace(c.QueryParam("email")),
    }
    if s := strings.TrimSpace(c.QueryParam("ids")); s != "" {
        for _, part := range strings.Split(s, ",") {
            part = strings.TrimSpace(part)
            if !idRe.MatchString(part) {
                v.fail("ids", "Ids must be a comma separated list of positive integers")
                break
            }
            n, _ := strconv.ParseUint(part, 10, 64)
            q.IDs = append(q.IDs, n)
        }
    }
    if q.Email != "" && !validEmail(strings.ToLower(q.Email)) {
        v.fail("email", "Invalid email")
    }
    q.Page, q.PageSize = paging(c, &v)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    rows, total, err := h.Users.Search(ctx, q)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, model.Page[model.User]{Rows: rows, TotalPages: model.TotalPages(total, q.PageSize)})
}

// target parses :id and enforces self-or-admin.
func (h *UserHandler) target(c echo.Context) (uint64, error) {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return 0, err
    }
    if !selfOrAdmin(c, id) {
        return 0, repository.ErrForbidden
    }
    return id, nil
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c echo.Context) error {
    id, err := h.target(c)
    if err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, u)
}

// Update handles PUT /users/:id with first and last name.
func (h *UserHandler) Update(c echo.Context) error {
    var req userNamesReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    id, err := h.target(c)
    if err != nil {
        return respondError(c, err)
    }
    var v validator
    first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
    if first == "" || len(first) > 255 {
        v.fail("firstName", "First name is required")
    }
    if last == "" || len(last) > 255 {
        v.fail("lastName", "Last name is required")
    }
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Users.UpdateNames(ctx, id, first, last); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Avatar handles PATCH /users/:id/avatar.  A null reference clears it.
func (h *UserHandler) Avatar(c echo.Context) error {
    var req avatarReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    id, err := h.target(c)
    if err != nil {
        return respondError(c, err)
    }
    var ref *string
    if !isNull(req.AvatarReference) {
        var s string
        if err := json.Unmarshal(req.AvatarReference, &s); err != nil || strings.TrimSpace(s) == "" || len(s) > 255 {
            var v validator
            v.fail("avatarReference", "Avatar reference must be a non-empty string")
            return respondError(c, v.err())
        }
        s = strings.TrimSpace(s)
        ref = &s
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Users.UpdateAvatar(ctx, id, ref); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
    var v validator
    id := pathID(c, &v, "id")
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Users.Delete(ctx, id); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
