package handler

import (
    "context"
    "errors"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// APIPrefix is where every resource route is mounted.
const APIPrefix = "/api/v1"

const dbTimeout = 5 * time.Second

// reqCtx bounds store calls made on behalf of one request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// getUserID reads the principal id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get(middleware.CtxUserID).(type) {
    case uint64:
        if t != 0 {
            return t, nil
        }
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

func isAdmin(c echo.Context) bool {
    role, _ := c.Get(middleware.CtxRole).(string)
    return role == model.RoleAdmin
}

// selfOrAdmin reports whether the caller may act on user id.
func selfOrAdmin(c echo.Context, id uint64) bool {
    if isAdmin(c) {
        return true
    }
    uid, err := getUserID(c)
    return err == nil && uid == id
}
