package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated principal as a string key
// component, or "anon" on unauthenticated routes.
func currentUserID(c echo.Context) string {
    switch v := c.Get(CtxUserID).(type) {
    case uint64:
        if v != 0 {
            return strconv.FormatUint(v, 10)
        }
    case string:
        if v != "" {
            return v
        }
    }
    return "anon"
}
