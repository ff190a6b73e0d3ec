package middleware // middleware holds the request filters shared by every route group

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/utils"
)

// Context keys set by JWTAuth.
const (
    CtxUserID = "user_id" // uint64
    CtxRole   = "role"    // string
)

// JWTAuth validates a Bearer access token and stores the principal id and
// role in the echo context for downstream handlers.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            p, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            c.Set(CtxUserID, p.UserID)
            c.Set(CtxRole, p.Role)
            return next(c)
        }
    }
}
