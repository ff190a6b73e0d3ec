package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// HealthHandler reports liveness for load balancers.  It pings the store
// so a lost database shows up as 503.
type HealthHandler struct {
    DB *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler { return &HealthHandler{DB: db} }

func (h *HealthHandler) Health(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    if err := h.DB.PingContext(ctx); err != nil {
        c.Logger().Warnf("health: %v", err)
        return c.String(http.StatusServiceUnavailable, "unavailable")
    }
    return c.String(http.StatusOK, "ok")
}
