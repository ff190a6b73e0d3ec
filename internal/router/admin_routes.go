package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/handler"
    "github.com/iliyamo/restaurant-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// RegisterAdmin registers back-office endpoints.  All routes require a
// valid JWT and the admin role.  Menu and reservation writes purge the
// public menu cache since both change what GET /menus returns.
func RegisterAdmin(e *echo.Echo, h Handlers, opt Options) {
    g := e.Group(
        handler.APIPrefix,
        middleware.JWTAuth(opt.JWTSecret),
        middleware.RequireRole(model.RoleAdmin),
    )
    purge := middleware.PurgeCache(opt.Cache, opt.Redis)

    // ---- Dishes ----
    g.POST("/dishes", h.Dishes.Create)
    g.PUT("/dishes/:id", h.Dishes.Update, purge)
    g.DELETE("/dishes/:id", h.Dishes.Delete, purge)

    // ---- Menus ----
    g.POST("/menus", h.Menus.Create, purge)
    g.PUT("/menus/:id", h.Menus.Replace, purge)
    g.DELETE("/menus/:id", h.Menus.Delete, purge)
    g.POST("/menus/:id/book", h.Menus.Book, purge)

    // ---- Reservations ----
    g.PUT("/reservations/:id", h.Reservations.Update)
    g.DELETE("/reservations/:id", h.Reservations.Delete, purge)
    g.PUT("/reservations/:id/participants/:participantId/payment", h.Reservations.RecordPayment)

    // ---- Users ----
    g.GET("/users", h.Users.List)
    g.DELETE("/users/:id", h.Users.Delete)
}
