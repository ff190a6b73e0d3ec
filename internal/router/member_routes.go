package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/handler"
    "github.com/iliyamo/restaurant-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// RegisterMember registers routes open to any signed-in user.  Handlers
// narrow access further: users see their own profile and the reservations
// they take part in.
func RegisterMember(e *echo.Echo, h Handlers, opt Options) {
    g := e.Group(
        handler.APIPrefix,
        middleware.JWTAuth(opt.JWTSecret),
        middleware.RequireRole(model.RoleUser, model.RoleAdmin),
    )

    g.GET("/courses", h.Catalog.Courses)
    g.GET("/discounts", h.Catalog.Discounts)
    g.GET("/dishes", h.Dishes.List)
    g.GET("/dishes/:id", h.Dishes.Get)
    g.GET("/menus/:id", h.Menus.Get)

    purge := middleware.PurgeCache(opt.Cache, opt.Redis)
    g.GET("/reservations", h.Reservations.List)
    g.POST("/reservations", h.Reservations.Create, purge)
    g.GET("/reservations/:id", h.Reservations.Get)
    g.POST("/reservations/:id/participants", h.Reservations.ReplaceParticipants)

    g.GET("/users/:id", h.Users.Get)
    g.PUT("/users/:id", h.Users.Update)
    g.PATCH("/users/:id/avatar", h.Users.Avatar)
}
