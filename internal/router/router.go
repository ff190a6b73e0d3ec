package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/cors"

    "github.com/iliyamo/restaurant-reservation/internal/config"
    "github.com/iliyamo/restaurant-reservation/internal/handler"
    "github.com/iliyamo/restaurant-reservation/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
    Health       *handler.HealthHandler
    Auth         *handler.AuthHandler
    Users        *handler.UserHandler
    Dishes       *handler.DishHandler
    Menus        *handler.MenuHandler
    Reservations *handler.ReservationHandler
    Catalog      *handler.CatalogHandler
}

// Options carries the middleware configuration shared by the route groups.
type Options struct {
    JWTSecret   string
    CORSOrigins []string
    RateLimit   config.RateLimitConfig
    Cache       config.CacheConfig
    Redis       *redis.Client // nil disables rate limiting and caching
}

// New installs CORS and registers every route group on e.
func New(e *echo.Echo, h Handlers, opt Options) {
    c := cors.New(cors.Options{
        AllowedOrigins:   opt.CORSOrigins,
        AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
        AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Authorization"},
        ExposedHeaders:   []string{"Location"},
        AllowCredentials: true,
    })
    e.Use(echo.WrapMiddleware(c.Handler))

    RegisterRoutes(e, h.Health)
    RegisterAuth(e, h.Auth, opt)
    RegisterPublic(e, h.Menus, opt)
    RegisterMember(e, h, opt)
    RegisterAdmin(e, h, opt)
}

// RegisterRoutes registers non-authenticated routes outside the API prefix.
func RegisterRoutes(e *echo.Echo, health *handler.HealthHandler) {
    e.GET("/healthz", health.Health)
}

// RegisterAuth mounts /auth.  Every auth route passes the token bucket;
// account management additionally needs a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, opt Options) {
    g := e.Group(handler.APIPrefix+"/auth", middleware.NewTokenBucket(opt.RateLimit, opt.Redis))
    g.POST("/signUp", a.SignUp)
    g.POST("/signIn", a.SignIn)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    jwt := middleware.JWTAuth(opt.JWTSecret)
    g.GET("/validAccessToken/owner", a.ValidAccessToken, jwt)
    g.POST("/deleteAccount", a.DeleteAccount, jwt)
    g.POST("/updatePassword", a.UpdatePassword, jwt)
}

// RegisterPublic mounts the open menu reads behind the response cache.
func RegisterPublic(e *echo.Echo, m *handler.MenuHandler, opt Options) {
    g := e.Group(handler.APIPrefix, middleware.NewRedisCache(opt.Cache, opt.Redis))
    g.GET("/menus", m.List)
    g.GET("/menus/nextMenu", m.Next)
}
