package main // Entry point package

import (
    "context"
    "errors"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/labstack/gommon/log"
    "golang.org/x/sync/errgroup"

    "github.com/iliyamo/restaurant-reservation/internal/config"
    "github.com/iliyamo/restaurant-reservation/internal/database"
    "github.com/iliyamo/restaurant-reservation/internal/handler"
    "github.com/iliyamo/restaurant-reservation/internal/queue"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
    "github.com/iliyamo/restaurant-reservation/internal/router"
    "github.com/iliyamo/restaurant-reservation/internal/service"
)

const ledgerDir = "logs"

func main() {
    cfg := config.Load()

    e := echo.New()
    e.HideBanner = true
    if cfg.IsDev() {
        e.Logger.SetLevel(log.DEBUG)
        log.SetLevel(log.DEBUG)
    } else {
        e.Logger.SetLevel(log.INFO)
        log.SetLevel(log.INFO)
    }
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
    e.Use(echomw.Logger())
    e.Use(echomw.Recover())

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        e.Logger.Fatalf("open database: %v", err)
    }
    defer db.Close()

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    if cfg.DBMigrate {
        if err := database.Migrate(ctx, db); err != nil {
            e.Logger.Fatalf("migrate: %v", err)
        }
        if err := database.Seed(ctx, db); err != nil {
            e.Logger.Fatalf("seed: %v", err)
        }
    }

    rdb := config.NewRedisClient()
    if rdb == nil {
        e.Logger.Warn("redis unavailable: rate limiting and caching disabled")
    } else {
        defer rdb.Close()
    }

    var publisher service.EventPublisher = service.NopPublisher{}
    if cfg.QueueEnabled {
        publisher = service.NewAMQPPublisher(cfg.RabbitMQURL)
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    dishes := repository.NewDishRepo(db)
    menus := repository.NewMenuRepo(db)

    router.New(e, router.Handlers{
        Health:       handler.NewHealthHandler(db),
        Auth:         handler.NewAuthHandler(cfg, users, tokens),
        Users:        handler.NewUserHandler(users),
        Dishes:       handler.NewDishHandler(dishes),
        Menus:        handler.NewMenuHandler(menus, service.NewMenuService(db)),
        Reservations: handler.NewReservationHandler(service.NewLedgerService(db, publisher)),
        Catalog:      handler.NewCatalogHandler(repository.NewCatalogRepo(db)),
    }, router.Options{
        JWTSecret:   cfg.JWTSecret,
        CORSOrigins: cfg.CORSOrigins,
        RateLimit:   config.LoadRateLimitConfig(),
        Cache:       config.LoadCacheConfig(),
        Redis:       rdb,
    })

    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        addr := ":" + cfg.Port
        e.Logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            return err
        }
        return nil
    })
    if cfg.QueueEnabled {
        g.Go(func() error { return queue.StartLedgerConsumer(gctx, cfg.RabbitMQURL, ledgerDir) })
    }
    g.Go(func() error {
        <-gctx.Done()
        shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        return e.Shutdown(shutdownCtx)
    })

    if err := g.Wait(); err != nil {
        e.Logger.Errorf("server stopped: %v", err)
    }
}
