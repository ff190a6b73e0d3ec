package database

import (
    "context"
    "database/sql"
    "net"
    "time"

    "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and pings it.  The handle is shared by every
// repository; main closes it on shutdown.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    cfg := mysql.NewConfig()
    cfg.User = user
    cfg.Passwd = pass
    cfg.Net = "tcp"
    cfg.Addr = net.JoinHostPort(host, port)
    cfg.DBName = name
    cfg.ParseTime = true
    cfg.Loc = time.UTC
    // RowsAffected counts matched rows, so an update that changes nothing
    // is not mistaken for a missing row
    cfg.ClientFoundRows = true
    cfg.Params = map[string]string{"charset": "utf8mb4"}

    db, err := sql.Open("mysql", cfg.FormatDSN())
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(25)
    db.SetMaxIdleConns(10)
    db.SetConnMaxLifetime(30 * time.Minute)
    db.SetConnMaxIdleTime(5 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    return db, nil
}
