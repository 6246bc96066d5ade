// internal/db/db.go
package db

import (
    "database/sql"
    "log"

    _ "github.com/lib/pq"

    "github.com/o4villegas/lead-fuego-sub001/internal/config"
)

var DB *sql.DB

func Init(cfg *config.Config) {
    log.Println("DB_USER:", cfg.DBUser)
    log.Println("DB_NAME:", cfg.DBName)
    log.Println("DB_HOST:", cfg.DBHost)

    var err error
    DB, err = sql.Open("postgres", cfg.DSN())
    if err != nil {
        log.Fatalf("failed to connect to DB: %v", err)
    }

    if err = DB.Ping(); err != nil {
        log.Fatalf("failed to ping DB: %v", err)
    }

    log.Println("✅ Connected to database")
}
