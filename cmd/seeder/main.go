//cmd/seeder/main.go
package main

import (
    "database/sql"
    "fmt"
    "log"
    "os"

    "github.com/joho/godotenv"
    _ "github.com/lib/pq"

    "github.com/o4villegas/lead-fuego-sub001/internal/config"
)

func main() {
    if err := godotenv.Load(); err != nil {
        log.Println("⚠️ No .env file found, relying on OS environment variables")
    }

    cfg, err := config.Load()
    if err != nil {
        log.Fatal(err)
    }

    db, err := sql.Open("postgres", cfg.DSN())
    if err != nil {
        log.Fatal(err)
    }
    defer db.Close()

    sqlFiles := []string{
        "migrations/001_init.sql",
        "seed/leads.sql",
        "seed/drip_campaigns.sql",
    }

    for _, file := range sqlFiles {
        content, err := os.ReadFile(file)
        if err != nil {
            log.Fatalf("failed to read %s: %v", file, err)
        }

        _, err = db.Exec(string(content))
        if err != nil {
            log.Fatalf("failed to execute %s: %v", file, err)
        }
        fmt.Printf("Applied: %s\n", file)
    }

    fmt.Println("Database seeding completed successfully!")
}
