// cmd/seeder/main.go
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/unclebandit/leadgen-backend/internal/config"
	"github.com/unclebandit/leadgen-backend/internal/db"
)

var seedFiles = []string{
	"seed/users.sql",
	"seed/campaigns.sql",
	"seed/leads.sql",
}

func main() {
	cfg, err := config.LoadBackground("")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL, 1)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, database); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			slog.Error("read seed file", "file", file, "error", err)
			os.Exit(1)
		}
		if _, err := database.ExecContext(ctx, string(content)); err != nil {
			slog.Error("execute seed file", "file", file, "error", err)
			os.Exit(1)
		}
		slog.Info("seeded", "file", file)
	}

	slog.Info("database seeding completed")
}
