// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/config"
	"github.com/unclebandit/bidtracker-backend/internal/db"
	"github.com/unclebandit/bidtracker-backend/internal/logger"
)

// Seed files run in this order; later files reference ids from earlier ones.
var seedFiles = []string{
	"customers.sql",
	"templates.sql",
	"campaigns.sql",
	"followups.sql",
}

func main() {
	dir := flag.String("dir", "seed", "directory holding the seed SQL files")
	flag.Parse()

	cfg := config.Load()
	lg, err := logger.New(cfg.Server.AppEnv, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync()

	conn, err := db.Connect(cfg.Postgres, lg)
	if err != nil {
		lg.Fatal("Database unavailable", zap.Error(err))
	}
	defer conn.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx, conn, lg); err != nil {
		lg.Fatal("Migration failed", zap.Error(err))
	}

	for _, name := range seedFiles {
		path := filepath.Join(*dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			lg.Fatal("Failed to read seed file", zap.String("file", path), zap.Error(err))
		}
		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			lg.Fatal("Failed to execute seed file", zap.String("file", path), zap.Error(err))
		}
		lg.Info("Seeded", zap.String("file", path))
	}

	lg.Info("Database seeding completed successfully")
}
