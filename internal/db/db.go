// internal/db/db.go
package db

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DSN builds a lib/pq connection string.
func DSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode,
	)
}

// Connect opens and pings the database with the configured pool limits.
func Connect(cfg config.PostgresConfig, log *zap.Logger) (*sqlx.DB, error) {
	log.Info("Connecting to database",
		zap.String("host", cfg.Host),
		zap.String("db_name", cfg.DBName),
		zap.String("user", cfg.User),
	)

	db, err := sqlx.Connect("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	log.Info("Connected to database")
	return db, nil
}

// Migrate applies the embedded schema files in name order. Every file is
// written to be re-runnable.
func Migrate(ctx context.Context, db *sqlx.DB, log *zap.Logger) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		log.Info("Applied migration", zap.String("file", name))
	}
	return nil
}
