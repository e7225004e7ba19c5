package storage

import (
	"context"
	"database/sql"
	"fmt"

	"task_manager/internal/storage/migrations"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/pressly/goose/v3"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded schema to the database at DbURL.
func RunMigrations(ctx context.Context, DbURL string) error {
	const op = "storage.RunMigrations"

	cfg, err := pgxpool.ParseConfig(DbURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	db := stdlib.OpenDB(*cfg.ConnConfig)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
