// Package db embeds the SQL migrations of the client state store.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

const (
	MigrationsDir   = "migrations"
	MigrationsTable = "schema_migrations"
)

// Migrate applies the embedded migrations with goose. rollback reverts only the latest one.
func Migrate(ctx context.Context, conn *sql.DB, dialect string, rollback bool) error {
	goose.SetBaseFS(Migrations)
	goose.SetTableName(MigrationsTable)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	command := "up"
	if rollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, conn, MigrationsDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
