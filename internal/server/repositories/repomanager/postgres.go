// Package repomanager wires repository constructors to a storage backend and
// runs the embedded goose migrations for PostgreSQL.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/server/migrations"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/contributions"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Contributions(db dbx.DBTX) contributions.Repository {
	return contributions.NewPostgresRepository(db)
}

// seams for tests
var (
	gooseSetDialect = goose.SetDialect
	gooseUpContext  = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
)

// RunMigrations applies the embedded schema migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := gooseSetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect error: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
