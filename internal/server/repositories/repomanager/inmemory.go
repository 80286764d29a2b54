package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/contributions"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/memory"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/users"
)

// InMemoryRepositoryManager ignores the db handle and always returns the same
// process-local repositories.
type InMemoryRepositoryManager struct {
	users         *memory.UsersRepository
	contributions *memory.ContributionsRepository
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users(dbx.DBTX) users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Contributions(dbx.DBTX) contributions.Repository {
	return m.contributions
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{
		users:         memory.NewUsersRepository(),
		contributions: memory.NewContributionsRepository(),
	}
}
