package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/contributions"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX and owns schema setup.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Contributions(db dbx.DBTX) contributions.Repository
}
