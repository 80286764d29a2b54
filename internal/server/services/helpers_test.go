package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tipjar/internal/dbx"
	"github.com/dmitrijs2005/tipjar/internal/logging"
	"github.com/dmitrijs2005/tipjar/internal/server/config"
	"github.com/dmitrijs2005/tipjar/internal/server/models"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/contributions"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

const testSecret = "rzp_secret"

func testConfig() *config.Config {
	return &config.Config{
		GatewayKeySecret: testSecret,
		Currency:         "INR",
		GatewayTimeout:   time.Second,
		StoreTimeout:     time.Second,
	}
}

// memoryServices wires identity, ledger and stats over one in-memory store.
type memoryServices struct {
	rm       repomanager.RepositoryManager
	identity *IdentityService
	ledger   *LedgerService
	stats    *StatsService
}

func newMemoryServices(t *testing.T) *memoryServices {
	t.Helper()
	rm := repomanager.NewInMemoryRepositoryManager()
	cfg := testConfig()
	id := NewIdentityService(nil, rm, cfg, logging.Nop{})
	return &memoryServices{
		rm:       rm,
		identity: id,
		ledger:   NewLedgerService(nil, rm, id, nil, cfg, logging.Nop{}),
		stats:    NewStatsService(nil, rm, id, cfg),
	}
}

func (m *memoryServices) mustResolve(t *testing.T, email, name string) *models.User {
	t.Helper()
	res, err := m.identity.Resolve(context.Background(), models.Principal{Email: email, Name: name})
	require.NoError(t, err)
	return res.User
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func countRecords(t *testing.T, rm repomanager.RepositoryManager, email string) int {
	t.Helper()
	list, err := rm.Contributions(nil).ListByRecipient(context.Background(), email, "")
	require.NoError(t, err)
	return len(list)
}

// pgContributions keeps users in memory but sends ledger calls to Postgres.
type pgContributions struct {
	repomanager.RepositoryManager
}

func (pgContributions) Contributions(db dbx.DBTX) contributions.Repository {
	return contributions.NewPostgresRepository(db)
}
