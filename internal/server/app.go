// Package server initializes and runs the tipjar API server.
// It selects the storage backend, wires services to the HTTP API, runs the
// optional backfill schedule and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tipjar/internal/logging"
	"github.com/dmitrijs2005/tipjar/internal/server/archive"
	"github.com/dmitrijs2005/tipjar/internal/server/config"
	"github.com/dmitrijs2005/tipjar/internal/server/gateway"
	"github.com/dmitrijs2005/tipjar/internal/server/httpapi"
	"github.com/dmitrijs2005/tipjar/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tipjar/internal/server/services"
	"github.com/dmitrijs2005/tipjar/internal/server/shared/db"
)

// MemoryDSN selects the in-process store instead of PostgreSQL.
const MemoryDSN = "memory://"

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	handler   *httpapi.Handlers
	scheduler *Scheduler
}

func openStore(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == MemoryDSN {
		return nil, repomanager.NewInMemoryRepositoryManager(), nil
	}

	conn, err := db.Open(ctx, c.DatabaseDSN, c.StoreTimeout)
	if err != nil {
		return nil, nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, conn); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, rm, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	conn, rm, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	arch, err := archive.New(ctx, c)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("archive init error: %w", err)
	}

	gw := gateway.New(c.GatewayBaseURL, c.GatewayKeyID, c.GatewayKeySecret, c.GatewayTimeout)

	identity := services.NewIdentityService(conn, rm, c, logger)
	ledger := services.NewLedgerService(conn, rm, identity, arch, c, logger)
	stats := services.NewStatsService(conn, rm, identity, c)
	orders := services.NewOrderService(gw, c, logger)

	deps := httpapi.Deps{
		Orders:     orders,
		Ledger:     ledger,
		Stats:      stats,
		Identity:   identity,
		AuthSecret: c.AuthSecret,
		AdminToken: c.AdminToken,
		Logger:     logger,
	}
	if conn != nil {
		deps.Health = conn
	}

	app := &App{config: c, logger: logger, db: conn, handler: httpapi.NewHandlers(deps)}

	if c.BackfillSchedule != "" {
		s, err := NewScheduler(c.BackfillSchedule, backfillJob(ctx, identity.Backfill, logger.With("module", "scheduler")))
		if err != nil {
			app.Close()
			return nil, err
		}
		app.scheduler = s
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, httpapi.NewRouter(app.handler))

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Close releases the store connection.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if app.scheduler != nil {
		app.scheduler.Start()
		app.logger.Info(ctx, "backfill scheduled", "spec", app.config.BackfillSchedule)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
