// Package server wires configuration, the connection pool, the services and
// the HTTP API together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/quartz"
	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/logging"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/config"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

var (
	openDB = dbx.Open

	notifySignals = signal.Notify
	stopSignals   = signal.Stop

	runMigrations = func(ctx context.Context, m repomanager.RepositoryManager, db *sql.DB) error {
		return m.RunMigrations(ctx, db)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	router http.Handler
}

// NewApp opens the pool, migrates the schema and builds the HTTP router.
// The returned App owns the pool; Run closes it on exit.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(ctx, c.DatabaseDSN, dbx.PoolConfig{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := runMigrations(ctx, m, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	clock := quartz.NewReal()

	accounts := services.NewAccountService(db, m, c, logger)
	activity := services.NewActivityService(db, m, clock)
	usage := services.NewUsageService(db, m, clock)
	sessions := services.NewSessionService(db, m, clock)
	operators := services.NewOperatorService(db, m, c, clock, logger)
	reports := services.NewReportService(activity, usage, c, clock, logger)

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.Deps{
		Accounts:              accounts,
		Activity:              activity,
		Usage:                 usage,
		Sessions:              sessions,
		Reports:               reports,
		Operators:             operators,
		DB:                    db,
		Logger:                logger,
		InactiveThresholdDays: c.InactiveThresholdDays,
	})

	return &App{config: c, logger: logger, db: db, router: router}, nil
}

// initSignalHandler cancels on SIGINT, SIGTERM or SIGQUIT. The returned
// channel is closed once the handler has stopped listening, which happens
// on the first signal or when ctx is done.
func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) <-chan struct{} {
	sigs := make(chan os.Signal, 1)
	notifySignals(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stopSignals(sigs)

		select {
		case sig := <-sigs:
			app.logger.Info(context.Background(), "Received signal", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return done
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	listen, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		cancelFunc()
		return err
	}

	srv := &http.Server{
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "HTTP server shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	err = srv.Serve(listen)
	cancelFunc()
	<-stopped

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// shuts the server down and closes the pool.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	signalsDone := app.initSignalHandler(ctx, cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.startHTTPServer(ctx, cancelFunc); err != nil {
			app.logger.Error(ctx, "HTTP server", "error", err)
			runErr = err
		}
	}()

	wg.Wait()
	cancelFunc()
	<-signalsDone

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "closing db", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	return runErr
}
