package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/logging"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/config"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	return c
}

// stubSeams replaces the pool and migration hooks for the duration of the test.
func stubSeams(t *testing.T, db *sql.DB, openErr, migrateErr error) {
	t.Helper()
	origOpen, origMigrate := openDB, runMigrations
	t.Cleanup(func() { openDB, runMigrations = origOpen, origMigrate })

	openDB = func(context.Context, string, dbx.PoolConfig) (*sql.DB, error) {
		if openErr != nil {
			return nil, openErr
		}
		return db, nil
	}
	runMigrations = func(context.Context, repomanager.RepositoryManager, *sql.DB) error {
		return migrateErr
	}
}

func TestNewApp_OpenError(t *testing.T) {
	stubSeams(t, nil, errBoom, nil)

	_, err := NewApp(context.Background(), testConfig(), logging.Discard())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "db init error")
}

func TestNewApp_MigrationErrorClosesPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	stubSeams(t, db, nil, errBoom)

	_, err = NewApp(context.Background(), testConfig(), logging.Discard())
	require.ErrorIs(t, err, errBoom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_RoutesHealth(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	stubSeams(t, db, nil, nil)

	app, err := NewApp(context.Background(), testConfig(), logging.Discard())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRun_StopsOnCancelAndClosesPool(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	app := &App{config: testConfig(), logger: logging.Discard(), db: db, router: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_ListenError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	c := testConfig()
	c.EndpointAddrHTTP = "256.0.0.1:-1"
	app := &App{config: c, logger: logging.Discard(), db: db, router: http.NotFoundHandler()}

	assert.Error(t, app.Run(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// stubSignals captures the channel registered for OS signals and records
// whether it was unregistered.
func stubSignals(t *testing.T) (registered chan chan<- os.Signal, stopped *atomic.Bool) {
	t.Helper()
	origNotify, origStop := notifySignals, stopSignals
	t.Cleanup(func() { notifySignals, stopSignals = origNotify, origStop })

	registered = make(chan chan<- os.Signal, 1)
	stopped = &atomic.Bool{}
	notifySignals = func(c chan<- os.Signal, _ ...os.Signal) { registered <- c }
	stopSignals = func(chan<- os.Signal) { stopped.Store(true) }
	return registered, stopped
}

func TestRun_CancelReleasesSignalHandler(t *testing.T) {
	_, stopped := stubSignals(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	app := &App{config: testConfig(), logger: logging.Discard(), db: db, router: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	require.NoError(t, app.Run(ctx))
	assert.True(t, stopped.Load(), "signal channel must be unregistered when Run returns")
}

func TestRun_StopsOnSignal(t *testing.T) {
	registered, stopped := stubSignals(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	app := &App{config: testConfig(), logger: logging.Discard(), db: db, router: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case c := <-registered:
		c <- syscall.SIGTERM
	case <-time.After(5 * time.Second):
		t.Fatal("signal handler was not installed")
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after SIGTERM")
	}
	assert.True(t, stopped.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}
