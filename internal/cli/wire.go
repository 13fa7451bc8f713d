package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/coder/quartz"
	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/logging"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/config"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
)

type accountManager interface {
	CreateAccount(ctx context.Context, in models.NewAccount) (*models.Account, error)
	UpdateAccount(ctx context.Context, username string, patch models.AccountPatch) (*models.Account, error)
	DeleteAccount(ctx context.Context, username string) error
}

type accountViewer interface {
	AccountUsageDetail(ctx context.Context, username string) (*models.AccountUsageDetail, error)
}

type operatorCreator interface {
	CreateOperator(ctx context.Context, in services.NewOperator) (*models.Operator, error)
}

type reporter interface {
	WriteReport(ctx context.Context, kind string, w io.Writer) error
	ArchiveReport(ctx context.Context, kind string) (string, string, error)
}

type app struct {
	accounts  accountManager
	sessions  accountViewer
	operators operatorCreator
	reports   reporter
	migrate   func(ctx context.Context) error
	close     func() error
}

// cliPoolSize bounds the pool of a single CLI invocation.
const cliPoolSize = 2

func wireApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := dbx.Open(ctx, cfg.DatabaseDSN, dbx.PoolConfig{
		MaxOpenConns:    cliPoolSize,
		MaxIdleConns:    cliPoolSize,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, slog.LevelWarn)
	m := repomanager.NewPostgresRepositoryManager()
	clock := quartz.NewReal()

	activity := services.NewActivityService(db, m, clock)
	usage := services.NewUsageService(db, m, clock)

	return &app{
		accounts:  services.NewAccountService(db, m, cfg, logger),
		sessions:  services.NewSessionService(db, m, clock),
		operators: services.NewOperatorService(db, m, cfg, clock, logger),
		reports:   services.NewReportService(activity, usage, cfg, clock, logger),
		migrate: func(ctx context.Context) error {
			return m.RunMigrations(ctx, db)
		},
		close: db.Close,
	}, nil
}
