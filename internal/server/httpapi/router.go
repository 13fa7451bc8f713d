// Package httpapi exposes the account lifecycle and usage analytics services
// over a JSON HTTP API built on gin.
package httpapi

import (
	"context"
	"io"

	"github.com/dmitrijs2005/hotspotkeeper/internal/logging"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AccountManager is the subset of services.AccountService used by the handlers.
type AccountManager interface {
	CreateAccount(ctx context.Context, in models.NewAccount) (*models.Account, error)
	UpdateAccount(ctx context.Context, username string, patch models.AccountPatch) (*models.Account, error)
	DeleteAccount(ctx context.Context, username string) error
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
}

type ActivityReader interface {
	ClassifyActivity(ctx context.Context, thresholdDays int) ([]models.InactiveAccount, error)
	SummarizeActivity(ctx context.Context) (*models.ActivitySummary, error)
}

type UsageReader interface {
	DailyUsageSeries(ctx context.Context, windowDays int) ([]models.DailyUsagePoint, error)
	TopConsumers(ctx context.Context, limit int) ([]models.TopConsumer, error)
	LoginTrend(ctx context.Context, windowDays int) ([]models.LoginTrendPoint, error)
}

type SessionReader interface {
	OpenSessions(ctx context.Context) ([]models.OpenSession, error)
	AccountUsageDetail(ctx context.Context, username string) (*models.AccountUsageDetail, error)
}

type Reporter interface {
	WriteReport(ctx context.Context, kind string, w io.Writer) error
	ArchiveReport(ctx context.Context, kind string) (string, string, error)
}

type OperatorManager interface {
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	CreateOperator(ctx context.Context, in services.NewOperator) (*models.Operator, error)
	ListOperators(ctx context.Context) ([]*models.Operator, error)
	Authenticate(accessToken string) (*auth.Claims, error)
}

// Pinger reports database reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps bundles everything the router needs.
type Deps struct {
	Accounts  AccountManager
	Activity  ActivityReader
	Usage     UsageReader
	Sessions  SessionReader
	Reports   Reporter
	Operators OperatorManager
	DB        Pinger
	Logger    logging.Logger

	// InactiveThresholdDays is the default of /api/dashboard/inactive.
	InactiveThresholdDays int
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(d.Logger))

	h := &handler{deps: d, log: d.Logger.With("module", "httpapi")}

	r.GET("/healthz", h.health)

	api := r.Group("/api")
	api.POST("/auth/login", h.login)
	api.POST("/auth/refresh", h.refresh)

	authed := api.Group("")
	authed.Use(authRequired(d.Operators))
	admin := authed.Group("")
	admin.Use(requireRole(models.RoleAdmin))

	authed.GET("/accounts", h.listAccounts)
	authed.GET("/accounts/:username", h.getAccount)
	admin.POST("/accounts", h.createAccount)
	admin.PUT("/accounts/:username", h.updateAccount)
	admin.DELETE("/accounts/:username", h.deleteAccount)
	authed.GET("/plans", h.listPlans)

	dashboard := authed.Group("/dashboard")
	dashboard.GET("/stats", h.stats)
	dashboard.GET("/trend", h.loginTrend)
	dashboard.GET("/inactive", h.inactive)
	dashboard.GET("/usage", h.dailyUsage)
	dashboard.GET("/top", h.topConsumers)
	dashboard.GET("/online", h.online)

	authed.GET("/reports/:kind", h.downloadReport)
	admin.POST("/reports/:kind/archive", h.archiveReport)

	admin.GET("/operators", h.listOperators)
	admin.POST("/operators", h.createOperator)

	return r
}

type handler struct {
	deps Deps
	log  logging.Logger
}
