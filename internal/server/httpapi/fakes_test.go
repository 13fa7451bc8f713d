package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/logging"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/auth"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

var errBoom = errors.New("boom")

type fakeAccounts struct {
	created models.NewAccount
	patched models.AccountPatch
	deleted string
	list    []*models.Account
	plans   []*models.Plan
	err     error
	calls   int
}

func (f *fakeAccounts) CreateAccount(_ context.Context, in models.NewAccount) (*models.Account, error) {
	f.calls++
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Account{Username: in.Username, Firstname: in.Firstname, PlanID: in.PlanID}, nil
}

func (f *fakeAccounts) UpdateAccount(_ context.Context, username string, patch models.AccountPatch) (*models.Account, error) {
	f.calls++
	f.patched = patch
	if f.err != nil {
		return nil, f.err
	}
	a := &models.Account{Username: username}
	if patch.Firstname != nil {
		a.Firstname = *patch.Firstname
	}
	return a, nil
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, username string) error {
	f.calls++
	f.deleted = username
	return f.err
}

func (f *fakeAccounts) ListAccounts(context.Context) ([]*models.Account, error) {
	return f.list, f.err
}

func (f *fakeAccounts) ListPlans(context.Context) ([]*models.Plan, error) {
	return f.plans, f.err
}

type fakeActivity struct {
	summary      *models.ActivitySummary
	inactive     []models.InactiveAccount
	gotThreshold int
	err          error
}

func (f *fakeActivity) ClassifyActivity(_ context.Context, thresholdDays int) ([]models.InactiveAccount, error) {
	f.gotThreshold = thresholdDays
	return f.inactive, f.err
}

func (f *fakeActivity) SummarizeActivity(context.Context) (*models.ActivitySummary, error) {
	return f.summary, f.err
}

type fakeUsage struct {
	series   []models.DailyUsagePoint
	top      []models.TopConsumer
	trend    []models.LoginTrendPoint
	gotDays  int
	gotLimit int
	err      error
}

func (f *fakeUsage) DailyUsageSeries(_ context.Context, windowDays int) ([]models.DailyUsagePoint, error) {
	f.gotDays = windowDays
	if windowDays <= 0 {
		return nil, common.Validationf("window must be positive")
	}
	return f.series, f.err
}

func (f *fakeUsage) TopConsumers(_ context.Context, limit int) ([]models.TopConsumer, error) {
	f.gotLimit = limit
	if limit <= 0 {
		return nil, common.Validationf("limit must be positive")
	}
	return f.top, f.err
}

func (f *fakeUsage) LoginTrend(_ context.Context, windowDays int) ([]models.LoginTrendPoint, error) {
	f.gotDays = windowDays
	return f.trend, f.err
}

type fakeSessions struct {
	open   []models.OpenSession
	detail *models.AccountUsageDetail
	err    error
}

func (f *fakeSessions) OpenSessions(context.Context) ([]models.OpenSession, error) {
	return f.open, f.err
}

func (f *fakeSessions) AccountUsageDetail(context.Context, string) (*models.AccountUsageDetail, error) {
	return f.detail, f.err
}

type fakeReports struct {
	body    string
	key     string
	url     string
	gotKind string
	err     error
}

func (f *fakeReports) WriteReport(_ context.Context, kind string, w io.Writer) error {
	f.gotKind = kind
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, f.body)
	return err
}

func (f *fakeReports) ArchiveReport(_ context.Context, kind string) (string, string, error) {
	f.gotKind = kind
	return f.key, f.url, f.err
}

type fakeOperators struct {
	pair       *services.TokenPair
	ops        []*models.Operator
	created    services.NewOperator
	loginErr   error
	refreshErr error
	err        error
}

func (f *fakeOperators) Login(_ context.Context, username, password string) (*services.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.pair, nil
}

func (f *fakeOperators) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.pair, nil
}

func (f *fakeOperators) CreateOperator(_ context.Context, in services.NewOperator) (*models.Operator, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Operator{ID: 7, Username: in.Username, Role: in.Role, Status: models.StatusActive}, nil
}

func (f *fakeOperators) ListOperators(context.Context) ([]*models.Operator, error) {
	return f.ops, f.err
}

func (f *fakeOperators) Authenticate(token string) (*auth.Claims, error) {
	switch token {
	case adminToken:
		return &auth.Claims{OperatorID: 1, Username: "root", Role: models.RoleAdmin}, nil
	case userToken:
		return &auth.Claims{OperatorID: 2, Username: "viewer", Role: models.RoleUser}, nil
	}
	return nil, common.ErrInvalidToken
}

type fakePinger struct{ err error }

func (f *fakePinger) PingContext(context.Context) error { return f.err }

type testEnv struct {
	accounts  *fakeAccounts
	activity  *fakeActivity
	usage     *fakeUsage
	sessions  *fakeSessions
	reports   *fakeReports
	operators *fakeOperators
	pinger    *fakePinger
	router    *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &testEnv{
		accounts:  &fakeAccounts{},
		activity:  &fakeActivity{},
		usage:     &fakeUsage{},
		sessions:  &fakeSessions{},
		reports:   &fakeReports{},
		operators: &fakeOperators{},
		pinger:    &fakePinger{},
	}
	e.router = NewRouter(Deps{
		Accounts:              e.accounts,
		Activity:              e.activity,
		Usage:                 e.usage,
		Sessions:              e.sessions,
		Reports:               e.reports,
		Operators:             e.operators,
		DB:                    e.pinger,
		Logger:                logging.Discard(),
		InactiveThresholdDays: 90,
	})
	return e
}

// do sends a request; token may be empty, body may be nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rd = strings.NewReader(string(raw))
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func newRequest(t *testing.T, method, path, authorization string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

func ptr[T any](v T) *T { return &v }
