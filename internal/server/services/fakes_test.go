package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/hotspotkeeper/internal/common"
	"github.com/dmitrijs2005/hotspotkeeper/internal/dbx"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/models"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/operators"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/plans"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/hotspotkeeper/internal/server/repositories/usage"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func ptr[T any](v T) *T { return &v }

// memStore keeps accounts and credentials in memory. It is shared by the
// accounts, credentials and plans fakes so tests can inspect the end state.
type memStore struct {
	accounts map[string]models.Account
	creds    []models.Credential
	plans    map[int64]models.Plan
	nextID   int64

	// failOn makes the named operation return errBoom (or failErr if set).
	failOn  string
	failErr error
	calls   []string
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]models.Account{},
		plans:    map[int64]models.Plan{1: {ID: 1, Name: "Basic"}},
	}
}

func (m *memStore) hit(op string) error {
	m.calls = append(m.calls, op)
	if m.failOn == op {
		if m.failErr != nil {
			return m.failErr
		}
		return errBoom{}
	}
	return nil
}

func (m *memStore) credsOf(username, attribute string) []models.Credential {
	var out []models.Credential
	for _, c := range m.creds {
		if c.Username == username && (attribute == "" || c.Attribute == attribute) {
			out = append(out, c)
		}
	}
	return out
}

type memAccounts struct{ m *memStore }

func (r memAccounts) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if err := r.m.hit("accounts.Create"); err != nil {
		return nil, err
	}
	a.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r.m.accounts[a.Username] = *a
	return a, nil
}

func (r memAccounts) Get(ctx context.Context, username string) (*models.Account, error) {
	if err := r.m.hit("accounts.Get"); err != nil {
		return nil, err
	}
	a, ok := r.m.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &a, nil
}

func (r memAccounts) GetProfile(ctx context.Context, username string) (*models.AccountProfile, error) {
	if err := r.m.hit("accounts.GetProfile"); err != nil {
		return nil, err
	}
	a, ok := r.m.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	p := &models.AccountProfile{Account: a}
	if a.PlanID != nil {
		if plan, ok := r.m.plans[*a.PlanID]; ok {
			p.PlanName = &plan.Name
		}
	}
	return p, nil
}

func (r memAccounts) LockForUpdate(ctx context.Context, username string) error {
	if err := r.m.hit("accounts.LockForUpdate"); err != nil {
		return err
	}
	if _, ok := r.m.accounts[username]; !ok {
		return common.ErrNotFound
	}
	return nil
}

func (r memAccounts) Update(ctx context.Context, username string, p models.AccountPatch) error {
	if err := r.m.hit("accounts.Update"); err != nil {
		return err
	}
	a, ok := r.m.accounts[username]
	if !ok {
		return common.ErrNotFound
	}
	if p.Firstname != nil {
		a.Firstname = *p.Firstname
	}
	if p.Lastname != nil {
		a.Lastname = *p.Lastname
	}
	if p.Company != nil {
		a.Company = *p.Company
	}
	switch {
	case p.ClearPlan:
		a.PlanID = nil
	case p.PlanID != nil:
		a.PlanID = p.PlanID
	}
	r.m.accounts[username] = a
	return nil
}

func (r memAccounts) Delete(ctx context.Context, username string) error {
	if err := r.m.hit("accounts.Delete"); err != nil {
		return err
	}
	if _, ok := r.m.accounts[username]; !ok {
		return common.ErrNotFound
	}
	delete(r.m.accounts, username)
	return nil
}

func (r memAccounts) List(ctx context.Context) ([]*models.Account, error) {
	if err := r.m.hit("accounts.List"); err != nil {
		return nil, err
	}
	var out []*models.Account
	for _, a := range r.m.accounts {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

type memCredentials struct{ m *memStore }

func (r memCredentials) Insert(ctx context.Context, c *models.Credential) error {
	if err := r.m.hit("credentials.Insert:" + c.Attribute); err != nil {
		return err
	}
	r.m.nextID++
	c.ID = r.m.nextID
	if c.Operator == "" {
		c.Operator = models.CredentialOperator
	}
	r.m.creds = append(r.m.creds, *c)
	return nil
}

func (r memCredentials) UpsertSecret(ctx context.Context, username, secret string) error {
	if err := r.m.hit("credentials.UpsertSecret"); err != nil {
		return err
	}
	kept := r.m.creds[:0]
	found := false
	for _, c := range r.m.creds {
		if c.Username == username && c.Attribute == models.AttributeSecret {
			if found {
				continue
			}
			found = true
			c.Value = secret
		}
		kept = append(kept, c)
	}
	r.m.creds = kept
	if !found {
		return r.Insert(ctx, &models.Credential{Username: username, Attribute: models.AttributeSecret, Value: secret})
	}
	return nil
}

func (r memCredentials) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	if err := r.m.hit("credentials.DeleteByUsername"); err != nil {
		return 0, err
	}
	var n int64
	kept := r.m.creds[:0]
	for _, c := range r.m.creds {
		if c.Username == username {
			n++
			continue
		}
		kept = append(kept, c)
	}
	r.m.creds = kept
	return n, nil
}

func (r memCredentials) ListByUsername(ctx context.Context, username string) ([]*models.Credential, error) {
	var out []*models.Credential
	for _, c := range r.m.credsOf(username, "") {
		c := c
		out = append(out, &c)
	}
	return out, nil
}

type memPlans struct{ m *memStore }

func (r memPlans) List(ctx context.Context) ([]*models.Plan, error) {
	if err := r.m.hit("plans.List"); err != nil {
		return nil, err
	}
	var out []*models.Plan
	for _, p := range r.m.plans {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (r memPlans) Get(ctx context.Context, id int64) (*models.Plan, error) {
	p, ok := r.m.plans[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

// stubUsage returns canned results and records the arguments it got.
type stubUsage struct {
	lastSessions []*models.LastSession
	total        int64
	active       int64
	daily        []*models.DailyBytes
	consumers    []*models.ConsumerBytes
	logins       []*models.LoginTrendPoint
	open         []*models.Session
	bytesIn      int64
	bytesOut     int64
	latest       *models.Session
	err          error

	gotBefore time.Time
	gotSince  time.Time
	gotLimit  int
}

func (u *stubUsage) LastSessions(ctx context.Context, before time.Time) ([]*models.LastSession, error) {
	u.gotBefore = before
	return u.lastSessions, u.err
}

func (u *stubUsage) CountActivity(ctx context.Context, since time.Time) (int64, int64, error) {
	u.gotSince = since
	return u.total, u.active, u.err
}

func (u *stubUsage) DailyTotals(ctx context.Context, since time.Time) ([]*models.DailyBytes, error) {
	u.gotSince = since
	return u.daily, u.err
}

func (u *stubUsage) ConsumerTotals(ctx context.Context, limit int) ([]*models.ConsumerBytes, error) {
	u.gotLimit = limit
	if u.err != nil {
		return nil, u.err
	}
	if len(u.consumers) > limit {
		return u.consumers[:limit], nil
	}
	return u.consumers, nil
}

func (u *stubUsage) LoginCounts(ctx context.Context, since time.Time) ([]*models.LoginTrendPoint, error) {
	u.gotSince = since
	return u.logins, u.err
}

func (u *stubUsage) OpenSessions(ctx context.Context) ([]*models.Session, error) {
	if u.err != nil {
		return nil, u.err
	}
	var out []*models.Session
	for _, s := range u.open {
		if s.StopTime == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (u *stubUsage) SessionTotals(ctx context.Context, username string) (int64, int64, error) {
	return u.bytesIn, u.bytesOut, u.err
}

func (u *stubUsage) LatestSession(ctx context.Context, username string) (*models.Session, error) {
	if u.err != nil {
		return nil, u.err
	}
	if u.latest == nil {
		return nil, common.ErrNotFound
	}
	return u.latest, nil
}

type fakeOperatorsRepo struct {
	byName    map[string]*models.Operator
	createErr error
	getErr    error
	created   *models.Operator
}

func (f *fakeOperatorsRepo) Create(ctx context.Context, op *models.Operator) (*models.Operator, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	op.ID = 100
	f.created = op
	return op, nil
}

func (f *fakeOperatorsRepo) Get(ctx context.Context, id int64) (*models.Operator, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, op := range f.byName {
		if op.ID == id {
			return op, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeOperatorsRepo) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	op, ok := f.byName[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return op, nil
}

func (f *fakeOperatorsRepo) List(ctx context.Context) ([]*models.Operator, error) {
	var out []*models.Operator
	for _, op := range f.byName {
		out = append(out, op)
	}
	return out, nil
}

type fakeRefreshRepo struct {
	tokens    map[string]*models.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, operatorID int64, token string, expires time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.tokens == nil {
		f.tokens = map[string]*models.RefreshToken{}
	}
	f.tokens[token] = &models.RefreshToken{OperatorID: operatorID, Token: token, Expires: expires}
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	rt, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	return rt, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	if f.delErr != nil {
		return f.delErr
	}
	if _, ok := f.tokens[token]; !ok {
		return common.ErrNotFound
	}
	delete(f.tokens, token)
	return nil
}

type fakeRepoManager struct {
	store     *memStore
	usage     *stubUsage
	operators *fakeOperatorsRepo
	refresh   *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Accounts(db dbx.DBTX) accounts.Repository { return memAccounts{m.store} }

func (m *fakeRepoManager) Credentials(db dbx.DBTX) credentials.Repository {
	return memCredentials{m.store}
}

func (m *fakeRepoManager) Plans(db dbx.DBTX) plans.Repository { return memPlans{m.store} }

func (m *fakeRepoManager) Usage(db dbx.DBTX) usage.Repository { return m.usage }

func (m *fakeRepoManager) Operators(db dbx.DBTX) operators.Repository { return m.operators }

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository { return m.refresh }
