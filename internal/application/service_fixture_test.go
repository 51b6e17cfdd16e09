package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cyberdyne10/huntress/internal/adapters/memory"
	"github.com/cyberdyne10/huntress/internal/adapters/security"
	"github.com/cyberdyne10/huntress/internal/application"
	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

var testWebhookSecret = []byte("crm-shared-secret")

// cheap argon2 parameters keep the suite fast.
var testArgon2Params = security.Argon2Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	service *application.Service
	repos   *memory.Repositories
	clock   *fakeClock
}

type fixtureOption func(*application.Dependencies)

func withCRMReader(reader ports.CRMSyncReader) fixtureOption {
	return func(deps *application.Dependencies) { deps.CRM = reader }
}

func withFailingAccountCounts() fixtureOption {
	return func(deps *application.Dependencies) {
		deps.Accounts = failingAccountCounts{AccountRepository: deps.Accounts}
	}
}

func withSiteMetrics(reader ports.SiteMetricsReader) fixtureOption {
	return func(deps *application.Dependencies) { deps.SiteMetrics = reader }
}

func withSiteStore(store ports.SiteContentStore) fixtureOption {
	return func(deps *application.Dependencies) { deps.Site = store }
}

func withSessionStore(wrap func(ports.SessionStore) ports.SessionStore) fixtureOption {
	return func(deps *application.Dependencies) { deps.Sessions = wrap(deps.Sessions) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	repos := memory.NewRepositories()
	clock := newFakeClock()
	deps := application.Dependencies{
		Config:      application.Config{SessionTTL: time.Hour},
		Accounts:    repos.Accounts,
		Sessions:    repos.Sessions,
		Webhooks:    repos.Webhooks,
		CRM:         repos.CRM,
		Outbox:      repos.Outbox,
		Site:        repos.Site,
		SiteMetrics: repos.Site,
		Hasher:      security.NewArgon2Hasher(testArgon2Params),
		Tokens:      security.NewRandomTokenGenerator(),
		Signatures:  security.NewHMACVerifier(security.StaticSecrets{testWebhookSecret}),
		Clock:       clock.Now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f := &fixture{service: application.NewService(deps), repos: repos, clock: clock}

	ctx := context.Background()
	if _, err := f.service.ProvisionAccount(ctx, application.ProvisionAccountRequest{
		LoginName: "admin@huntress.local",
		Password:  "ChangeMe!123",
		Role:      domain.RoleAdmin,
	}); err != nil {
		t.Fatalf("provision admin failed: %v", err)
	}
	if _, err := f.service.ProvisionAccount(ctx, application.ProvisionAccountRequest{
		LoginName: "viewer@huntress.local",
		Password:  "ViewerPass!456",
		Role:      domain.RoleViewer,
	}); err != nil {
		t.Fatalf("provision viewer failed: %v", err)
	}
	return f
}

func (f *fixture) login(t *testing.T, loginName, password string) application.LoginResult {
	t.Helper()
	res, err := f.service.Login(context.Background(), application.LoginRequest{LoginName: loginName, Password: password})
	if err != nil {
		t.Fatalf("login %s failed: %v", loginName, err)
	}
	return res
}

func signedDelivery(body string) ([]byte, string) {
	payload := []byte(body)
	return payload, security.SignatureHeader(testWebhookSecret, payload)
}

var errBackingStoreDown = errors.New("backing store down")

type failingCRMReader struct{}

func (failingCRMReader) CRMSyncStatus(context.Context) (domain.CRMSyncStatus, error) {
	return domain.CRMSyncStatus{}, errBackingStoreDown
}

func (failingCRMReader) GetRecordState(context.Context, string) (domain.CRMRecordState, error) {
	return domain.CRMRecordState{}, errBackingStoreDown
}

type failingSiteStore struct{}

func (failingSiteStore) ListIncidents(context.Context) ([]domain.Incident, error) {
	return nil, errBackingStoreDown
}

func (failingSiteStore) ListAlerts(context.Context) ([]domain.Alert, error) {
	return nil, errBackingStoreDown
}

func (failingSiteStore) CreateDemoIntake(context.Context, domain.DemoIntake) error {
	return errBackingStoreDown
}

func (failingSiteStore) SiteCounts(context.Context) (domain.SiteCounts, error) {
	return domain.SiteCounts{}, errBackingStoreDown
}

// failingAccountCounts keeps login working while the overview count read fails.
type failingAccountCounts struct {
	ports.AccountRepository
}

func (failingAccountCounts) CountByRole(context.Context) (map[domain.Role]int64, error) {
	return nil, errBackingStoreDown
}

// undeletableSessions counts eviction attempts and fails every one of them.
type undeletableSessions struct {
	ports.SessionStore
	mu      sync.Mutex
	deletes int
}

func (s *undeletableSessions) Delete(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	return errBackingStoreDown
}

func (s *undeletableSessions) deleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}
