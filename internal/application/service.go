package application

import (
	"log/slog"
	"time"

	"github.com/cyberdyne10/huntress/internal/ports"
)

const (
	serviceName = "huntress-api"

	dummyPassword = "huntress-timing-equalizer"
)

type Config struct {
	SessionTTL time.Duration
}

type Service struct {
	cfg        Config
	accounts   ports.AccountRepository
	sessions   ports.SessionStore
	webhooks   ports.WebhookEventStore
	crm        ports.CRMSyncReader
	outbox     ports.OutboxRepository
	site       ports.SiteContentStore
	siteCounts ports.SiteMetricsReader
	hasher     ports.PasswordHasher
	tokens     ports.TokenGenerator
	signatures ports.SignatureVerifier
	dummyHash  string
	nowFn      func() time.Time
}

// Dependencies wires the service. Outbox and Clock are optional: without an
// outbox the overview omits the pending count, without a clock wall time is used.
type Dependencies struct {
	Config      Config
	Accounts    ports.AccountRepository
	Sessions    ports.SessionStore
	Webhooks    ports.WebhookEventStore
	CRM         ports.CRMSyncReader
	Outbox      ports.OutboxRepository
	Site        ports.SiteContentStore
	SiteMetrics ports.SiteMetricsReader
	Hasher      ports.PasswordHasher
	Tokens      ports.TokenGenerator
	Signatures  ports.SignatureVerifier
	Clock       func() time.Time
}

func NewService(deps Dependencies) *Service {
	if deps.Config.SessionTTL <= 0 {
		deps.Config.SessionTTL = 12 * time.Hour
	}
	s := &Service{
		cfg:        deps.Config,
		accounts:   deps.Accounts,
		sessions:   deps.Sessions,
		webhooks:   deps.Webhooks,
		crm:        deps.CRM,
		outbox:     deps.Outbox,
		site:       deps.Site,
		siteCounts: deps.SiteMetrics,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		signatures: deps.Signatures,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
	if deps.Clock != nil {
		s.nowFn = func() time.Time { return deps.Clock().UTC() }
	}

	// Unknown login names are compared against this hash so both failure paths cost the same.
	dummy, err := s.hasher.Hash(dummyPassword)
	if err != nil {
		appLogger().Warn("dummy password hash unavailable",
			"operation", "init_service",
			"outcome", "failure",
			"error", err,
		)
	}
	s.dummyHash = dummy
	return s
}

func appLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "application",
		"layer", "application",
	)
}
