package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/cyberdyne10/huntress/internal/adapters/cache"
	eventadapter "github.com/cyberdyne10/huntress/internal/adapters/events"
	grpcadapter "github.com/cyberdyne10/huntress/internal/adapters/grpc"
	httpadapter "github.com/cyberdyne10/huntress/internal/adapters/http"
	"github.com/cyberdyne10/huntress/internal/adapters/memory"
	"github.com/cyberdyne10/huntress/internal/adapters/postgres"
	"github.com/cyberdyne10/huntress/internal/adapters/secrets"
	"github.com/cyberdyne10/huntress/internal/adapters/security"
	"github.com/cyberdyne10/huntress/internal/application"
	"github.com/cyberdyne10/huntress/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcAddr   string
	outbox     *eventadapter.CRMStatusRelay
	cleanupFn  func(context.Context)
}

// stores is the set of backing adapters chosen by STORAGE_DRIVER and SESSION_STORE.
type stores struct {
	accounts ports.AccountRepository
	sessions ports.SessionStore
	webhooks ports.WebhookEventStore
	crm      ports.CRMSyncReader
	outbox   ports.OutboxRepository
	site     ports.SiteContentStore
	siteRead ports.SiteMetricsReader
	checks   []ports.HealthChecker
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", cfg.ServiceID)
	slog.SetDefault(logger)
	logger.Info("bootstrapping huntress api",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"storage_driver", cfg.StorageDriver,
		"session_store", cfg.SessionStore,
	)

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	st, storeClosers, err := openStores(ctx, cfg)
	closers = append(closers, storeClosers...)
	if err != nil {
		closeAll()
		return nil, err
	}

	secretSource, stopWatch, err := openSecrets(cfg, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, func() error { stopWatch(); return nil })

	var publisher ports.EventPublisher = eventadapter.NewLoggingPublisher(logger)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		closers = append(closers, kafkaPub.Close)
		publisher = kafkaPub
	}

	var hasher ports.PasswordHasher = security.NewArgon2Hasher(security.DefaultArgon2Params)
	if cfg.PasswordHashScheme == HashBcrypt {
		hasher = security.NewBcryptHasher(cfg.BcryptCost)
	}

	svc := application.NewService(application.Dependencies{
		Config:      application.Config{SessionTTL: cfg.SessionTTL},
		Accounts:    st.accounts,
		Sessions:    st.sessions,
		Webhooks:    st.webhooks,
		CRM:         st.crm,
		Outbox:      st.outbox,
		Site:        st.site,
		SiteMetrics: st.siteRead,
		Hasher:      hasher,
		Tokens:      security.NewRandomTokenGenerator(),
		Signatures:  security.NewHMACVerifier(secretSource),
	})

	if err := SeedAccounts(ctx, logger, svc, cfg); err != nil {
		closeAll()
		return nil, err
	}

	handler := httpadapter.NewHandler(svc, httpadapter.RouterConfig{
		CORSOrigin:    cfg.CORSOrigin,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		SecureCookies: cfg.SecureCookies,
	}, st.checks...)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewSessionInternalServer(svc))

	outbox := eventadapter.NewCRMStatusRelay(logger, st.outbox, publisher, eventadapter.RelayConfig{
		Interval:    cfg.OutboxPollInterval,
		BatchSize:   cfg.OutboxBatchSize,
		ClaimTTL:    cfg.OutboxClaimTTL,
		MaxAttempts: cfg.OutboxMaxRetries,
	})

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcAddr:   fmt.Sprintf(":%d", cfg.GRPCPort),
		outbox:     outbox,
		cleanupFn: func(context.Context) {
			closeAll()
		},
	}, nil
}

// openStores returns closers even on error so the caller can release what
// was opened before the failure.
func openStores(ctx context.Context, cfg Config) (stores, []func() error, error) {
	var (
		st      stores
		closers []func() error
		pgRepos *postgres.Repositories
	)

	switch cfg.StorageDriver {
	case StoragePostgres:
		db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
		if err != nil {
			return st, closers, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, func() error { return postgres.Close(db) })
		if err := postgres.RunMigrations(ctx, db); err != nil {
			return st, closers, fmt.Errorf("run migrations: %w", err)
		}
		pgRepos = postgres.NewRepositories(db)
		st.accounts = pgRepos.Accounts
		st.webhooks = pgRepos.Webhooks
		st.crm = pgRepos.CRM
		st.outbox = pgRepos.Outbox
		st.site, st.siteRead = pgRepos.Site, pgRepos.Site
		st.checks = append(st.checks, postgres.NewHealthCheck(db))
	default:
		memRepos := memory.NewRepositories()
		st.accounts = memRepos.Accounts
		st.webhooks = memRepos.Webhooks
		st.crm = memRepos.CRM
		st.outbox = memRepos.Outbox
		st.site, st.siteRead = memRepos.Site, memRepos.Site
	}

	switch cfg.SessionStore {
	case SessionsRedis:
		client, err := cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return st, closers, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return st, closers, fmt.Errorf("ping redis: %w", err)
		}
		st.sessions = cacheadapter.NewRedisSessionStore(client)
		st.checks = append(st.checks, cacheadapter.NewHealthCheck(client))
	case StoragePostgres:
		st.sessions = pgRepos.Sessions
	default:
		st.sessions = memory.NewSessionStore()
	}
	return st, closers, nil
}

// openSecrets prefers the watched secret file over inline secrets.
func openSecrets(cfg Config, logger *slog.Logger) (security.SecretSource, func(), error) {
	if cfg.WebhookSecretFile == "" {
		static := make(security.StaticSecrets, 0, len(cfg.WebhookSecrets))
		for _, s := range cfg.WebhookSecrets {
			static = append(static, []byte(s))
		}
		return static, func() {}, nil
	}
	provider, err := secrets.NewFileProvider(cfg.WebhookSecretFile, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("load webhook secret file: %w", err)
	}
	stop, err := provider.Watch()
	if err != nil {
		logger.Warn("webhook secret file watch unavailable; secrets load once",
			"module", "bootstrap",
			"operation", "watch_secret",
			"outcome", "failure",
			"error", err,
		)
		stop = func() {}
	}
	return provider, stop, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", r.grpcAddr)
	if err != nil {
		r.cleanupFn(ctx)
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 3)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	if r.cfg.OutboxInline {
		go func() {
			r.logger.Info("inline outbox worker started")
			if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("outbox worker: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if r.cfg.StorageDriver == StorageMemory {
		r.logger.Warn("outbox worker has no shared storage with the api; set STORAGE_DRIVER=postgres")
	}
	r.logger.Info("outbox worker started")
	err := r.outbox.Run(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cleanupFn(shutdownCtx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
