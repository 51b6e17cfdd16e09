package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/cyberdyne10/huntress/internal/adapters/memory"
	"github.com/cyberdyne10/huntress/internal/adapters/security"
	"github.com/cyberdyne10/huntress/internal/application"
	"github.com/cyberdyne10/huntress/internal/domain"
)

var fastArgon2 = security.Argon2Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1}

func TestSeedAccountsIsRepeatable(t *testing.T) {
	t.Parallel()

	repos := memory.NewRepositories()
	hasher := security.NewArgon2Hasher(fastArgon2)
	opsHash, err := hasher.Hash("OpsPass!9")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	svc := application.NewService(application.Dependencies{
		Accounts:   repos.Accounts,
		Sessions:   repos.Sessions,
		Webhooks:   repos.Webhooks,
		CRM:        repos.CRM,
		Hasher:     hasher,
		Tokens:     security.NewRandomTokenGenerator(),
		Signatures: security.NewHMACVerifier(security.StaticSecrets{[]byte("s")}),
	})
	cfg := Config{
		SeedAdminLogin:    "Admin@Huntress.local",
		SeedAdminPassword: "ChangeMe!123",
		Accounts: []AccountSeed{
			{LoginName: "ops@huntress.local", PasswordHash: opsHash, Role: "viewer"},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for i := 0; i < 2; i++ {
		if err := SeedAccounts(context.Background(), logger, svc, cfg); err != nil {
			t.Fatalf("seed pass %d failed: %v", i+1, err)
		}
	}

	counts, _ := repos.Accounts.CountByRole(context.Background())
	if counts[domain.RoleAdmin] != 1 || counts[domain.RoleViewer] != 1 {
		t.Fatalf("expected one admin and one viewer, got %v", counts)
	}
	if _, err := svc.Login(context.Background(), application.LoginRequest{LoginName: "admin@huntress.local", Password: "ChangeMe!123"}); err != nil {
		t.Fatalf("seeded admin cannot log in: %v", err)
	}
	if _, err := svc.Login(context.Background(), application.LoginRequest{LoginName: "ops@huntress.local", Password: "OpsPass!9"}); err != nil {
		t.Fatalf("seeded hashed account cannot log in: %v", err)
	}
}

func TestSeedAccountsRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Accounts: repos.Accounts,
		Sessions: repos.Sessions,
		Hasher:   security.NewArgon2Hasher(fastArgon2),
		Tokens:   security.NewRandomTokenGenerator(),
	})
	cfg := Config{Accounts: []AccountSeed{{LoginName: "x@huntress.local", PasswordHash: "h", Role: "owner"}}}
	if err := SeedAccounts(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), svc, cfg); err == nil {
		t.Fatal("expected unknown role error")
	}
}

func TestSeedAccountsRejectsHashFromInactiveScheme(t *testing.T) {
	t.Parallel()

	repos := memory.NewRepositories()
	svc := application.NewService(application.Dependencies{
		Accounts: repos.Accounts,
		Sessions: repos.Sessions,
		Hasher:   security.NewArgon2Hasher(fastArgon2),
		Tokens:   security.NewRandomTokenGenerator(),
	})
	bcryptHash, err := security.NewBcryptHasher(4).Hash("OpsPass!9")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	cfg := Config{Accounts: []AccountSeed{{LoginName: "ops@huntress.local", PasswordHash: bcryptHash, Role: "viewer"}}}
	err = SeedAccounts(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)), svc, cfg)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for bcrypt hash under argon2id, got %v", err)
	}
}
