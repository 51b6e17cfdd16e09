package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	SessionsRedis   = "redis"

	HashArgon2id = "argon2id"
	HashBcrypt   = "bcrypt"
)

// Config is the resolved runtime configuration for huntress-api.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	StorageDriver string
	SessionStore  string
	DatabaseURL   string
	RedisURL      string
	MaxDBConns    int32

	SessionTTL time.Duration

	PasswordHashScheme string
	BcryptCost         int

	WebhookSecrets    []string
	WebhookSecretFile string

	KafkaBrokers []string
	KafkaTopic   string

	OutboxInline       bool
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxClaimTTL     time.Duration
	OutboxMaxRetries   int

	CORSOrigin    string
	SecureCookies bool
	MaxBodyBytes  int64

	SeedAdminLogin    string
	SeedAdminPassword string
	Accounts          []AccountSeed
}

// AccountSeed is an account listed in the config file with a precomputed hash.
type AccountSeed struct {
	LoginName    string `yaml:"login_name"`
	PasswordHash string `yaml:"password_hash"`
	Role         string `yaml:"role"`
}

// configFile mirrors configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Storage struct {
		Driver   string `yaml:"driver"`
		Sessions string `yaml:"sessions"`
	} `yaml:"storage"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"dependencies"`
	Auth struct {
		SessionTTLMinutes  int    `yaml:"session_ttl_minutes"`
		PasswordHashScheme string `yaml:"password_hash_scheme"`
	} `yaml:"auth"`
	Webhook struct {
		SecretFile string `yaml:"secret_file"`
	} `yaml:"webhook"`
	HTTP struct {
		CORSOrigin    string `yaml:"cors_origin"`
		SecureCookies *bool  `yaml:"secure_cookies"`
		MaxBodyBytes  int64  `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Accounts []AccountSeed `yaml:"accounts"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "huntress-api",
		HTTPPort:           8080,
		GRPCPort:           9090,
		StorageDriver:      StorageMemory,
		SessionStore:       StorageMemory,
		MaxDBConns:         20,
		SessionTTL:         12 * time.Hour,
		PasswordHashScheme: HashArgon2id,
		BcryptCost:         12,
		KafkaTopic:         "huntress.crm.delivery-status",
		OutboxInline:       true,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
		OutboxClaimTTL:     30 * time.Second,
		OutboxMaxRetries:   5,
		CORSOrigin:         "*",
		MaxBodyBytes:       1 << 20,
		SeedAdminLogin:     "admin@huntress.local",
		SeedAdminPassword:  "ChangeMe!123",
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		applyFile(&cfg, f)
	}

	cfg.HTTPPort = envInt("HTTP_PORT", envInt("PORT", cfg.HTTPPort))
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(envOrDefault("STORAGE_DRIVER", cfg.StorageDriver)))
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(envOrDefault("SESSION_STORE", cfg.SessionStore)))
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("DATABASE_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.SessionTTL = time.Duration(envInt("SESSION_TTL_MINUTES", int(cfg.SessionTTL.Minutes()))) * time.Minute
	cfg.PasswordHashScheme = strings.ToLower(strings.TrimSpace(envOrDefault("PASSWORD_HASH_SCHEME", cfg.PasswordHashScheme)))
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)

	cfg.WebhookSecrets = envCSV("WEBHOOK_SECRET", cfg.WebhookSecrets)
	cfg.WebhookSecretFile = envOrDefault("WEBHOOK_SECRET_FILE", cfg.WebhookSecretFile)

	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)

	cfg.OutboxInline = envBool("OUTBOX_INLINE", cfg.OutboxInline)
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxClaimTTL = time.Duration(envInt("OUTBOX_CLAIM_TTL_SECONDS", int(cfg.OutboxClaimTTL.Seconds()))) * time.Second
	cfg.OutboxMaxRetries = envInt("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)

	cfg.CORSOrigin = envOrDefault("CORS_ORIGIN", cfg.CORSOrigin)
	cfg.SecureCookies = envBool("SECURE_COOKIES", cfg.SecureCookies)

	cfg.SeedAdminLogin = envOrDefault("SEED_ADMIN_LOGIN", envOrDefault("SEED_ADMIN_EMAIL", cfg.SeedAdminLogin))
	cfg.SeedAdminPassword = envOrDefault("SEED_ADMIN_PASSWORD", cfg.SeedAdminPassword)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, f configFile) {
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Storage.Driver != "" {
		cfg.StorageDriver = f.Storage.Driver
	}
	if f.Storage.Sessions != "" {
		cfg.SessionStore = f.Storage.Sessions
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Dependencies.KafkaTopic != "" {
		cfg.KafkaTopic = f.Dependencies.KafkaTopic
	}
	if f.Auth.SessionTTLMinutes > 0 {
		cfg.SessionTTL = time.Duration(f.Auth.SessionTTLMinutes) * time.Minute
	}
	if f.Auth.PasswordHashScheme != "" {
		cfg.PasswordHashScheme = f.Auth.PasswordHashScheme
	}
	if f.Webhook.SecretFile != "" {
		cfg.WebhookSecretFile = f.Webhook.SecretFile
	}
	if f.HTTP.CORSOrigin != "" {
		cfg.CORSOrigin = f.HTTP.CORSOrigin
	}
	if f.HTTP.SecureCookies != nil {
		cfg.SecureCookies = *f.HTTP.SecureCookies
	}
	if f.HTTP.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = f.HTTP.MaxBodyBytes
	}
	if len(f.Accounts) > 0 {
		cfg.Accounts = f.Accounts
	}
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing DB_URL for postgres storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.SessionStore {
	case StorageMemory:
	case SessionsRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("missing REDIS_URL for redis session store")
		}
	case StoragePostgres:
		if c.StorageDriver != StoragePostgres {
			return fmt.Errorf("SESSION_STORE=postgres requires STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.PasswordHashScheme != HashArgon2id && c.PasswordHashScheme != HashBcrypt {
		return fmt.Errorf("unknown PASSWORD_HASH_SCHEME %q", c.PasswordHashScheme)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}
	if len(c.WebhookSecrets) == 0 && c.WebhookSecretFile == "" {
		return fmt.Errorf("missing WEBHOOK_SECRET or WEBHOOK_SECRET_FILE")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}

// envCSV splits a comma-separated variable and drops empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
