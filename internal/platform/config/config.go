// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the full server configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration

	// JWTSigningKey enables bearer auth on the API when set.
	JWTSigningKey string

	// PostgresURL switches reference-table stores from the embedded
	// snapshots to database-backed tables when set.
	PostgresURL string

	// Table versions select which Postgres snapshot rows to serve. Ignored
	// for the embedded stores, which carry their own version tags.
	LifeTableVersion  string
	CauseTableVersion string
	RiskFactorVersion string

	// BaselineModel selects the baseline source when Postgres is not
	// configured: "table" (embedded snapshot) or "gompertz" (parametric).
	BaselineModel string

	Redis RedisConfig

	// KafkaBrokers enables the calculation audit trail publisher when set.
	KafkaBrokers []string
	AuditTopic   string

	// StrictCauseFractions rejects cause rows that fail the sum-to-1 check
	// instead of renormalizing them.
	StrictCauseFractions bool

	// AssessmentCacheTTL bounds the idempotent-replay cache in Redis.
	AssessmentCacheTTL time.Duration
}

// RedisConfig holds connection settings for the optional Redis cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:              envOr("MEMENTO_ADDR", ":8080"),
		ShutdownTimeout:   envDuration("MEMENTO_SHUTDOWN_TIMEOUT", 10*time.Second),
		JWTSigningKey:     os.Getenv("MEMENTO_JWT_SIGNING_KEY"),
		PostgresURL:       os.Getenv("MEMENTO_POSTGRES_URL"),
		LifeTableVersion:  envOr("MEMENTO_LIFE_TABLE_VERSION", "ssa-2021"),
		CauseTableVersion: envOr("MEMENTO_CAUSE_TABLE_VERSION", "cdc-wonder-2022"),
		RiskFactorVersion: envOr("MEMENTO_RISK_FACTOR_VERSION", "literature-2024.1"),
		BaselineModel:     envOr("MEMENTO_BASELINE_MODEL", "table"),
		Redis: RedisConfig{
			URL:          os.Getenv("MEMENTO_REDIS_URL"),
			PoolSize:     envInt("MEMENTO_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("MEMENTO_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("MEMENTO_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("MEMENTO_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("MEMENTO_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		AuditTopic:           envOr("MEMENTO_AUDIT_TOPIC", "memento.assessments"),
		StrictCauseFractions: os.Getenv("MEMENTO_STRICT_CAUSE_FRACTIONS") == "true",
		AssessmentCacheTTL:   envDuration("MEMENTO_ASSESSMENT_CACHE_TTL", 15*time.Minute),
	}

	if brokers := os.Getenv("MEMENTO_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
