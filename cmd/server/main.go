// Command server runs the mortality risk estimation API.
//
// All backends are optional: without Postgres the embedded table snapshots
// serve lookups, without Redis every request recomputes, and without Kafka
// the audit trail stays in process memory. The engine's answers are the
// same in every configuration.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"memento/internal/causes"
	"memento/internal/engine"
	enginehandler "memento/internal/engine/handler"
	enginemetrics "memento/internal/engine/metrics"
	"memento/internal/lifetable"
	"memento/internal/platform/config"
	"memento/internal/platform/httpserver"
	"memento/internal/platform/logger"
	platformredis "memento/internal/platform/redis"
	"memento/internal/reference"
	"memento/internal/riskfactor"
	httptransport "memento/internal/transport/http"
	"memento/pkg/platform/audit"
	auditkafka "memento/pkg/platform/audit/store/kafka"
	auditmemory "memento/pkg/platform/audit/store/memory"
	auditpostgres "memento/pkg/platform/audit/store/postgres"
	auditworker "memento/pkg/platform/audit/worker"
	"memento/pkg/platform/middleware/auth"
)

const auditInboxSize = 256

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reference table stores: Postgres when configured, embedded otherwise.
	var (
		lifetableStore lifetable.Store
		causeStore     causes.Store
		factorStore    riskfactor.Store
		auditPool      *pgxpool.Pool
	)
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		auditPool = pool

		lifetableStore = lifetable.NewPostgresStore(pool, cfg.LifeTableVersion)
		causeStore = causes.NewPostgresStore(pool, cfg.CauseTableVersion)
		factorStore = riskfactor.NewPostgresStore(pool, cfg.RiskFactorVersion)
		log.Info("using postgres reference tables",
			"life_table", cfg.LifeTableVersion,
			"cause_fractions", cfg.CauseTableVersion,
			"risk_factors", cfg.RiskFactorVersion)
	} else {
		var err error
		if cfg.BaselineModel == "gompertz" {
			lifetableStore = lifetable.NewGompertzStore()
			log.Info("using parametric gompertz-makeham baseline")
		} else if lifetableStore, err = lifetable.NewMemoryStore(); err != nil {
			log.Error("embedded life table failed to load", "error", err)
			os.Exit(1)
		}
		if causeStore, err = causes.NewMemoryStore(); err != nil {
			log.Error("embedded cause fractions failed to load", "error", err)
			os.Exit(1)
		}
		factorStore = riskfactor.NewMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit trail: Kafka when brokers are configured, Postgres when only a
	// database is, in-process memory otherwise.
	var auditStore audit.Store
	switch {
	case len(cfg.KafkaBrokers) > 0:
		kafkaStore, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka audit store failed", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
		log.Info("audit trail publishing to kafka", "topic", cfg.AuditTopic)
	case auditPool != nil:
		auditStore = auditpostgres.New(auditPool)
		log.Info("audit trail persisting to postgres")
	default:
		auditStore = auditmemory.NewInMemoryStore()
	}

	auditInbox := make(chan audit.Event, auditInboxSize)
	go func() {
		_ = auditworker.NewWorker(auditStore, auditInbox, log).Run(ctx)
	}()

	svc := engine.NewService(
		lifetable.NewProvider(lifetableStore),
		causes.NewProvider(causeStore, log, cfg.StrictCauseFractions),
		factorStore,
		reference.DefaultValidator(log),
		log,
		engine.WithCache(engine.NewAssessmentCache(redisClient, cfg.AssessmentCacheTTL, log)),
		engine.WithAudit(auditInbox),
		engine.WithMetrics(enginemetrics.New()),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Engine: enginehandler.New(svc, factorStore, log),
		Auth:   auth.New(cfg.JWTSigningKey, log),
		Redis:  redisClient,
		Logger: log,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting memento", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
