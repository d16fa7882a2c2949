package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"carefund/internal/bank"
	campaignhandler "carefund/internal/campaign/handler"
	campaignmetrics "carefund/internal/campaign/metrics"
	campaignservice "carefund/internal/campaign/service"
	campaignstore "carefund/internal/campaign/store"
	feepolicyhandler "carefund/internal/feepolicy/handler"
	feepolicymetrics "carefund/internal/feepolicy/metrics"
	feepolicyservice "carefund/internal/feepolicy/service"
	ledgerhandler "carefund/internal/ledger/handler"
	ledgermetrics "carefund/internal/ledger/metrics"
	ledgerservice "carefund/internal/ledger/service"
	ledgerstore "carefund/internal/ledger/store"
	"carefund/internal/oracle"
	"carefund/internal/platform/config"
	"carefund/internal/platform/httpserver"
	"carefund/internal/platform/logger"
	platformredis "carefund/internal/platform/redis"
	registryhandler "carefund/internal/registry/handler"
	registrymetrics "carefund/internal/registry/metrics"
	registryservice "carefund/internal/registry/service"
	registrystore "carefund/internal/registry/store"
	"carefund/pkg/platform/audit"
	auditkafka "carefund/pkg/platform/audit/kafka"
	"carefund/pkg/platform/audit/publisher"
	auditmemory "carefund/pkg/platform/audit/store/memory"
	adminmw "carefund/pkg/platform/middleware/admin"
	"carefund/pkg/platform/middleware/principal"
	"carefund/pkg/platform/middleware/requestid"
	"carefund/pkg/platform/middleware/requesttime"
)

// main wires the registry, campaign, ledger, and fee-policy services behind
// one router and keeps the server lifecycle small. Business rules live in the
// internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	// Audit trail: always kept in memory for the query path; mirrored to
	// Kafka when brokers are configured.
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := auditkafka.NewSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka audit sink unavailable", "error", err.Error())
			os.Exit(1)
		}
		defer sink.Close()
		auditStore = audit.Tee(auditStore, sink)
	}
	auditPublisher := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(256))
	defer auditPublisher.Close()

	// Fee accounts live in Postgres when a URL is configured, otherwise in
	// memory. Everything else is in-memory state.
	var feeStore ledgerstore.Store = ledgerstore.NewInMemoryStore()
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("postgres open failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		pg := ledgerstore.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Error("postgres migration failed", "error", err.Error())
			os.Exit(1)
		}
		feeStore = pg
	}

	var priceSource oracle.PriceSource = oracle.NewFixed(cfg.Oracle.Price, cfg.Oracle.Decimals)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		priceSource = oracle.NewCached(priceSource, redisClient, cfg.Redis.PriceTTL)
	}

	registry, err := registryservice.New(
		registrystore.NewInMemoryStore(),
		cfg.Governance,
		cfg.Admin,
		registryservice.WithLogger(log),
		registryservice.WithAuditPublisher(auditPublisher),
		registryservice.WithMetrics(registrymetrics.New()),
	)
	if err != nil {
		log.Error("registry init failed", "error", err.Error())
		os.Exit(1)
	}

	campaigns, err := campaignservice.New(
		campaignstore.NewInMemoryStore(),
		registry,
		cfg.Governance,
		campaignservice.WithLogger(log),
		campaignservice.WithAuditPublisher(auditPublisher),
		campaignservice.WithMetrics(campaignmetrics.New()),
	)
	if err != nil {
		log.Error("campaign init failed", "error", err.Error())
		os.Exit(1)
	}

	feePolicy, err := feepolicyservice.New(
		registry,
		cfg.Governance,
		feepolicyservice.WithLogger(log),
		feepolicyservice.WithAuditPublisher(auditPublisher),
		feepolicyservice.WithMetrics(feepolicymetrics.New()),
	)
	if err != nil {
		log.Error("fee policy init failed", "error", err.Error())
		os.Exit(1)
	}

	ledger, err := ledgerservice.New(
		campaigns,
		registry,
		feePolicy,
		feeStore,
		bank.NewInMemoryBank(),
		priceSource,
		cfg.Governance,
		cfg.Operator,
		ledgerservice.WithLogger(log),
		ledgerservice.WithAuditPublisher(auditPublisher),
		ledgerservice.WithMetrics(ledgermetrics.New()),
	)
	if err != nil {
		log.Error("ledger init failed", "error", err.Error())
		os.Exit(1)
	}

	admin := adminmw.RequireAdmin(cfg.JWTSigningKey, cfg.Admin, log)

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Group(func(r chi.Router) {
		r.Use(principal.Middleware(log))
		registryhandler.New(registry, log, admin).Register(r)
		campaignhandler.New(campaigns, log).Register(r)
		ledgerhandler.New(ledger, log).Register(r)
		feepolicyhandler.New(feePolicy, log).Register(r)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("starting carefund", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}
