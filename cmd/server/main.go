package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"coverbook/internal/insurance/handler"
	insurancemetrics "coverbook/internal/insurance/metrics"
	"coverbook/internal/insurance/service"
	"coverbook/internal/insurance/store"
	"coverbook/internal/insurance/store/insurercache"
	"coverbook/internal/jwttoken"
	"coverbook/internal/platform/config"
	"coverbook/internal/platform/httpserver"
	"coverbook/internal/platform/logger"
	platformmetrics "coverbook/internal/platform/metrics"
	"coverbook/internal/platform/middleware"
	platformredis "coverbook/internal/platform/redis"
	audit "coverbook/pkg/platform/audit"
	"coverbook/pkg/platform/audit/relay"
	auditmemory "coverbook/pkg/platform/audit/store/memory"
	auditpostgres "coverbook/pkg/platform/audit/store/postgres"
)

// jwtValidatorAdapter bridges the token service to the middleware contract.
type jwtValidatorAdapter struct {
	svc *jwttoken.Service
}

func (a jwtValidatorAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{Subject: claims.Subject}, nil
}

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		ledger     store.Store
		registryTx service.RegistryTx
		auditStore audit.Store
		db         *sql.DB
	)

	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			return
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			return
		}
		ledger = store.NewPostgresStore(db)
		registryTx = newRegistryPostgresTx(db)
		auditStore = auditpostgres.New(db)
		log.Info("using postgres ledger store")
	} else {
		ledger = store.NewInMemoryStore()
		registryTx = service.NewShardedTx()
		auditStore = auditmemory.NewInMemoryStore()
		log.Info("using in-memory ledger store")
	}

	registryOpts := []service.Option{
		service.WithLogger(log),
		service.WithAuditPublisher(audit.NewPublisher(auditStore)),
		service.WithMetrics(insurancemetrics.New()),
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		return
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache := insurercache.New(redisClient.Client, config.InsurerCacheTTL)
		registryOpts = append(registryOpts, service.WithInsurerCache(cache))
		log.Info("insurer cache enabled")
	}

	registry := service.New(ledger, registryTx, cfg.Owner, registryOpts...)

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, "coverbook", "coverbook")
	httpMetrics := platformmetrics.New()

	router := chi.NewRouter()
	handler.New(registry, log, httpMetrics, jwtValidatorAdapter{svc: jwtService}).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting coverbook", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if db != nil && len(cfg.KafkaBrokers) > 0 {
		outbox := auditpostgres.New(db)
		auditRelay, err := relay.New(outbox, cfg.KafkaBrokers, cfg.KafkaTopic, relay.WithLogger(log))
		if err != nil {
			log.Error("start audit relay", "error", err)
			return
		}
		group.Go(func() error {
			log.Info("starting audit relay", "topic", cfg.KafkaTopic)
			if err := auditRelay.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
	}
}
