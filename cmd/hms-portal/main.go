package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openhms/hms-portal/internal/api"
	"github.com/openhms/hms-portal/internal/api/metrics"
	"github.com/openhms/hms-portal/internal/core/domain"
	"github.com/openhms/hms-portal/internal/core/ports"
	"github.com/openhms/hms-portal/internal/core/service"
	"github.com/openhms/hms-portal/internal/infrastructure/config"
	"github.com/openhms/hms-portal/internal/infrastructure/cookie"
	"github.com/openhms/hms-portal/internal/infrastructure/db/mongo"
	"github.com/openhms/hms-portal/internal/infrastructure/db/mysql"
	"github.com/openhms/hms-portal/internal/infrastructure/db/redis"
	"github.com/openhms/hms-portal/internal/infrastructure/http/handlers"
	"github.com/openhms/hms-portal/internal/infrastructure/openmrs"
	"github.com/openhms/hms-portal/internal/infrastructure/queue"
	"github.com/openhms/hms-portal/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "hms-portal",
		Short: "Session gateway between the hospital portal and OpenMRS",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// checkCmd validates configuration and probes every dependency once.
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and ping dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			log := initLogger(cfg)

			client := newOpenMRSClient(cfg)
			if err := client.Ping(ctx); err != nil {
				return fmt.Errorf("openmrs: %w", err)
			}
			log.Info().Str("base_url", cfg.OpenMRS.BaseURL).Msg("openmrs reachable")

			mc, _, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
			if err != nil {
				return err
			}
			defer mc.Disconnect(context.Background())

			rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			if err != nil {
				return err
			}
			defer rdb.Close()

			if cfg.Billing.DSN != "" {
				billing, err := mysql.Connect(ctx, mysql.Config{DSN: cfg.Billing.DSN})
				if err != nil {
					return err
				}
				defer billing.Close()
			}

			log.Info().Msg("all dependencies reachable")
			return nil
		},
	}
}

func initLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "hms-portal",
		Env:     cfg.Env,
	})
}

func newOpenMRSClient(cfg *config.Config) *openmrs.Client {
	return openmrs.NewClient(openmrs.Config{
		BaseURL:       cfg.OpenMRS.BaseURL,
		SessionCookie: cfg.OpenMRS.SessionCookie,
		Timeout:       cfg.OpenMRS.Timeout,
		Observer:      metrics.ObserveUpstream,
	})
}

func runServer(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := initLogger(cfg)

	// --- Audit store ---
	mongoClient, mongoDB, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	auditRepo := mongo.NewAuditRepository(mongoDB)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure audit indexes")
	}

	// --- Expiry dedup ---
	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	// --- Billing database (readiness only) ---
	var billing *sql.DB
	if cfg.Billing.DSN != "" {
		billing, err = mysql.Connect(ctx, mysql.Config{DSN: cfg.Billing.DSN})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to billing database")
		}
		defer billing.Close()
		log.Info().Msg("connected to billing database")
	}

	// --- Audit pipeline ---
	auditService := service.NewAuditService(auditRepo, redis.NewExpiryDedup(rdb), log)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditService, queue.Hooks{
		Dropped: func(ev domain.AuthEvent) {
			metrics.AuditEventsDroppedTotal.WithLabelValues(string(ev.Type)).Inc()
		},
		Depth: metrics.SetAuditQueueDepth,
	}, log)
	dispatcher.Start(ctx)

	// --- Core services ---
	client := newOpenMRSClient(cfg)
	var clinical ports.ClinicalAPI = client

	router := api.NewRouter(api.Dependencies{
		Log:               log,
		SessionCookie:     cookie.Options{Name: cfg.Session.CookieName, Secure: cfg.Session.CookieSecure},
		LocationCookie:    cookie.NewLocationCookie(cfg.Session.LocationCookieName, cfg.Session.CookieSecret, cfg.Session.CookieSecure),
		Upstream:          service.HeaderConfig{Mode: service.HeaderMode(cfg.OpenMRS.AuthMode), CookieName: cfg.OpenMRS.SessionCookie},
		ProtectedPrefixes: cfg.ProtectedPrefixes,
		Auth:              service.NewAuthService(clinical, dispatcher, log),
		Sessions:          service.NewSessionContextProvider(clinical, log),
		Locations:         service.NewLocationService(clinical),
		Audit:             dispatcher,
		Readiness:         readiness(client, mongoClient, rdb, billing),
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := router.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		stop()
	}

	log.Info().Msg("shutting down server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := router.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := dispatcher.Close(sctx); err != nil {
		log.Warn().Err(err).Msg("audit queue not fully drained")
	}
	log.Info().Msg("server stopped")
	return nil
}

func readiness(client *openmrs.Client, mongoClient *mongodriver.Client, rdb *goredis.Client, billing *sql.DB) []handlers.Dependency {
	deps := []handlers.Dependency{
		{Name: "openmrs", Check: client.Ping},
		{Name: "mongodb", Check: mongo.Pinger(mongoClient)},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
	if billing != nil {
		deps = append(deps, handlers.Dependency{Name: "billing_mysql", Check: billing.PingContext})
	}
	return deps
}
