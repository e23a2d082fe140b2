package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/tenancy/pkg/accounts"
	"github.com/platinummonkey/tenancy/pkg/config"
	"github.com/platinummonkey/tenancy/pkg/guestroles"
	"github.com/platinummonkey/tenancy/pkg/httputil"
	"github.com/platinummonkey/tenancy/pkg/middleware"
	"github.com/platinummonkey/tenancy/pkg/observability"
	"github.com/platinummonkey/tenancy/pkg/profile"
	"github.com/platinummonkey/tenancy/pkg/secrets"
	"github.com/platinummonkey/tenancy/pkg/storage/postgres"
	"github.com/platinummonkey/tenancy/pkg/tenants"
	"github.com/platinummonkey/tenancy/pkg/webhooks"
)

const maxRequestBytes = 1 << 20

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tenancy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)
	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	conns, err := postgres.NewConnectionManager(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	if cfg.Storage.RunMigrations {
		if err := postgres.RunMigrations(ctx, conns.Primary(), logger); err != nil {
			return err
		}
	}

	redisClient, err := postgres.NewRedisClient(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	key, err := cfg.Webhooks.Key()
	if err != nil {
		return err
	}
	codec, err := secrets.NewCodec(key)
	if err != nil {
		return err
	}

	// profiles
	var (
		profileCache profile.Cache
		healthRedis  redis.UniversalClient
	)
	if redisClient != nil {
		profileCache = profile.NewRedisCache(redisClient, cfg.Storage.ProfileCacheTTL)
		healthRedis = redisClient
	}
	profileStore := profile.NewStore(conns.Replica())
	profiles := profile.NewLoader(profileStore, profileCache, logger, metrics)

	// webhooks
	hookRepo := webhooks.NewCachedRepository(webhooks.NewPostgresRepository(conns.Primary()), cfg.Webhooks.HookCacheTTL, metrics)
	propagations := webhooks.NewPropagationLog(cfg.Webhooks.PropagationLogSize)
	dispatcher := webhooks.NewDispatcher(hookRepo, codec, webhooks.DispatcherConfig{
		RequestTimeout: cfg.Webhooks.RequestTimeout,
		Deadline:       cfg.Webhooks.DispatchDeadline,
		MaxConcurrency: cfg.Webhooks.MaxConcurrency,
	},
		webhooks.WithLogger(logger),
		webhooks.WithMetrics(metrics),
		webhooks.WithPropagationLog(propagations),
	)

	scheduler := cron.New()
	if _, err := propagations.SchedulePruning(scheduler, cfg.Webhooks.PropagationPruneSpec, cfg.Webhooks.PropagationLogRetention, logger); err != nil {
		return err
	}
	scheduler.Start()

	// use cases
	roleRepo := guestroles.NewPostgresRepository(conns.Primary())
	webhookService := webhooks.NewService(hookRepo, codec, logger, metrics)
	roleService := guestroles.NewService(roleRepo, logger, metrics)
	tenantService := tenants.NewService(tenants.NewPostgresRepository(conns.Primary()), logger, metrics)
	accountService := accounts.NewService(accounts.Dependencies{
		Accounts: accounts.NewPostgresRepository(conns.Primary()),
		Guests:   accounts.NewGuestPostgresRepository(conns.Primary()),
		Roles:    roleRepo,
		Grants:   profileStore,
		Hooks:    dispatcher,
		Profiles: profiles,
		Logger:   logger,
		Metrics:  metrics,
	})

	healthRouter := mux.NewRouter()
	observability.RegisterHealthRoutes(healthRouter, observability.NewHealthChecker(conns.Primary(), healthRedis, cfg.Observability.OTelServiceVersion))
	if cfg.Observability.MetricsEnabled {
		healthRouter.Handle("/metrics", observability.MetricsHandler(registry)).Methods(http.MethodGet)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthRouter,
	}

	router := mux.NewRouter()
	router.Use(observability.HTTPMetricsMiddleware(metrics))
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware(logger),
		httputil.LoggingMiddleware,
		httputil.MaxBytesMiddleware(maxRequestBytes),
		middleware.NewProfileMiddleware(profiles, cfg.Server.IdentityHeader).WithMetrics(metrics).Handler,
	)
	webhooks.NewHandlers(webhookService, propagations).RegisterRoutes(api)
	guestroles.NewHandlers(roleService).RegisterRoutes(api)
	tenants.NewHandlers(tenantService).RegisterRoutes(api)
	accounts.NewHandlers(accountService).RegisterRoutes(api)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthCtx, stopHealth := context.WithCancel(ctx)
	conns.StartHealthCheckRoutine(healthCtx, 0)

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		stopHealth()
		<-scheduler.Stop().Done()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return conns.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, otelProviders, logger)
	})

	go func() {
		defer observability.RecoverPanic(logger, "health server")
		logger.WithField("addr", healthServer.Addr).Info("Health endpoints listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	go func() {
		defer observability.RecoverPanic(logger, "http server")
		logger.WithField("addr", server.Addr).Info("Tenancy API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
		}
	}()

	return shutdown.WaitForShutdown(ctx)
}
