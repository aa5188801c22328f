package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/jwalitptl/edu-content/internal/catalog"
	"github.com/jwalitptl/edu-content/internal/config"
	"github.com/jwalitptl/edu-content/internal/exporter"
	contentHandler "github.com/jwalitptl/edu-content/internal/handler/content"
	"github.com/jwalitptl/edu-content/internal/handler/health"
	"github.com/jwalitptl/edu-content/internal/handler/prometheus"
	snapshotHandler "github.com/jwalitptl/edu-content/internal/handler/snapshot"
	"github.com/jwalitptl/edu-content/internal/loader"
	"github.com/jwalitptl/edu-content/internal/middleware"
	"github.com/jwalitptl/edu-content/internal/registry"
	"github.com/jwalitptl/edu-content/internal/repository/postgres"
	"github.com/jwalitptl/edu-content/internal/router"
	contentService "github.com/jwalitptl/edu-content/internal/service/content"
	"github.com/jwalitptl/edu-content/internal/validation"
	"github.com/jwalitptl/edu-content/internal/worker"
	"github.com/jwalitptl/edu-content/pkg/circuitbreaker"
	"github.com/jwalitptl/edu-content/pkg/logger"
	"github.com/jwalitptl/edu-content/pkg/messaging"
	"github.com/jwalitptl/edu-content/pkg/messaging/redis"
	"github.com/jwalitptl/edu-content/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(os.Getenv("EDU_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})

	var promHandler *prometheus.Handler
	var m *metrics.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		promHandler = prometheus.New()
		m = metrics.NewMetrics(promHandler.Registry(), "edu", "content")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the catalog before serving; the registry is read-only afterwards.
	fsys := catalog.FS()
	if cfg.Catalog.Dir != "" {
		fsys = os.DirFS(cfg.Catalog.Dir)
	}
	reg := registry.New()
	loaded, err := loader.LoadInto(ctx, fsys, reg,
		loader.WithConcurrency(cfg.Catalog.Concurrency),
		loader.WithLogger(log),
		loader.WithMetrics(m),
	)
	if err != nil {
		log.Fatal(err, "failed to load catalog", "dir", cfg.Catalog.Dir)
	}
	if len(loaded.Failures) > 0 {
		log.Warn("some content files were skipped", "failures", len(loaded.Failures))
	}
	m.SetRegistrySize(reg.Len())
	log.Info("catalog loaded", "entries", reg.Len(), "specialties", len(loaded.Manifests))

	validator, err := validation.New(validation.Options{
		StrictReferences:    cfg.Validation.StrictReferences,
		RequireTranslations: cfg.Validation.RequireTranslations,
		Namespaces:          loaded.Namespaces(),
	}, validation.WithMetrics(m))
	if err != nil {
		log.Fatal(err, "failed to build validator")
	}

	// Initialize services
	contentSvc := contentService.NewService(reg, validator, contentService.Config{
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, log)

	handlers := []router.Handler{contentHandler.NewHandler(contentSvc)}
	checks := map[string]health.Check{
		"catalog": func(context.Context) error {
			if reg.Len() == 0 {
				return errors.New("catalog is empty")
			}
			return nil
		},
	}

	// Stored snapshots are served read-only when the database is enabled.
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal(err, "failed to connect to database")
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal(err, "failed to migrate database")
		}
		snapshotRepo := postgres.NewSnapshotRepository(postgres.NewBaseRepository(db), m)
		handlers = append(handlers, snapshotHandler.NewHandler(snapshotRepo))
		checks["database"] = snapshotRepo.Ping
	}

	if cfg.Catalog.Dir != "" && cfg.Catalog.ReloadInterval > 0 {
		reloader := worker.NewCatalogReloadWorker(fsys, contentSvc, worker.CatalogReloadConfig{
			Interval:    cfg.Catalog.ReloadInterval,
			Concurrency: cfg.Catalog.Concurrency,
			Validation: validation.Options{
				StrictReferences:    cfg.Validation.StrictReferences,
				RequireTranslations: cfg.Validation.RequireTranslations,
			},
		}, log, m)

		if cfg.Redis.Enabled {
			broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), log, m)
			if err != nil {
				log.Warn("reload notices disabled", "error", err.Error())
			} else {
				defer broker.Close()
				reloader.WithNotifier(exporter.Guard(
					exporter.NewBrokerSink(broker, cfg.Redis.Channel).WithEvent(messaging.EventCatalogReloaded),
					circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
						Name:        "reload-notice",
						MaxFailures: cfg.Redis.BreakerMaxFailures,
						Timeout:     cfg.Redis.BreakerTimeout,
						OnStateChange: func(name, from, to string) {
							log.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
						},
					}),
				))
			}
		}
		go reloader.Start(ctx)
	}

	healthH := health.NewHandler(checks)

	routerConfig := router.RouterConfig{
		Mode:        cfg.Server.Mode,
		CORSConfig:  middleware.DefaultCORSConfig(),
		MetricsPath: cfg.Monitoring.MetricsPath,
	}
	if cfg.RateLimit.Enabled {
		routerConfig.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerConfig.RateBurst = cfg.RateLimit.Burst
	}

	// Setup router
	r := router.NewRouter(
		healthH,
		promHandler,
		log,
		routerConfig,
		handlers...,
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
