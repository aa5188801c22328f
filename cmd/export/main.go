// Command export validates the catalog, builds a snapshot and publishes it to
// every sink enabled in the config: a JSON file, Postgres and a Redis
// notification.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/jwalitptl/edu-content/internal/catalog"
	"github.com/jwalitptl/edu-content/internal/config"
	"github.com/jwalitptl/edu-content/internal/exporter"
	"github.com/jwalitptl/edu-content/internal/loader"
	"github.com/jwalitptl/edu-content/internal/registry"
	"github.com/jwalitptl/edu-content/internal/repository"
	"github.com/jwalitptl/edu-content/internal/repository/postgres"
	"github.com/jwalitptl/edu-content/internal/validation"
	"github.com/jwalitptl/edu-content/pkg/logger"
	"github.com/jwalitptl/edu-content/pkg/messaging/redis"
	"github.com/jwalitptl/edu-content/pkg/metrics"
)

const (
	exitOK      = 0
	exitPublish = 1
	exitFatal   = 2

	pushJob = "edu_content_export"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	var (
		configPath = flags.String("config", "", "path to config.yml")
		dir        = flags.String("dir", "", "catalog directory (default: embedded seed catalog)")
		out        = flags.String("out", "", "write the snapshot to this JSON file")
		strict     = flags.Bool("strict", true, "drop entries that have error-level issues")
	)
	if err := flags.Parse(args); err != nil {
		return exitFatal
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return exitFatal
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dir":
			cfg.Catalog.Dir = *dir
		case "out":
			cfg.Export.FilePath = *out
		case "strict":
			cfg.Export.Strict = *strict
		}
	})

	log := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Output: os.Stderr,
		JSON:   cfg.Log.JSON,
	})

	promRegistry := prometheus.NewRegistry()
	m := metrics.NewMetrics(promRegistry, "edu", "export")

	code := export(cfg, log, m)

	// The Pushgateway gets the run's metrics whatever its outcome.
	if cfg.Monitoring.PushgatewayURL != "" {
		if err := push.New(cfg.Monitoring.PushgatewayURL, pushJob).Gatherer(promRegistry).Push(); err != nil {
			log.Warn("failed to push metrics", "url", cfg.Monitoring.PushgatewayURL, "error", err.Error())
		}
	}
	return code
}

func export(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Export.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Export.Timeout)
		defer cancel()
	}

	var fsys fs.FS = catalog.FS()
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
		log.Error(err, "failed to load catalog")
		return exitFatal
	}
	if len(loaded.Failures) > 0 {
		log.Error(loaded.Failures[0], "catalog has unreadable files", "failures", len(loaded.Failures))
		return exitFatal
	}
	m.SetRegistrySize(reg.Len())

	validator, err := validation.New(validation.Options{
		StrictReferences:    cfg.Validation.StrictReferences,
		RequireTranslations: cfg.Validation.RequireTranslations,
		Namespaces:          loaded.Namespaces(),
	}, validation.WithMetrics(m))
	if err != nil {
		log.Error(err, "failed to build validator")
		return exitFatal
	}

	exp := exporter.New(reg, validator, exporter.WithLogger(log), exporter.WithMetrics(m))
	snapshot, err := exp.Snapshot(ctx, exporter.Options{Strict: cfg.Export.Strict})
	if err != nil {
		log.Error(err, "failed to build snapshot")
		return exitFatal
	}

	set, err := buildSinks(ctx, cfg, log, m)
	if err != nil {
		log.Error(err, "failed to set up sinks")
		return exitFatal
	}
	defer set.close()

	if len(set.sinks) == 0 {
		log.Warn("no sinks enabled; snapshot built but not published",
			"snapshot_id", snapshot.ID.String())
		return exitOK
	}
	if err := exp.Publish(ctx, snapshot, set.sinks...); err != nil {
		return exitPublish
	}

	if set.snapshots != nil && cfg.Export.RetentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -cfg.Export.RetentionDays)
		deleted, err := set.snapshots.DeleteBefore(ctx, cutoff)
		if err != nil {
			// The new snapshot is already stored; pruning is retried next run.
			log.Error(err, "failed to prune old snapshots")
		} else {
			log.Info("pruned old snapshots", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
		}
	}
	return exitOK
}

type sinkSet struct {
	sinks     []exporter.Sink
	snapshots repository.SnapshotRepository
	closers   []func() error
	log       *logger.Logger
}

func (s *sinkSet) close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			s.log.Warn("failed to close sink connection", "error", err.Error())
		}
	}
}

// buildSinks connects every sink enabled in cfg.
func buildSinks(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*sinkSet, error) {
	set := &sinkSet{log: log}

	if cfg.Export.FilePath != "" {
		set.sinks = append(set.sinks, exporter.NewFileSink(cfg.Export.FilePath))
	}

	if cfg.Database.Enabled {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			set.close()
			return nil, err
		}
		set.closers = append(set.closers, db.Close)
		if err := postgres.Migrate(ctx, db); err != nil {
			set.close()
			return nil, err
		}
		repo := postgres.NewSnapshotRepository(postgres.NewBaseRepository(db), m)
		set.snapshots = repo
		set.sinks = append(set.sinks, exporter.NewRepositorySink(repo))
	}

	if cfg.Redis.Enabled {
		broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), log, m)
		if err != nil {
			set.close()
			return nil, err
		}
		set.closers = append(set.closers, broker.Close)
		set.sinks = append(set.sinks, exporter.NewBrokerSink(broker, cfg.Redis.Channel))
	}

	return set, nil
}
