package worker

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/jwalitptl/edu-content/internal/exporter"
	"github.com/jwalitptl/edu-content/internal/loader"
	"github.com/jwalitptl/edu-content/internal/registry"
	"github.com/jwalitptl/edu-content/internal/validation"
	"github.com/jwalitptl/edu-content/pkg/logger"
	"github.com/jwalitptl/edu-content/pkg/metrics"
)

// Swapper receives each freshly loaded catalog.
type Swapper interface {
	Swap(catalog exporter.Catalog, v *validation.Validator)
}

type CatalogReloadConfig struct {
	Interval    time.Duration
	Concurrency int
	Validation  validation.Options
}

// CatalogReloadWorker reloads a content directory on a fixed interval and
// swaps it into the service. A tree that fails to load is skipped and the
// previous catalog stays in place.
type CatalogReloadWorker struct {
	fsys     fs.FS
	target   Swapper
	notifier exporter.Sink
	config   CatalogReloadConfig
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewCatalogReloadWorker(fsys fs.FS, target Swapper, config CatalogReloadConfig, log *logger.Logger, m *metrics.Metrics) *CatalogReloadWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogReloadWorker{
		fsys:    fsys,
		target:  target,
		config:  config,
		logger:  log.WithFields(map[string]interface{}{"worker": "catalog_reload"}),
		metrics: m,
	}
}

// WithNotifier announces every swapped catalog through sink.
func (w *CatalogReloadWorker) WithNotifier(sink exporter.Sink) *CatalogReloadWorker {
	w.notifier = sink
	return w
}

func (w *CatalogReloadWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.Info("worker started", "interval", w.config.Interval.String())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			return
		case <-ticker.C:
			if err := w.Reload(ctx); err != nil {
				w.logger.Error(err, "catalog reload skipped")
			}
		}
	}
}

// Reload loads the tree once and swaps it in when it is complete.
func (w *CatalogReloadWorker) Reload(ctx context.Context) error {
	reg := registry.New()
	loaded, err := loader.LoadInto(ctx, w.fsys, reg,
		loader.WithConcurrency(w.config.Concurrency),
		loader.WithLogger(w.logger),
		loader.WithMetrics(w.metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(loaded.Failures) > 0 {
		return fmt.Errorf("failed to load catalog: %d unreadable files, first: %w", len(loaded.Failures), loaded.Failures[0])
	}

	opts := w.config.Validation
	if opts.Namespaces == nil {
		opts.Namespaces = loaded.Namespaces()
	}
	v, err := validation.New(opts, validation.WithMetrics(w.metrics))
	if err != nil {
		return fmt.Errorf("failed to build validator: %w", err)
	}

	w.target.Swap(reg, v)
	w.metrics.SetRegistrySize(reg.Len())
	w.logger.Info("catalog reloaded", "entries", reg.Len())

	w.notify(ctx, reg, v)
	return nil
}

// notify publishes a non-strict snapshot of the new catalog. Failures are
// logged by the exporter; the swap stands either way.
func (w *CatalogReloadWorker) notify(ctx context.Context, catalog exporter.Catalog, v *validation.Validator) {
	if w.notifier == nil {
		return
	}
	exp := exporter.New(catalog, v, exporter.WithLogger(w.logger), exporter.WithMetrics(w.metrics))
	snapshot, err := exp.Snapshot(ctx, exporter.Options{})
	if err != nil {
		w.logger.Error(err, "failed to build reload notice")
		return
	}
	_ = exp.Publish(ctx, snapshot, w.notifier)
}
