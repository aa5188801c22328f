package exporter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/validation"
	"github.com/jwalitptl/edu-content/pkg/logger"
	"github.com/jwalitptl/edu-content/pkg/metrics"
)

// Catalog is the read side of the registry the exporter needs.
type Catalog interface {
	validation.Source
	GetByID(id string) (*model.EducationalContent, error)
}

type Options struct {
	// Strict drops every entry with at least one error-level issue.
	Strict bool
}

type Exporter struct {
	catalog   Catalog
	validator *validation.Validator
	log       *logger.Logger
	metrics   *metrics.Metrics
}

type Option func(*Exporter)

func WithLogger(log *logger.Logger) Option {
	return func(e *Exporter) {
		e.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Exporter) {
		e.metrics = m
	}
}

func New(catalog Catalog, v *validation.Validator, opts ...Option) *Exporter {
	e := &Exporter{
		catalog:   catalog,
		validator: v,
		log:       logger.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// GetAllContent returns every registered entry with its issues attached, in
// registration order. Nil entries are skipped.
func (e *Exporter) GetAllContent(opts Options) ([]model.ExportedContent, error) {
	items, _, err := e.collect(opts)
	return items, err
}

func (e *Exporter) GetByID(id string) (*model.EducationalContent, error) {
	return e.catalog.GetByID(id)
}

// Snapshot builds an immutable export of the catalog.
func (e *Exporter) Snapshot(ctx context.Context, opts Options) (*model.CatalogSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, summary, err := e.collect(opts)
	if err != nil {
		return nil, err
	}

	snapshot := &model.CatalogSnapshot{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Strict:    opts.Strict,
		Summary:   summary,
		Entries:   items,
	}
	e.log.Info("catalog snapshot built",
		"snapshot_id", snapshot.ID.String(),
		"strict", opts.Strict,
		"exported", summary.Exported,
		"excluded", summary.Excluded)
	return snapshot, nil
}

// Publish hands the snapshot to every sink. A failing sink does not stop the
// others; all failures are returned together.
func (e *Exporter) Publish(ctx context.Context, snapshot *model.CatalogSnapshot, sinks ...Sink) error {
	if snapshot == nil {
		return fmt.Errorf("publish: snapshot is nil")
	}

	failures := make(map[string]error)
	for _, sink := range sinks {
		err := sink.Publish(ctx, snapshot)
		e.metrics.ObserveSink(sink.Name(), err)
		if err != nil {
			e.log.Error(err, "sink publish failed", "sink", sink.Name(), "snapshot_id", snapshot.ID.String())
			failures[sink.Name()] = err
			continue
		}
		e.log.Info("snapshot published", "sink", sink.Name(), "snapshot_id", snapshot.ID.String())
	}

	if len(failures) > 0 {
		return &PublishError{Failures: failures}
	}
	return nil
}

func (e *Exporter) collect(opts Options) ([]model.ExportedContent, model.SnapshotSummary, error) {
	issues, err := e.validator.Validate(e.catalog)
	if err != nil {
		return nil, model.SnapshotSummary{}, err
	}

	byID := make(map[string][]model.ValidationIssue)
	for _, issue := range issues {
		byID[issue.ContentID] = append(byID[issue.ContentID], issue)
	}

	entries := e.catalog.GetAll()
	summary := model.SnapshotSummary{Registered: len(entries)}
	items := make([]model.ExportedContent, 0, len(entries))
	for _, c := range entries {
		if c == nil {
			summary.Excluded++
			continue
		}

		own := byID[c.ID]
		hasError := false
		for _, issue := range own {
			if issue.IsError() {
				summary.Errors++
				hasError = true
			} else {
				summary.Warnings++
			}
		}
		if opts.Strict && hasError {
			summary.Excluded++
			continue
		}
		items = append(items, model.ExportedContent{Content: c, Issues: own})
	}
	summary.Exported = len(items)

	e.metrics.ObserveExport(summary.Exported, summary.Excluded)
	return items, summary, nil
}

// PublishError lists the sinks that failed, keyed by sink name.
type PublishError struct {
	Failures map[string]error
}

func (e *PublishError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %v", name, e.Failures[name])
	}
	return "publish failed: " + strings.Join(parts, "; ")
}
