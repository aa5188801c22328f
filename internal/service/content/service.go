// Package content serves the validated catalog to the HTTP API.
package content

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/edu-content/internal/exporter"
	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/validation"
	"github.com/jwalitptl/edu-content/pkg/logger"
)

type ContentServicer interface {
	List(ctx context.Context, filter model.ContentFilter) (*ListResult, error)
	Get(ctx context.Context, id string) (*model.ExportedContent, error)
	Issues(ctx context.Context, id string) ([]model.ValidationIssue, error)
	Report(ctx context.Context) (*validation.Report, error)
}

// ListResult is one page of a filtered listing.
type ListResult struct {
	Items    []model.ExportedContent `json:"items"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}

type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// state is the catalog being served. Cache keys carry its generation so a
// result computed for a replaced catalog is never served.
type state struct {
	generation uint64
	catalog    exporter.Catalog
	validator  *validation.Validator
	exporter   *exporter.Exporter
}

func (st *state) key(name string) string {
	return fmt.Sprintf("%d:%s", st.generation, name)
}

type Service struct {
	mu    sync.RWMutex
	state *state
	cache *cache.Cache
	log   *logger.Logger
}

func NewService(catalog exporter.Catalog, v *validation.Validator, cfg Config, log *logger.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 2 * cfg.TTL
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		cache: cache.New(cfg.TTL, cfg.CleanupInterval),
		log:   log,
	}
	s.state = s.newState(0, catalog, v)
	return s
}

// List returns the page of entries matching filter. With filter.Strict set,
// entries carrying an error-level issue are left out.
func (s *Service) List(ctx context.Context, filter model.ContentFilter) (*ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := s.items(s.current(), filter.Strict)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	matched := make([]model.ExportedContent, 0, len(items))
	for _, it := range items {
		if filter.Matches(it.Content) {
			matched = append(matched, it)
		}
	}

	page := filter.Pagination.Normalize()
	start, end := page.Window(len(matched))
	return &ListResult{
		Items:    matched[start:end],
		Total:    len(matched),
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

// Get returns one entry with its issues attached.
func (s *Service) Get(ctx context.Context, id string) (*model.ExportedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := s.current()
	c, err := st.exporter.GetByID(id)
	if err != nil {
		return nil, err
	}
	report, err := s.report(st)
	if err != nil {
		return nil, err
	}
	return &model.ExportedContent{Content: c, Issues: report.ForContent(id)}, nil
}

// Issues returns the issues found for one entry. An unknown id is a
// not-found error; a clean entry yields an empty slice.
func (s *Service) Issues(ctx context.Context, id string) ([]model.ValidationIssue, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Issues == nil {
		return []model.ValidationIssue{}, nil
	}
	return item.Issues, nil
}

// Report returns the validation report for the whole catalog. Reports are
// cached for the configured TTL.
func (s *Service) Report(ctx context.Context) (*validation.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.report(s.current())
}

// Invalidate drops every cached result.
func (s *Service) Invalidate() {
	s.cache.Flush()
}

// Swap replaces the served catalog and its validator. Requests already
// running finish against the old catalog.
func (s *Service) Swap(catalog exporter.Catalog, v *validation.Validator) {
	s.mu.Lock()
	s.state = s.newState(s.state.generation+1, catalog, v)
	s.mu.Unlock()

	s.cache.Flush()
}

func (s *Service) newState(generation uint64, catalog exporter.Catalog, v *validation.Validator) *state {
	return &state{
		generation: generation,
		catalog:    catalog,
		validator:  v,
		exporter:   exporter.New(catalog, v, exporter.WithLogger(s.log)),
	}
}

func (s *Service) current() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) report(st *state) (*validation.Report, error) {
	key := st.key("report")
	if cached, found := s.cache.Get(key); found {
		return cached.(*validation.Report), nil
	}

	report, err := st.validator.Run(st.catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to validate catalog: %w", err)
	}
	s.cache.SetDefault(key, report)
	s.log.Debug("validation report refreshed",
		"generation", st.generation,
		"entries", report.ContentCount,
		"errors", report.Errors,
		"warnings", report.Warnings)
	return report, nil
}

func (s *Service) items(st *state, strict bool) ([]model.ExportedContent, error) {
	key := st.key("items")
	if strict {
		key = st.key("items:strict")
	}
	if cached, found := s.cache.Get(key); found {
		return cached.([]model.ExportedContent), nil
	}

	items, err := st.exporter.GetAllContent(exporter.Options{Strict: strict})
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(key, items)
	return items, nil
}
