package validation

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/jwalitptl/edu-content/internal/model"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
	"github.com/jwalitptl/edu-content/pkg/metrics"
	"github.com/jwalitptl/edu-content/pkg/validator"
)

// Source is anything that can hand over the full set of entries to check.
// *registry.Registry satisfies it.
type Source interface {
	GetAll() []*model.EducationalContent
}

type Options struct {
	// StrictReferences reports unresolved cross-references as errors instead
	// of warnings.
	StrictReferences bool
	// RequireTranslations warns on entries without a Spanish name.
	RequireTranslations bool
	// Namespaces maps a specialty to the id prefixes its entries must use.
	Namespaces map[string][]string
}

type Validator struct {
	engine  validator.Validator
	opts    Options
	metrics *metrics.Metrics
}

type Option func(*Validator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

func New(opts Options, options ...Option) (*Validator, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	v := &Validator{engine: engine, opts: opts}
	for _, o := range options {
		o(v)
	}
	return v, nil
}

// Validate checks every entry in src and returns all issues found, sorted by
// entry position, then field, then message. A clean catalog yields an empty
// slice. The source is never modified.
func (v *Validator) Validate(src Source) ([]model.ValidationIssue, error) {
	if isNil(src) {
		return nil, apperrors.NewInvalidArgument("validation source is nil")
	}

	start := time.Now()
	entries := src.GetAll()

	counts := make(map[string]int, len(entries))
	for _, c := range entries {
		if c != nil {
			counts[c.ID]++
		}
	}

	var sorted []ordered
	for i, c := range entries {
		if c == nil {
			sorted = append(sorted, ordered{pos: i, issue: model.ValidationIssue{
				Field:    "",
				Message:  fmt.Sprintf("entry %d is nil", i),
				Severity: model.SeverityError,
				Rule:     RuleStructure,
			}})
			continue
		}

		chk := &checker{v: v, content: c, known: counts}
		if err := chk.run(); err != nil {
			return nil, err
		}
		for _, issue := range chk.issues {
			sorted = append(sorted, ordered{pos: i, issue: issue})
		}
	}

	sort.SliceStable(sorted, func(a, b int) bool {
		x, y := sorted[a], sorted[b]
		if x.pos != y.pos {
			return x.pos < y.pos
		}
		if x.issue.Field != y.issue.Field {
			return x.issue.Field < y.issue.Field
		}
		return x.issue.Message < y.issue.Message
	})

	issues := make([]model.ValidationIssue, 0, len(sorted))
	status := StatusPass
	for _, o := range sorted {
		issues = append(issues, o.issue)
		if o.issue.IsError() {
			status = StatusFail
		}
		v.metrics.ObserveIssue(string(o.issue.Severity), o.issue.Rule)
	}
	v.metrics.ObserveValidation(status, time.Since(start))

	return issues, nil
}

// Run validates src and wraps the result in a Report.
func (v *Validator) Run(src Source) (*Report, error) {
	issues, err := v.Validate(src)
	if err != nil {
		return nil, err
	}
	return NewReport(len(src.GetAll()), issues), nil
}

type ordered struct {
	pos   int
	issue model.ValidationIssue
}

func isNil(src Source) bool {
	if src == nil {
		return true
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// Entries adapts a plain slice to Source, for checking content that is not
// registered.
type Entries []*model.EducationalContent

func (e Entries) GetAll() []*model.EducationalContent {
	return e
}
