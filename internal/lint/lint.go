// Package lint loads a content tree, validates it and renders the result for
// the content-lint command.
package lint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"

	"github.com/jwalitptl/edu-content/internal/loader"
	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/registry"
	"github.com/jwalitptl/edu-content/internal/validation"
	"github.com/jwalitptl/edu-content/pkg/logger"
	"github.com/jwalitptl/edu-content/pkg/metrics"
)

// Exit codes.
const (
	ExitClean  = 0
	ExitFailed = 1
	ExitFatal  = 2
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Options struct {
	// Strict makes warnings fail the run.
	Strict      bool
	Format      string
	Concurrency int
	Validation  validation.Options
	Logger      *logger.Logger
	Metrics     *metrics.Metrics
}

// Run lints the tree in fsys, writes the report to out and load problems to
// errOut, and returns the process exit code.
func Run(ctx context.Context, fsys fs.FS, opts Options, out, errOut io.Writer) int {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Format != FormatText && opts.Format != FormatJSON {
		fmt.Fprintf(errOut, "unknown format %q; want %s or %s\n", opts.Format, FormatText, FormatJSON)
		return ExitFatal
	}

	catalog, err := loader.New(fsys,
		loader.WithConcurrency(opts.Concurrency),
		loader.WithLogger(log),
		loader.WithMetrics(opts.Metrics),
	).Load(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "load failed: %v\n", err)
		return ExitFatal
	}
	if len(catalog.Failures) > 0 {
		for _, f := range catalog.Failures {
			fmt.Fprintf(errOut, "load failed: %v\n", f)
		}
		return ExitFatal
	}

	reg := registry.New()
	if err := catalog.Register(reg); err != nil {
		fmt.Fprintf(errOut, "load failed: %v\n", err)
		return ExitFatal
	}
	opts.Metrics.SetRegistrySize(reg.Len())

	vopts := opts.Validation
	if vopts.Namespaces == nil {
		vopts.Namespaces = catalog.Namespaces()
	}
	v, err := validation.New(vopts, validation.WithMetrics(opts.Metrics))
	if err != nil {
		fmt.Fprintf(errOut, "validator: %v\n", err)
		return ExitFatal
	}
	report, err := v.Run(reg)
	if err != nil {
		fmt.Fprintf(errOut, "validation failed: %v\n", err)
		return ExitFatal
	}
	if len(catalog.Notices) > 0 {
		issues := make([]model.ValidationIssue, 0, len(report.Issues)+len(catalog.Notices))
		issues = append(issues, report.Issues...)
		issues = append(issues, catalog.Notices...)
		report = validation.NewReport(report.ContentCount, issues)
	}

	log.Debug("catalog validated",
		"entries", report.ContentCount,
		"errors", report.Errors,
		"warnings", report.Warnings)

	if err := Write(out, report, opts.Format, opts.Strict); err != nil {
		fmt.Fprintf(errOut, "write report: %v\n", err)
		return ExitFatal
	}
	if report.Failed(opts.Strict) {
		return ExitFailed
	}
	return ExitClean
}

// Write renders report in the given format.
func Write(w io.Writer, report *validation.Report, format string, strict bool) error {
	if format == FormatJSON {
		return writeJSON(w, report, strict)
	}
	return writeText(w, report, strict)
}

type jsonReport struct {
	Status       string                     `json:"status"`
	Strict       bool                       `json:"strict"`
	ContentCount int                        `json:"content_count"`
	Errors       int                        `json:"errors"`
	Warnings     int                        `json:"warnings"`
	Content      []validation.ContentIssues `json:"content"`
}

func writeJSON(w io.Writer, report *validation.Report, strict bool) error {
	groups := report.Group()
	if groups == nil {
		groups = []validation.ContentIssues{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Status:       status(report, strict),
		Strict:       strict,
		ContentCount: report.ContentCount,
		Errors:       report.Errors,
		Warnings:     report.Warnings,
		Content:      groups,
	})
}

func writeText(w io.Writer, report *validation.Report, strict bool) error {
	ew := &errWriter{w: w}
	for _, group := range report.Group() {
		id := group.ContentID
		if id == "" {
			id = "(no id)"
		}
		ew.printf("%s\n", id)
		for _, field := range group.Fields {
			name := field.Field
			if name == "" {
				name = "(entry)"
			}
			ew.printf("  %s\n", name)
			for _, issue := range field.Issues {
				ew.printf("    %-8s %s [%s]\n", issue.Severity, issue.Message, issue.Rule)
			}
		}
		ew.printf("\n")
	}
	ew.printf("%s checked: %s, %s (%s)\n",
		plural(report.ContentCount, "entry", "entries"),
		plural(report.Errors, "error", "errors"),
		plural(report.Warnings, "warning", "warnings"),
		status(report, strict))
	return ew.err
}

func status(report *validation.Report, strict bool) string {
	if report.Failed(strict) {
		return validation.StatusFail
	}
	return validation.StatusPass
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// errWriter keeps the first write error so the text renderer can print
// without checking every call.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
