package loader

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/registry"
	"github.com/jwalitptl/edu-content/pkg/logger"
	"github.com/jwalitptl/edu-content/pkg/metrics"
)

const (
	// RuleFileStructure tags notices about how a content file is named or sized.
	RuleFileStructure = "file-structure"
	// MaxFileLines is the longest a content file should be before it is split.
	MaxFileLines = 600
)

var kebabCase = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// FileError is a file that could not be read or decoded.
type FileError struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Entry is a decoded content file.
type Entry struct {
	Path    string
	Content *model.EducationalContent
}

// Catalog is the result of walking a content tree. Entries are in lexical
// path order.
type Catalog struct {
	Entries   []Entry
	Manifests map[string]Manifest
	Failures  []FileError
	// Notices are warnings about the files entries came from, such as
	// names that are not kebab-case.
	Notices []model.ValidationIssue
}

// Register adds every entry to reg in path order. It stops at the first
// duplicate id.
func (c *Catalog) Register(reg *registry.Registry) error {
	for _, e := range c.Entries {
		if err := reg.Register(e.Content); err != nil {
			return fmt.Errorf("register %s: %w", e.Path, err)
		}
	}
	return nil
}

// Namespaces returns the id prefixes each specialty manifest declares.
func (c *Catalog) Namespaces() map[string][]string {
	out := make(map[string][]string)
	for _, m := range c.Manifests {
		if len(m.IDPrefixes) > 0 {
			out[m.Specialty] = append(out[m.Specialty], m.IDPrefixes...)
		}
	}
	return out
}

type Loader struct {
	fsys        fs.FS
	concurrency int
	log         *logger.Logger
	metrics     *metrics.Metrics
}

type Option func(*Loader)

func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) {
		l.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

func New(fsys fs.FS, opts ...Option) *Loader {
	l := &Loader{
		fsys:        fsys,
		concurrency: runtime.NumCPU(),
		log:         logger.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load walks the tree, reads every manifest and decodes every content file.
// Per-file failures are collected on the catalog; the returned error is
// reserved for an unreadable tree or a cancelled context.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	var contentPaths, manifestPaths []string
	err := fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && isHidden(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		switch {
		case isHidden(d.Name()):
		case d.Name() == ManifestName:
			manifestPaths = append(manifestPaths, p)
		case IsContentFile(d.Name()):
			contentPaths = append(contentPaths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content tree: %w", err)
	}

	catalog := &Catalog{Manifests: make(map[string]Manifest)}
	for _, p := range manifestPaths {
		m, err := l.readManifest(p)
		if err != nil {
			catalog.Failures = append(catalog.Failures, FileError{Path: p, Err: err})
			continue
		}
		catalog.Manifests[path.Dir(p)] = m
	}

	results := make([]*model.EducationalContent, len(contentPaths))
	lines := make([]int, len(contentPaths))
	failures := make([]error, len(contentPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, p := range contentPaths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(l.fsys, p)
			if err != nil {
				failures[i] = err
				return nil
			}
			content, err := DecodeContent(p, data)
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = content
			lines[i] = countLines(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}

	for i, p := range contentPaths {
		if failures[i] != nil {
			catalog.Failures = append(catalog.Failures, FileError{Path: p, Err: failures[i]})
			continue
		}
		content := results[i]
		if content.Specialty == "" {
			if m, ok := catalog.manifestFor(p); ok {
				content.Specialty = m.Specialty
			}
		}
		catalog.Entries = append(catalog.Entries, Entry{Path: p, Content: content})
		catalog.Notices = append(catalog.Notices, fileNotices(p, content.ID, lines[i])...)
	}

	sort.Slice(catalog.Failures, func(a, b int) bool {
		return catalog.Failures[a].Path < catalog.Failures[b].Path
	})
	for _, f := range catalog.Failures {
		l.log.Warn("content file failed to load", "path", f.Path, "error", f.Err.Error())
	}
	l.metrics.ObserveLoadFailures(len(catalog.Failures))
	l.log.Debug("content tree loaded",
		"entries", len(catalog.Entries),
		"manifests", len(catalog.Manifests),
		"failures", len(catalog.Failures))

	return catalog, nil
}

// LoadInto loads fsys and registers the entries into reg. It returns the
// catalog even when registration fails so callers can report failures.
func LoadInto(ctx context.Context, fsys fs.FS, reg *registry.Registry, opts ...Option) (*Catalog, error) {
	catalog, err := New(fsys, opts...).Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := catalog.Register(reg); err != nil {
		return catalog, err
	}
	return catalog, nil
}

func (l *Loader) readManifest(p string) (Manifest, error) {
	data, err := fs.ReadFile(l.fsys, p)
	if err != nil {
		return Manifest{}, err
	}
	return DecodeManifest(data)
}

// manifestFor returns the manifest of the nearest enclosing directory.
func (c *Catalog) manifestFor(p string) (Manifest, bool) {
	dir := path.Dir(p)
	for {
		if m, ok := c.Manifests[dir]; ok {
			return m, true
		}
		if dir == "." || dir == "/" {
			return Manifest{}, false
		}
		dir = path.Dir(dir)
	}
}

// fileNotices reports a content file whose name is not kebab-case or that
// runs past MaxFileLines.
func fileNotices(p, contentID string, lineCount int) []model.ValidationIssue {
	var notices []model.ValidationIssue
	name := path.Base(p)
	if stem := strings.TrimSuffix(name, path.Ext(name)); !kebabCase.MatchString(stem) {
		notices = append(notices, model.ValidationIssue{
			ContentID: contentID,
			Field:     "file",
			Message:   fmt.Sprintf("file name %q should be kebab-case", name),
			Severity:  model.SeverityWarning,
			Rule:      RuleFileStructure,
		})
	}
	if lineCount > MaxFileLines {
		notices = append(notices, model.ValidationIssue{
			ContentID: contentID,
			Field:     "file",
			Message:   fmt.Sprintf("%s has %d lines, more than %d; consider splitting it", p, lineCount, MaxFileLines),
			Severity:  model.SeverityWarning,
			Rule:      RuleFileStructure,
		})
	}
	return notices
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}
