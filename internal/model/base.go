package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Normalize clamps page and page size to usable values.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the number of items before this page. It saturates at
// math.MaxInt instead of overflowing for very large page numbers.
func (p Pagination) Offset() int {
	p = p.Normalize()
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Window returns the [start, end) slice bounds of this page within total items.
func (p Pagination) Window(total int) (int, int) {
	p = p.Normalize()
	if total < 0 {
		total = 0
	}
	start := p.Offset()
	if start > total {
		start = total
	}
	end := total
	if total-start > p.PageSize {
		end = start + p.PageSize
	}
	return start, end
}

// ContentFilter narrows a catalog listing.
type ContentFilter struct {
	Pagination
	Type       string `json:"type" form:"type"`
	Status     string `json:"status" form:"status"`
	System     string `json:"system" form:"system"`
	Topic      string `json:"topic" form:"topic"`
	SearchTerm string `json:"search" form:"search"`
	Strict     bool   `json:"strict" form:"strict"`
}

// Matches reports whether c passes every non-empty criterion of the filter.
func (f ContentFilter) Matches(c *EducationalContent) bool {
	if f.Type != "" && string(c.Type) != f.Type {
		return false
	}
	if f.Status != "" && string(c.Status) != f.Status {
		return false
	}
	if f.System != "" && !c.HasSystem(f.System) {
		return false
	}
	if f.Topic != "" && !c.HasTopic(f.Topic) {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.SearchTerm)); term != "" {
		if !matchesTerm(c, term) {
			return false
		}
	}
	return true
}

func matchesTerm(c *EducationalContent, term string) bool {
	candidates := append([]string{c.ID, c.Name, c.NameEs}, c.AlternateNames...)
	candidates = append(candidates, c.Tags.Keywords...)
	for _, s := range candidates {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// ExportedContent is a catalog entry as handed to renderers, with the issues
// found for it attached.
type ExportedContent struct {
	Content *EducationalContent `json:"content"`
	Issues  []ValidationIssue   `json:"issues,omitempty"`
}

// SnapshotSummary counts what went into a snapshot.
type SnapshotSummary struct {
	Registered int `json:"registered" db:"registered"`
	Exported   int `json:"exported" db:"exported"`
	Excluded   int `json:"excluded" db:"excluded"`
	Errors     int `json:"errors" db:"errors"`
	Warnings   int `json:"warnings" db:"warnings"`
}

// CatalogSnapshot is an immutable export of the catalog at one point in time.
type CatalogSnapshot struct {
	ID        uuid.UUID         `json:"id" db:"id"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
	Strict    bool              `json:"strict" db:"strict"`
	Summary   SnapshotSummary   `json:"summary"`
	Entries   []ExportedContent `json:"entries"`
}

// SnapshotRecord is a stored snapshot without its entries.
type SnapshotRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Strict    bool      `json:"strict" db:"strict"`
	SnapshotSummary
}
