package validation

import (
	"time"

	"github.com/jwalitptl/edu-content/internal/model"
)

const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Report summarizes one validation run. Status is fail when any error-severity
// issue is present; warnings alone keep it at pass.
type Report struct {
	CheckedAt    time.Time               `json:"checked_at"`
	ContentCount int                     `json:"content_count"`
	Status       string                  `json:"status"`
	Errors       int                     `json:"errors"`
	Warnings     int                     `json:"warnings"`
	Issues       []model.ValidationIssue `json:"issues"`
}

// FieldIssues is the issues reported against one field of one entry.
type FieldIssues struct {
	Field  string                  `json:"field"`
	Issues []model.ValidationIssue `json:"issues"`
}

// ContentIssues groups an entry's issues by field, in report order.
type ContentIssues struct {
	ContentID string        `json:"content_id"`
	Fields    []FieldIssues `json:"fields"`
}

func NewReport(contentCount int, issues []model.ValidationIssue) *Report {
	if issues == nil {
		issues = []model.ValidationIssue{}
	}
	r := &Report{
		CheckedAt:    time.Now().UTC(),
		ContentCount: contentCount,
		Status:       StatusPass,
		Issues:       issues,
	}
	for _, issue := range issues {
		if issue.IsError() {
			r.Errors++
		} else {
			r.Warnings++
		}
	}
	if r.Errors > 0 {
		r.Status = StatusFail
	}
	return r
}

// Failed reports whether the run should fail a build. In strict mode any
// warning fails it too.
func (r *Report) Failed(strict bool) bool {
	if r.Errors > 0 {
		return true
	}
	return strict && r.Warnings > 0
}

// ForContent returns the issues reported against one entry.
func (r *Report) ForContent(id string) []model.ValidationIssue {
	var out []model.ValidationIssue
	for _, issue := range r.Issues {
		if issue.ContentID == id {
			out = append(out, issue)
		}
	}
	return out
}

// ErroredIDs returns the ids of entries with at least one error.
func (r *Report) ErroredIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, issue := range r.Issues {
		if issue.IsError() {
			ids[issue.ContentID] = true
		}
	}
	return ids
}

// Group returns issues grouped by content id, then field, preserving the
// order in which each id and field first appears.
func (r *Report) Group() []ContentIssues {
	var groups []ContentIssues
	contentIdx := make(map[string]int)
	fieldIdx := make(map[string]map[string]int)

	for _, issue := range r.Issues {
		ci, ok := contentIdx[issue.ContentID]
		if !ok {
			ci = len(groups)
			contentIdx[issue.ContentID] = ci
			fieldIdx[issue.ContentID] = make(map[string]int)
			groups = append(groups, ContentIssues{ContentID: issue.ContentID})
		}

		fields := fieldIdx[issue.ContentID]
		fi, ok := fields[issue.Field]
		if !ok {
			fi = len(groups[ci].Fields)
			fields[issue.Field] = fi
			groups[ci].Fields = append(groups[ci].Fields, FieldIssues{Field: issue.Field})
		}
		groups[ci].Fields[fi].Issues = append(groups[ci].Fields[fi].Issues, issue)
	}
	return groups
}
