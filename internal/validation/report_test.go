package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/edu-content/internal/model"
)

func issue(id, field string, sev model.Severity) model.ValidationIssue {
	return model.ValidationIssue{ContentID: id, Field: field, Message: field + " problem", Severity: sev}
}

func TestReport_Failed(t *testing.T) {
	clean := NewReport(3, nil)
	assert.Equal(t, StatusPass, clean.Status)
	assert.NotNil(t, clean.Issues)
	assert.False(t, clean.Failed(false))
	assert.False(t, clean.Failed(true))

	warned := NewReport(3, []model.ValidationIssue{issue("a", "media", model.SeverityWarning)})
	assert.Equal(t, StatusPass, warned.Status)
	assert.False(t, warned.Failed(false))
	assert.True(t, warned.Failed(true))

	errored := NewReport(3, []model.ValidationIssue{issue("a", "id", model.SeverityError)})
	assert.Equal(t, StatusFail, errored.Status)
	assert.True(t, errored.Failed(false))
}

func TestReport_Group(t *testing.T) {
	r := NewReport(2, []model.ValidationIssue{
		issue("b", "levels", model.SeverityError),
		issue("b", "levels", model.SeverityError),
		issue("b", "media", model.SeverityWarning),
		issue("a", "id", model.SeverityError),
	})

	groups := r.Group()
	require.Len(t, groups, 2)
	assert.Equal(t, "b", groups[0].ContentID)
	require.Len(t, groups[0].Fields, 2)
	assert.Equal(t, "levels", groups[0].Fields[0].Field)
	assert.Len(t, groups[0].Fields[0].Issues, 2)
	assert.Equal(t, "media", groups[0].Fields[1].Field)
	assert.Equal(t, "a", groups[1].ContentID)
}
