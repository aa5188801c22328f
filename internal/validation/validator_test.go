package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/internal/model/modeltest"
	"github.com/jwalitptl/edu-content/internal/registry"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
)

func newValidator(t *testing.T, opts Options) *Validator {
	t.Helper()
	v, err := New(opts)
	require.NoError(t, err)
	return v
}

func findIssue(issues []model.ValidationIssue, field string) (model.ValidationIssue, bool) {
	for _, issue := range issues {
		if issue.Field == field {
			return issue, true
		}
	}
	return model.ValidationIssue{}, false
}

func TestValidate_CleanCatalog(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(modeltest.Linked("dermatology-acne", "dermatology-psoriasis")))
	require.NoError(t, reg.Register(modeltest.Linked("dermatology-psoriasis", "dermatology-acne")))

	issues, err := newValidator(t, Options{}).Validate(reg)
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.NotNil(t, issues)
}

func TestValidate_MissingLevel(t *testing.T) {
	c := modeltest.ValidContent("dermatology-acne")
	delete(c.Levels, 3)

	issues, err := newValidator(t, Options{}).Validate(Entries{c})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "dermatology-acne", issues[0].ContentID)
	assert.Equal(t, "levels", issues[0].Field)
	assert.Equal(t, model.SeverityError, issues[0].Severity)
	assert.Equal(t, RuleLevelCompleteness, issues[0].Rule)
	assert.Contains(t, issues[0].Message, "3")
}

func TestValidate_UnresolvedCrossReference(t *testing.T) {
	c := modeltest.Linked("dermatology-acne", "nonexistent-id")

	issues, err := newValidator(t, Options{}).Validate(Entries{c})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "crossReferences[0].targetId", issues[0].Field)
	assert.Equal(t, model.SeverityWarning, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "nonexistent-id")

	issues, err = newValidator(t, Options{StrictReferences: true}).Validate(Entries{c})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, model.SeverityError, issues[0].Severity)
}

func TestValidate_DuplicateKeyTerms(t *testing.T) {
	c := modeltest.ValidContent("dermatology-acne")
	level := c.Levels[2]
	level.KeyTerms = []model.KeyTerm{
		{Term: "Comedone", Definition: "A clogged pore."},
		{Term: "comedone ", Definition: "Same word, different case."},
	}
	c.Levels[2] = level

	issues, err := newValidator(t, Options{}).Validate(Entries{c})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "levels[2].keyTerms[1].term", issues[0].Field)
	assert.Equal(t, model.SeverityError, issues[0].Severity)
	assert.Equal(t, RuleKeyTerms, issues[0].Rule)
}

func TestValidate_NilSource(t *testing.T) {
	v := newValidator(t, Options{})

	_, err := v.Validate(nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))

	var reg *registry.Registry
	_, err = v.Validate(reg)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidArgument(err))
}

func TestValidate_NilEntry(t *testing.T) {
	issues, err := newValidator(t, Options{}).Validate(Entries{nil})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.True(t, issues[0].IsError())
}

func TestValidate_Idempotent(t *testing.T) {
	broken := modeltest.ValidContent("Bad_ID")
	broken.Name = ""
	for n := range broken.Levels {
		l := broken.Levels[n]
		l.Summary = "TODO"
		l.KeyTerms = nil
		broken.Levels[n] = l
	}
	src := Entries{broken, modeltest.Linked("dermatology-acne", "missing-entry")}

	v := newValidator(t, Options{})
	first, err := v.Validate(src)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i := 0; i < 5; i++ {
		again, err := v.Validate(src)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Issues of the first entry precede those of the second.
	assert.Equal(t, "Bad_ID", first[0].ContentID)
	assert.Equal(t, "dermatology-acne", first[len(first)-1].ContentID)
}

func TestValidate_DoesNotMutate(t *testing.T) {
	c := modeltest.Linked("dermatology-acne", "nonexistent-id")
	c.Media = nil
	before := *c

	_, err := newValidator(t, Options{}).Validate(Entries{c})
	require.NoError(t, err)
	assert.Equal(t, before, *c)
}

func TestValidate_Checks(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		mutate   func(c *model.EducationalContent)
		field    string
		severity model.Severity
		rule     string
	}{
		{
			name:     "placeholder summary",
			mutate:   func(c *model.EducationalContent) { setLevel(c, 1, func(l *model.ContentLevel) { l.Summary = "TODO: write this" }) },
			field:    "levels[1].summary",
			severity: model.SeverityError,
			rule:     RuleContentQuality,
		},
		{
			name:     "empty explanation",
			mutate:   func(c *model.EducationalContent) { setLevel(c, 4, func(l *model.ContentLevel) { l.Explanation = "  " }) },
			field:    "levels[4].explanation",
			severity: model.SeverityError,
			rule:     RuleRequiredFields,
		},
		{
			name:     "empty key term definition",
			mutate:   func(c *model.EducationalContent) { setLevel(c, 2, func(l *model.ContentLevel) { l.KeyTerms[0].Definition = "" }) },
			field:    "levels[2].keyTerms[0].definition",
			severity: model.SeverityError,
			rule:     RuleKeyTerms,
		},
		{
			name:     "missing key terms",
			mutate:   func(c *model.EducationalContent) { setLevel(c, 5, func(l *model.ContentLevel) { l.KeyTerms = nil }) },
			field:    "levels[5].keyTerms",
			severity: model.SeverityWarning,
			rule:     RuleKeyTerms,
		},
		{
			name:     "level field mismatch",
			mutate:   func(c *model.EducationalContent) { setLevel(c, 4, func(l *model.ContentLevel) { l.Level = 3 }) },
			field:    "levels[4].level",
			severity: model.SeverityError,
			rule:     RuleLevelCompleteness,
		},
		{
			name:     "id not kebab-case",
			mutate:   func(c *model.EducationalContent) { c.ID = "Dermatology_Acne" },
			field:    "id",
			severity: model.SeverityError,
			rule:     RuleIDFormat,
		},
		{
			name:     "version below one",
			mutate:   func(c *model.EducationalContent) { c.Version = 0 },
			field:    "version",
			severity: model.SeverityError,
			rule:     RuleMetadata,
		},
		{
			name:     "unknown content type",
			mutate:   func(c *model.EducationalContent) { c.Type = "disease" },
			field:    "type",
			severity: model.SeverityError,
			rule:     RuleMetadata,
		},
		{
			name:     "unknown status",
			mutate:   func(c *model.EducationalContent) { c.Status = "archived" },
			field:    "status",
			severity: model.SeverityError,
			rule:     RuleMetadata,
		},
		{
			name: "empty cross-reference target",
			mutate: func(c *model.EducationalContent) {
				c.CrossReferences = []model.CrossReference{{TargetType: model.ContentTypeConcept, Relationship: model.RelationshipRelated}}
			},
			field:    "crossReferences[0].targetId",
			severity: model.SeverityError,
			rule:     RuleCrossReferences,
		},
		{
			name: "invalid relationship",
			mutate: func(c *model.EducationalContent) {
				c.CrossReferences = []model.CrossReference{{TargetID: c.ID + "-x", TargetType: model.ContentTypeConcept, Relationship: "cousin"}}
			},
			field:    "crossReferences[0].relationship",
			severity: model.SeverityError,
			rule:     RuleCrossReferences,
		},
		{
			name:     "invalid clinical relevance",
			mutate:   func(c *model.EducationalContent) { c.Tags.ClinicalRelevance = "urgent" },
			field:    "tags.clinicalRelevance",
			severity: model.SeverityError,
			rule:     RuleTags,
		},
		{
			name:     "unknown shelf exam",
			mutate:   func(c *model.EducationalContent) { c.Tags.ExamRelevance = &model.ExamRelevance{Shelf: []string{"astrology"}} },
			field:    "tags.examRelevance.shelf[0]",
			severity: model.SeverityError,
			rule:     RuleTags,
		},
		{
			name:     "unknown body system",
			mutate:   func(c *model.EducationalContent) { c.Tags.Systems = []string{"integumentary", "spiritual"} },
			field:    "tags.systems[1]",
			severity: model.SeverityWarning,
			rule:     RuleTags,
		},
		{
			name:     "malformed icd-11 code",
			mutate:   func(c *model.EducationalContent) { c.Tags.ICD11 = []string{"L70.0", "acne"} },
			field:    "tags.icd11[1]",
			severity: model.SeverityWarning,
			rule:     RuleTags,
		},
		{
			name:     "missing media list",
			mutate:   func(c *model.EducationalContent) { c.Media = nil },
			field:    "media",
			severity: model.SeverityWarning,
			rule:     RuleStructure,
		},
		{
			name: "media without filename or url",
			mutate: func(c *model.EducationalContent) {
				c.Media = []model.MediaReference{{ID: "m1", Type: model.MediaImage, Title: "Papules"}}
			},
			field:    "media[0].filename",
			severity: model.SeverityError,
			rule:     RuleStructure,
		},
		{
			name: "updated before created",
			mutate: func(c *model.EducationalContent) {
				c.UpdatedAt = model.NewTimestamp(c.CreatedAt.Add(-24 * time.Hour))
			},
			field:    "updatedAt",
			severity: model.SeverityError,
			rule:     RuleMetadata,
		},
		{
			name:     "missing created date",
			mutate:   func(c *model.EducationalContent) { c.CreatedAt = model.Timestamp{} },
			field:    "createdAt",
			severity: model.SeverityWarning,
			rule:     RuleMetadata,
		},
		{
			name:     "missing translation",
			opts:     Options{RequireTranslations: true},
			mutate:   func(c *model.EducationalContent) { c.NameEs = "" },
			field:    "nameEs",
			severity: model.SeverityWarning,
			rule:     RuleTranslations,
		},
		{
			name:     "namespace prefix",
			opts:     Options{Namespaces: map[string][]string{"dermatology": {"dermatology-", "derm-"}}},
			mutate:   func(c *model.EducationalContent) { c.ID = "acne-vulgaris" },
			field:    "id",
			severity: model.SeverityWarning,
			rule:     RuleNamespace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := modeltest.ValidContent("dermatology-acne")
			tt.mutate(c)

			issues, err := newValidator(t, tt.opts).Validate(Entries{c})
			require.NoError(t, err)

			issue, ok := findIssue(issues, tt.field)
			require.True(t, ok, "no issue on %s in %+v", tt.field, issues)
			assert.Equal(t, tt.severity, issue.Severity)
			assert.Equal(t, tt.rule, issue.Rule)
			assert.Equal(t, c.ID, issue.ContentID)
		})
	}
}

func TestValidate_DuplicateIDsInSource(t *testing.T) {
	src := Entries{modeltest.ValidContent("dermatology-acne"), modeltest.ValidContent("dermatology-acne")}

	issues, err := newValidator(t, Options{}).Validate(src)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, RuleIDUniqueness, issue.Rule)
		assert.True(t, issue.IsError())
	}
}

func TestValidate_EmptyTargetNotReportedTwice(t *testing.T) {
	c := modeltest.ValidContent("dermatology-acne")
	c.CrossReferences = []model.CrossReference{{TargetType: model.ContentTypeConcept, Relationship: model.RelationshipRelated}}

	issues, err := newValidator(t, Options{StrictReferences: true}).Validate(Entries{c})
	require.NoError(t, err)
	assert.Len(t, issues, 1)
}

func TestRun_Report(t *testing.T) {
	acne := modeltest.Linked("dermatology-acne", "nonexistent-id")
	broken := modeltest.ValidContent("dermatology-psoriasis")
	broken.Version = 0

	report, err := newValidator(t, Options{}).Run(Entries{acne, broken})
	require.NoError(t, err)

	assert.Equal(t, 2, report.ContentCount)
	assert.Equal(t, StatusFail, report.Status)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.Warnings)
	assert.Equal(t, map[string]bool{"dermatology-psoriasis": true}, report.ErroredIDs())
	assert.Len(t, report.ForContent("dermatology-acne"), 1)
}

func setLevel(c *model.EducationalContent, n int, fn func(l *model.ContentLevel)) {
	l := c.Levels[n]
	fn(&l)
	c.Levels[n] = l
}
