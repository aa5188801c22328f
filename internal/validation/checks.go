package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jwalitptl/edu-content/internal/model"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
	"github.com/jwalitptl/edu-content/pkg/validator"
)

// checker collects the issues for one entry.
type checker struct {
	v       *Validator
	content *model.EducationalContent
	known   map[string]int
	issues  []model.ValidationIssue
}

func (c *checker) add(field string, severity model.Severity, rule, format string, args ...interface{}) {
	c.issues = append(c.issues, model.ValidationIssue{
		ContentID: c.content.ID,
		Field:     field,
		Message:   fmt.Sprintf(format, args...),
		Severity:  severity,
		Rule:      rule,
	})
}

func (c *checker) run() error {
	if err := c.checkSchema(); err != nil {
		return err
	}
	c.checkLevels()
	c.checkUniqueness()
	c.checkNamespace()
	c.checkCollections()
	c.checkCrossReferences()
	c.checkTags()
	c.checkTimestamps()
	c.checkTranslations()
	return nil
}

// checkSchema runs the struct tag rules: required fields, id format, enum
// membership, placeholders and version.
func (c *checker) checkSchema() error {
	fieldErrs, err := c.v.engine.Validate(c.content)
	if err != nil {
		return apperrors.NewInternal(err)
	}
	for _, fe := range fieldErrs {
		c.add(fe.Field, model.SeverityError, ruleFor(fe), "%s", fe.Message)
	}
	return nil
}

func (c *checker) checkLevels() {
	levels := c.content.Levels
	if len(levels) == 0 {
		c.add("levels", model.SeverityError, RuleLevelCompleteness,
			"no levels defined; want levels %d-%d", model.MinLevel, model.MaxLevel)
		return
	}

	for n := model.MinLevel; n <= model.MaxLevel; n++ {
		if _, ok := levels[n]; !ok {
			c.add("levels", model.SeverityError, RuleLevelCompleteness, "missing level %d", n)
		}
	}

	keys := make([]int, 0, len(levels))
	for n := range levels {
		keys = append(keys, n)
	}
	sort.Ints(keys)

	for _, n := range keys {
		if n < model.MinLevel || n > model.MaxLevel {
			c.add("levels", model.SeverityError, RuleLevelCompleteness,
				"unexpected level %d; levels run %d-%d", n, model.MinLevel, model.MaxLevel)
			continue
		}
		level := levels[n]
		if level.Level != n {
			c.add(fmt.Sprintf("levels[%d].level", n), model.SeverityError, RuleLevelCompleteness,
				"level field is %d but is stored under key %d", level.Level, n)
		}
		c.checkKeyTerms(n, level.KeyTerms)
	}
}

func (c *checker) checkKeyTerms(n int, terms []model.KeyTerm) {
	if len(terms) == 0 {
		c.add(fmt.Sprintf("levels[%d].keyTerms", n), model.SeverityWarning, RuleKeyTerms,
			"level %d has no key terms", n)
		return
	}

	seen := make(map[string]int, len(terms))
	for i, kt := range terms {
		key := strings.ToLower(strings.TrimSpace(kt.Term))
		if key == "" {
			continue
		}
		if first, dup := seen[key]; dup {
			c.add(fmt.Sprintf("levels[%d].keyTerms[%d].term", n, i), model.SeverityError, RuleKeyTerms,
				"duplicate key term %q (first defined at index %d)", kt.Term, first)
			continue
		}
		seen[key] = i
	}
}

func (c *checker) checkUniqueness() {
	if n := c.known[c.content.ID]; n > 1 {
		c.add("id", model.SeverityError, RuleIDUniqueness, "id %q is used by %d entries", c.content.ID, n)
	}
}

func (c *checker) checkNamespace() {
	prefixes := c.v.opts.Namespaces[c.content.Specialty]
	if c.content.Specialty == "" || len(prefixes) == 0 {
		return
	}
	for _, p := range prefixes {
		if strings.HasPrefix(c.content.ID, p) {
			return
		}
	}
	c.add("id", model.SeverityWarning, RuleNamespace,
		"id does not use a %s prefix (%s)", c.content.Specialty, strings.Join(prefixes, ", "))
}

// checkCollections warns when a list is absent rather than empty, which
// usually means the author dropped the key from the file.
func (c *checker) checkCollections() {
	if c.content.Media == nil {
		c.add("media", model.SeverityWarning, RuleStructure, "media list is missing")
	}
	if c.content.Citations == nil {
		c.add("citations", model.SeverityWarning, RuleStructure, "citations list is missing")
	}
	if c.content.CrossReferences == nil {
		c.add("crossReferences", model.SeverityWarning, RuleStructure, "crossReferences list is missing")
	}
}

func (c *checker) checkCrossReferences() {
	severity := model.SeverityWarning
	if c.v.opts.StrictReferences {
		severity = model.SeverityError
	}

	for i, ref := range c.content.CrossReferences {
		if !validator.IsNotBlank(ref.TargetID) {
			continue
		}
		field := fmt.Sprintf("crossReferences[%d].targetId", i)
		if ref.TargetID == c.content.ID {
			c.add(field, model.SeverityWarning, RuleCrossReferences, "cross-reference points at the entry itself")
			continue
		}
		if c.known[ref.TargetID] == 0 {
			c.add(field, severity, RuleCrossReferences, "unresolved cross-reference to %q", ref.TargetID)
		}
	}
}

func (c *checker) checkTags() {
	for i, system := range c.content.Tags.Systems {
		if !validator.IsNotBlank(system) {
			continue
		}
		if !model.ValidBodySystems[system] {
			c.add(fmt.Sprintf("tags.systems[%d]", i), model.SeverityWarning, RuleTags,
				"unknown body system %q", system)
		}
	}
	for i, code := range c.content.Tags.ICD11 {
		if !icd11Pattern.MatchString(code) {
			c.add(fmt.Sprintf("tags.icd11[%d]", i), model.SeverityWarning, RuleTags,
				"%q does not look like an ICD-11 code", code)
		}
	}
}

func (c *checker) checkTimestamps() {
	created, updated := c.content.CreatedAt, c.content.UpdatedAt
	if created.IsZero() {
		c.add("createdAt", model.SeverityWarning, RuleMetadata, "createdAt is missing")
	}
	if updated.IsZero() {
		c.add("updatedAt", model.SeverityWarning, RuleMetadata, "updatedAt is missing")
	}
	if !created.IsZero() && !updated.IsZero() && updated.Before(created.Time) {
		c.add("updatedAt", model.SeverityError, RuleMetadata,
			"updatedAt %s is before createdAt %s", updated, created)
	}
}

func (c *checker) checkTranslations() {
	if c.v.opts.RequireTranslations && !validator.IsNotBlank(c.content.NameEs) {
		c.add("nameEs", model.SeverityWarning, RuleTranslations, "Spanish name is missing")
	}
}
