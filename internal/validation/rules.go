package validation

import (
	"regexp"
	"strings"

	"github.com/jwalitptl/edu-content/internal/model"
	"github.com/jwalitptl/edu-content/pkg/validator"
)

// Rule names carried on every issue so lint output can be filtered by check.
const (
	RuleLevelCompleteness = "level-completeness"
	RuleRequiredFields    = "required-fields"
	RuleKeyTerms          = "key-terms"
	RuleIDFormat          = "id-format"
	RuleIDUniqueness      = "id-uniqueness"
	RuleNamespace         = "namespace"
	RuleCrossReferences   = "cross-references"
	RuleTags              = "tags"
	RuleMetadata          = "metadata"
	RuleContentQuality    = "content-quality"
	RuleTranslations      = "translations"
	RuleStructure         = "structure"
)

var icd11Pattern = regexp.MustCompile(`^[A-Z]\d{1,2}\.?\d{0,3}$`)

// newEngine registers the closed sets from the model as validator tags so
// struct tags and lookups share one definition.
func newEngine() (validator.Validator, error) {
	engine := validator.New()
	sets := map[string]map[string]bool{
		"contenttype":   model.ValidContentTypes,
		"contentstatus": model.ValidStatuses,
		"relevance":     model.ValidClinicalRelevance,
		"relationship":  model.ValidRelationships,
		"mediatype":     model.ValidMediaTypes,
		"citationtype":  model.ValidCitationTypes,
		"shelf":         model.ValidShelfExams,
	}
	for tag, allowed := range sets {
		if err := engine.RegisterOneOf(tag, allowed); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// ruleFor classifies a schema failure into the check it belongs to.
func ruleFor(fe validator.FieldError) string {
	switch {
	case strings.HasPrefix(fe.Field, "crossReferences"):
		return RuleCrossReferences
	case strings.HasPrefix(fe.Field, "tags"):
		return RuleTags
	}

	switch fe.Tag {
	case "kebab":
		return RuleIDFormat
	case "noplaceholder":
		return RuleContentQuality
	case "gte", "contenttype", "contentstatus":
		return RuleMetadata
	case "mediatype", "citationtype", "url", "required_without":
		return RuleStructure
	}
	if strings.Contains(fe.Field, ".keyTerms[") {
		return RuleKeyTerms
	}
	return RuleRequiredFields
}
