// Package modeltest builds content fixtures for tests.
package modeltest

import (
	"fmt"
	"time"

	"github.com/jwalitptl/edu-content/internal/model"
)

// ValidContent returns an entry that passes every check when registered on
// its own.
func ValidContent(id string) *model.EducationalContent {
	levels := make(map[int]model.ContentLevel, model.MaxLevel)
	for n := model.MinLevel; n <= model.MaxLevel; n++ {
		levels[n] = model.ContentLevel{
			Level:       n,
			Summary:     fmt.Sprintf("Level %d summary of %s.", n, id),
			Explanation: fmt.Sprintf("Level %d explanation of %s.", n, id),
			KeyTerms: []model.KeyTerm{
				{Term: fmt.Sprintf("term %d", n), Definition: "A defined word."},
			},
		}
	}

	created := model.NewTimestamp(time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC))
	return &model.EducationalContent{
		ID:              id,
		Type:            model.ContentTypeCondition,
		Name:            "Entry " + id,
		NameEs:          "Entrada " + id,
		Specialty:       "dermatology",
		Levels:          levels,
		Media:           []model.MediaReference{},
		Citations:       []model.Citation{},
		CrossReferences: []model.CrossReference{},
		Tags: model.ContentTags{
			Systems:           []string{"integumentary"},
			Topics:            []string{"skin"},
			ClinicalRelevance: model.RelevanceHigh,
		},
		CreatedAt: created,
		UpdatedAt: created,
		Version:   1,
		Status:    model.StatusPublished,
	}
}

// Linked returns a valid entry that cross-references target.
func Linked(id, target string) *model.EducationalContent {
	c := ValidContent(id)
	c.CrossReferences = []model.CrossReference{{
		TargetID:     target,
		TargetType:   model.ContentTypeCondition,
		Relationship: model.RelationshipRelated,
		Label:        "See " + target,
	}}
	return c
}
