package model

// Level bounds of the pedagogical tiers, layperson (1) to expert (5).
const (
	MinLevel = 1
	MaxLevel = 5
)

// EducationalContent is one topic (condition, concept, structure, ...) described
// across five levels. Entries are authored as data files and never mutated after load.
type EducationalContent struct {
	ID              string               `json:"id" yaml:"id" validate:"required,kebab"`
	Type            ContentType          `json:"type" yaml:"type" validate:"contenttype"`
	Name            string               `json:"name" yaml:"name" validate:"notblank,noplaceholder"`
	NameEs          string               `json:"nameEs,omitempty" yaml:"nameEs,omitempty" validate:"omitempty,noplaceholder"`
	AlternateNames  []string             `json:"alternateNames,omitempty" yaml:"alternateNames,omitempty" validate:"dive,notblank"`
	Specialty       string               `json:"specialty,omitempty" yaml:"specialty,omitempty"`
	Levels          map[int]ContentLevel `json:"levels" yaml:"levels" validate:"dive"`
	Media           []MediaReference     `json:"media" yaml:"media" validate:"dive"`
	Citations       []Citation           `json:"citations" yaml:"citations" validate:"dive"`
	CrossReferences []CrossReference     `json:"crossReferences" yaml:"crossReferences" validate:"dive"`
	Tags            ContentTags          `json:"tags" yaml:"tags"`
	CreatedAt       Timestamp            `json:"createdAt" yaml:"createdAt"`
	UpdatedAt       Timestamp            `json:"updatedAt" yaml:"updatedAt"`
	Version         int                  `json:"version" yaml:"version" validate:"gte=1"`
	Status          Status               `json:"status" yaml:"status" validate:"contentstatus"`
	Contributors    []string             `json:"contributors,omitempty" yaml:"contributors,omitempty"`
}

// ContentLevel is one pedagogical tier of an entry.
type ContentLevel struct {
	Level                   int       `json:"level" yaml:"level"`
	Summary                 string    `json:"summary" yaml:"summary" validate:"notblank,noplaceholder"`
	Explanation             string    `json:"explanation" yaml:"explanation" validate:"notblank,noplaceholder"`
	KeyTerms                []KeyTerm `json:"keyTerms" yaml:"keyTerms" validate:"dive"`
	Analogies               []string  `json:"analogies,omitempty" yaml:"analogies,omitempty"`
	Examples                []string  `json:"examples,omitempty" yaml:"examples,omitempty"`
	ClinicalNotes           string    `json:"clinicalNotes,omitempty" yaml:"clinicalNotes,omitempty" validate:"omitempty,noplaceholder"`
	Mnemonics               []string  `json:"mnemonics,omitempty" yaml:"mnemonics,omitempty"`
	RedFlags                []string  `json:"redFlags,omitempty" yaml:"redFlags,omitempty"`
	PatientCounselingPoints []string  `json:"patientCounselingPoints,omitempty" yaml:"patientCounselingPoints,omitempty"`
}

type KeyTerm struct {
	Term          string `json:"term" yaml:"term" validate:"notblank,noplaceholder"`
	Definition    string `json:"definition" yaml:"definition" validate:"notblank,noplaceholder"`
	Pronunciation string `json:"pronunciation,omitempty" yaml:"pronunciation,omitempty"`
}

type MediaReference struct {
	ID          string    `json:"id" yaml:"id" validate:"notblank"`
	Type        MediaType `json:"type" yaml:"type" validate:"mediatype"`
	Filename    string    `json:"filename,omitempty" yaml:"filename,omitempty" validate:"required_without=URL"`
	URL         string    `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Title       string    `json:"title" yaml:"title" validate:"notblank"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

type Citation struct {
	ID      string       `json:"id" yaml:"id"`
	Type    CitationType `json:"type" yaml:"type" validate:"citationtype"`
	Title   string       `json:"title" yaml:"title" validate:"notblank"`
	Authors []string     `json:"authors,omitempty" yaml:"authors,omitempty"`
	Source  string       `json:"source,omitempty" yaml:"source,omitempty"`
	URL     string       `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Year    int          `json:"year,omitempty" yaml:"year,omitempty"`
	License string       `json:"license,omitempty" yaml:"license,omitempty"`
}

// CrossReference declares a relationship to another entry by id. The target may
// live in another file, so resolution happens after every entry is registered.
type CrossReference struct {
	TargetID     string       `json:"targetId" yaml:"targetId" validate:"notblank"`
	TargetType   ContentType  `json:"targetType" yaml:"targetType" validate:"contenttype"`
	Relationship Relationship `json:"relationship" yaml:"relationship" validate:"relationship"`
	Label        string       `json:"label" yaml:"label"`
}

type ContentTags struct {
	Systems           []string          `json:"systems" yaml:"systems" validate:"dive,notblank"`
	Topics            []string          `json:"topics" yaml:"topics" validate:"dive,notblank"`
	Keywords          []string          `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	ClinicalRelevance ClinicalRelevance `json:"clinicalRelevance,omitempty" yaml:"clinicalRelevance,omitempty" validate:"omitempty,relevance"`
	ExamRelevance     *ExamRelevance    `json:"examRelevance,omitempty" yaml:"examRelevance,omitempty"`
	ICD11             []string          `json:"icd11,omitempty" yaml:"icd11,omitempty"`
}

type ExamRelevance struct {
	USMLE bool     `json:"usmle" yaml:"usmle"`
	NBME  bool     `json:"nbme" yaml:"nbme"`
	Shelf []string `json:"shelf,omitempty" yaml:"shelf,omitempty" validate:"dive,shelf"`
}

// HasSystem reports whether the entry is tagged with the given body system.
func (c *EducationalContent) HasSystem(system string) bool {
	for _, s := range c.Tags.Systems {
		if s == system {
			return true
		}
	}
	return false
}

func (c *EducationalContent) HasTopic(topic string) bool {
	for _, t := range c.Tags.Topics {
		if t == topic {
			return true
		}
	}
	return false
}
