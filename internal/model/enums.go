package model

// ContentType categorizes an entry.
type ContentType string

const (
	ContentTypeCondition ContentType = "condition"
	ContentTypeConcept   ContentType = "concept"
	ContentTypeStructure ContentType = "structure"
	ContentTypeTopic     ContentType = "topic"
	ContentTypeSystem    ContentType = "system"
	ContentTypePathway   ContentType = "pathway"
	ContentTypeProcess   ContentType = "process"
)

// Status is set by the author; nothing in this module transitions it.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusPublished Status = "published"
)

type ClinicalRelevance string

const (
	RelevanceLow      ClinicalRelevance = "low"
	RelevanceMedium   ClinicalRelevance = "medium"
	RelevanceHigh     ClinicalRelevance = "high"
	RelevanceCritical ClinicalRelevance = "critical"
)

type Relationship string

const (
	RelationshipParent  Relationship = "parent"
	RelationshipChild   Relationship = "child"
	RelationshipSibling Relationship = "sibling"
	RelationshipRelated Relationship = "related"
	RelationshipSeeAlso Relationship = "see-also"
)

type MediaType string

const (
	MediaImage     MediaType = "image"
	MediaDiagram   MediaType = "diagram"
	MediaVideo     MediaType = "video"
	MediaAudio     MediaType = "audio"
	Media3DModel   MediaType = "3d-model"
	MediaAnimation MediaType = "animation"
)

type CitationType string

const (
	CitationTextbook  CitationType = "textbook"
	CitationArticle   CitationType = "article"
	CitationJournal   CitationType = "journal"
	CitationGuideline CitationType = "guideline"
	CitationWebsite   CitationType = "website"
)

// ValidContentTypes is the canonical set of accepted content type strings.
var ValidContentTypes = map[string]bool{
	"condition": true, "concept": true, "structure": true, "topic": true,
	"system": true, "pathway": true, "process": true,
}

var ValidStatuses = map[string]bool{
	"draft": true, "review": true, "published": true,
}

var ValidClinicalRelevance = map[string]bool{
	"low": true, "medium": true, "high": true, "critical": true,
}

var ValidRelationships = map[string]bool{
	"parent": true, "child": true, "sibling": true, "related": true, "see-also": true,
}

var ValidMediaTypes = map[string]bool{
	"image": true, "diagram": true, "video": true, "audio": true,
	"3d-model": true, "animation": true,
}

var ValidCitationTypes = map[string]bool{
	"textbook": true, "article": true, "journal": true, "guideline": true, "website": true,
}

// ValidShelfExams lists the NBME subject (shelf) exams an entry may be tagged with.
var ValidShelfExams = map[string]bool{
	"medicine": true, "surgery": true, "pediatrics": true, "psychiatry": true,
	"neurology": true, "family-medicine": true, "obstetrics-gynecology": true,
	"emergency-medicine": true, "pathology": true, "radiology": true,
	"ophthalmology": true, "otolaryngology": true, "orthopedics": true,
	"dermatology": true, "cardiology": true, "nephrology": true,
	"pulmonology": true, "pharmacology": true,
}

// ValidBodySystems is the closed vocabulary for tags.systems.
var ValidBodySystems = map[string]bool{
	"cardiovascular": true, "respiratory": true, "nervous": true, "digestive": true,
	"gastrointestinal": true, "musculoskeletal": true, "skeletal": true, "muscular": true,
	"integumentary": true, "endocrine": true, "immune": true, "lymphatic": true,
	"hematologic": true, "renal": true, "urinary": true, "reproductive": true,
	"sensory": true, "visual": true, "auditory": true, "hepatic": true,
}

func (t ContentType) IsValid() bool       { return ValidContentTypes[string(t)] }
func (s Status) IsValid() bool            { return ValidStatuses[string(s)] }
func (r ClinicalRelevance) IsValid() bool { return ValidClinicalRelevance[string(r)] }
func (r Relationship) IsValid() bool      { return ValidRelationships[string(r)] }
func (m MediaType) IsValid() bool         { return ValidMediaTypes[string(m)] }
func (c CitationType) IsValid() bool      { return ValidCitationTypes[string(c)] }
