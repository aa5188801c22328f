package model

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one reported violation of a content invariant. Issues are
// collected, never thrown.
type ValidationIssue struct {
	ContentID string   `json:"contentId"`
	Field     string   `json:"field"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Rule      string   `json:"rule"`
}

func (i ValidationIssue) IsError() bool {
	return i.Severity == SeverityError
}
