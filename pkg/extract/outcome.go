package extract

import "xscraper/pkg/models"

// FailureReason says which required fields were missing from a card that
// was gone by the time it was read
type FailureReason int

const (
	MissingAuthor FailureReason = iota + 1
	MissingTimestamp
	MissingAllRequiredFields
)

func (r FailureReason) String() string {
	switch r {
	case MissingAuthor:
		return "missing_author"
	case MissingTimestamp:
		return "missing_timestamp"
	case MissingAllRequiredFields:
		return "missing_all_required_fields"
	default:
		return "unknown"
	}
}

// Outcome is exactly one of Extracted, SkippedPlaceholder or Failed
type Outcome interface {
	outcome()
}

// Extracted carries a successfully built record
type Extracted struct {
	Record models.Record
}

// SkippedPlaceholder is a promoted or otherwise non-content unit. It is
// expected, never an error, and never retried.
type SkippedPlaceholder struct {
	Reason string
}

// Failed means the card's structure was gone when extraction ran
type Failed struct {
	Reason FailureReason
}

func (Extracted) outcome()          {}
func (SkippedPlaceholder) outcome() {}
func (Failed) outcome()             {}
