package domain

import (
	"strings"
	"time"
)

// SelfReport stores one person's own estimate of their share of a work category.
// Reports are produced by the survey subsystem and consumed read-only; the raw
// value keeps its source form (a categorical label or a numeric scale) and is
// interpreted by the engine normalizer.
type SelfReport struct {
	PersonID        string       `json:"person_id"`
	Category        WorkCategory `json:"category"`
	RawValue        string       `json:"raw_value"`
	SourceTimestamp time.Time    `json:"source_timestamp"`
}

// SelfReportInput holds write-time values for recording one self-report.
type SelfReportInput struct {
	PersonID        string
	Category        WorkCategory
	RawValue        string
	SourceTimestamp time.Time
}

// NewSelfReport validates and normalizes one self-report record.
func NewSelfReport(in SelfReportInput) (SelfReport, error) {
	in.PersonID = strings.TrimSpace(in.PersonID)
	in.Category = NormalizeCategory(in.Category)
	in.RawValue = strings.TrimSpace(in.RawValue)

	if in.PersonID == "" {
		return SelfReport{}, ErrInvalidPersonID
	}
	if !IsValidCategory(in.Category) {
		return SelfReport{}, ErrInvalidCategory
	}
	if in.SourceTimestamp.IsZero() {
		return SelfReport{}, ErrInvalidTimestamp
	}
	return SelfReport{
		PersonID:        in.PersonID,
		Category:        in.Category,
		RawValue:        in.RawValue,
		SourceTimestamp: in.SourceTimestamp.UTC(),
	}, nil
}
