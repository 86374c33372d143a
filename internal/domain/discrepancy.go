package domain

import "time"

// Discrepancy stores one significant gap between a self-report and the
// measured reality for a (person, category) pair.
type Discrepancy struct {
	ID                  string       `json:"id"`
	PersonID            string       `json:"person_id"`
	Category            WorkCategory `json:"category"`
	ReportedValue       float64      `json:"reported_value"`
	ActualValue         float64      `json:"actual_value"`
	Difference          float64      `json:"difference"`
	Significance        float64      `json:"significance"`
	Direction           Direction    `json:"direction"`
	SupportingRecordIDs []string     `json:"supporting_record_ids,omitempty"`
	LatestEvidenceAt    time.Time    `json:"latest_evidence_at"`
}
