package domain

import "time"

// EvidenceType identifies one kind of presentable analysis finding.
type EvidenceType string

// EvidenceType values.
const (
	EvidenceDiscrepancy EvidenceType = "discrepancy"
	EvidenceBurnout     EvidenceType = "burnout"
	EvidenceImbalance   EvidenceType = "imbalance"
)

// EvidenceItem stores one ranked, presentable finding with a strength score.
// Items are created fresh each analysis run and never mutated afterwards.
type EvidenceItem struct {
	ID                   string       `json:"id"`
	Type                 EvidenceType `json:"type"`
	Category             WorkCategory `json:"category,omitempty"`
	Strength             float64      `json:"strength"`
	Description          string       `json:"description"`
	SupportingDataPoints []string     `json:"supporting_data_points,omitempty"`
	RelatedDiscrepancyID string       `json:"related_discrepancy_id,omitempty"`
	ObservedAt           time.Time    `json:"observed_at"`
}
