package domain

import "time"

// AnalysisResult is the complete output graph of one analysis run: a single
// serializable value with no embedded behavior, suitable for persistence,
// narration, or rendering by external layers.
type AnalysisResult struct {
	HouseholdID         string         `json:"household_id"`
	GeneratedAt         time.Time      `json:"generated_at"`
	PerPersonLoadScores []LoadScore    `json:"per_person_load_scores"`
	Discrepancies       []Discrepancy  `json:"discrepancies"`
	Evidence            []EvidenceItem `json:"evidence"`
	SkippedRecordCount  int            `json:"skipped_record_count"`
	DataQuality         float64        `json:"data_quality"`
	Complete            bool           `json:"complete"`
}
