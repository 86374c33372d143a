package domain

// CategoryMeasurement stores one derived actual-load measurement for a
// (person, category) pair, recomputed on every analysis run. The supporting
// record ids keep the measurement explainable back to raw activity.
type CategoryMeasurement struct {
	PersonID            string          `json:"person_id"`
	Category            WorkCategory    `json:"category"`
	ActualValue         float64         `json:"actual_value"`
	SupportingRecordIDs []string        `json:"supporting_record_ids,omitempty"`
	ComplexityLevel     ComplexityLevel `json:"complexity_level"`
}

// HasEvidence reports whether any activity records contributed to the measurement.
func (m CategoryMeasurement) HasEvidence() bool {
	return len(m.SupportingRecordIDs) > 0
}
