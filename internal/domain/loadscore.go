package domain

// LoadScore stores the weighted cognitive-load total for one person at one
// evaluation time. The category breakdown deliberately keeps unmultiplied
// subscores: the contextual multiplier applies to the total only, so the
// breakdown stays stable for explainability.
type LoadScore struct {
	PersonID             string                   `json:"person_id"`
	TotalScore           float64                  `json:"total_score"`
	CategoryBreakdown    map[WorkCategory]float64 `json:"category_breakdown"`
	ContextualMultiplier float64                  `json:"contextual_multiplier"`
	BurnoutRisk          BurnoutRisk              `json:"burnout_risk"`
}
