// Package engine implements the cognitive-load analysis pipeline: self-report
// normalization, activity evidence extraction, discrepancy detection, load
// quantification, and evidence ranking. The whole pipeline is stateless per
// invocation and safe to run concurrently for different households.
package engine

import (
	"fmt"
	"time"

	"github.com/hylla/balans/internal/domain"
)

// Bucket keys used by the people-count factor table.
const (
	PeopleOne      = "1"
	PeopleTwo      = "2"
	PeopleThree    = "3"
	PeopleFour     = "4"
	PeopleFivePlus = "5+"
)

// Bucket keys used by the time-pressure factor table.
const (
	PressureNone    = "none"
	PressureDistant = "distant"
	PressureNear    = "near"
	PressureUrgent  = "urgent"
)

// Bucket keys used by the information-clarity factor table.
const (
	ClarityClear     = "clear"
	ClarityAmbiguous = "ambiguous"
)

// Bucket keys used by the failure-impact factor table. Records carry the
// bucket in their `failure_impact` attribute; absent means low.
const (
	ImpactLow      = "low"
	ImpactMedium   = "medium"
	ImpactHigh     = "high"
	ImpactCritical = "critical"
)

// FailureImpactAttribute names the activity-record attribute holding the
// collector-assessed failure-impact bucket.
const FailureImpactAttribute = "failure_impact"

// Named time-of-day buckets, in chronological order starting at 05:00.
const (
	TimeEarlyMorning = "early_morning" // 05:00–08:00
	TimeMorning      = "morning"       // 08:00–11:00
	TimeMidday       = "midday"        // 11:00–14:00
	TimeAfternoon    = "afternoon"     // 14:00–17:00
	TimeEvening      = "evening"       // 17:00–20:00
	TimeNight        = "night"         // 20:00–23:00
	TimeLateNight    = "late_night"    // 23:00–05:00
)

// Tables is the versioned weighting and threshold configuration injected into
// the pipeline. Every tunable the analysis depends on lives here so thresholds
// can be adjusted and tested independently of code.
type Tables struct {
	Version string

	// BaseWeights carries the base cognitive weight per work category.
	BaseWeights map[domain.WorkCategory]float64
	// ComplexityMultipliers scales category subscores during quantification.
	ComplexityMultipliers map[domain.ComplexityLevel]float64

	// Per-record intensity factors used by evidence extraction.
	PeopleFactors        map[string]float64
	VariableFactors      map[domain.ComplexityLevel]float64
	TimePressureFactors  map[string]float64
	FailureImpactFactors map[string]float64
	ClarityFactors       map[string]float64
	BurdenFactors        map[string]float64

	// Temporal multipliers applied to the total score at evaluation time.
	// Values stay within [0.7, 1.3].
	TimeOfDayFactors map[string]float64
	DayOfWeekFactors map[time.Weekday]float64

	// CategoryKeywords drives the deterministic keyword classifier.
	CategoryKeywords map[domain.WorkCategory][]string

	// SignificanceThreshold retains only discrepancies above it. Provisional
	// default pending product validation.
	SignificanceThreshold float64
	// SignificanceEpsilon guards the significance ratio near zero.
	SignificanceEpsilon float64
	// SaturationCeiling converts summed per-record intensity into [0,1].
	SaturationCeiling float64
	// ScaleFactor produces human-legible subscore magnitudes.
	ScaleFactor float64

	// Burnout band boundaries over the contextually multiplied total.
	BurnoutMediumAt   float64
	BurnoutHighAt     float64
	BurnoutCriticalAt float64

	// ImbalanceThreshold triggers a household-imbalance evidence item when the
	// max-min spread of per-person totals exceeds it. Provisional default.
	ImbalanceThreshold float64
	// EvidenceCap bounds the ranked evidence list for presentation.
	EvidenceCap int
}

// DefaultTables returns the v1 weighting configuration.
func DefaultTables() Tables {
	return Tables{
		Version: "v1",
		BaseWeights: map[domain.WorkCategory]float64{
			domain.CategoryScheduling:       1.2,
			domain.CategoryPlanning:         1.3,
			domain.CategoryLogistics:        1.0,
			domain.CategoryFinances:         1.4,
			domain.CategoryHealthcare:       1.5,
			domain.CategorySocial:           0.9,
			domain.CategoryEmotionalSupport: 1.6,
			domain.CategoryGeneral:          0.8,
		},
		ComplexityMultipliers: map[domain.ComplexityLevel]float64{
			domain.ComplexityLow:     1.0,
			domain.ComplexityMedium:  1.3,
			domain.ComplexityHigh:    1.7,
			domain.ComplexityExtreme: 2.2,
		},
		PeopleFactors: map[string]float64{
			PeopleOne:      1.0,
			PeopleTwo:      1.1,
			PeopleThree:    1.2,
			PeopleFour:     1.3,
			PeopleFivePlus: 1.5,
		},
		VariableFactors: map[domain.ComplexityLevel]float64{
			domain.ComplexityLow:     1.0,
			domain.ComplexityMedium:  1.15,
			domain.ComplexityHigh:    1.3,
			domain.ComplexityExtreme: 1.5,
		},
		TimePressureFactors: map[string]float64{
			PressureNone:    1.0,
			PressureDistant: 1.05,
			PressureNear:    1.2,
			PressureUrgent:  1.4,
		},
		FailureImpactFactors: map[string]float64{
			ImpactLow:      1.0,
			ImpactMedium:   1.15,
			ImpactHigh:     1.35,
			ImpactCritical: 1.6,
		},
		ClarityFactors: map[string]float64{
			ClarityClear:     1.0,
			ClarityAmbiguous: 1.25,
		},
		BurdenFactors: map[string]float64{
			domain.BurdenMultitasking:    1.2,
			domain.BurdenInterruption:    1.15,
			domain.BurdenNovelty:         1.1,
			domain.BurdenEmotionalCharge: 1.3,
		},
		TimeOfDayFactors: map[string]float64{
			TimeEarlyMorning: 1.2,
			TimeMorning:      1.0,
			TimeMidday:       0.9,
			TimeAfternoon:    1.0,
			TimeEvening:      1.3,
			TimeNight:        1.1,
			TimeLateNight:    0.8,
		},
		DayOfWeekFactors: map[time.Weekday]float64{
			time.Monday:    1.1,
			time.Tuesday:   1.0,
			time.Wednesday: 1.0,
			time.Thursday:  1.0,
			time.Friday:    1.05,
			time.Saturday:  1.2,
			time.Sunday:    1.15,
		},
		CategoryKeywords: map[domain.WorkCategory][]string{
			domain.CategoryScheduling:       {"appointment", "schedule", "reschedule", "calendar", "pickup", "drop-off", "dropoff"},
			domain.CategoryPlanning:         {"plan", "meal", "menu", "packing", "prepare", "organize", "list"},
			domain.CategoryLogistics:        {"grocery", "groceries", "shopping", "laundry", "repair", "errand", "order"},
			domain.CategoryFinances:         {"bill", "payment", "budget", "bank", "insurance", "tax", "invoice"},
			domain.CategoryHealthcare:       {"doctor", "dentist", "medication", "prescription", "checkup", "vaccine", "pediatric"},
			domain.CategorySocial:           {"birthday", "gift", "party", "invite", "playdate", "rsvp", "visit"},
			domain.CategoryEmotionalSupport: {"worried", "upset", "comfort", "feelings", "tantrum", "reassure", "anxious"},
		},
		SignificanceThreshold: 0.3,
		SignificanceEpsilon:   0.1,
		SaturationCeiling:     20,
		ScaleFactor:           10,
		BurnoutMediumAt:       40,
		BurnoutHighAt:         60,
		BurnoutCriticalAt:     80,
		ImbalanceThreshold:    30,
		EvidenceCap:           15,
	}
}

// Validate reports the first structural problem in a tables value.
func (t Tables) Validate() error {
	if t.Version == "" {
		return fmt.Errorf("tables version is required")
	}
	for _, category := range domain.Categories() {
		if w, ok := t.BaseWeights[category]; !ok || w <= 0 {
			return fmt.Errorf("base weight for %q must be positive", category)
		}
	}
	for _, level := range domain.ComplexityLevels() {
		if m, ok := t.ComplexityMultipliers[level]; !ok || m <= 0 {
			return fmt.Errorf("complexity multiplier for %q must be positive", level)
		}
		if m, ok := t.VariableFactors[level]; !ok || m <= 0 {
			return fmt.Errorf("variable factor for %q must be positive", level)
		}
	}
	for name, factors := range map[string]map[string]float64{
		"people":         t.PeopleFactors,
		"time_pressure":  t.TimePressureFactors,
		"failure_impact": t.FailureImpactFactors,
		"clarity":        t.ClarityFactors,
		"burden":         t.BurdenFactors,
		"time_of_day":    t.TimeOfDayFactors,
	} {
		if len(factors) == 0 {
			return fmt.Errorf("%s factors are required", name)
		}
		for key, factor := range factors {
			if factor <= 0 {
				return fmt.Errorf("%s factor %q must be positive", name, key)
			}
		}
	}
	if len(t.TimeOfDayFactors) != 7 {
		return fmt.Errorf("time_of_day factors must cover 7 buckets, got %d", len(t.TimeOfDayFactors))
	}
	if len(t.DayOfWeekFactors) != 7 {
		return fmt.Errorf("day_of_week factors must cover 7 days, got %d", len(t.DayOfWeekFactors))
	}
	for bucket, factor := range t.TimeOfDayFactors {
		if factor < 0.7 || factor > 1.3 {
			return fmt.Errorf("time_of_day factor %q outside [0.7, 1.3]", bucket)
		}
	}
	for day, factor := range t.DayOfWeekFactors {
		if factor < 0.7 || factor > 1.3 {
			return fmt.Errorf("day_of_week factor %v outside [0.7, 1.3]", day)
		}
	}
	if t.SignificanceThreshold < 0 || t.SignificanceThreshold >= 1 {
		return fmt.Errorf("significance threshold must be in [0, 1)")
	}
	if t.SignificanceEpsilon <= 0 {
		return fmt.Errorf("significance epsilon must be positive")
	}
	if t.SaturationCeiling <= 0 {
		return fmt.Errorf("saturation ceiling must be positive")
	}
	if t.ScaleFactor <= 0 {
		return fmt.Errorf("scale factor must be positive")
	}
	if !(t.BurnoutMediumAt < t.BurnoutHighAt && t.BurnoutHighAt < t.BurnoutCriticalAt) {
		return fmt.Errorf("burnout bands must be strictly ascending")
	}
	if t.ImbalanceThreshold <= 0 {
		return fmt.Errorf("imbalance threshold must be positive")
	}
	if t.EvidenceCap <= 0 {
		return fmt.Errorf("evidence cap must be positive")
	}
	return nil
}

// peopleBucket maps a participant count onto the people-factor table key.
func peopleBucket(participants int) string {
	switch {
	case participants <= 1:
		return PeopleOne
	case participants == 2:
		return PeopleTwo
	case participants == 3:
		return PeopleThree
	case participants == 4:
		return PeopleFour
	default:
		return PeopleFivePlus
	}
}

// variableBucket maps a distinct-attribute count onto a complexity level.
func variableBucket(attributeCount int) domain.ComplexityLevel {
	switch {
	case attributeCount <= 2:
		return domain.ComplexityLow
	case attributeCount <= 4:
		return domain.ComplexityMedium
	case attributeCount <= 6:
		return domain.ComplexityHigh
	default:
		return domain.ComplexityExtreme
	}
}

// pressureBucket maps deadline proximity onto the time-pressure table key.
// A past-due deadline counts as urgent.
func pressureBucket(deadline *time.Time, at time.Time) string {
	if deadline == nil {
		return PressureNone
	}
	remaining := deadline.Sub(at)
	switch {
	case remaining <= 6*time.Hour:
		return PressureUrgent
	case remaining <= 72*time.Hour:
		return PressureNear
	default:
		return PressureDistant
	}
}

// clarityBucket maps the record ambiguity flag onto the clarity table key.
func clarityBucket(ambiguous bool) string {
	if ambiguous {
		return ClarityAmbiguous
	}
	return ClarityClear
}

// impactBucket reads the collector-assessed failure-impact attribute,
// defaulting to low when absent or unknown.
func impactBucket(rec domain.ActivityRecord) string {
	switch rec.Attributes[FailureImpactAttribute] {
	case ImpactMedium:
		return ImpactMedium
	case ImpactHigh:
		return ImpactHigh
	case ImpactCritical:
		return ImpactCritical
	default:
		return ImpactLow
	}
}

// timeOfDayBucket maps a clock hour onto the seven named day segments.
func timeOfDayBucket(at time.Time) string {
	switch hour := at.Hour(); {
	case hour >= 5 && hour < 8:
		return TimeEarlyMorning
	case hour >= 8 && hour < 11:
		return TimeMorning
	case hour >= 11 && hour < 14:
		return TimeMidday
	case hour >= 14 && hour < 17:
		return TimeAfternoon
	case hour >= 17 && hour < 20:
		return TimeEvening
	case hour >= 20 && hour < 23:
		return TimeNight
	default:
		return TimeLateNight
	}
}
