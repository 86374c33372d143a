package engine

import (
	"sort"
	"time"

	"github.com/hylla/balans/internal/domain"
)

// extractMeasurement derives the actual-load measurement for one
// (person, category) pair from classified activity records. Zero matching
// records is a valid input gap, not an error: the measurement reports zero
// load at low complexity with an empty support set.
func (p *Pipeline) extractMeasurement(personID string, category domain.WorkCategory, records []domain.ActivityRecord, categories map[string]domain.WorkCategory, at time.Time) domain.CategoryMeasurement {
	measurement := domain.CategoryMeasurement{
		PersonID:        personID,
		Category:        category,
		ComplexityLevel: domain.ComplexityLow,
	}

	var sum float64
	levelCounts := map[domain.ComplexityLevel]int{}
	for _, rec := range records {
		if rec.PersonID != personID {
			continue
		}
		if categories[rec.ID] != category {
			continue
		}
		sum += p.recordIntensity(category, rec, at)
		levelCounts[recordComplexity(rec, at)]++
		measurement.SupportingRecordIDs = append(measurement.SupportingRecordIDs, rec.ID)
	}
	if len(measurement.SupportingRecordIDs) == 0 {
		return measurement
	}

	sort.Strings(measurement.SupportingRecordIDs)
	measurement.ActualValue = clamp01(sum / p.tables.SaturationCeiling)
	measurement.ComplexityLevel = modalComplexity(levelCounts)
	return measurement
}

// recordIntensity computes one record's raw cognitive intensity: the category
// base weight scaled by complexity factors derived from record attributes and
// by any contextual burden tags the record carries.
func (p *Pipeline) recordIntensity(category domain.WorkCategory, rec domain.ActivityRecord, at time.Time) float64 {
	t := p.tables
	intensity := t.BaseWeights[category]
	intensity *= t.PeopleFactors[peopleBucket(rec.Participants)]
	intensity *= t.VariableFactors[variableBucket(rec.AttributeCount())]
	intensity *= t.TimePressureFactors[pressureBucket(rec.Deadline, at)]
	intensity *= t.FailureImpactFactors[impactBucket(rec)]
	intensity *= t.ClarityFactors[clarityBucket(rec.Ambiguous)]
	for tag, factor := range t.BurdenFactors {
		if rec.HasTag(tag) {
			intensity *= factor
		}
	}
	return intensity
}

// recordComplexity buckets one record into a coarse complexity level from the
// same attribute signals that drive its intensity factors.
func recordComplexity(rec domain.ActivityRecord, at time.Time) domain.ComplexityLevel {
	points := domain.ComplexityRank(variableBucket(rec.AttributeCount()))
	if rec.Participants >= 5 {
		points += 2
	} else if rec.Participants >= 2 {
		points++
	}
	switch pressureBucket(rec.Deadline, at) {
	case PressureUrgent:
		points += 2
	case PressureNear:
		points++
	}
	switch impactBucket(rec) {
	case ImpactHigh, ImpactCritical:
		points++
	}
	if rec.Ambiguous {
		points++
	}

	switch {
	case points <= 1:
		return domain.ComplexityLow
	case points <= 3:
		return domain.ComplexityMedium
	case points <= 5:
		return domain.ComplexityHigh
	default:
		return domain.ComplexityExtreme
	}
}

// modalComplexity returns the most common complexity level among contributing
// records, preferring the more severe level on ties.
func modalComplexity(counts map[domain.ComplexityLevel]int) domain.ComplexityLevel {
	best := domain.ComplexityLow
	bestCount := 0
	for _, level := range domain.ComplexityLevels() {
		if counts[level] >= bestCount && counts[level] > 0 {
			best = level
			bestCount = counts[level]
		}
	}
	return best
}
