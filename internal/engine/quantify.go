package engine

import (
	"math"
	"time"

	"github.com/hylla/balans/internal/domain"
)

// quantifyLoad aggregates weighted, multiplier-adjusted measurements into one
// person's total score and per-category breakdown. The contextual multiplier
// applies to the total only; the breakdown keeps unmultiplied subscores so the
// explanation stays stable across evaluation times.
func (p *Pipeline) quantifyLoad(personID string, measurements []domain.CategoryMeasurement, at time.Time) domain.LoadScore {
	t := p.tables
	breakdown := make(map[domain.WorkCategory]float64)
	var sum float64
	for _, m := range measurements {
		if m.PersonID != personID || m.ActualValue == 0 {
			continue
		}
		subscore := t.BaseWeights[m.Category] * t.ComplexityMultipliers[m.ComplexityLevel] * m.ActualValue * t.ScaleFactor
		breakdown[m.Category] = subscore
		sum += subscore
	}

	multiplier := p.ContextualMultiplier(at)
	total := math.Round(sum * multiplier)
	return domain.LoadScore{
		PersonID:             personID,
		TotalScore:           total,
		CategoryBreakdown:    breakdown,
		ContextualMultiplier: multiplier,
		// Burnout risk reads the already-multiplied total. Discovered source
		// behavior, kept intact so classifications stay comparable.
		BurnoutRisk: p.riskForScore(total),
	}
}

// ContextualMultiplier returns the product of the time-of-day and day-of-week
// factors at one evaluation time.
func (p *Pipeline) ContextualMultiplier(at time.Time) float64 {
	return p.tables.TimeOfDayFactors[timeOfDayBucket(at)] * p.tables.DayOfWeekFactors[at.Weekday()]
}

// riskForScore classifies one total score into a burnout band.
func (p *Pipeline) riskForScore(total float64) domain.BurnoutRisk {
	t := p.tables
	switch {
	case total < t.BurnoutMediumAt:
		return domain.BurnoutLow
	case total <= t.BurnoutHighAt:
		return domain.BurnoutMedium
	case total <= t.BurnoutCriticalAt:
		return domain.BurnoutHigh
	default:
		return domain.BurnoutCritical
	}
}
