package engine

import (
	"math"
	"time"

	"github.com/hylla/balans/internal/domain"
)

// detectDiscrepancy pairs one normalized self-report with its actual
// measurement and returns a significance-scored discrepancy, or false when the
// gap is below the retention threshold. Pure function of its inputs.
func (p *Pipeline) detectDiscrepancy(report domain.SelfReport, measurement domain.CategoryMeasurement, latestEvidence time.Time) (domain.Discrepancy, bool) {
	reported := NormalizeReportedValue(report.RawValue, p.logger)
	actual := measurement.ActualValue

	difference := math.Abs(actual - reported)
	significance := difference / math.Max(actual, math.Max(reported, p.tables.SignificanceEpsilon))
	if significance <= p.tables.SignificanceThreshold {
		return domain.Discrepancy{}, false
	}

	direction := domain.DirectionOverreported
	if actual > reported {
		direction = domain.DirectionUnderreported
	}
	return domain.Discrepancy{
		ID:                  p.idGen(),
		PersonID:            report.PersonID,
		Category:            report.Category,
		ReportedValue:       reported,
		ActualValue:         actual,
		Difference:          difference,
		Significance:        significance,
		Direction:           direction,
		SupportingRecordIDs: append([]string(nil), measurement.SupportingRecordIDs...),
		LatestEvidenceAt:    latestEvidence,
	}, true
}
