package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hylla/balans/internal/domain"
)

// supportingPointCap bounds how many raw record ids one evidence item lists.
const supportingPointCap = 10

// rankEvidence selects and orders the strongest findings into a bounded list
// for downstream presentation. One item per retained discrepancy, plus
// synthesized aggregate items for burnout-critical totals and household
// imbalance. No I/O; the output is a pure data structure.
func (p *Pipeline) rankEvidence(discrepancies []domain.Discrepancy, scores []domain.LoadScore, at time.Time) []domain.EvidenceItem {
	items := make([]domain.EvidenceItem, 0, len(discrepancies)+2)
	for _, d := range discrepancies {
		points := d.SupportingRecordIDs
		if len(points) > supportingPointCap {
			points = points[:supportingPointCap]
		}
		items = append(items, domain.EvidenceItem{
			ID:                   p.idGen(),
			Type:                 domain.EvidenceDiscrepancy,
			Category:             d.Category,
			Strength:             math.Min(1, d.Significance),
			Description:          describeDiscrepancy(d),
			SupportingDataPoints: append([]string(nil), points...),
			RelatedDiscrepancyID: d.ID,
			ObservedAt:           d.LatestEvidenceAt,
		})
	}
	items = append(items, p.aggregateEvidence(scores, at)...)

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Strength != b.Strength {
			return a.Strength > b.Strength
		}
		if !a.ObservedAt.Equal(b.ObservedAt) {
			return a.ObservedAt.After(b.ObservedAt)
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Description < b.Description
	})

	if len(items) > p.tables.EvidenceCap {
		items = items[:p.tables.EvidenceCap]
	}
	return items
}

// aggregateEvidence synthesizes findings that no single discrepancy captures:
// burnout-critical totals and the max-min spread across the household.
func (p *Pipeline) aggregateEvidence(scores []domain.LoadScore, at time.Time) []domain.EvidenceItem {
	var items []domain.EvidenceItem
	for _, score := range scores {
		if score.BurnoutRisk != domain.BurnoutCritical {
			continue
		}
		items = append(items, domain.EvidenceItem{
			ID:          p.idGen(),
			Type:        domain.EvidenceBurnout,
			Strength:    math.Min(1, score.TotalScore/(p.tables.BurnoutCriticalAt+20)),
			Description: fmt.Sprintf("%s carries a critical hidden load: total score %.0f exceeds the critical threshold %.0f", score.PersonID, score.TotalScore, p.tables.BurnoutCriticalAt),
			SupportingDataPoints: []string{
				fmt.Sprintf("total_score=%.0f", score.TotalScore),
				fmt.Sprintf("burnout_risk=%s", score.BurnoutRisk),
			},
			ObservedAt: at,
		})
	}

	if len(scores) < 2 {
		return items
	}
	minScore, maxScore := scores[0], scores[0]
	for _, score := range scores[1:] {
		if score.TotalScore < minScore.TotalScore {
			minScore = score
		}
		if score.TotalScore > maxScore.TotalScore {
			maxScore = score
		}
	}
	spread := maxScore.TotalScore - minScore.TotalScore
	if spread <= p.tables.ImbalanceThreshold {
		return items
	}
	items = append(items, domain.EvidenceItem{
		ID:          p.idGen(),
		Type:        domain.EvidenceImbalance,
		Strength:    math.Min(1, spread/100),
		Description: fmt.Sprintf("household load is imbalanced: %s carries %.0f while %s carries %.0f (spread %.0f)", maxScore.PersonID, maxScore.TotalScore, minScore.PersonID, minScore.TotalScore, spread),
		SupportingDataPoints: []string{
			fmt.Sprintf("max_total=%.0f person=%s", maxScore.TotalScore, maxScore.PersonID),
			fmt.Sprintf("min_total=%.0f person=%s", minScore.TotalScore, minScore.PersonID),
		},
		ObservedAt: at,
	})
	return items
}

// describeDiscrepancy renders one category/direction/magnitude summary line.
func describeDiscrepancy(d domain.Discrepancy) string {
	return fmt.Sprintf("%s %s %s load: reported %.2f vs actual %.2f (significance %.2f)",
		d.PersonID, d.Direction, d.Category, d.ReportedValue, d.ActualValue, d.Significance)
}
