package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/hylla/balans/internal/domain"
)

func TestRankOrdersByStrengthThenRecency(t *testing.T) {
	p := newTestPipeline(t, DefaultTables())
	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	older := at.Add(-48 * time.Hour)
	newer := at.Add(-time.Hour)
	discrepancies := []domain.Discrepancy{
		{ID: "d1", PersonID: "p1", Category: domain.CategoryScheduling, Significance: 0.5, LatestEvidenceAt: older},
		{ID: "d2", PersonID: "p1", Category: domain.CategoryFinances, Significance: 0.9, LatestEvidenceAt: older},
		{ID: "d3", PersonID: "p2", Category: domain.CategoryPlanning, Significance: 0.5, LatestEvidenceAt: newer},
	}

	items := p.rankEvidence(discrepancies, nil, at)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].RelatedDiscrepancyID != "d2" {
		t.Fatalf("expected strongest first, got %q", items[0].RelatedDiscrepancyID)
	}
	// Equal strength breaks on recency.
	if items[1].RelatedDiscrepancyID != "d3" || items[2].RelatedDiscrepancyID != "d1" {
		t.Fatalf("unexpected tie-break order: %q then %q", items[1].RelatedDiscrepancyID, items[2].RelatedDiscrepancyID)
	}
}

func TestRankCapsOutput(t *testing.T) {
	p := newTestPipeline(t, DefaultTables())
	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	var discrepancies []domain.Discrepancy
	for i := 0; i < 25; i++ {
		discrepancies = append(discrepancies, domain.Discrepancy{
			ID:           fmt.Sprintf("d%02d", i),
			PersonID:     "p1",
			Category:     domain.CategoryGeneral,
			Significance: 0.4 + float64(i)*0.01,
		})
	}

	items := p.rankEvidence(discrepancies, nil, at)
	if len(items) != p.tables.EvidenceCap {
		t.Fatalf("expected %d items, got %d", p.tables.EvidenceCap, len(items))
	}
	// The weakest entries are the ones dropped.
	for _, item := range items {
		if item.Strength < 0.495 {
			t.Fatalf("kept a weak item with strength %v", item.Strength)
		}
	}
}

func TestRankSynthesizesImbalanceItem(t *testing.T) {
	p := newTestPipeline(t, DefaultTables())
	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	scores := []domain.LoadScore{
		{PersonID: "p1", TotalScore: 92, BurnoutRisk: domain.BurnoutCritical},
		{PersonID: "p2", TotalScore: 38, BurnoutRisk: domain.BurnoutLow},
	}

	items := p.rankEvidence(nil, scores, at)
	var burnout, imbalance *domain.EvidenceItem
	for i := range items {
		switch items[i].Type {
		case domain.EvidenceBurnout:
			burnout = &items[i]
		case domain.EvidenceImbalance:
			imbalance = &items[i]
		}
	}
	if burnout == nil {
		t.Fatal("expected a burnout evidence item for the critical total")
	}
	if imbalance == nil {
		t.Fatal("expected an imbalance evidence item for a 54-point spread")
	}
	if imbalance.Strength != 0.54 {
		t.Fatalf("imbalance strength = %v, want 0.54", imbalance.Strength)
	}
}

func TestRankSkipsBalancedHousehold(t *testing.T) {
	p := newTestPipeline(t, DefaultTables())
	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	scores := []domain.LoadScore{
		{PersonID: "p1", TotalScore: 50, BurnoutRisk: domain.BurnoutMedium},
		{PersonID: "p2", TotalScore: 45, BurnoutRisk: domain.BurnoutMedium},
	}

	if items := p.rankEvidence(nil, scores, at); len(items) != 0 {
		t.Fatalf("expected no evidence for a balanced household, got %d items", len(items))
	}
}

func TestRankTruncatesSupportingPoints(t *testing.T) {
	p := newTestPipeline(t, DefaultTables())
	at := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 30; i++ {
		ids = append(ids, fmt.Sprintf("a%02d", i))
	}
	discrepancies := []domain.Discrepancy{
		{ID: "d1", PersonID: "p1", Category: domain.CategoryScheduling, Significance: 0.6, SupportingRecordIDs: ids},
	}

	items := p.rankEvidence(discrepancies, nil, at)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if len(items[0].SupportingDataPoints) != supportingPointCap {
		t.Fatalf("expected %d supporting points, got %d", supportingPointCap, len(items[0].SupportingDataPoints))
	}
}
