package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hylla/balans/internal/config"
	"github.com/hylla/balans/internal/domain"
	"github.com/hylla/balans/internal/engine"
)

func TestParseEvaluationTime(t *testing.T) {
	if got, err := parseEvaluationTime(""); err != nil || !got.IsZero() {
		t.Fatalf("empty value: got %v, err %v", got, err)
	}
	want := time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC)
	got, err := parseEvaluationTime("2026-03-07T18:00:00Z")
	if err != nil {
		t.Fatalf("parseEvaluationTime() error = %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := parseEvaluationTime("next tuesday"); err == nil {
		t.Fatal("expected error for unparseable value")
	}
}

func TestApplyEngineOverrides(t *testing.T) {
	tables := engine.DefaultTables()
	applyEngineOverrides(&tables, config.EngineConfig{
		SignificanceThreshold: 0.45,
		EvidenceCap:           7,
		BurnoutMediumAt:       50,
		BurnoutHighAt:         65,
		BurnoutCriticalAt:     85,
	})
	if tables.SignificanceThreshold != 0.45 || tables.EvidenceCap != 7 {
		t.Fatalf("overrides not applied: %+v", tables)
	}
	if tables.BurnoutMediumAt != 50 || tables.BurnoutCriticalAt != 85 {
		t.Fatalf("burnout bands not applied: %+v", tables)
	}
	if tables.ImbalanceThreshold != engine.DefaultTables().ImbalanceThreshold {
		t.Fatalf("zero override changed imbalance threshold: %v", tables.ImbalanceThreshold)
	}
}

func TestBuildPipelineKeywordMode(t *testing.T) {
	cfg := config.Default("/tmp/balans.db")
	logger, err := newLogger(io.Discard, cfg.Logging)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		t.Fatalf("buildPipeline() error = %v", err)
	}
	if pipeline.Tables().Version == "" {
		t.Fatal("expected default weight tables")
	}
}

func TestBuildPipelineAppliesOverrides(t *testing.T) {
	cfg := config.Default("/tmp/balans.db")
	cfg.Engine.EvidenceCap = 3
	logger, err := newLogger(io.Discard, cfg.Logging)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	pipeline, err := buildPipeline(cfg, logger)
	if err != nil {
		t.Fatalf("buildPipeline() error = %v", err)
	}
	if pipeline.Tables().EvidenceCap != 3 {
		t.Fatalf("evidence cap = %d, want 3", pipeline.Tables().EvidenceCap)
	}
}

func sampleResult() domain.AnalysisResult {
	return domain.AnalysisResult{
		HouseholdID: "h1",
		GeneratedAt: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
		PerPersonLoadScores: []domain.LoadScore{
			{PersonID: "p1", TotalScore: 72, ContextualMultiplier: 1.2, BurnoutRisk: domain.BurnoutHigh},
		},
		Discrepancies: []domain.Discrepancy{
			{
				PersonID:      "p1",
				Category:      domain.CategoryScheduling,
				ReportedValue: 0.2,
				ActualValue:   0.9,
				Direction:     domain.DirectionUnderreported,
				Significance:  0.78,
			},
		},
		Evidence: []domain.EvidenceItem{
			{Type: domain.EvidenceDiscrepancy, Strength: 0.78, Description: "p1 underreports scheduling work"},
		},
		DataQuality: 0.97,
		Complete:    true,
	}
}

func TestPrintResultJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printResult(&buf, sampleResult(), true); err != nil {
		t.Fatalf("printResult() error = %v", err)
	}
	var decoded domain.AnalysisResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.HouseholdID != "h1" || len(decoded.Discrepancies) != 1 {
		t.Fatalf("unexpected decoded result %+v", decoded)
	}
}

func TestPrintResultTables(t *testing.T) {
	var buf bytes.Buffer
	if err := printResult(&buf, sampleResult(), false); err != nil {
		t.Fatalf("printResult() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Household h1", "p1", "scheduling", "underreported", "high"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderDiscrepanciesEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderDiscrepancies(&buf, nil)
	if !strings.Contains(buf.String(), "No significant discrepancies") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRootCommandRegistration(t *testing.T) {
	root := newRootCmd(io.Discard, io.Discard)
	want := map[string]bool{
		"analyze": false, "result": false, "discrepancies": false,
		"households": false, "import": false, "export": false,
		"serve": false, "paths": false,
	}
	for _, cmd := range root.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("command %q not registered", name)
		}
	}
}
