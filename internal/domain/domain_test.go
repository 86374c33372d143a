package domain

import (
	"testing"
	"time"
)

func TestNewPersonValidation(t *testing.T) {
	if _, err := NewPerson("", "h1", "Alex"); err != ErrInvalidPersonID {
		t.Fatalf("expected ErrInvalidPersonID, got %v", err)
	}
	if _, err := NewPerson("p1", "  ", "Alex"); err != ErrInvalidHouseholdID {
		t.Fatalf("expected ErrInvalidHouseholdID, got %v", err)
	}
	if _, err := NewPerson("p1", "h1", ""); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	p, err := NewPerson(" p1 ", "h1", "  Alex ")
	if err != nil {
		t.Fatalf("NewPerson() error = %v", err)
	}
	if p.ID != "p1" || p.Name != "Alex" {
		t.Fatalf("unexpected person %#v", p)
	}
}

func TestNewSelfReport(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.FixedZone("x", 3600))
	report, err := NewSelfReport(SelfReportInput{
		PersonID:        " p1 ",
		Category:        " Scheduling ",
		RawValue:        " rarely ",
		SourceTimestamp: ts,
	})
	if err != nil {
		t.Fatalf("NewSelfReport() error = %v", err)
	}
	if report.Category != CategoryScheduling {
		t.Fatalf("unexpected category %q", report.Category)
	}
	if report.RawValue != "rarely" {
		t.Fatalf("unexpected raw value %q", report.RawValue)
	}
	if report.SourceTimestamp.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp, got %v", report.SourceTimestamp)
	}
}

func TestNewSelfReportValidation(t *testing.T) {
	now := time.Now()
	if _, err := NewSelfReport(SelfReportInput{Category: CategoryPlanning, SourceTimestamp: now}); err != ErrInvalidPersonID {
		t.Fatalf("expected ErrInvalidPersonID, got %v", err)
	}
	if _, err := NewSelfReport(SelfReportInput{PersonID: "p1", Category: "laundry-opinions", SourceTimestamp: now}); err != ErrInvalidCategory {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := NewSelfReport(SelfReportInput{PersonID: "p1", Category: CategoryPlanning}); err != ErrInvalidTimestamp {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}

func TestActivityRecordValid(t *testing.T) {
	now := time.Now()
	valid := ActivityRecord{ID: "a1", PersonID: "p1", Type: ActivityMessage, Timestamp: now}
	if !valid.Valid() {
		t.Fatal("expected record to be valid")
	}

	cases := []ActivityRecord{
		{PersonID: "p1", Type: ActivityMessage, Timestamp: now},
		{ID: "a1", Type: ActivityMessage, Timestamp: now},
		{ID: "a1", PersonID: "p1", Type: "carrier-pigeon", Timestamp: now},
		{ID: "a1", PersonID: "p1", Type: ActivityMessage},
	}
	for i, rec := range cases {
		if rec.Valid() {
			t.Fatalf("case %d: expected record to be invalid: %#v", i, rec)
		}
	}
}

func TestActivityRecordAttributeCount(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	rec := ActivityRecord{
		ID:           "a1",
		PersonID:     "p1",
		Type:         ActivityTask,
		Timestamp:    time.Now(),
		Content:      "book dentist",
		Participants: 2,
		Deadline:     &deadline,
		Tags:         []string{BurdenInterruption},
		Attributes:   map[string]string{"location": "clinic"},
	}
	// content + participants + deadline + one tag + one attribute.
	if got := rec.AttributeCount(); got != 5 {
		t.Fatalf("AttributeCount() = %d, want 5", got)
	}
	if !rec.HasTag(" Interruption ") {
		t.Fatal("expected normalized tag match")
	}
	if rec.HasTag(BurdenNovelty) {
		t.Fatal("unexpected tag match")
	}
}

func TestCategoryNormalization(t *testing.T) {
	if !IsValidCategory(" Emotional_Support ") {
		t.Fatal("expected emotional_support to be valid")
	}
	if IsValidCategory("telepathy") {
		t.Fatal("expected unknown category to be invalid")
	}
	if len(Categories()) != 8 {
		t.Fatalf("unexpected category count %d", len(Categories()))
	}
}

func TestComplexityRank(t *testing.T) {
	if ComplexityRank(ComplexityLow) >= ComplexityRank(ComplexityExtreme) {
		t.Fatal("expected ascending complexity ranks")
	}
	if ComplexityRank("cosmic") != -1 {
		t.Fatal("expected unknown level rank -1")
	}
}
