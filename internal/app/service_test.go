package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/balans/internal/domain"
	"github.com/hylla/balans/internal/engine"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	people  map[string][]domain.Person
	reports map[string][]domain.SelfReport
	records map[string][]domain.ActivityRecord
	results map[string][]domain.AnalysisResult
	saveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{
		people:  map[string][]domain.Person{},
		reports: map[string][]domain.SelfReport{},
		records: map[string][]domain.ActivityRecord{},
		results: map[string][]domain.AnalysisResult{},
	}
}

func (m *memRepo) SavePerson(_ context.Context, p domain.Person) error {
	m.people[p.HouseholdID] = append(m.people[p.HouseholdID], p)
	return nil
}

func (m *memRepo) ListPeople(_ context.Context, householdID string) ([]domain.Person, error) {
	return m.people[householdID], nil
}

func (m *memRepo) SaveSelfReport(_ context.Context, householdID string, r domain.SelfReport) error {
	m.reports[householdID] = append(m.reports[householdID], r)
	return nil
}

func (m *memRepo) ListSelfReports(_ context.Context, householdID string) ([]domain.SelfReport, error) {
	return m.reports[householdID], nil
}

func (m *memRepo) SaveActivityRecord(_ context.Context, householdID string, r domain.ActivityRecord) error {
	m.records[householdID] = append(m.records[householdID], r)
	return nil
}

func (m *memRepo) ListActivityRecords(_ context.Context, householdID string) ([]domain.ActivityRecord, error) {
	return m.records[householdID], nil
}

func (m *memRepo) SaveResult(_ context.Context, result domain.AnalysisResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.results[result.HouseholdID] = append(m.results[result.HouseholdID], result)
	return nil
}

func (m *memRepo) LatestResult(_ context.Context, householdID string) (domain.AnalysisResult, error) {
	results := m.results[householdID]
	if len(results) == 0 {
		return domain.AnalysisResult{}, ErrNoArchivedResult
	}
	return results[len(results)-1], nil
}

func (m *memRepo) ListHouseholdIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.people))
	for id := range m.people {
		ids = append(ids, id)
	}
	return ids, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	seq := 0
	pipeline, err := engine.New(engine.DefaultTables(), engine.Config{
		IDGenerator: func() string {
			seq++
			return fmt.Sprintf("id-%04d", seq)
		},
		Clock: func() time.Time {
			return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	return NewService(repo, pipeline, ServiceConfig{
		Clock: func() time.Time {
			return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
		},
	})
}

func seedHousehold(t *testing.T, repo *memRepo, householdID string) {
	t.Helper()
	at := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	repo.reports[householdID] = []domain.SelfReport{
		{PersonID: "p1", Category: domain.CategoryScheduling, RawValue: "rarely", SourceTimestamp: at},
	}
	for i := 0; i < 8; i++ {
		repo.records[householdID] = append(repo.records[householdID], domain.ActivityRecord{
			ID:        fmt.Sprintf("rec-%02d", i),
			PersonID:  "p1",
			Type:      domain.ActivityMessage,
			Timestamp: at.Add(time.Duration(i) * time.Minute),
			Content:   "reschedule the school pickup",
		})
	}
}

func TestAnalyzeHouseholdArchivesResult(t *testing.T) {
	repo := newMemRepo()
	seedHousehold(t, repo, "h1")
	svc := newTestService(t, repo)

	result, err := svc.AnalyzeHousehold(context.Background(), AnalyzeHouseholdInput{HouseholdID: "h1"})
	if err != nil {
		t.Fatalf("AnalyzeHousehold() error = %v", err)
	}
	if result.HouseholdID != "h1" {
		t.Fatalf("unexpected household id %q", result.HouseholdID)
	}
	if len(result.PerPersonLoadScores) != 1 {
		t.Fatalf("expected 1 load score, got %d", len(result.PerPersonLoadScores))
	}

	latest, err := svc.LatestResult(context.Background(), "h1")
	if err != nil {
		t.Fatalf("LatestResult() error = %v", err)
	}
	if !latest.GeneratedAt.Equal(result.GeneratedAt) {
		t.Fatal("archived result does not match the returned result")
	}
}

func TestAnalyzeHouseholdToleratesArchiveFailure(t *testing.T) {
	repo := newMemRepo()
	seedHousehold(t, repo, "h1")
	repo.saveErr = errors.New("disk full")
	svc := newTestService(t, repo)

	result, err := svc.AnalyzeHousehold(context.Background(), AnalyzeHouseholdInput{HouseholdID: "h1"})
	if err != nil {
		t.Fatalf("AnalyzeHousehold() error = %v, want result despite archive failure", err)
	}
	if result.HouseholdID != "h1" {
		t.Fatalf("unexpected household id %q", result.HouseholdID)
	}
}

func TestAnalyzeHouseholdRequiresID(t *testing.T) {
	svc := newTestService(t, newMemRepo())
	_, err := svc.AnalyzeHousehold(context.Background(), AnalyzeHouseholdInput{HouseholdID: "  "})
	if !errors.Is(err, domain.ErrInvalidHouseholdID) {
		t.Fatalf("expected ErrInvalidHouseholdID, got %v", err)
	}
}

func TestAnalyzeHouseholdEmptyStoreRaises(t *testing.T) {
	svc := newTestService(t, newMemRepo())
	_, err := svc.AnalyzeHousehold(context.Background(), AnalyzeHouseholdInput{HouseholdID: "h1"})
	if !errors.Is(err, domain.ErrNoInputData) {
		t.Fatalf("expected ErrNoInputData, got %v", err)
	}
}

func TestListDiscrepanciesUsesLatestResult(t *testing.T) {
	repo := newMemRepo()
	seedHousehold(t, repo, "h1")
	svc := newTestService(t, repo)

	if _, err := svc.AnalyzeHousehold(context.Background(), AnalyzeHouseholdInput{HouseholdID: "h1"}); err != nil {
		t.Fatalf("AnalyzeHousehold() error = %v", err)
	}
	discrepancies, err := svc.ListDiscrepancies(context.Background(), "h1")
	if err != nil {
		t.Fatalf("ListDiscrepancies() error = %v", err)
	}
	if len(discrepancies) == 0 {
		t.Fatal("expected discrepancies from the seeded household")
	}
}

func TestLatestResultMissing(t *testing.T) {
	svc := newTestService(t, newMemRepo())
	_, err := svc.LatestResult(context.Background(), "nope")
	if !errors.Is(err, ErrNoArchivedResult) {
		t.Fatalf("expected ErrNoArchivedResult, got %v", err)
	}
}

func TestAnalyzeSnapshotBypassesStore(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(t, repo)
	at := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	snap := Snapshot{
		HouseholdID: "h1",
		People:      []SnapshotPerson{{ID: "p1", Name: "Alex"}},
		SelfReports: []SnapshotSelfReport{
			{PersonID: "p1", Category: "scheduling", Value: "rarely", ReportedAt: at},
		},
		ActivityRecords: []SnapshotActivityRecord{
			{ID: "a1", PersonID: "p1", Type: "message", Timestamp: at, Content: "reschedule the dentist appointment"},
		},
	}

	result, err := svc.AnalyzeSnapshot(context.Background(), snap, at)
	if err != nil {
		t.Fatalf("AnalyzeSnapshot() error = %v", err)
	}
	if result.HouseholdID != "h1" {
		t.Fatalf("unexpected household id %q", result.HouseholdID)
	}
	if len(repo.results["h1"]) != 0 {
		t.Fatal("snapshot analysis must not archive results")
	}
}
