package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hylla/balans/internal/domain"
)

// SnapshotVersion identifies the household snapshot file format.
const SnapshotVersion = "balans.snapshot.v1"

// Snapshot is one household's portable input set: people, self-reports, and
// collected activity records. Snapshots round-trip through the store and are
// accepted in YAML or JSON on input.
type Snapshot struct {
	Version         string                   `json:"version" yaml:"version"`
	ExportedAt      time.Time                `json:"exported_at,omitempty" yaml:"exported_at,omitempty"`
	HouseholdID     string                   `json:"household_id" yaml:"household_id"`
	People          []SnapshotPerson         `json:"people" yaml:"people"`
	SelfReports     []SnapshotSelfReport     `json:"self_reports" yaml:"self_reports"`
	ActivityRecords []SnapshotActivityRecord `json:"activity_records" yaml:"activity_records"`
}

// SnapshotPerson represents one household member row in a snapshot.
type SnapshotPerson struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// SnapshotSelfReport represents one self-reported load estimate in a snapshot.
// Value carries the raw submission: an ordinal label or a 0-100 number.
type SnapshotSelfReport struct {
	PersonID   string    `json:"person_id" yaml:"person_id"`
	Category   string    `json:"category" yaml:"category"`
	Value      string    `json:"value" yaml:"value"`
	ReportedAt time.Time `json:"reported_at" yaml:"reported_at"`
}

// SnapshotActivityRecord represents one collected activity row in a snapshot.
type SnapshotActivityRecord struct {
	ID              string            `json:"id" yaml:"id"`
	PersonID        string            `json:"person_id" yaml:"person_id"`
	Type            string            `json:"type" yaml:"type"`
	Timestamp       time.Time         `json:"timestamp" yaml:"timestamp"`
	Content         string            `json:"content,omitempty" yaml:"content,omitempty"`
	Participants    int               `json:"participants,omitempty" yaml:"participants,omitempty"`
	DurationMinutes int               `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	Deadline        *time.Time        `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Ambiguous       bool              `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
	Tags            []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// DecodeSnapshot parses snapshot bytes. YAML is a superset of JSON, so one
// decoder covers both accepted input formats.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// EncodeSnapshot renders one snapshot as indented JSON.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	snap.sort()
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(out, '\n'), nil
}

// Validate checks structural integrity and cross-references. Record-level
// data problems are left to the pipeline's skip-and-count handling; only
// malformed snapshot structure is rejected here.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}
	if strings.TrimSpace(s.HouseholdID) == "" {
		return fmt.Errorf("household_id is required: %w", domain.ErrInvalidHouseholdID)
	}

	personIDs := map[string]struct{}{}
	for i, p := range s.People {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("people[%d].id is required", i)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("people[%d].name is required", i)
		}
		if _, exists := personIDs[id]; exists {
			return fmt.Errorf("duplicate person id: %q", id)
		}
		personIDs[id] = struct{}{}
		s.People[i].ID = id
	}

	for i, r := range s.SelfReports {
		personID := strings.TrimSpace(r.PersonID)
		if personID == "" {
			return fmt.Errorf("self_reports[%d].person_id is required", i)
		}
		if len(personIDs) > 0 {
			if _, ok := personIDs[personID]; !ok {
				return fmt.Errorf("self_reports[%d] references unknown person_id %q", i, personID)
			}
		}
		if !domain.IsValidCategory(domain.WorkCategory(r.Category)) {
			return fmt.Errorf("self_reports[%d].category invalid: %q", i, r.Category)
		}
		if strings.TrimSpace(r.Value) == "" {
			return fmt.Errorf("self_reports[%d].value is required", i)
		}
		s.SelfReports[i].PersonID = personID
	}

	recordIDs := map[string]struct{}{}
	for i, r := range s.ActivityRecords {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return fmt.Errorf("activity_records[%d].id is required", i)
		}
		if _, exists := recordIDs[id]; exists {
			return fmt.Errorf("duplicate activity record id: %q", id)
		}
		recordIDs[id] = struct{}{}
		s.ActivityRecords[i].ID = id
	}
	return nil
}

// ImportSnapshot persists one snapshot's people, reports, and records.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	householdID := strings.TrimSpace(snap.HouseholdID)
	for _, p := range snap.People {
		person, err := domain.NewPerson(p.ID, householdID, p.Name)
		if err != nil {
			return fmt.Errorf("import person %q: %w", p.ID, err)
		}
		if err := s.repo.SavePerson(ctx, person); err != nil {
			return err
		}
	}
	reports, records := snap.toDomain()
	for _, report := range reports {
		if err := s.repo.SaveSelfReport(ctx, householdID, report); err != nil {
			return err
		}
	}
	for _, record := range records {
		if err := s.repo.SaveActivityRecord(ctx, householdID, record); err != nil {
			return err
		}
	}
	return nil
}

// ExportSnapshot reads one household back out of the store as a snapshot.
func (s *Service) ExportSnapshot(ctx context.Context, householdID string) (Snapshot, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return Snapshot{}, domain.ErrInvalidHouseholdID
	}

	people, err := s.repo.ListPeople(ctx, householdID)
	if err != nil {
		return Snapshot{}, err
	}
	reports, err := s.repo.ListSelfReports(ctx, householdID)
	if err != nil {
		return Snapshot{}, err
	}
	records, err := s.repo.ListActivityRecords(ctx, householdID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:         SnapshotVersion,
		ExportedAt:      s.clock().UTC(),
		HouseholdID:     householdID,
		People:          make([]SnapshotPerson, 0, len(people)),
		SelfReports:     make([]SnapshotSelfReport, 0, len(reports)),
		ActivityRecords: make([]SnapshotActivityRecord, 0, len(records)),
	}
	for _, person := range people {
		snap.People = append(snap.People, SnapshotPerson{ID: person.ID, Name: person.Name})
	}
	for _, report := range reports {
		snap.SelfReports = append(snap.SelfReports, SnapshotSelfReport{
			PersonID:   report.PersonID,
			Category:   string(report.Category),
			Value:      report.RawValue,
			ReportedAt: report.SourceTimestamp.UTC(),
		})
	}
	for _, record := range records {
		snap.ActivityRecords = append(snap.ActivityRecords, snapshotRecordFromDomain(record))
	}
	snap.sort()
	return snap, nil
}

// toDomain converts snapshot rows to engine input values.
func (s Snapshot) toDomain() ([]domain.SelfReport, []domain.ActivityRecord) {
	reports := make([]domain.SelfReport, 0, len(s.SelfReports))
	for _, r := range s.SelfReports {
		reports = append(reports, domain.SelfReport{
			PersonID:        strings.TrimSpace(r.PersonID),
			Category:        domain.NormalizeCategory(domain.WorkCategory(r.Category)),
			RawValue:        r.Value,
			SourceTimestamp: r.ReportedAt.UTC(),
		})
	}
	records := make([]domain.ActivityRecord, 0, len(s.ActivityRecords))
	for _, r := range s.ActivityRecords {
		records = append(records, domain.NormalizeActivityRecord(domain.ActivityRecord{
			ID:           r.ID,
			PersonID:     r.PersonID,
			Type:         domain.ActivityType(r.Type),
			Timestamp:    r.Timestamp,
			Content:      r.Content,
			Participants: r.Participants,
			Duration:     time.Duration(r.DurationMinutes) * time.Minute,
			Deadline:     copyTimePtr(r.Deadline),
			Ambiguous:    r.Ambiguous,
			Tags:         append([]string(nil), r.Tags...),
			Attributes:   r.Attributes,
		}))
	}
	return reports, records
}

// snapshotRecordFromDomain converts one stored record to snapshot form.
func snapshotRecordFromDomain(r domain.ActivityRecord) SnapshotActivityRecord {
	return SnapshotActivityRecord{
		ID:              r.ID,
		PersonID:        r.PersonID,
		Type:            string(r.Type),
		Timestamp:       r.Timestamp.UTC(),
		Content:         r.Content,
		Participants:    r.Participants,
		DurationMinutes: int(r.Duration / time.Minute),
		Deadline:        copyTimePtr(r.Deadline),
		Ambiguous:       r.Ambiguous,
		Tags:            append([]string(nil), r.Tags...),
		Attributes:      r.Attributes,
	}
}

// sort orders snapshot rows deterministically for stable exports.
func (s *Snapshot) sort() {
	sort.Slice(s.People, func(i, j int) bool {
		return s.People[i].ID < s.People[j].ID
	})
	sort.Slice(s.SelfReports, func(i, j int) bool {
		a, b := s.SelfReports[i], s.SelfReports[j]
		if a.PersonID == b.PersonID {
			return a.Category < b.Category
		}
		return a.PersonID < b.PersonID
	})
	sort.Slice(s.ActivityRecords, func(i, j int) bool {
		a, b := s.ActivityRecords[i], s.ActivityRecords[j]
		if a.Timestamp.Equal(b.Timestamp) {
			return a.ID < b.ID
		}
		return a.Timestamp.Before(b.Timestamp)
	})
}

// copyTimePtr copies time ptr.
func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	t := in.UTC()
	return &t
}
