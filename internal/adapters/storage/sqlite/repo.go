// Package sqlite persists household input data and archived analysis results.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/balans/internal/app"
	"github.com/hylla/balans/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines the registered sql driver.
const driverName = "sqlite"

// Store implements app.Repository on a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenInMemory opens a private in-memory database. The pool is pinned to one
// connection because each sqlite memory connection is its own database.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the schema.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS people (
			id TEXT NOT NULL,
			household_id TEXT NOT NULL,
			name TEXT NOT NULL,
			PRIMARY KEY(household_id, id)
		);`,
		`CREATE TABLE IF NOT EXISTS self_reports (
			household_id TEXT NOT NULL,
			person_id TEXT NOT NULL,
			category TEXT NOT NULL,
			raw_value TEXT NOT NULL,
			source_timestamp TEXT NOT NULL,
			PRIMARY KEY(household_id, person_id, category)
		);`,
		`CREATE TABLE IF NOT EXISTS activity_records (
			id TEXT NOT NULL,
			household_id TEXT NOT NULL,
			person_id TEXT NOT NULL,
			type TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			participants INTEGER NOT NULL DEFAULT 0,
			duration_ns INTEGER NOT NULL DEFAULT 0,
			deadline TEXT,
			ambiguous INTEGER NOT NULL DEFAULT 0,
			tags_json TEXT NOT NULL DEFAULT '[]',
			attributes_json TEXT NOT NULL DEFAULT '{}',
			PRIMARY KEY(household_id, id)
		);`,
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			household_id TEXT NOT NULL,
			generated_at TEXT NOT NULL,
			result_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_self_reports_household ON self_reports(household_id, person_id);`,
		`CREATE INDEX IF NOT EXISTS idx_activity_records_household_ts ON activity_records(household_id, timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_results_household ON analysis_results(household_id, generated_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// SavePerson upserts one household member row.
func (s *Store) SavePerson(ctx context.Context, p domain.Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO people(id, household_id, name) VALUES(?, ?, ?)
		ON CONFLICT(household_id, id) DO UPDATE SET name = excluded.name`,
		p.ID, p.HouseholdID, p.Name)
	return err
}

// ListPeople lists one household's members ordered by id.
func (s *Store) ListPeople(ctx context.Context, householdID string) ([]domain.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, household_id, name FROM people
		WHERE household_id = ? ORDER BY id`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Person, 0)
	for rows.Next() {
		var p domain.Person
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SaveSelfReport upserts one self-report keyed by person and category. A new
// report for the same category replaces the previous one.
func (s *Store) SaveSelfReport(ctx context.Context, householdID string, r domain.SelfReport) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO self_reports(household_id, person_id, category, raw_value, source_timestamp)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(household_id, person_id, category) DO UPDATE SET
			raw_value = excluded.raw_value,
			source_timestamp = excluded.source_timestamp`,
		householdID, r.PersonID, string(r.Category), r.RawValue, r.SourceTimestamp.UTC().Format(time.RFC3339Nano))
	return err
}

// ListSelfReports lists one household's self-reports.
func (s *Store) ListSelfReports(ctx context.Context, householdID string) ([]domain.SelfReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, category, raw_value, source_timestamp FROM self_reports
		WHERE household_id = ? ORDER BY person_id, category`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SelfReport, 0)
	for rows.Next() {
		var (
			r           domain.SelfReport
			categoryRaw string
			tsRaw       string
		)
		if err := rows.Scan(&r.PersonID, &categoryRaw, &r.RawValue, &tsRaw); err != nil {
			return nil, err
		}
		r.Category = domain.WorkCategory(categoryRaw)
		r.SourceTimestamp = parseTS(tsRaw)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveActivityRecord upserts one activity record row.
func (s *Store) SaveActivityRecord(ctx context.Context, householdID string, r domain.ActivityRecord) error {
	tags, err := json.Marshal(emptyIfNilSlice(r.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	attrs, err := json.Marshal(emptyIfNilMap(r.Attributes))
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activity_records(
			id, household_id, person_id, type, timestamp, content,
			participants, duration_ns, deadline, ambiguous, tags_json, attributes_json
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(household_id, id) DO UPDATE SET
			person_id = excluded.person_id,
			type = excluded.type,
			timestamp = excluded.timestamp,
			content = excluded.content,
			participants = excluded.participants,
			duration_ns = excluded.duration_ns,
			deadline = excluded.deadline,
			ambiguous = excluded.ambiguous,
			tags_json = excluded.tags_json,
			attributes_json = excluded.attributes_json`,
		r.ID, householdID, r.PersonID, string(r.Type),
		r.Timestamp.UTC().Format(time.RFC3339Nano), r.Content,
		r.Participants, int64(r.Duration), nullableTS(r.Deadline),
		boolToInt(r.Ambiguous), string(tags), string(attrs))
	return err
}

// ListActivityRecords lists one household's records ordered by timestamp.
func (s *Store) ListActivityRecords(ctx context.Context, householdID string) ([]domain.ActivityRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, type, timestamp, content, participants,
			duration_ns, deadline, ambiguous, tags_json, attributes_json
		FROM activity_records
		WHERE household_id = ? ORDER BY timestamp, id`, householdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ActivityRecord, 0)
	for rows.Next() {
		var (
			r          domain.ActivityRecord
			typeRaw    string
			tsRaw      string
			durationNS int64
			deadline   sql.NullString
			ambiguous  int
			tagsRaw    string
			attrsRaw   string
		)
		if err := rows.Scan(&r.ID, &r.PersonID, &typeRaw, &tsRaw, &r.Content,
			&r.Participants, &durationNS, &deadline, &ambiguous, &tagsRaw, &attrsRaw); err != nil {
			return nil, err
		}
		r.Type = domain.ActivityType(typeRaw)
		r.Timestamp = parseTS(tsRaw)
		r.Duration = time.Duration(durationNS)
		r.Deadline = parseNullTS(deadline)
		r.Ambiguous = ambiguous != 0
		if err := json.Unmarshal([]byte(tagsRaw), &r.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags for record %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(attrsRaw), &r.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes for record %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveResult archives one analysis result as a JSON document.
func (s *Store) SaveResult(ctx context.Context, result domain.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_results(household_id, generated_at, result_json)
		VALUES(?, ?, ?)`,
		result.HouseholdID, result.GeneratedAt.UTC().Format(time.RFC3339Nano), string(payload))
	return err
}

// LatestResult returns the most recently archived result for one household.
func (s *Store) LatestResult(ctx context.Context, householdID string) (domain.AnalysisResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT result_json FROM analysis_results
		WHERE household_id = ?
		ORDER BY generated_at DESC, id DESC LIMIT 1`, householdID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AnalysisResult{}, app.ErrNoArchivedResult
		}
		return domain.AnalysisResult{}, err
	}
	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("unmarshal analysis result: %w", err)
	}
	return result, nil
}

// ListHouseholdIDs returns every household id present in the input tables.
func (s *Store) ListHouseholdIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT household_id FROM people
		UNION SELECT household_id FROM self_reports
		UNION SELECT household_id FROM activity_records
		ORDER BY household_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// nullableTS converts an optional time to a storable value.
func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses a stored timestamp, returning the zero time on failure.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// parseNullTS parses an optional stored timestamp.
func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func emptyIfNilSlice(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func emptyIfNilMap(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	return in
}
