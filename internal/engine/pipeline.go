package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hylla/balans/internal/domain"
)

// IDGenerator returns unique identifiers for derived entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Config holds optional pipeline collaborators and limits.
type Config struct {
	Classifier          Classifier
	IDGenerator         IDGenerator
	Clock               Clock
	Logger              *charmlog.Logger
	ClassifyConcurrency int
	ClassifyTimeout     time.Duration
}

// Pipeline runs the full analysis chain for one household snapshot. A pipeline
// carries no per-run state: every invocation operates on its own input
// snapshot and produces an independent output graph, so one pipeline value is
// safe to share across concurrent analyses.
type Pipeline struct {
	tables              Tables
	classifier          Classifier
	idGen               IDGenerator
	clock               Clock
	logger              *charmlog.Logger
	classifyConcurrency int
	classifyTimeout     time.Duration
}

// New validates the weight tables and constructs one pipeline. The keyword
// classifier is the default when no external classifier is configured.
func New(tables Tables, cfg Config) (*Pipeline, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("validate weight tables: %w", err)
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewKeywordClassifier(tables.CategoryKeywords)
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = uuid.NewString
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Pipeline{
		tables:              tables,
		classifier:          cfg.Classifier,
		idGen:               cfg.IDGenerator,
		clock:               cfg.Clock,
		logger:              cfg.Logger,
		classifyConcurrency: cfg.ClassifyConcurrency,
		classifyTimeout:     cfg.ClassifyTimeout,
	}, nil
}

// Tables returns the weight tables the pipeline was built with.
func (p *Pipeline) Tables() Tables {
	return p.tables
}

// Input is one immutable household snapshot to analyze. EvaluationTime drives
// the contextual multiplier; when zero the pipeline clock is used.
type Input struct {
	HouseholdID     string
	SelfReports     []domain.SelfReport
	ActivityRecords []domain.ActivityRecord
	EvaluationTime  time.Time
}

// Analyze runs the full pipeline over one snapshot. Input gaps, malformed
// records, and classification failures degrade the data-quality score instead
// of failing; only an entirely empty input set is an error. When the context
// deadline expires mid-run the partial result is returned with the complete
// flag cleared.
func (p *Pipeline) Analyze(ctx context.Context, in Input) (domain.AnalysisResult, error) {
	householdID := strings.TrimSpace(in.HouseholdID)
	if householdID == "" {
		return domain.AnalysisResult{}, domain.ErrInvalidHouseholdID
	}
	if len(in.SelfReports) == 0 && len(in.ActivityRecords) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("household %s: %w", householdID, domain.ErrNoInputData)
	}

	at := in.EvaluationTime
	if at.IsZero() {
		at = p.clock()
	}

	records := make([]domain.ActivityRecord, 0, len(in.ActivityRecords))
	skipped := 0
	for _, rec := range in.ActivityRecords {
		rec = domain.NormalizeActivityRecord(rec)
		if !rec.Valid() {
			skipped++
			if p.logger != nil {
				p.logger.Warn("skipping malformed activity record", "record_id", rec.ID)
			}
			continue
		}
		records = append(records, rec)
	}

	classified := p.classifyRecords(ctx, records)
	recordsByID := make(map[string]domain.ActivityRecord, len(records))
	for _, rec := range records {
		recordsByID[rec.ID] = rec
	}

	complete := true
	persons := sortedPersonIDs(in.SelfReports, records)
	measurements := make(map[string]map[domain.WorkCategory]domain.CategoryMeasurement, len(persons))
	var allMeasurements []domain.CategoryMeasurement
	for _, personID := range persons {
		if ctx.Err() != nil {
			complete = false
			break
		}
		byCategory := make(map[domain.WorkCategory]domain.CategoryMeasurement, len(domain.Categories()))
		for _, category := range domain.Categories() {
			m := p.extractMeasurement(personID, category, records, classified.categories, at)
			byCategory[category] = m
			allMeasurements = append(allMeasurements, m)
		}
		measurements[personID] = byCategory
	}

	discrepancies := p.detectAll(in.SelfReports, measurements, recordsByID)

	scores := make([]domain.LoadScore, 0, len(measurements))
	for _, personID := range persons {
		if _, ok := measurements[personID]; !ok {
			continue
		}
		scores = append(scores, p.quantifyLoad(personID, allMeasurements, at))
	}

	result := domain.AnalysisResult{
		HouseholdID:         householdID,
		GeneratedAt:         p.clock().UTC(),
		PerPersonLoadScores: scores,
		Discrepancies:       discrepancies,
		Evidence:            p.rankEvidence(discrepancies, scores, at),
		SkippedRecordCount:  skipped,
		DataQuality:         dataQuality(len(records), skipped, classified, in.SelfReports, allMeasurements),
		Complete:            complete && ctx.Err() == nil,
	}
	return result, nil
}

// detectAll runs discrepancy detection for every self-report in deterministic
// order. Reports for persons the deadline cut off pair against an implicit
// zero measurement.
func (p *Pipeline) detectAll(reports []domain.SelfReport, measurements map[string]map[domain.WorkCategory]domain.CategoryMeasurement, recordsByID map[string]domain.ActivityRecord) []domain.Discrepancy {
	ordered := append([]domain.SelfReport(nil), reports...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].PersonID != ordered[j].PersonID {
			return ordered[i].PersonID < ordered[j].PersonID
		}
		return ordered[i].Category < ordered[j].Category
	})

	var discrepancies []domain.Discrepancy
	for _, report := range ordered {
		measurement := domain.CategoryMeasurement{
			PersonID:        report.PersonID,
			Category:        report.Category,
			ComplexityLevel: domain.ComplexityLow,
		}
		if byCategory, ok := measurements[report.PersonID]; ok {
			if m, ok := byCategory[report.Category]; ok {
				measurement = m
			}
		}
		latest := latestEvidenceAt(measurement, recordsByID)
		if d, ok := p.detectDiscrepancy(report, measurement, latest); ok {
			discrepancies = append(discrepancies, d)
		}
	}
	return discrepancies
}

// latestEvidenceAt returns the most recent supporting-record timestamp, or the
// zero time for measurements without evidence.
func latestEvidenceAt(m domain.CategoryMeasurement, recordsByID map[string]domain.ActivityRecord) time.Time {
	var latest time.Time
	for _, id := range m.SupportingRecordIDs {
		if rec, ok := recordsByID[id]; ok && rec.Timestamp.After(latest) {
			latest = rec.Timestamp
		}
	}
	return latest
}

// dataQuality scores input trustworthiness in [0, 1]: the share of records
// that parsed, the share of classifications that did not fall back, and the
// share of evidenced measurements covered by a self-report. Empty denominators
// count as full quality so sparse-but-clean inputs are not penalized.
func dataQuality(validRecords, skipped int, classified classification, reports []domain.SelfReport, measurements []domain.CategoryMeasurement) float64 {
	recordRatio := 1.0
	if total := validRecords + skipped; total > 0 {
		recordRatio = float64(validRecords) / float64(total)
	}

	classifiedRatio := 1.0
	if classified.attempted > 0 {
		classifiedRatio = 1 - float64(classified.fallbacks)/float64(classified.attempted)
	}

	reported := map[string]struct{}{}
	for _, report := range reports {
		reported[report.PersonID+"/"+string(report.Category)] = struct{}{}
	}
	coverageRatio := 1.0
	evidenced, covered := 0, 0
	for _, m := range measurements {
		if !m.HasEvidence() {
			continue
		}
		evidenced++
		if _, ok := reported[m.PersonID+"/"+string(m.Category)]; ok {
			covered++
		}
	}
	if evidenced > 0 {
		coverageRatio = float64(covered) / float64(evidenced)
	}

	return (recordRatio + classifiedRatio + coverageRatio) / 3
}
