package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/hylla/balans/internal/domain"
	"github.com/hylla/balans/internal/engine"
)

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds optional service collaborators.
type ServiceConfig struct {
	Clock  Clock
	Logger *charmlog.Logger
}

// Service wires the analysis pipeline to the household input store. The store
// is an external collaborator: the pipeline itself stays stateless and the
// service only moves snapshots and results across the boundary.
type Service struct {
	repo     Repository
	pipeline *engine.Pipeline
	clock    Clock
	logger   *charmlog.Logger
}

// NewService constructs a new service value.
func NewService(repo Repository, pipeline *engine.Pipeline, cfg ServiceConfig) *Service {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		repo:     repo,
		pipeline: pipeline,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
}

// AnalyzeHouseholdInput holds input values for stored-household analysis.
type AnalyzeHouseholdInput struct {
	HouseholdID    string
	EvaluationTime time.Time
}

// AnalyzeHousehold loads one household's stored reports and records, runs the
// pipeline, and archives the result. An archive failure is logged rather than
// raised so a partial result under a cut deadline still reaches the caller.
func (s *Service) AnalyzeHousehold(ctx context.Context, in AnalyzeHouseholdInput) (domain.AnalysisResult, error) {
	householdID := strings.TrimSpace(in.HouseholdID)
	if householdID == "" {
		return domain.AnalysisResult{}, domain.ErrInvalidHouseholdID
	}

	reports, err := s.repo.ListSelfReports(ctx, householdID)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("load self reports: %w", err)
	}
	records, err := s.repo.ListActivityRecords(ctx, householdID)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("load activity records: %w", err)
	}

	result, err := s.pipeline.Analyze(ctx, engine.Input{
		HouseholdID:     householdID,
		SelfReports:     reports,
		ActivityRecords: records,
		EvaluationTime:  in.EvaluationTime,
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	if err := s.repo.SaveResult(context.WithoutCancel(ctx), result); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to archive analysis result", "household_id", householdID, "err", err)
		}
	}
	return result, nil
}

// AnalyzeSnapshot runs the pipeline over an in-memory snapshot without
// touching the store. Used for one-shot file analysis.
func (s *Service) AnalyzeSnapshot(ctx context.Context, snap Snapshot, evaluationTime time.Time) (domain.AnalysisResult, error) {
	if err := snap.Validate(); err != nil {
		return domain.AnalysisResult{}, err
	}
	reports, records := snap.toDomain()
	return s.pipeline.Analyze(ctx, engine.Input{
		HouseholdID:     snap.HouseholdID,
		SelfReports:     reports,
		ActivityRecords: records,
		EvaluationTime:  evaluationTime,
	})
}

// LatestResult returns the most recently archived result for one household.
func (s *Service) LatestResult(ctx context.Context, householdID string) (domain.AnalysisResult, error) {
	householdID = strings.TrimSpace(householdID)
	if householdID == "" {
		return domain.AnalysisResult{}, domain.ErrInvalidHouseholdID
	}
	return s.repo.LatestResult(ctx, householdID)
}

// ListDiscrepancies returns the discrepancies from the latest archived result.
func (s *Service) ListDiscrepancies(ctx context.Context, householdID string) ([]domain.Discrepancy, error) {
	result, err := s.LatestResult(ctx, householdID)
	if err != nil {
		return nil, err
	}
	return result.Discrepancies, nil
}

// ListHouseholds returns every household id known to the store.
func (s *Service) ListHouseholds(ctx context.Context) ([]string, error) {
	return s.repo.ListHouseholdIDs(ctx)
}

// Tables returns the weight tables the service's pipeline runs with.
func (s *Service) Tables() engine.Tables {
	return s.pipeline.Tables()
}
