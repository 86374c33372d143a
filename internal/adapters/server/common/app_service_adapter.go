package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/balans/internal/app"
	"github.com/hylla/balans/internal/domain"
)

// HouseholdAnalyzer captures the app-service operations the transports
// depend on. *app.Service satisfies it.
type HouseholdAnalyzer interface {
	AnalyzeHousehold(ctx context.Context, in app.AnalyzeHouseholdInput) (domain.AnalysisResult, error)
	LatestResult(ctx context.Context, householdID string) (domain.AnalysisResult, error)
	ListDiscrepancies(ctx context.Context, householdID string) ([]domain.Discrepancy, error)
	ListHouseholds(ctx context.Context) ([]string, error)
}

// ServiceAdapter adapts the app service to the transport-facing
// AnalysisService contract and maps app errors to transport sentinels.
type ServiceAdapter struct {
	svc HouseholdAnalyzer
}

// NewServiceAdapter wraps one app service for transport use.
func NewServiceAdapter(svc HouseholdAnalyzer) *ServiceAdapter {
	return &ServiceAdapter{svc: svc}
}

// Analyze runs a fresh analysis over a household's stored inputs.
func (a *ServiceAdapter) Analyze(ctx context.Context, req AnalyzeRequest) (domain.AnalysisResult, error) {
	var evalTime time.Time
	if raw := strings.TrimSpace(req.EvaluationTime); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("parse evaluation_time: %w", errors.Join(ErrInvalidRequest, err))
		}
		evalTime = parsed
	}

	result, err := a.svc.AnalyzeHousehold(ctx, app.AnalyzeHouseholdInput{
		HouseholdID:    req.HouseholdID,
		EvaluationTime: evalTime,
	})
	if err != nil {
		return domain.AnalysisResult{}, mapAppError(err)
	}
	return result, nil
}

// LatestResult returns the most recently archived result for one household.
func (a *ServiceAdapter) LatestResult(ctx context.Context, householdID string) (domain.AnalysisResult, error) {
	result, err := a.svc.LatestResult(ctx, householdID)
	if err != nil {
		return domain.AnalysisResult{}, mapAppError(err)
	}
	return result, nil
}

// ListDiscrepancies returns the discrepancies from the latest archived result.
func (a *ServiceAdapter) ListDiscrepancies(ctx context.Context, householdID string) ([]domain.Discrepancy, error) {
	discrepancies, err := a.svc.ListDiscrepancies(ctx, householdID)
	if err != nil {
		return nil, mapAppError(err)
	}
	return discrepancies, nil
}

// ListHouseholds returns every household id known to the store.
func (a *ServiceAdapter) ListHouseholds(ctx context.Context) ([]string, error) {
	return a.svc.ListHouseholds(ctx)
}

// mapAppError translates app and domain sentinels into transport sentinels so
// adapters can pick status codes without importing app internals.
func mapAppError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidHouseholdID):
		return errors.Join(ErrInvalidRequest, err)
	case errors.Is(err, domain.ErrNoInputData):
		return errors.Join(ErrNoInputData, err)
	case errors.Is(err, app.ErrNoArchivedResult):
		return errors.Join(ErrNoResult, err)
	default:
		return err
	}
}
