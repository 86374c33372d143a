// Package common provides transport-agnostic server contracts shared by the
// HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/hylla/balans/internal/domain"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNoResult reports that a household has no archived analysis result yet.
var ErrNoResult = errors.New("no archived result")

// ErrNoInputData reports that a household has nothing stored to analyze.
var ErrNoInputData = errors.New("no input data for household")

// AnalyzeRequest captures one analysis invocation over a transport.
// EvaluationTime is an optional RFC3339 timestamp; empty means now.
type AnalyzeRequest struct {
	HouseholdID    string `json:"household_id"`
	EvaluationTime string `json:"evaluation_time,omitempty"`
}

// AnalysisService is the app-facing surface both transport adapters call.
type AnalysisService interface {
	Analyze(context.Context, AnalyzeRequest) (domain.AnalysisResult, error)
	LatestResult(ctx context.Context, householdID string) (domain.AnalysisResult, error)
	ListDiscrepancies(ctx context.Context, householdID string) ([]domain.Discrepancy, error)
	ListHouseholds(context.Context) ([]string, error)
}
