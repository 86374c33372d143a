package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hylla/balans/internal/adapters/server/common"
	"github.com/hylla/balans/internal/domain"
)

type stubAnalysisService struct{}

func (stubAnalysisService) Analyze(_ context.Context, req common.AnalyzeRequest) (domain.AnalysisResult, error) {
	return domain.AnalysisResult{HouseholdID: req.HouseholdID, Complete: true}, nil
}

func (stubAnalysisService) LatestResult(_ context.Context, householdID string) (domain.AnalysisResult, error) {
	return domain.AnalysisResult{HouseholdID: householdID, Complete: true}, nil
}

func (stubAnalysisService) ListDiscrepancies(context.Context, string) ([]domain.Discrepancy, error) {
	return nil, nil
}

func (stubAnalysisService) ListHouseholds(context.Context) ([]string, error) {
	return []string{"h1"}, nil
}

func TestNewHandlerServesHealthAndAPI(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, Dependencies{Analysis: stubAnalysisService{}})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress || cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected normalized config %+v", cfg)
	}

	srv := httptest.NewServer(handler)
	defer srv.Close()

	for _, path := range []string{"/healthz", "/readyz", "/api/v1/households"} {
		resp, err := srv.Client().Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestNewHandlerRequiresAnalysis(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected error for missing analysis dependency")
	}
}

func TestNormalizeConfigRejectsEndpointCollision(t *testing.T) {
	if _, err := normalizeConfig(Config{APIEndpoint: "/x", MCPEndpoint: "x"}); err == nil {
		t.Fatal("expected error for colliding endpoints")
	}
}
