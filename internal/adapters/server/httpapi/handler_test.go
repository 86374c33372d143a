package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hylla/balans/internal/adapters/server/common"
	"github.com/hylla/balans/internal/domain"
)

// stubAnalysisService provides deterministic responses for handler tests.
type stubAnalysisService struct {
	result      domain.AnalysisResult
	households  []string
	err         error
	lastAnalyze common.AnalyzeRequest
}

func (s *stubAnalysisService) Analyze(_ context.Context, req common.AnalyzeRequest) (domain.AnalysisResult, error) {
	s.lastAnalyze = req
	if s.err != nil {
		return domain.AnalysisResult{}, s.err
	}
	return s.result, nil
}

func (s *stubAnalysisService) LatestResult(_ context.Context, _ string) (domain.AnalysisResult, error) {
	if s.err != nil {
		return domain.AnalysisResult{}, s.err
	}
	return s.result, nil
}

func (s *stubAnalysisService) ListDiscrepancies(_ context.Context, _ string) ([]domain.Discrepancy, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result.Discrepancies, nil
}

func (s *stubAnalysisService) ListHouseholds(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.households, nil
}

func fixtureResult() domain.AnalysisResult {
	return domain.AnalysisResult{
		HouseholdID: "h1",
		GeneratedAt: time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
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
		DataQuality: 1,
		Complete:    true,
	}
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var envelope ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}

func TestListHouseholds(t *testing.T) {
	stub := &stubAnalysisService{households: []string{"h1", "h2"}}
	rec := doRequest(t, NewHandler(stub), http.MethodGet, "/households", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Households []string `json:"households"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Households) != 2 || payload.Households[0] != "h1" {
		t.Fatalf("unexpected households %v", payload.Households)
	}
}

func TestAnalyzeHousehold(t *testing.T) {
	stub := &stubAnalysisService{result: fixtureResult()}
	rec := doRequest(t, NewHandler(stub), http.MethodPost, "/households/h1/analyze",
		`{"evaluation_time":"2026-03-07T18:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if stub.lastAnalyze.HouseholdID != "h1" {
		t.Fatalf("household id = %q", stub.lastAnalyze.HouseholdID)
	}
	if stub.lastAnalyze.EvaluationTime != "2026-03-07T18:00:00Z" {
		t.Fatalf("evaluation time = %q", stub.lastAnalyze.EvaluationTime)
	}
	var result domain.AnalysisResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.HouseholdID != "h1" || !result.Complete {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAnalyzeWithoutBody(t *testing.T) {
	stub := &stubAnalysisService{result: fixtureResult()}
	rec := doRequest(t, NewHandler(stub), http.MethodPost, "/households/h1/analyze", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if stub.lastAnalyze.EvaluationTime != "" {
		t.Fatalf("evaluation time = %q, want empty", stub.lastAnalyze.EvaluationTime)
	}
}

func TestAnalyzeRejectsMalformedBody(t *testing.T) {
	stub := &stubAnalysisService{result: fixtureResult()}
	rec := doRequest(t, NewHandler(stub), http.MethodPost, "/households/h1/analyze", `{"evaluation_time":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != "invalid_request" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestAnalyzeNoInputDataConflict(t *testing.T) {
	stub := &stubAnalysisService{err: common.ErrNoInputData}
	rec := doRequest(t, NewHandler(stub), http.MethodPost, "/households/h1/analyze", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != "no_input_data" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestLatestResultNotFound(t *testing.T) {
	stub := &stubAnalysisService{err: common.ErrNoResult}
	rec := doRequest(t, NewHandler(stub), http.MethodGet, "/households/h1/result", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Code != "no_result" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestListDiscrepancies(t *testing.T) {
	stub := &stubAnalysisService{result: fixtureResult()}
	rec := doRequest(t, NewHandler(stub), http.MethodGet, "/households/h1/discrepancies", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Discrepancies []domain.Discrepancy `json:"discrepancies"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Discrepancies) != 1 || payload.Discrepancies[0].Direction != domain.DirectionUnderreported {
		t.Fatalf("unexpected discrepancies %+v", payload.Discrepancies)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	stub := &stubAnalysisService{}
	rec := doRequest(t, NewHandler(stub), http.MethodDelete, "/households/h1/analyze", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("Allow header = %q", allow)
	}
}

func TestUnknownEndpoint(t *testing.T) {
	stub := &stubAnalysisService{}
	for _, path := range []string{"/nope", "/households/h1", "/households/h1/unknown", "/households//analyze"} {
		rec := doRequest(t, NewHandler(stub), http.MethodGet, path, "")
		if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("path %q: status = %d", path, rec.Code)
		}
	}
}

func TestNilServiceUnavailable(t *testing.T) {
	rec := doRequest(t, NewHandler(nil), http.MethodGet, "/households", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
