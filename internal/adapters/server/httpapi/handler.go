// Package httpapi provides the REST HTTP adapter for the analysis surfaces.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hylla/balans/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	analysis common.AnalysisService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the analysis service.
func NewHandler(analysis common.AnalysisService) *Handler {
	return &Handler{analysis: analysis}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.analysis == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "analysis service is not configured",
		})
		return
	}

	path := normalizePath(r.URL.Path)
	if path == "households" {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListHouseholds(w, r)
		return
	}

	householdID, action, ok := resolveHouseholdRoute(path)
	if !ok {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
		return
	}

	switch action {
	case "analyze":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleAnalyze(w, r, householdID)
	case "result":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleLatestResult(w, r, householdID)
	case "discrepancies":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleListDiscrepancies(w, r, householdID)
	default:
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	}
}

// handleListHouseholds serves GET `/households`.
func (h *Handler) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	ids, err := h.analysis.ListHouseholds(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"households": ids})
}

// handleAnalyze serves POST `/households/{id}/analyze`. The body is an
// optional JSON object carrying evaluation_time.
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request, householdID string) {
	req := common.AnalyzeRequest{HouseholdID: householdID}
	var payload struct {
		EvaluationTime string `json:"evaluation_time"`
	}
	if err := decodeOptionalJSONBody(w, r, &payload); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.EvaluationTime = strings.TrimSpace(payload.EvaluationTime)

	result, err := h.analysis.Analyze(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleLatestResult serves GET `/households/{id}/result`.
func (h *Handler) handleLatestResult(w http.ResponseWriter, r *http.Request, householdID string) {
	result, err := h.analysis.LatestResult(r.Context(), householdID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListDiscrepancies serves GET `/households/{id}/discrepancies`.
func (h *Handler) handleListDiscrepancies(w http.ResponseWriter, r *http.Request, householdID string) {
	discrepancies, err := h.analysis.ListDiscrepancies(r.Context(), householdID)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"discrepancies": discrepancies})
}

// resolveHouseholdRoute parses `households/{id}/{action}` into its parts.
func resolveHouseholdRoute(path string) (householdID string, action string, ok bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != "households" {
		return "", "", false
	}
	householdID = strings.TrimSpace(parts[1])
	action = strings.TrimSpace(parts[2])
	if householdID == "" || action == "" {
		return "", "", false
	}
	return householdID, action, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrNoInputData):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "no_input_data",
			Message: err.Error(),
			Hint:    "Import a snapshot before analyzing this household.",
		})
	case errors.Is(err, common.ErrNoResult):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "no_result",
			Message: err.Error(),
			Hint:    "Run an analysis first.",
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeOptionalJSONBody decodes one optional JSON body and ignores empty payloads.
func decodeOptionalJSONBody(w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(out)
	if err == nil {
		// Reject trailing payloads so malformed JSON bodies fail closed.
		if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
		}
		return nil
	}
	if errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
}
