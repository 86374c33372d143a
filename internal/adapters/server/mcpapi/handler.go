// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/balans/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the analysis tools.
func NewHandler(cfg Config, analysis common.AnalysisService) (*Handler, error) {
	if analysis == nil {
		return nil, fmt.Errorf("analysis service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerAnalyzeTool(mcpSrv, analysis)
	registerLatestResultTool(mcpSrv, analysis)
	registerListDiscrepanciesTool(mcpSrv, analysis)
	registerListHouseholdsTool(mcpSrv, analysis)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "balans"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerAnalyzeTool registers the `balans.analyze_household` tool.
func registerAnalyzeTool(srv *mcpserver.MCPServer, analysis common.AnalysisService) {
	srv.AddTool(
		mcp.NewTool(
			"balans.analyze_household",
			mcp.WithDescription("Run a fresh cognitive-load analysis over one household's stored inputs."),
			mcp.WithString("household_id", mcp.Required(), mcp.Description("Household identifier")),
			mcp.WithString("evaluation_time", mcp.Description("RFC3339 evaluation time (defaults to now)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			householdID, err := req.RequireString("household_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := analysis.Analyze(ctx, common.AnalyzeRequest{
				HouseholdID:    householdID,
				EvaluationTime: req.GetString("evaluation_time", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			toolResult, err := mcp.NewToolResultJSON(result)
			if err != nil {
				return nil, fmt.Errorf("encode analyze_household result: %w", err)
			}
			return toolResult, nil
		},
	)
}

// registerLatestResultTool registers the `balans.get_latest_result` tool.
func registerLatestResultTool(srv *mcpserver.MCPServer, analysis common.AnalysisService) {
	srv.AddTool(
		mcp.NewTool(
			"balans.get_latest_result",
			mcp.WithDescription("Return the most recently archived analysis result for one household."),
			mcp.WithString("household_id", mcp.Required(), mcp.Description("Household identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			householdID, err := req.RequireString("household_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			result, err := analysis.LatestResult(ctx, householdID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			toolResult, err := mcp.NewToolResultJSON(result)
			if err != nil {
				return nil, fmt.Errorf("encode get_latest_result result: %w", err)
			}
			return toolResult, nil
		},
	)
}

// registerListDiscrepanciesTool registers the `balans.list_discrepancies` tool.
func registerListDiscrepanciesTool(srv *mcpserver.MCPServer, analysis common.AnalysisService) {
	srv.AddTool(
		mcp.NewTool(
			"balans.list_discrepancies",
			mcp.WithDescription("List perception-reality discrepancies from the latest archived result."),
			mcp.WithString("household_id", mcp.Required(), mcp.Description("Household identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			householdID, err := req.RequireString("household_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			discrepancies, err := analysis.ListDiscrepancies(ctx, householdID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			toolResult, err := mcp.NewToolResultJSON(map[string]any{
				"discrepancies": discrepancies,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_discrepancies result: %w", err)
			}
			return toolResult, nil
		},
	)
}

// registerListHouseholdsTool registers the `balans.list_households` tool.
func registerListHouseholdsTool(srv *mcpserver.MCPServer, analysis common.AnalysisService) {
	srv.AddTool(
		mcp.NewTool(
			"balans.list_households",
			mcp.WithDescription("List every household id known to the store."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ids, err := analysis.ListHouseholds(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			if ids == nil {
				ids = []string{}
			}
			toolResult, err := mcp.NewToolResultJSON(map[string]any{
				"households": ids,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_households result: %w", err)
			}
			return toolResult, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNoInputData):
		return mcp.NewToolResultError("no_input_data: " + err.Error())
	case errors.Is(err, common.ErrNoResult):
		return mcp.NewToolResultError("no_result: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
