package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/report"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlguard"
)

type queryRequest struct {
	Question string `json:"question"`
	Scenario string `json:"scenario"`
	Mode     string `json:"mode"`
	// GenerateChart opts out of the text chart when explicitly false.
	GenerateChart *bool `json:"generate_chart"`
}

// queryResponse is the answer envelope. Failures after request validation
// travel in Error with SQL and result fields left empty, so callers always
// get the same shape back.
type queryResponse struct {
	Question  string           `json:"question"`
	Scenario  string           `json:"scenario"`
	SQL       string           `json:"sql"`
	Mode      string           `json:"mode"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
	Chart     string           `json:"chart,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request, defaultMode nl2sql.Mode) {
	request, scenario, mode, ok := decodeQueryRequest(deps, w, r, defaultMode)
	if !ok {
		return
	}

	response := runPipeline(deps, r, request, scenario, mode)
	writeJSON(w, http.StatusOK, response)
}

func decodeQueryRequest(deps Dependencies, w http.ResponseWriter, r *http.Request, defaultMode nl2sql.Mode) (queryRequest, schema.Scenario, nl2sql.Mode, bool) {
	if deps.Resolver == nil || deps.Engine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return queryRequest{}, "", "", false
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return queryRequest{}, "", "", false
	}

	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return queryRequest{}, "", "", false
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return queryRequest{}, "", "", false
	}

	scenario, err := schema.Parse(request.Scenario)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SCENARIO", err.Error(), false, map[string]any{"scenario": request.Scenario})
		return queryRequest{}, "", "", false
	}

	mode := defaultMode
	if request.Mode != "" {
		parsed, ok := nl2sql.ParseMode(request.Mode)
		if !ok {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MODE", "mode must be one of auto, llm, vanna", false, map[string]any{"mode": request.Mode})
			return queryRequest{}, "", "", false
		}
		mode = parsed
	}
	return request, scenario, mode, true
}

// runPipeline executes the full question path: generate, validate, execute,
// chart, record. Every failure past this point is reported inside the
// response envelope.
func runPipeline(deps Dependencies, r *http.Request, request queryRequest, scenario schema.Scenario, mode nl2sql.Mode) queryResponse {
	started := time.Now()
	response := queryResponse{
		Question: request.Question,
		Scenario: string(scenario),
		Mode:     string(mode),
		Columns:  []string{},
		Rows:     []map[string]any{},
	}

	generated, err := deps.Resolver.Resolve(r.Context(), mode, nl2sql.Request{
		Question: request.Question,
		Scenario: scenario,
	})
	if err != nil {
		response.Error = "SQL generation failed: " + err.Error()
		recordHistory(deps, r, response, started)
		return response
	}
	response.Mode = string(generated.Mode)

	if verdict := sqlguard.Validate(generated.SQL); !verdict.Safe {
		observability.IncrementValidationRejection()
		if deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "generated sql rejected",
				slog.String("reason", verdict.Reason),
				slog.String("scenario", string(scenario)))
		}
		response.Error = "generated SQL failed safety validation: " + verdict.Reason
		recordHistory(deps, r, response, started)
		return response
	}
	response.SQL = generated.SQL

	result, err := deps.Engine.Execute(r.Context(), query.Request{
		SQL:      generated.SQL,
		Scenario: scenario,
	})
	if err != nil {
		response.Error = "query execution failed: " + err.Error()
		recordHistory(deps, r, response, started)
		return response
	}

	response.Columns = result.Columns
	response.Rows = result.Rows
	response.RowCount = result.RowCount
	response.Truncated = result.Truncated
	if request.GenerateChart == nil || *request.GenerateChart {
		response.Chart = report.ChartFromResult(result)
	}
	recordHistory(deps, r, response, started)
	return response
}

func recordHistory(deps Dependencies, r *http.Request, response queryResponse, started time.Time) {
	if deps.History == nil {
		return
	}
	entry := history.Entry{
		Question:   response.Question,
		Scenario:   response.Scenario,
		Mode:       response.Mode,
		SQL:        response.SQL,
		RowCount:   response.RowCount,
		DurationMs: time.Since(started).Milliseconds(),
		Error:      response.Error,
	}
	if err := deps.History.Record(r.Context(), entry); err != nil && deps.Logger != nil {
		deps.Logger.WarnContext(r.Context(), "history record failed",
			slog.String("principal", principalFromRequest(r)),
			slog.Any("error", err))
	}
}
