package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/report"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlguard"
	"github.com/askdb/askdb/internal/websearch"
)

type reportRequest struct {
	Question          string `json:"question"`
	Scenario          string `json:"scenario"`
	Mode              string `json:"mode"`
	IncludeWebContext bool   `json:"include_web_context"`
}

type reportResponse struct {
	Status   string `json:"status"`
	Title    string `json:"title"`
	Scenario string `json:"scenario"`
	Mode     string `json:"mode"`
	SQL      string `json:"sql"`
	RowCount int    `json:"row_count"`
	Content  string `json:"content"`
	Filepath string `json:"filepath,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleReport runs the question pipeline and renders the outcome as one
// markdown document with table, chart and optional web context.
func handleReport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	request, scenario, mode, ok := decodeReportRequest(deps, w, r)
	if !ok {
		return
	}

	pipelineResponse := runPipeline(deps, r, queryRequest{
		Question: request.Question,
		Scenario: request.Scenario,
	}, scenario, mode)

	response := reportResponse{
		Status:   "success",
		Title:    request.Question,
		Scenario: pipelineResponse.Scenario,
		Mode:     pipelineResponse.Mode,
		SQL:      pipelineResponse.SQL,
		RowCount: pipelineResponse.RowCount,
		Error:    pipelineResponse.Error,
	}
	if pipelineResponse.Error != "" {
		response.Status = "error"
		writeJSON(w, http.StatusOK, response)
		return
	}

	var webResults []websearch.Result
	if request.IncludeWebContext && deps.Search != nil {
		results, err := deps.Search.Search(r.Context(), sqlguard.SanitizeFreeText(request.Question), 0)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.WarnContext(r.Context(), "web context lookup failed", slog.Any("error", err))
			}
		} else {
			webResults = results
		}
	}

	generatedAt := time.Now().UTC()
	response.Content = report.Markdown(report.Params{
		Question: request.Question,
		Scenario: pipelineResponse.Scenario,
		Mode:     pipelineResponse.Mode,
		SQL:      pipelineResponse.SQL,
		Result: query.ResultSet{
			Columns:   pipelineResponse.Columns,
			Rows:      pipelineResponse.Rows,
			RowCount:  pipelineResponse.RowCount,
			Truncated: pipelineResponse.Truncated,
		},
		WebResults:  webResults,
		GeneratedAt: generatedAt,
	})

	filename := "report_" + generatedAt.Format("20060102_150405") + ".md"
	path, err := writeExportFile(deps.ExportDir, filename, []byte(response.Content))
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "report write failed", slog.Any("error", err))
		}
	} else {
		response.Filepath = path
	}
	writeJSON(w, http.StatusOK, response)
}

func decodeReportRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (reportRequest, schema.Scenario, nl2sql.Mode, bool) {
	if deps.Resolver == nil || deps.Engine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "REPORT_NOT_CONFIGURED", "report dependencies are not configured", false, nil)
		return reportRequest{}, "", "", false
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return reportRequest{}, "", "", false
	}

	var request reportRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid report request body", false, map[string]any{"details": err.Error()})
		return reportRequest{}, "", "", false
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return reportRequest{}, "", "", false
	}

	scenario, err := schema.Parse(request.Scenario)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SCENARIO", err.Error(), false, nil)
		return reportRequest{}, "", "", false
	}

	mode, ok := nl2sql.ParseMode(request.Mode)
	if !ok {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MODE", "mode must be one of auto, llm, vanna", false, nil)
		return reportRequest{}, "", "", false
	}
	return request, scenario, mode, true
}
