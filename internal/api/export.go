package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/askdb/askdb/internal/auth"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/report"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlguard"
)

type exportRequest struct {
	SQL      string `json:"sql"`
	Scenario string `json:"scenario"`
	Filename string `json:"filename"`
}

type exportResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`
	Message  string `json:"message"`
}

func handleExportExcel(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Engine == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXPORT_NOT_CONFIGURED", "export dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleQueryReader); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request exportRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid export request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	scenario, err := schema.Parse(request.Scenario)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SCENARIO", err.Error(), false, nil)
		return
	}

	if verdict := sqlguard.Validate(request.SQL); !verdict.Safe {
		observability.IncrementValidationRejection()
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_NOT_ALLOWED", verdict.Reason, false, nil)
		return
	}

	result, err := deps.Engine.Execute(r.Context(), query.Request{SQL: request.SQL, Scenario: scenario})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", "query execution failed", false, map[string]any{"details": err.Error()})
		return
	}

	workbook, err := report.ExcelWorkbook(result)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", "workbook rendering failed", true, map[string]any{"details": err.Error()})
		return
	}

	filename := exportFilename(request.Filename)
	path, err := writeExportFile(deps.ExportDir, filename, workbook)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", "workbook write failed", true, map[string]any{"details": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, exportResponse{
		Status:   "success",
		Filename: filename,
		Filepath: path,
		Message:  fmt.Sprintf("exported %d rows", result.RowCount),
	})
}

func writeExportFile(dir, filename string, content []byte) (string, error) {
	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// exportFilename normalizes the client supplied name into a safe .xlsx
// attachment name.
func exportFilename(raw string) string {
	name := sqlguard.SanitizeFreeText(raw)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.TrimSpace(name)
	if name == "" {
		name = "query_result_" + time.Now().UTC().Format("20060102_150405")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		name += ".xlsx"
	}
	return name
}
