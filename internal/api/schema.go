package api

import (
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/schema"
)

type schemaResponse struct {
	Scenario string `json:"scenario"`
	Content  string `json:"content"`
	Builtin  bool   `json:"builtin"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	scenario, err := schema.Parse(r.PathValue("scenario"))
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "SCENARIO_NOT_FOUND", err.Error(), false, nil)
		return
	}

	content := ""
	if deps.Schemas != nil {
		content = deps.Schemas.Schema(scenario)
	}
	builtin := false
	if strings.TrimSpace(content) == "" {
		content = schema.FallbackHint(scenario)
		builtin = true
	}

	writeJSON(w, http.StatusOK, schemaResponse{
		Scenario: string(scenario),
		Content:  content,
		Builtin:  builtin,
	})
}
