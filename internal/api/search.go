package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/websearch"
)

type searchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

type searchResponse struct {
	Query   string             `json:"query"`
	Results []websearch.Result `json:"results"`
	Count   int                `json:"count"`
}

func handleSearch(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Search == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SEARCH_NOT_CONFIGURED", "web search is not configured", false, nil)
		return
	}

	var request searchRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid search request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "query is required", false, nil)
		return
	}

	results, err := deps.Search.Search(r.Context(), request.Query, request.NumResults)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "SEARCH_FAILED", "web search failed", true, map[string]any{"details": err.Error()})
		return
	}
	if results == nil {
		results = []websearch.Result{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: request.Query, Results: results, Count: len(results)})
}
