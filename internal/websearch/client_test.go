package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchParsesInstantAnswer(t *testing.T) {
	var capturedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{
			"Heading": "Venture capital",
			"AbstractText": "Venture capital is a form of private equity financing.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Venture_capital",
			"RelatedTopics": [
				{"Text": "Series A round - The first significant round of venture funding.", "FirstURL": "https://example.org/series-a"},
				{"Text": "", "FirstURL": "https://example.org/empty"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	results, err := client.Search(context.Background(), "venture capital trends", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "Venture capital", results[0].Title)
	require.Equal(t, "abstract", results[0].Source)
	require.Equal(t, "Series A round", results[1].Title)
	require.Equal(t, "related", results[1].Source)
	require.Equal(t, "venture capital trends", capturedQuery)
}

func TestSearchSanitizesQuery(t *testing.T) {
	var capturedQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Search(context.Background(), `trends'; -- 2025`, 0)
	require.NoError(t, err)
	require.NotContains(t, capturedQuery, "'")
	require.NotContains(t, capturedQuery, "--")
}

func TestSearchRejectsEmptySanitizedQuery(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	_, err := client.Search(context.Background(), `';--`, 0)
	require.Error(t, err)
}

func TestSearchCapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"RelatedTopics": [
				{"Text": "one", "FirstURL": "u1"},
				{"Text": "two", "FirstURL": "u2"},
				{"Text": "three", "FirstURL": "u3"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, MaxResults: 2})
	results, err := client.Search(context.Background(), "funding", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Explicit request below the cap is honored; above the cap is clamped.
	results, err = client.Search(context.Background(), "funding", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = client.Search(context.Background(), "funding", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
}
