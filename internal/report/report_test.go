package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/websearch"
)

func sampleResult() query.ResultSet {
	return query.ResultSet{
		Columns: []string{"province", "total"},
		Rows: []map[string]any{
			{"province": "广东", "total": int64(100)},
			{"province": "浙江", "total": int64(50)},
		},
		RowCount: 2,
	}
}

func TestBarChartScalesToMaxValue(t *testing.T) {
	chart := BarChart([]string{"a", "b"}, []float64{100, 50})
	lines := strings.Split(strings.TrimRight(chart, "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, 40, strings.Count(lines[0], "█"))
	require.Equal(t, 20, strings.Count(lines[1], "█"))
	require.Contains(t, lines[0], "100")
}

func TestBarChartEmptyAndZeroInputs(t *testing.T) {
	require.Equal(t, "", BarChart(nil, nil))
	require.Equal(t, "", BarChart([]string{"a"}, []float64{0}))
	require.Equal(t, "", BarChart([]string{"a"}, []float64{1, 2}))
}

func TestChartFromResultPicksLabelAndValueColumns(t *testing.T) {
	chart := ChartFromResult(sampleResult())
	require.Contains(t, chart, "广东")
	require.Contains(t, chart, "█")
}

func TestChartFromResultWithoutNumericColumn(t *testing.T) {
	result := query.ResultSet{
		Columns:  []string{"name", "city"},
		Rows:     []map[string]any{{"name": "Acme", "city": "Shenzhen"}},
		RowCount: 1,
	}
	require.Equal(t, "", ChartFromResult(result))
}

func TestMarkdownContainsAllSections(t *testing.T) {
	got := Markdown(Params{
		Question: "financing by province",
		Scenario: "scenario_1_3",
		Mode:     "llm",
		SQL:      "SELECT province, SUM(amount) AS total FROM financing_rounds GROUP BY province",
		Result:   sampleResult(),
		WebResults: []websearch.Result{
			{Title: "Venture capital", Snippet: "private equity financing", URL: "https://example.org"},
		},
		GeneratedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	require.Contains(t, got, "# Data Analysis Report")
	require.Contains(t, got, "```sql")
	require.Contains(t, got, "| province |")
	require.Contains(t, got, "## Chart")
	require.Contains(t, got, "## Web Context")
	require.Contains(t, got, "https://example.org")
	require.Contains(t, got, "2026-03-01T00:00:00Z")
}

func TestMarkdownEmptyResult(t *testing.T) {
	got := Markdown(Params{
		Question: "q",
		SQL:      "SELECT 1",
		Result:   query.ResultSet{Columns: []string{"1"}},
	})
	require.Contains(t, got, "No rows matched.")
	require.NotContains(t, got, "## Chart")
}

func TestExcelWorkbookRoundTrip(t *testing.T) {
	raw, err := ExcelWorkbook(sampleResult())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	header, err := f.GetCellValue("Results", "A1")
	require.NoError(t, err)
	require.Equal(t, "province", header)

	cell, err := f.GetCellValue("Results", "A2")
	require.NoError(t, err)
	require.Equal(t, "广东", cell)

	value, err := f.GetCellValue("Results", "B3")
	require.NoError(t, err)
	require.Equal(t, "50", value)
}

func TestExcelWorkbookRequiresColumns(t *testing.T) {
	_, err := ExcelWorkbook(query.ResultSet{})
	require.Error(t, err)
}
