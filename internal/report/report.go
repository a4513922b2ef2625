package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/websearch"
)

// Params collects everything one markdown report is built from.
type Params struct {
	Question    string
	Scenario    string
	Mode        string
	SQL         string
	Result      query.ResultSet
	WebResults  []websearch.Result
	GeneratedAt time.Time
}

// Markdown renders a self-contained analysis report.
func Markdown(p Params) string {
	generatedAt := p.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString("# Data Analysis Report\n\n")
	fmt.Fprintf(&b, "- Question: %s\n", strings.TrimSpace(p.Question))
	fmt.Fprintf(&b, "- Scenario: %s\n", p.Scenario)
	fmt.Fprintf(&b, "- Generation mode: %s\n", p.Mode)
	fmt.Fprintf(&b, "- Generated at: %s\n\n", generatedAt.Format(time.RFC3339))

	b.WriteString("## SQL\n\n```sql\n")
	b.WriteString(strings.TrimSpace(p.SQL))
	b.WriteString("\n```\n\n")

	b.WriteString("## Results\n\n")
	if p.Result.RowCount == 0 {
		b.WriteString("No rows matched.\n\n")
	} else {
		b.WriteString(markdownTable(p.Result))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d rows", p.Result.RowCount)
		if p.Result.Truncated {
			fmt.Fprintf(&b, " (showing first %d)", len(p.Result.Rows))
		}
		b.WriteString("\n\n")
	}

	if chart := ChartFromResult(p.Result); chart != "" {
		b.WriteString("## Chart\n\n```\n")
		b.WriteString(chart)
		b.WriteString("```\n\n")
	}

	if len(p.WebResults) > 0 {
		b.WriteString("## Web Context\n\n")
		for _, r := range p.WebResults {
			fmt.Fprintf(&b, "- **%s**: %s", r.Title, r.Snippet)
			if r.URL != "" {
				fmt.Fprintf(&b, " (%s)", r.URL)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func markdownTable(result query.ResultSet) string {
	w := table.NewWriter()
	header := make(table.Row, len(result.Columns))
	for i, column := range result.Columns {
		header[i] = column
	}
	w.AppendHeader(header)
	for _, row := range result.Rows {
		cells := make(table.Row, len(result.Columns))
		for i, column := range result.Columns {
			cells[i] = row[column]
		}
		w.AppendRow(cells)
	}
	return w.RenderMarkdown() + "\n"
}

// ChartFromResult plots the first text column against the first numeric
// column. Result sets without that shape produce no chart.
func ChartFromResult(result query.ResultSet) string {
	if len(result.Rows) == 0 || len(result.Columns) < 2 {
		return ""
	}

	labelColumn, valueColumn := "", ""
	first := result.Rows[0]
	for _, column := range result.Columns {
		if labelColumn == "" {
			if _, ok := first[column].(string); ok {
				if _, numeric := toFloat(first[column]); !numeric {
					labelColumn = column
					continue
				}
			}
		}
		if valueColumn == "" {
			if _, ok := toFloat(first[column]); ok {
				valueColumn = column
			}
		}
	}
	if labelColumn == "" || valueColumn == "" {
		return ""
	}

	labels := make([]string, 0, len(result.Rows))
	values := make([]float64, 0, len(result.Rows))
	for _, row := range result.Rows {
		value, ok := toFloat(row[valueColumn])
		if !ok {
			continue
		}
		labels = append(labels, fmt.Sprintf("%v", row[labelColumn]))
		values = append(values, value)
	}
	return BarChart(labels, values)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
