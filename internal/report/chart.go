package report

import (
	"fmt"
	"strings"
)

const (
	chartMaxRows  = 20
	chartBarWidth = 40
)

// BarChart renders label/value pairs as a unicode bar chart, the shape shown
// in terminal output and embedded verbatim in markdown reports. Returns ""
// when there is nothing numeric to plot.
func BarChart(labels []string, values []float64) string {
	if len(labels) == 0 || len(labels) != len(values) {
		return ""
	}
	if len(labels) > chartMaxRows {
		labels = labels[:chartMaxRows]
		values = values[:chartMaxRows]
	}

	maxValue := 0.0
	labelWidth := 0
	for i, label := range labels {
		if values[i] > maxValue {
			maxValue = values[i]
		}
		if w := displayWidth(label); w > labelWidth {
			labelWidth = w
		}
	}
	if maxValue <= 0 {
		return ""
	}

	var b strings.Builder
	for i, label := range labels {
		barLen := int(values[i] / maxValue * chartBarWidth)
		if barLen < 1 && values[i] > 0 {
			barLen = 1
		}
		padding := strings.Repeat(" ", labelWidth-displayWidth(label))
		b.WriteString(fmt.Sprintf("%s%s | %s %s\n",
			label, padding,
			strings.Repeat("█", barLen),
			formatValue(values[i])))
	}
	return b.String()
}

// displayWidth approximates terminal columns, counting CJK runes double.
func displayWidth(s string) int {
	width := 0
	for _, r := range s {
		if r >= 0x2E80 {
			width += 2
		} else {
			width++
		}
	}
	return width
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
