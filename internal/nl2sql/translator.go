package nl2sql

import (
	"context"

	"github.com/askdb/askdb/internal/schema"
)

// Mode names the generation strategy used for one request.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeLLM   Mode = "llm"
	ModeVanna Mode = "vanna"
)

// ParseMode resolves a raw mode string; empty defaults to auto.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case "":
		return ModeAuto, true
	case ModeAuto, ModeLLM, ModeVanna:
		return Mode(raw), true
	default:
		return "", false
	}
}

type Request struct {
	Question string
	Scenario schema.Scenario
}

// Result is one generation attempt's candidate SQL with its provenance.
type Result struct {
	SQL   string `json:"sql"`
	Mode  Mode   `json:"mode"`
	Model string `json:"model,omitempty"`
}

// Generator produces a single candidate SQL statement for a question.
type Generator interface {
	GenerateSQL(ctx context.Context, req Request) (Result, error)
}
