package schema

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const (
	schemaFile13 = "scenario_1_3_schema.md"
	schemaFile45 = "scenario_4_5_schema.md"
	examplesFile = "question_sql_examples.md"
)

// Loader reads schema documents and few-shot examples from a directory and
// caches the contents for the process lifetime. A missing file is a soft
// failure: it is logged once and treated as empty context, letting the
// generator fall back to its built-in schema hint.
type Loader struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{
		dir:    dir,
		logger: logger,
		cache:  map[string]string{},
	}
}

// Schema returns the raw schema document for one scenario, or "" when the
// file is absent.
func (l *Loader) Schema(scenario Scenario) string {
	switch scenario {
	case Scenario45:
		return l.read(schemaFile45)
	default:
		return l.read(schemaFile13)
	}
}

// Examples returns the shared question/SQL example file, or "" when absent.
func (l *Loader) Examples() string {
	return l.read(examplesFile)
}

func (l *Loader) read(name string) string {
	l.mu.RLock()
	content, ok := l.cache[name]
	l.mu.RUnlock()
	if ok {
		return content
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if content, ok := l.cache[name]; ok {
		return content
	}

	path := filepath.Join(l.dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("schema resource missing, using empty context",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
		l.cache[name] = ""
		return ""
	}
	l.cache[name] = string(raw)
	return l.cache[name]
}

// Excerpt clips a document to at most max runes for prompt injection. Model
// context is bounded, so prompts never carry whole schema files.
func Excerpt(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// FallbackHint is the built-in short schema description used when a
// scenario's schema document is unavailable.
func FallbackHint(scenario Scenario) string {
	switch scenario {
	case Scenario45:
		return "Tables: investment_events(eid, investor, amount, invest_date), " +
			"due_diligence_reports(eid, report_type, risk_level, created_at), " +
			"companies(eid, name, province, city, reg_date). Join on eid."
	default:
		return "Tables: companies(eid, name, province, city, industry_code, reg_date), " +
			"financing_rounds(eid, round, amount, round_date), " +
			"industry_codes(eid, name). Join on eid."
	}
}
