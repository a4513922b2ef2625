package schema

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseAcceptsScenarioIDsAndTopics(t *testing.T) {
	cases := map[string]Scenario{
		"":              Scenario13,
		"scenario_1_3":  Scenario13,
		"scenario_4_5":  Scenario45,
		"data_insight":  Scenario13,
		"regional":      Scenario13,
		"industry":      Scenario13,
		"investment":    Scenario45,
		"due_diligence": Scenario45,
		"  INVESTMENT ": Scenario45,
	}
	for raw, want := range cases {
		got, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseRejectsUnknownScenario(t *testing.T) {
	if _, err := Parse("scenario_9"); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

func TestLoaderReadsAndCachesSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, schemaFile13)
	if err := os.WriteFile(path, []byte("CREATE TABLE companies (eid VARCHAR(64));"), 0o644); err != nil {
		t.Fatalf("write schema file: %v", err)
	}

	loader := NewLoader(dir, nil)
	got := loader.Schema(Scenario13)
	if got != "CREATE TABLE companies (eid VARCHAR(64));" {
		t.Fatalf("Schema() = %q", got)
	}

	// Cached: removing the backing file must not change the answer.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove schema file: %v", err)
	}
	if loader.Schema(Scenario13) != got {
		t.Fatal("expected cached schema content")
	}
}

func TestLoaderMissingFileIsEmptyNotFatal(t *testing.T) {
	loader := NewLoader(t.TempDir(), nil)
	if got := loader.Schema(Scenario45); got != "" {
		t.Fatalf("Schema() = %q, want empty", got)
	}
	if got := loader.Examples(); got != "" {
		t.Fatalf("Examples() = %q, want empty", got)
	}
}

func TestExcerptClipsRuneSafe(t *testing.T) {
	if got := Excerpt("abcdef", 4); got != "abcd" {
		t.Fatalf("Excerpt() = %q", got)
	}
	if got := Excerpt("短文", 10); got != "短文" {
		t.Fatalf("Excerpt() = %q", got)
	}
	// Never split a multi-byte rune.
	if got := Excerpt("融资金额统计", 2); got != "融资" {
		t.Fatalf("Excerpt() = %q", got)
	}
	if got := Excerpt("anything", 0); got != "" {
		t.Fatalf("Excerpt() = %q", got)
	}
}

func TestFallbackHintPerScenario(t *testing.T) {
	if FallbackHint(Scenario13) == FallbackHint(Scenario45) {
		t.Fatal("expected distinct fallback hints per scenario")
	}
}
