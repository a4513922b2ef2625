package nl2sql

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/schema"
)

type stubGenerator struct {
	result Result
	err    error
	calls  int
}

func (s *stubGenerator) GenerateSQL(ctx context.Context, req Request) (Result, error) {
	s.calls++
	return s.result, s.err
}

func testRequest() Request {
	return Request{Question: "top companies by funding", Scenario: schema.Scenario13}
}

func TestResolveAutoPrefersLLM(t *testing.T) {
	llm := &stubGenerator{result: Result{SQL: "SELECT name FROM companies LIMIT 10", Mode: ModeLLM}}
	vanna := &stubGenerator{result: Result{SQL: "SELECT 1", Mode: ModeVanna}}
	resolver := NewResolver(llm, vanna, slog.Default())

	result, err := resolver.Resolve(context.Background(), ModeAuto, testRequest())
	require.NoError(t, err)
	require.Equal(t, ModeLLM, result.Mode)
	require.Equal(t, 1, llm.calls)
	require.Equal(t, 0, vanna.calls)
}

func TestResolveAutoFallsBackToVannaOnce(t *testing.T) {
	llm := &stubGenerator{err: errors.New("model unavailable")}
	vanna := &stubGenerator{result: Result{SQL: "SELECT name FROM companies LIMIT 10", Mode: ModeVanna}}
	resolver := NewResolver(llm, vanna, slog.Default())

	result, err := resolver.Resolve(context.Background(), ModeAuto, testRequest())
	require.NoError(t, err)
	require.Equal(t, ModeVanna, result.Mode)
	require.Equal(t, 1, llm.calls)
	require.Equal(t, 1, vanna.calls)
}

func TestResolveAutoWithoutLLMUsesVanna(t *testing.T) {
	vanna := &stubGenerator{result: Result{SQL: "SELECT name FROM companies LIMIT 10", Mode: ModeVanna}}
	resolver := NewResolver(nil, vanna, slog.Default())

	result, err := resolver.Resolve(context.Background(), ModeAuto, testRequest())
	require.NoError(t, err)
	require.Equal(t, ModeVanna, result.Mode)
	require.Equal(t, 1, vanna.calls)
}

func TestResolveAutoNoBackends(t *testing.T) {
	resolver := NewResolver(nil, nil, slog.Default())
	_, err := resolver.Resolve(context.Background(), ModeAuto, testRequest())
	require.ErrorIs(t, err, ErrNoGenerator)
}

func TestResolveVannaModeNeverFallsBack(t *testing.T) {
	llm := &stubGenerator{result: Result{SQL: "SELECT 1", Mode: ModeLLM}}
	vanna := &stubGenerator{err: errors.New("sidecar down")}
	resolver := NewResolver(llm, vanna, slog.Default())

	_, err := resolver.Resolve(context.Background(), ModeVanna, testRequest())
	require.Error(t, err)
	require.Equal(t, 0, llm.calls)
	require.Equal(t, 1, vanna.calls)
}

func TestResolveLLMModeFallsBackToVannaOnce(t *testing.T) {
	llm := &stubGenerator{err: errors.New("model unavailable")}
	vanna := &stubGenerator{result: Result{SQL: "SELECT name FROM companies LIMIT 10", Mode: ModeVanna}}
	resolver := NewResolver(llm, vanna, slog.Default())

	result, err := resolver.Resolve(context.Background(), ModeLLM, testRequest())
	require.NoError(t, err)
	require.Equal(t, ModeVanna, result.Mode)
	require.Equal(t, 1, llm.calls)
	require.Equal(t, 1, vanna.calls)
}

func TestResolveLLMModeErrorWithoutVanna(t *testing.T) {
	llm := &stubGenerator{err: errors.New("model unavailable")}
	resolver := NewResolver(llm, nil, slog.Default())

	_, err := resolver.Resolve(context.Background(), ModeLLM, testRequest())
	require.ErrorContains(t, err, "model unavailable")
	require.Equal(t, 1, llm.calls)
}

func TestResolveLLMModeWithoutAnyBackend(t *testing.T) {
	resolver := NewResolver(nil, nil, slog.Default())
	_, err := resolver.Resolve(context.Background(), ModeLLM, testRequest())
	require.ErrorIs(t, err, ErrNoGenerator)
}

func TestResolveRepairsLLMOutput(t *testing.T) {
	llm := &stubGenerator{result: Result{
		SQL:  "SELECT\n    c.name AS company_name\n    COUNT(*) AS total\nFROM companies c\nGROUP BY company_name",
		Mode: ModeLLM,
	}}
	resolver := NewResolver(llm, nil, slog.Default())

	result, err := resolver.Resolve(context.Background(), ModeLLM, testRequest())
	require.NoError(t, err)
	require.Contains(t, result.SQL, "c.name AS company_name,")
	require.Contains(t, result.SQL, "GROUP BY c.name")
}

func TestResolveVannaOutputIsNotRepaired(t *testing.T) {
	raw := "SELECT\n    c.name AS company_name\n    COUNT(*) AS total\nFROM companies c"
	vanna := &stubGenerator{result: Result{SQL: raw, Mode: ModeVanna}}
	resolver := NewResolver(nil, vanna, slog.Default())

	result, err := resolver.Resolve(context.Background(), ModeVanna, testRequest())
	require.NoError(t, err)
	require.Equal(t, raw, result.SQL)
}

func TestParseMode(t *testing.T) {
	mode, ok := ParseMode("")
	require.True(t, ok)
	require.Equal(t, ModeAuto, mode)

	mode, ok = ParseMode("vanna")
	require.True(t, ok)
	require.Equal(t, ModeVanna, mode)

	_, ok = ParseMode("magic")
	require.False(t, ok)
}
