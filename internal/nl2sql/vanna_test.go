package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/schema"
)

func TestVannaGeneratorGeneratesSQL(t *testing.T) {
	var captured struct {
		Question string `json:"question"`
		Database string `json:"database"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v0/generate_sql", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"sql":"SELECT name FROM companies LIMIT 10"}`))
	}))
	defer server.Close()

	generator, err := NewVannaGenerator(VannaConfig{BaseURL: server.URL})
	require.NoError(t, err)

	result, err := generator.GenerateSQL(context.Background(), Request{
		Question: "list companies",
		Scenario: schema.Scenario45,
	})
	require.NoError(t, err)
	require.Equal(t, "SELECT name FROM companies LIMIT 10", result.SQL)
	require.Equal(t, ModeVanna, result.Mode)

	require.Equal(t, "list companies", captured.Question)
	require.Equal(t, "scenario_4_5", captured.Database)
}

func TestVannaGeneratorSurfacesSidecarError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sql":"","error":"no training data for question"}`))
	}))
	defer server.Close()

	generator, err := NewVannaGenerator(VannaConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = generator.GenerateSQL(context.Background(), Request{Question: "q", Scenario: schema.Scenario13})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no training data")
}

func TestVannaGeneratorRejectsNonSelectPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sql":"sorry, unable to help"}`))
	}))
	defer server.Close()

	generator, err := NewVannaGenerator(VannaConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = generator.GenerateSQL(context.Background(), Request{Question: "q", Scenario: schema.Scenario13})
	require.ErrorIs(t, err, errEmptyCompletion)
}

func TestNewVannaGeneratorRequiresBaseURL(t *testing.T) {
	_, err := NewVannaGenerator(VannaConfig{})
	require.Error(t, err)
}
