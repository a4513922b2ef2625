package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type VannaConfig struct {
	BaseURL string
	Timeout time.Duration
}

// VannaGenerator delegates SQL generation to a trained Vanna sidecar over its
// HTTP API. The sidecar owns its own schema training data, so no prompt is
// assembled on this side.
type VannaGenerator struct {
	baseURL string
	client  *http.Client
}

func NewVannaGenerator(cfg VannaConfig) (*VannaGenerator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VannaGenerator{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (g *VannaGenerator) GenerateSQL(ctx context.Context, req Request) (Result, error) {
	payload := map[string]string{
		"question": req.Question,
		"database": string(req.Scenario),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v0/generate_sql", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("request vanna generation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read vanna response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("vanna generation failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
	}

	var parsed struct {
		SQL   string `json:"sql"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode vanna response: %w", err)
	}
	if parsed.Error != "" {
		return Result{}, fmt.Errorf("vanna generation failed: %s", parsed.Error)
	}

	sql := stripMarkdownSQL(parsed.SQL)
	if !strings.Contains(strings.ToUpper(sql), "SELECT") {
		return Result{}, errEmptyCompletion
	}
	return Result{
		SQL:  sql,
		Mode: ModeVanna,
	}, nil
}
