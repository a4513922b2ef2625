package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/askdb/askdb/internal/observability"
)

var (
	// ErrNoGenerator signals that no backend capable of serving the
	// requested mode is configured.
	ErrNoGenerator = errors.New("no sql generator configured for requested mode")
)

// Resolver routes a generation request to the configured backends. LLM
// output runs through Repair before it is returned; the Vanna sidecar is
// trained on the live schema and its statements are passed through verbatim.
type Resolver struct {
	llm    Generator
	vanna  Generator
	logger *slog.Logger
}

func NewResolver(llm, vanna Generator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{llm: llm, vanna: vanna, logger: logger}
}

// Resolve generates SQL for the question according to mode. Both auto and
// llm prefer the LLM backend, and a failed attempt falls back to Vanna
// exactly once; the returned Result reports the mode that actually produced
// the SQL. Vanna mode never falls back.
func (r *Resolver) Resolve(ctx context.Context, mode Mode, req Request) (Result, error) {
	switch mode {
	case ModeVanna:
		result, err := r.generateVanna(ctx, req)
		observability.ObserveGeneration(string(ModeVanna), err)
		return result, err
	case ModeLLM, ModeAuto, "":
		return r.resolveWithFallback(ctx, req)
	default:
		return Result{}, fmt.Errorf("unknown generation mode %q", mode)
	}
}

func (r *Resolver) resolveWithFallback(ctx context.Context, req Request) (Result, error) {
	if r.llm == nil && r.vanna == nil {
		return Result{}, ErrNoGenerator
	}

	if r.llm != nil {
		result, err := r.generateLLM(ctx, req)
		observability.ObserveGeneration(string(ModeLLM), err)
		if err == nil {
			return result, nil
		}
		if r.vanna == nil {
			return Result{}, err
		}
		r.logger.Warn("llm generation failed, falling back to vanna",
			slog.String("scenario", string(req.Scenario)),
			slog.String("error", err.Error()))
		observability.IncrementGenerationFallback()
	}

	result, err := r.generateVanna(ctx, req)
	observability.ObserveGeneration(string(ModeVanna), err)
	return result, err
}

func (r *Resolver) generateLLM(ctx context.Context, req Request) (Result, error) {
	if r.llm == nil {
		return Result{}, ErrNoGenerator
	}
	result, err := r.llm.GenerateSQL(ctx, req)
	if err != nil {
		return Result{}, err
	}
	repaired := Repair(result.SQL)
	if repaired != result.SQL {
		observability.IncrementSQLRepair()
		result.SQL = repaired
	}
	return result, nil
}

func (r *Resolver) generateVanna(ctx context.Context, req Request) (Result, error) {
	if r.vanna == nil {
		return Result{}, ErrNoGenerator
	}
	return r.vanna.GenerateSQL(ctx, req)
}
