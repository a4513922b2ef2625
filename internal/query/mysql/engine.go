// Package mysql executes validated SELECT statements against the scenario
// MySQL databases.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
)

const defaultQueryTimeout = 30 * time.Second

// Engine routes queries to one connection pool per scenario.
type Engine struct {
	pools   map[schema.Scenario]*sql.DB
	timeout time.Duration
	logger  *slog.Logger
}

// NewEngine wraps already opened pools. Used directly by tests; production
// wiring goes through Open.
func NewEngine(pools map[schema.Scenario]*sql.DB, timeout time.Duration, logger *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{pools: pools, timeout: timeout, logger: logger}
}

// Open builds one pool per configured scenario. A scenario with no host
// configured is skipped so a single-database deployment still starts, and a
// scenario that is configured but unreachable is dropped with an error log.
// A dead scenario database must not take the healthy one down with it.
func Open(ctx context.Context, databases map[schema.Scenario]config.DatabaseConfig, timeout time.Duration, logger *slog.Logger) (*Engine, error) {
	pools := make(map[schema.Scenario]*sql.DB)
	for scenario, dbCfg := range databases {
		if strings.TrimSpace(dbCfg.Host) == "" {
			if logger != nil {
				logger.Warn("scenario database not configured, skipping",
					slog.String("scenario", string(scenario)))
			}
			continue
		}

		pool, err := sql.Open("mysql", formatDSN(dbCfg))
		if err != nil {
			closePools(pools)
			return nil, fmt.Errorf("open %s pool: %w", scenario, err)
		}
		pool.SetMaxOpenConns(dbCfg.MaxOpenConns)
		pool.SetConnMaxLifetime(5 * time.Minute)
		pools[scenario] = pool
	}
	return NewEngine(dropUnreachable(ctx, pools, logger), timeout, logger), nil
}

// dropUnreachable pings every pool and closes the ones that do not answer,
// keeping the rest serving.
func dropUnreachable(ctx context.Context, pools map[schema.Scenario]*sql.DB, logger *slog.Logger) map[schema.Scenario]*sql.DB {
	alive := make(map[schema.Scenario]*sql.DB, len(pools))
	for scenario, pool := range pools {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := pool.PingContext(pingCtx)
		cancel()
		if err != nil {
			_ = pool.Close()
			if logger != nil {
				logger.Error("scenario database unreachable, dropping",
					slog.String("scenario", string(scenario)),
					slog.Any("error", err))
			}
			continue
		}
		alive[scenario] = pool
	}
	return alive
}

func formatDSN(dbCfg config.DatabaseConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = dbCfg.User
	cfg.Passwd = dbCfg.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", dbCfg.Host, dbCfg.Port)
	cfg.DBName = dbCfg.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": dbCfg.Charset}
	return cfg.FormatDSN()
}

func closePools(pools map[schema.Scenario]*sql.DB) {
	for _, pool := range pools {
		_ = pool.Close()
	}
}

// Scenarios lists the scenarios this engine can serve.
func (e *Engine) Scenarios() []schema.Scenario {
	out := make([]schema.Scenario, 0, len(e.pools))
	for scenario := range e.pools {
		out = append(out, scenario)
	}
	return out
}

// Ping verifies every pool, for readiness checks.
func (e *Engine) Ping(ctx context.Context) error {
	for scenario, pool := range e.pools {
		if err := pool.PingContext(ctx); err != nil {
			return fmt.Errorf("scenario %s unreachable: %w", scenario, err)
		}
	}
	return nil
}

func (e *Engine) Execute(ctx context.Context, req query.Request) (query.ResultSet, error) {
	pool, ok := e.pools[req.Scenario]
	if !ok {
		return query.ResultSet{}, fmt.Errorf("no database configured for scenario %s", req.Scenario)
	}

	statement := strings.TrimSpace(req.SQL)
	statement = strings.TrimSuffix(statement, ";")

	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	rows, err := pool.QueryContext(queryCtx, statement)
	if err != nil {
		return query.ResultSet{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.ResultSet{}, fmt.Errorf("read result columns: %w", err)
	}

	result := query.ResultSet{
		Columns: columns,
		Rows:    make([]map[string]any, 0, query.MaxMaterializedRows),
	}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		result.RowCount++
		if result.RowCount > query.MaxMaterializedRows {
			result.Truncated = true
			continue
		}
		if err := rows.Scan(pointers...); err != nil {
			return query.ResultSet{}, fmt.Errorf("scan row %d: %w", result.RowCount, err)
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return query.ResultSet{}, fmt.Errorf("iterate result rows: %w", err)
	}

	result.Duration = time.Since(started)
	observability.ObserveExecution(string(req.Scenario), result.Duration, result.RowCount)
	e.logger.Debug("query executed",
		slog.String("scenario", string(req.Scenario)),
		slog.Int("row_count", result.RowCount),
		slog.Bool("truncated", result.Truncated),
		slog.Duration("duration", result.Duration))
	return result, nil
}

// normalizeValue makes driver values JSON friendly. The MySQL driver hands
// text columns back as []byte.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}

func (e *Engine) Close() error {
	var firstErr error
	for scenario, pool := range e.pools {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s pool: %w", scenario, err)
		}
	}
	return firstErr
}
