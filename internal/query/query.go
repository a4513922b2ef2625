// Package query defines the execution contract between the API layer and the
// scenario databases.
package query

import (
	"context"
	"time"

	"github.com/askdb/askdb/internal/schema"
)

// MaxMaterializedRows caps how many rows are returned to the client. The
// full result is still scanned so RowCount reports the true size.
const MaxMaterializedRows = 100

type Request struct {
	SQL      string
	Scenario schema.Scenario
}

// ResultSet holds the materialized slice of a query result. Truncated marks
// results whose row count exceeded MaxMaterializedRows.
type ResultSet struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Truncated bool             `json:"truncated"`
	Duration  time.Duration    `json:"-"`
}

// Engine executes read-only SQL against a scenario database.
type Engine interface {
	Execute(ctx context.Context, req Request) (ResultSet, error)
	Close() error
}
