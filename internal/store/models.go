package store

import (
	"encoding/json"
	"time"
)

// Run is one ingestion run recorded in macae.ingest_runs.
type Run struct {
	RunID      string          `json:"run_id"`
	Phase      string          `json:"phase"`
	Status     string          `json:"status"`
	Actor      string          `json:"actor,omitempty"`
	Source     string          `json:"source,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	ResultJSON json.RawMessage `json:"result,omitempty"`
}

// Result is the materialized output of a read-only query.
type Result struct {
	Columns []string
	Rows    [][]any
}

// TableCount is the row count of one lakehouse table.
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}
