package store

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"macae/internal/dataset"
)

// LakehouseSchema holds every ingested table. It is first on the search_path, so
// report queries use bare table names.
const LakehouseSchema = "lakehouse"

//go:embed schema.sql
var schemaSQL string

type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = LakehouseSchema + ",public"
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

// ExecSQL executes raw SQL (used for schema bootstrap).
// Caller is responsible for idempotency.
func (s *Store) ExecSQL(ctx context.Context, sql string) error {
	_, err := s.pool.Exec(ctx, sql)
	return err
}

// EnsureSchema applies the built-in lakehouse and ledger schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.ExecSQL(ctx, schemaSQL)
}

// OverwriteTable replaces lakehouse.<f.Name> with the contents of f. The drop,
// create and bulk copy run in one transaction, so readers see either the old
// table or the complete new one.
func (s *Store) OverwriteTable(ctx context.Context, f *dataset.Frame) (int64, error) {
	if f.Name == "" {
		return 0, fmt.Errorf("overwrite table: frame has no name")
	}
	if len(f.Columns) == 0 {
		return 0, fmt.Errorf("overwrite table %s: frame has no columns", f.Name)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	ident := pgx.Identifier{LakehouseSchema, f.Name}
	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+ident.Sanitize()); err != nil {
		return 0, fmt.Errorf("drop %s: %w", f.Name, err)
	}
	if _, err := tx.Exec(ctx, CreateTableSQL(f)); err != nil {
		return 0, fmt.Errorf("create %s: %w", f.Name, err)
	}
	n, err := tx.CopyFrom(ctx, ident, f.ColumnNames(), pgx.CopyFromRows(f.Rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", f.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateTableSQL returns the DDL for a lakehouse table holding f.
func CreateTableSQL(f *dataset.Frame) string {
	cols := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = pgx.Identifier{c.Name}.Sanitize() + " " + PGType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)",
		pgx.Identifier{LakehouseSchema, f.Name}.Sanitize(), strings.Join(cols, ", "))
}

func PGType(t dataset.Type) string {
	switch t {
	case dataset.TypeBigInt:
		return "bigint"
	case dataset.TypeDouble:
		return "double precision"
	case dataset.TypeBoolean:
		return "boolean"
	case dataset.TypeDate:
		return "date"
	case dataset.TypeTimestamp:
		return "timestamptz"
	case dataset.TypeJSON:
		return "jsonb"
	default:
		return "text"
	}
}

func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+pgx.Identifier{LakehouseSchema, table}.Sanitize()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// ListTables returns the lakehouse tables, sorted by name.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema=$1 AND table_type='BASE TABLE'
		ORDER BY table_name
	`, LakehouseSchema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Query runs sql inside a read-only transaction and materializes the result.
func (s *Store) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := &Result{}
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) CreateRun(ctx context.Context, r Run) (string, error) {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO macae.ingest_runs (run_id, phase, status, actor, source, result)
		VALUES ($1::text::uuid,$2,$3,$4,$5,$6::jsonb)
	`, r.RunID, r.Phase, r.Status, nullIfEmpty(r.Actor), nullIfEmpty(r.Source), jsonOrEmpty(r.ResultJSON))
	if err != nil {
		return "", err
	}
	return r.RunID, nil
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, resultJSON []byte) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE macae.ingest_runs
		SET status=$2, finished_at=now(), result=$3::jsonb
		WHERE run_id=$1::text::uuid
	`, runID, status, jsonOrEmpty(resultJSON))
	return err
}

// RecentRuns returns the latest ingestion runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id::text, phase, status, COALESCE(actor,''), COALESCE(source,''), started_at, finished_at, result::text
		FROM macae.ingest_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var result string
		if err := rows.Scan(&r.RunID, &r.Phase, &r.Status, &r.Actor, &r.Source, &r.StartedAt, &r.FinishedAt, &result); err != nil {
			return nil, err
		}
		r.ResultJSON = []byte(result)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func jsonOrEmpty(b []byte) string {
	if len(b) == 0 {
		return "{}"
	}
	return string(b)
}
