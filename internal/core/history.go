package core

// history.go records one row per operation run.
//
// Run history is optional. NopHistory discards records, MemoryHistory keeps
// the most recent runs in process (serve mode without a database), and
// PgHistory stores them in PostgreSQL in the datops_runs table.

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultHistoryLimit is the number of runs List returns when asked for <= 0.
const DefaultHistoryLimit = 50

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// RunRecord is the persisted summary of one operation run.
type RunRecord struct {
	ID         string        `json:"id"`
	Operation  string        `json:"operation"`
	Inputs     []string      `json:"inputs"`
	Outputs    []string      `json:"outputs"`
	Status     string        `json:"status"`
	RowsIn     int           `json:"rows_in"`
	RowsOut    int           `json:"rows_out"`
	Excluded   []FileIssue   `json:"excluded,omitempty"`
	Error      string        `json:"error,omitempty"`
	RemoteAddr string        `json:"remote_addr,omitempty"`
	UserAgent  string        `json:"user_agent,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// HistoryStore persists run records.
type HistoryStore interface {
	Record(ctx context.Context, rec RunRecord) error
	List(ctx context.Context, limit int) ([]RunRecord, error)
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// NopHistory discards everything.
type NopHistory struct{}

func (NopHistory) Record(context.Context, RunRecord) error { return nil }

func (NopHistory) List(context.Context, int) ([]RunRecord, error) { return nil, nil }

func (NopHistory) Prune(context.Context, time.Time) (int64, error) { return 0, nil }

// MemoryHistory keeps the last Capacity records, newest first.
type MemoryHistory struct {
	Capacity int

	mu   sync.RWMutex
	runs []RunRecord
}

// NewMemoryHistory returns a store holding up to capacity runs.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryLimit
	}
	return &MemoryHistory{Capacity: capacity}
}

func (m *MemoryHistory) Record(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append([]RunRecord{rec}, m.runs...)
	if len(m.runs) > m.Capacity {
		m.runs = m.runs[:m.Capacity]
	}
	return nil
}

func (m *MemoryHistory) List(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]RunRecord, limit)
	copy(out, m.runs[:limit])
	return out, nil
}

func (m *MemoryHistory) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.runs[:0]
	var pruned int64
	for _, r := range m.runs {
		if r.StartedAt.Before(olderThan) {
			pruned++
			continue
		}
		kept = append(kept, r)
	}
	m.runs = kept
	return pruned, nil
}

// PgHistory stores runs in PostgreSQL.
type PgHistory struct {
	db DBTX
}

// NewPgHistory wraps a pool or transaction.
func NewPgHistory(db DBTX) *PgHistory {
	return &PgHistory{db: db}
}

// PoolConfig holds the connection pool settings for OpenPool.
type PoolConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// OpenPool connects to PostgreSQL and verifies the connection.
func OpenPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = int32(cfg.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

const createRunsTable = `
CREATE TABLE IF NOT EXISTS datops_runs (
	id          uuid PRIMARY KEY,
	operation   text        NOT NULL,
	inputs      jsonb       NOT NULL DEFAULT '[]',
	outputs     jsonb       NOT NULL DEFAULT '[]',
	status      text        NOT NULL,
	rows_in     bigint      NOT NULL DEFAULT 0,
	rows_out    bigint      NOT NULL DEFAULT 0,
	excluded    jsonb       NOT NULL DEFAULT '[]',
	error       text,
	remote_addr text,
	user_agent  text,
	started_at  timestamptz NOT NULL,
	duration_ms bigint      NOT NULL
);
CREATE INDEX IF NOT EXISTS datops_runs_started_at_idx ON datops_runs (started_at DESC);
`

// EnsureSchema creates the runs table if it does not exist.
func (h *PgHistory) EnsureSchema(ctx context.Context) error {
	_, err := h.db.Exec(ctx, createRunsTable)
	return err
}

const insertRun = `
INSERT INTO datops_runs (
	id, operation, inputs, outputs, status, rows_in, rows_out,
	excluded, error, remote_addr, user_agent, started_at, duration_ms
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

func (h *PgHistory) Record(ctx context.Context, rec RunRecord) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	inputs, _ := json.Marshal(nonNil(rec.Inputs))
	outputs, _ := json.Marshal(nonNil(rec.Outputs))
	excluded, _ := json.Marshal(excludedJSON(rec.Excluded))

	_, err = h.db.Exec(ctx, insertRun,
		pgtype.UUID{Bytes: id, Valid: true},
		rec.Operation,
		inputs,
		outputs,
		rec.Status,
		int64(rec.RowsIn),
		int64(rec.RowsOut),
		excluded,
		toPgText(rec.Error),
		toPgText(rec.RemoteAddr),
		toPgText(rec.UserAgent),
		pgtype.Timestamptz{Time: rec.StartedAt, Valid: true},
		rec.Duration.Milliseconds(),
	)
	return err
}

const listRuns = `
SELECT id, operation, inputs, outputs, status, rows_in, rows_out,
       excluded, error, remote_addr, user_agent, started_at, duration_ms
FROM datops_runs
ORDER BY started_at DESC
LIMIT $1`

func (h *PgHistory) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := h.db.Query(ctx, listRuns, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanRun)
}

func scanRun(row pgx.CollectableRow) (RunRecord, error) {
	var (
		id                         pgtype.UUID
		rec                        RunRecord
		inputs, outputs, excluded  []byte
		errText, remote, userAgent pgtype.Text
		rowsIn, rowsOut, durMS     int64
		started                    pgtype.Timestamptz
	)
	if err := row.Scan(&id, &rec.Operation, &inputs, &outputs, &rec.Status, &rowsIn, &rowsOut,
		&excluded, &errText, &remote, &userAgent, &started, &durMS); err != nil {
		return RunRecord{}, err
	}

	rec.ID = uuid.UUID(id.Bytes).String()
	_ = json.Unmarshal(inputs, &rec.Inputs)
	_ = json.Unmarshal(outputs, &rec.Outputs)
	_ = json.Unmarshal(excluded, &rec.Excluded)
	rec.RowsIn = int(rowsIn)
	rec.RowsOut = int(rowsOut)
	rec.Error = errText.String
	rec.RemoteAddr = remote.String
	rec.UserAgent = userAgent.String
	rec.StartedAt = started.Time
	rec.Duration = time.Duration(durMS) * time.Millisecond
	return rec, nil
}

func (h *PgHistory) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := h.db.Exec(ctx, `DELETE FROM datops_runs WHERE started_at < $1`,
		pgtype.Timestamptz{Time: olderThan, Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// toPgText maps "" to SQL NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// excludedJSON stores an empty array rather than null.
func excludedJSON(issues []FileIssue) []FileIssue {
	if issues == nil {
		return []FileIssue{}
	}
	return issues
}
