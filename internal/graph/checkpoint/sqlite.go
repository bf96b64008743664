package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/agentmesh/core/pkg/models"
)

// SQLite is a checkpoint store backed by a single-file SQLite database,
// for deployments that want checkpoints queryable outside the process
// without standing up Redis.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) the checkpoints table at dsn,
// e.g. "file:checkpoints.db?_pragma=journal_mode(WAL)".
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open sqlite: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	workflow_id TEXT PRIMARY KEY,
	step        INTEGER NOT NULL,
	state       TEXT NOT NULL,
	completed   TEXT NOT NULL,
	status      TEXT NOT NULL,
	timestamp   TEXT NOT NULL
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Save(ctx context.Context, cp models.Checkpoint) error {
	state, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal state: %w", err)
	}
	completed, err := json.Marshal(cp.CompletedNodes)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal completed nodes: %w", err)
	}
	const upsert = `
INSERT INTO checkpoints (workflow_id, step, state, completed, status, timestamp)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(workflow_id) DO UPDATE SET
	step = excluded.step,
	state = excluded.state,
	completed = excluded.completed,
	status = excluded.status,
	timestamp = excluded.timestamp;`
	_, err = s.db.ExecContext(ctx, upsert, cp.WorkflowID, cp.Step, string(state), string(completed), string(cp.Status), cp.Timestamp.Format(rfc3339))
	if err != nil {
		return fmt.Errorf("checkpoint: upsert: %w", err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, workflowID string) (*models.Checkpoint, error) {
	const query = `SELECT workflow_id, step, state, completed, status, timestamp FROM checkpoints WHERE workflow_id = ?;`
	row := s.db.QueryRowContext(ctx, query, workflowID)

	var cp models.Checkpoint
	var state, completed, status, timestamp string
	if err := row.Scan(&cp.WorkflowID, &cp.Step, &state, &completed, &status, &timestamp); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("checkpoint: scan: %w", err)
	}
	if err := json.Unmarshal([]byte(state), &cp.State); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal state: %w", err)
	}
	if err := json.Unmarshal([]byte(completed), &cp.CompletedNodes); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal completed nodes: %w", err)
	}
	cp.Status = models.GraphStatus(status)
	if t, err := parseRFC3339(timestamp); err == nil {
		cp.Timestamp = t
	}
	return &cp, nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT workflow_id FROM checkpoints ORDER BY workflow_id;`)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("checkpoint: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, workflowID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE workflow_id = ?;`, workflowID); err != nil {
		return fmt.Errorf("checkpoint: delete: %w", err)
	}
	return nil
}
