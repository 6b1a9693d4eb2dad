package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edkuperman/pipelinedag/internal/dag"
)

// PipelineRepo reads pipelines saved by the editor. It never writes graph
// data; it implements dag.Source.
type PipelineRepo struct{ DB *pgxpool.Pool }

func NewPipelineRepo(db *pgxpool.Pool) *PipelineRepo { return &PipelineRepo{DB: db} }

var _ dag.Source = (*PipelineRepo)(nil)

// EnsureSchema creates the pipeline tables if they are missing.
func (r *PipelineRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pipelines (
			id         UUID PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS pipeline_nodes (
			pipeline_id UUID NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
			position    INT  NOT NULL,
			node_id     TEXT NOT NULL,
			attrs       JSONB,
			PRIMARY KEY (pipeline_id, position)
		);
		CREATE TABLE IF NOT EXISTS pipeline_edges (
			pipeline_id UUID NOT NULL REFERENCES pipelines(id) ON DELETE CASCADE,
			position    INT  NOT NULL,
			source      TEXT NOT NULL,
			target      TEXT NOT NULL,
			attrs       JSONB,
			PRIMARY KEY (pipeline_id, position)
		);
	`)
	return err
}

// Pipelines lists stored pipeline ids, oldest first.
func (r *PipelineRepo) Pipelines(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT id::text FROM pipelines ORDER BY created_at, id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Pipeline loads the nodes and edges of one pipeline in their saved order.
func (r *PipelineRepo) Pipeline(ctx context.Context, id string) (dag.Pipeline, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return dag.Pipeline{}, fmt.Errorf("%w: %s", dag.ErrInvalidPipelineID, id)
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return dag.Pipeline{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pipelines WHERE id = $1);`, pid).Scan(&exists); err != nil {
		return dag.Pipeline{}, err
	}
	if !exists {
		return dag.Pipeline{}, dag.ErrPipelineNotFound
	}

	var p dag.Pipeline
	if p.Nodes, err = loadNodes(ctx, tx, pid); err != nil {
		return dag.Pipeline{}, fmt.Errorf("load nodes of %s: %w", pid, err)
	}
	if p.Edges, err = loadEdges(ctx, tx, pid); err != nil {
		return dag.Pipeline{}, fmt.Errorf("load edges of %s: %w", pid, err)
	}
	return p, tx.Commit(ctx)
}

func loadNodes(ctx context.Context, tx pgx.Tx, pid uuid.UUID) ([]dag.Node, error) {
	rows, err := tx.Query(ctx, `
		SELECT node_id, attrs
		  FROM pipeline_nodes
		 WHERE pipeline_id = $1
		 ORDER BY position;
	`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []dag.Node{}
	for rows.Next() {
		var (
			n   dag.Node
			raw []byte
		)
		if err := rows.Scan(&n.ID, &raw); err != nil {
			return nil, err
		}
		if n.Attrs, err = decodeAttrs(raw); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func loadEdges(ctx context.Context, tx pgx.Tx, pid uuid.UUID) ([]dag.Edge, error) {
	rows, err := tx.Query(ctx, `
		SELECT source, target, attrs
		  FROM pipeline_edges
		 WHERE pipeline_id = $1
		 ORDER BY position;
	`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []dag.Edge{}
	for rows.Next() {
		var (
			e   dag.Edge
			raw []byte
		)
		if err := rows.Scan(&e.Source, &e.Target, &raw); err != nil {
			return nil, err
		}
		if e.Attrs, err = decodeAttrs(raw); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// decodeAttrs turns a JSONB object into an attribute bag. NULL gives nil.
func decodeAttrs(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var attrs map[string]any
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
