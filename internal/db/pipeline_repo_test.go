package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edkuperman/pipelinedag/internal/dag"
)

func TestPipeline_InvalidID(t *testing.T) {
	r := NewPipelineRepo(nil)
	_, err := r.Pipeline(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, dag.ErrInvalidPipelineID)
}

func TestDecodeAttrs(t *testing.T) {
	attrs, err := decodeAttrs(nil)
	require.NoError(t, err)
	assert.Nil(t, attrs)

	attrs, err = decodeAttrs([]byte(`{"type":"llm","pos":{"x":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "llm", attrs["type"])

	_, err = decodeAttrs([]byte(`[1,2]`))
	assert.Error(t, err)
}

// Runs against a real Postgres when PIPELINEDAG_TEST_DATABASE_URL is set.
func TestPipelineRepo_Postgres(t *testing.T) {
	url := os.Getenv("PIPELINEDAG_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PIPELINEDAG_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := NewPool(ctx, url, 2)
	require.NoError(t, err)
	defer pool.Close()

	r := NewPipelineRepo(pool)
	require.NoError(t, r.EnsureSchema(ctx))

	id := uuid.New()
	_, err = pool.Exec(ctx, `INSERT INTO pipelines(id, name) VALUES ($1, 'loop');`, id)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM pipelines WHERE id = $1;`, id) })

	_, err = pool.Exec(ctx, `
		INSERT INTO pipeline_nodes(pipeline_id, position, node_id, attrs)
		VALUES ($1, 0, 'a', '{"type":"input"}'), ($1, 1, 'b', NULL);
	`, id)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO pipeline_edges(pipeline_id, position, source, target)
		VALUES ($1, 0, 'a', 'b'), ($1, 1, 'b', 'a');
	`, id)
	require.NoError(t, err)

	ids, err := r.Pipelines(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id.String())

	p, err := r.Pipeline(ctx, id.String())
	require.NoError(t, err)
	require.Len(t, p.Nodes, 2)
	assert.Equal(t, "input", p.Nodes[0].Attrs["type"])
	assert.Nil(t, p.Nodes[1].Attrs)

	res := dag.Analyze(p.Nodes, p.Edges)
	assert.False(t, res.IsDAG)
	assert.Equal(t, []string{"a", "b"}, res.Cycles.CyclePath)

	_, err = r.Pipeline(ctx, uuid.NewString())
	assert.ErrorIs(t, err, dag.ErrPipelineNotFound)
}
