package dag

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrPipelineNotFound  = errors.New("pipeline not found")
	ErrInvalidPipelineID = errors.New("invalid pipeline id")
)

// Source yields stored pipelines by id.
type Source interface {
	Pipelines(ctx context.Context) ([]string, error)
	Pipeline(ctx context.Context, id string) (Pipeline, error)
}

// MemorySource is a Source backed by a map. Pipelines lists ids sorted.
type MemorySource map[string]Pipeline

func (m MemorySource) Pipelines(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m MemorySource) Pipeline(ctx context.Context, id string) (Pipeline, error) {
	p, ok := m[id]
	if !ok {
		return Pipeline{}, ErrPipelineNotFound
	}
	return p, nil
}

// AnalyzeStored loads pipeline id from src and analyzes it.
func AnalyzeStored(ctx context.Context, src Source, id string) (Analysis, error) {
	p, err := src.Pipeline(ctx, id)
	if err != nil {
		return Analysis{}, err
	}
	return Analyze(p.Nodes, p.Edges), nil
}
