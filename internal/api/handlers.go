package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edkuperman/pipelinedag/internal/config"
	"github.com/edkuperman/pipelinedag/internal/dag"
	"github.com/edkuperman/pipelinedag/internal/logging"
	"github.com/edkuperman/pipelinedag/internal/metrics"
	"github.com/edkuperman/pipelinedag/internal/scheduler"
	"github.com/edkuperman/pipelinedag/internal/schema"
)

// Auditor runs the cycle sweep over stored pipelines.
type Auditor interface {
	Sweep(ctx context.Context) (scheduler.Report, error)
	Last() (scheduler.Report, bool)
}

// Deps are the collaborators of Handlers. Only Limits is required; without
// a Source the stored-pipeline routes are not mounted.
type Deps struct {
	Source  dag.Source
	Auditor Auditor
	Metrics *metrics.Metrics
	Limits  config.Limits
	Logger  *slog.Logger
}

// Handlers wires up all API endpoints.
type Handlers struct {
	src     dag.Source
	audit   Auditor
	metrics *metrics.Metrics
	limits  config.Limits
	log     *slog.Logger
}

func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		src:     d.Source,
		audit:   d.Auditor,
		metrics: d.Metrics,
		limits:  d.Limits,
		log:     logging.Component(d.Logger, "api"),
	}
}

func (h *Handlers) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"Ping": "Pong"})
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// parsePipeline analyzes the pipeline in the request body.
func (h *Handlers) parsePipeline(w http.ResponseWriter, r *http.Request) {
	if h.limits.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxBodyBytes)
	}

	p, err := schema.Decode(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, 413, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, 422, map[string]any{
				"error":  verr.Error(),
				"detail": verr.Details,
			})
			return
		}
		writeErr(w, 400, err)
		return
	}

	if n := h.limits.MaxNodes; n > 0 && len(p.Nodes) > n {
		writeErr(w, 413, fmt.Errorf("pipeline has %d nodes, limit is %d", len(p.Nodes), n))
		return
	}
	if n := h.limits.MaxEdges; n > 0 && len(p.Edges) > n {
		writeErr(w, 413, fmt.Errorf("pipeline has %d edges, limit is %d", len(p.Edges), n))
		return
	}

	start := time.Now()
	res := dag.Analyze(p.Nodes, p.Edges)
	h.metrics.Observe(metrics.SourceRequest, res, time.Since(start))
	if !res.IsDAG {
		h.log.Debug("cycle detected", "nodes", res.NumNodes, "edges", res.NumEdges, "cycle_path", res.Cycles.CyclePath)
	}
	writeJSON(w, 200, res)
}

// getPipeline analyzes a stored pipeline.
func (h *Handlers) getPipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	start := time.Now()
	res, err := dag.AnalyzeStored(r.Context(), h.src, id)
	if err != nil {
		switch {
		case errors.Is(err, dag.ErrInvalidPipelineID):
			writeErr(w, 400, err)
		case errors.Is(err, dag.ErrPipelineNotFound):
			writeErr(w, 404, fmt.Errorf("pipeline %s not found", id))
		default:
			h.log.Error("load pipeline", "pipeline", id, "err", err)
			writeErr(w, 500, err)
		}
		return
	}
	h.metrics.Observe(metrics.SourceStored, res, time.Since(start))
	writeJSON(w, 200, res)
}

// checkGlobalCycles sweeps every stored pipeline now.
func (h *Handlers) checkGlobalCycles(w http.ResponseWriter, r *http.Request) {
	rep, err := h.audit.Sweep(r.Context())
	if err != nil {
		writeErr(w, 500, fmt.Errorf("global cycle check: %w", err))
		return
	}
	writeReport(w, rep)
}

// lastAudit returns the report of the most recent sweep.
func (h *Handlers) lastAudit(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.audit.Last()
	if !ok {
		writeErr(w, 404, errors.New("no audit has completed yet"))
		return
	}
	writeReport(w, rep)
}

func writeReport(w http.ResponseWriter, rep scheduler.Report) {
	writeJSON(w, 200, map[string]any{
		"checked": rep.Checked,
		"count":   len(rep.Cyclic),
		"results": rep.Cyclic,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
