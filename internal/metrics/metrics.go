// Package metrics holds the Prometheus collectors for pipeline analysis.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/edkuperman/pipelinedag/internal/dag"
)

// Analysis sources.
const (
	SourceRequest = "request"
	SourceStored  = "stored"
	SourceAudit   = "audit"
)

var sizeBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 1000, 10000}

type Metrics struct {
	analyses      *prometheus.CounterVec
	graphNodes    prometheus.Histogram
	graphEdges    prometheus.Histogram
	cycleNodes    prometheus.Histogram
	analysisTime  prometheus.Histogram
	auditSweeps   *prometheus.CounterVec
	auditDuration prometheus.Histogram
}

// New registers the collectors with reg. A nil reg leaves them unregistered,
// which tests use to avoid clashes.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pipelinedag_analyses_total",
			Help: "Pipelines analyzed, by source and result.",
		}, []string{"source", "result"}),
		graphNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipelinedag_graph_nodes",
			Help:    "Nodes per analyzed pipeline.",
			Buckets: sizeBuckets,
		}),
		graphEdges: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipelinedag_graph_edges",
			Help:    "Edges per analyzed pipeline.",
			Buckets: sizeBuckets,
		}),
		cycleNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipelinedag_cycle_nodes",
			Help:    "Nodes left on cycles after pruning, for cyclic pipelines.",
			Buckets: sizeBuckets,
		}),
		analysisTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pipelinedag_analysis_duration_seconds",
			Help:    "Time spent in a single analysis.",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}),
		auditSweeps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pipelinedag_audit_sweeps_total",
			Help: "Audit sweeps over stored pipelines, by outcome.",
		}, []string{"outcome"}),
		auditDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "pipelinedag_audit_duration_seconds",
			Help: "Duration of audit sweeps.",
		}),
	}
}

// Observe records one analysis. Safe on a nil receiver.
func (m *Metrics) Observe(source string, a dag.Analysis, took time.Duration) {
	if m == nil {
		return
	}
	result := "dag"
	if !a.IsDAG {
		result = "cycle"
		if a.Cycles != nil {
			m.cycleNodes.Observe(float64(len(a.Cycles.CycleNodeIDs)))
		}
	}
	m.analyses.WithLabelValues(source, result).Inc()
	m.graphNodes.Observe(float64(a.NumNodes))
	m.graphEdges.Observe(float64(a.NumEdges))
	m.analysisTime.Observe(took.Seconds())
}

// ObserveSweep records one audit sweep. Safe on a nil receiver.
func (m *Metrics) ObserveSweep(err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.auditSweeps.WithLabelValues(outcome).Inc()
	m.auditDuration.Observe(took.Seconds())
}
