package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/edkuperman/pipelinedag/internal/config"
	"github.com/edkuperman/pipelinedag/internal/dag"
	"github.com/edkuperman/pipelinedag/internal/logging"
	"github.com/edkuperman/pipelinedag/internal/metrics"
)

// Finding is one stored pipeline that failed the acyclicity check.
type Finding struct {
	PipelineID string         `json:"pipeline_id"`
	Cycles     *dag.CycleInfo `json:"cycles"`
}

// Report summarizes one sweep. Cyclic keeps the listing order of the source.
type Report struct {
	Checked int       `json:"checked"`
	Cyclic  []Finding `json:"cyclic"`
}

// Scheduler audits stored pipelines for cycles, on demand or on a cron spec.
type Scheduler struct {
	src         dag.Source
	cron        *cron.Cron
	concurrency int
	metrics     *metrics.Metrics
	log         *slog.Logger

	mu   sync.Mutex
	last *Report
}

type Option func(*Scheduler)

func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option { return func(s *Scheduler) { s.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(s *Scheduler) { s.log = l } }

func New(src dag.Source, opts ...Option) *Scheduler {
	s := &Scheduler{
		src:         src,
		cron:        cron.New(cron.WithParser(config.CronParser)),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.Component(s.log, "scheduler")
	return s
}

// Register schedules a sweep on spec. Sweeps run with ctx and never overlap.
func (s *Scheduler) Register(ctx context.Context, spec string) error {
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("sweep failed", "err", err)
		}
	}))
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("register audit %q: %w", spec, err)
	}
	s.log.Info("registered audit", "cron", spec)
	return nil
}

// Sweep analyzes every stored pipeline and reports the cyclic ones.
func (s *Scheduler) Sweep(ctx context.Context) (Report, error) {
	start := time.Now()
	rep, err := s.sweep(ctx)
	s.metrics.ObserveSweep(err, time.Since(start))
	if err != nil {
		return Report{}, err
	}

	s.mu.Lock()
	s.last = &rep
	s.mu.Unlock()

	s.log.Info("sweep done", "checked", rep.Checked, "cyclic", len(rep.Cyclic), "took", time.Since(start))
	return rep, nil
}

func (s *Scheduler) sweep(ctx context.Context) (Report, error) {
	ids, err := s.src.Pipelines(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list pipelines: %w", err)
	}

	results := make([]*dag.CycleInfo, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			start := time.Now()
			res, err := dag.AnalyzeStored(gctx, s.src, id)
			if err != nil {
				return fmt.Errorf("pipeline %s: %w", id, err)
			}
			s.metrics.Observe(metrics.SourceAudit, res, time.Since(start))
			if !res.IsDAG {
				results[i] = res.Cycles
				s.log.Warn("cycle in stored pipeline", "pipeline", id, "cycle_path", res.Cycles.CyclePath)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{Checked: len(ids), Cyclic: []Finding{}}
	for i, info := range results {
		if info != nil {
			rep.Cyclic = append(rep.Cyclic, Finding{PipelineID: ids[i], Cycles: info})
		}
	}
	return rep, nil
}

// Last returns the most recent successful report, if any.
func (s *Scheduler) Last() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

func (s *Scheduler) Start() { s.cron.Start() }
func (s *Scheduler) Stop()  { <-s.cron.Stop().Done() }
