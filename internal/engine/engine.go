// Package engine runs the monitoring loop: dispatch checks across sites with
// bounded concurrency, diff the results against the previous pass, and fan
// out notifications for newly available sizes.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hulikau/xxx-s-market-observer/internal/extract"
	"github.com/hulikau/xxx-s-market-observer/internal/notify"
	logx "github.com/hulikau/xxx-s-market-observer/pkg/logx"
)

// Deps are the engine's collaborators. Recorder and Metrics are optional.
type Deps struct {
	Registry  *extract.Registry
	Notifiers []notify.Notifier
	Recorder  Recorder
	Metrics   Metrics
	Log       logx.Logger
}

// Engine owns the monitoring session. One Run may be active at a time;
// manual cycles serialize against the loop through cycleMu.
type Engine struct {
	log       logx.Logger
	registry  *extract.Registry
	notifiers []notify.Notifier
	recorder  Recorder
	metrics   Metrics

	mu      sync.Mutex
	cfg     Config
	pending *Config
	client  *http.Client
	running bool
	stopCh  chan struct{}

	// cycleMu serializes cycles: the diff step and lastFinds are only ever
	// touched while it is held.
	cycleMu   sync.Mutex
	lastFinds map[string]extract.SizeSet

	stats statsCollector
}

func New(cfg Config, d Deps) *Engine {
	log := d.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	e := &Engine{
		log:       log,
		registry:  d.Registry,
		notifiers: d.Notifiers,
		recorder:  d.Recorder,
		metrics:   d.Metrics,
		lastFinds: map[string]extract.SizeSet{},
	}
	e.setConfig(cfg)
	return e
}

func (e *Engine) setConfig(cfg Config) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	e.cfg = cfg
	e.client = &http.Client{Timeout: timeout}
}

// Apply stages a new configuration. It takes effect at the next cycle
// boundary; an in-flight cycle always finishes under the config it started
// with.
func (e *Engine) Apply(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		e.setConfig(cfg)
		return
	}
	e.pending = &cfg
	e.log.Info("configuration staged for next cycle",
		logx.Int("sites", len(cfg.Targets)))
}

func (e *Engine) takePending() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending != nil {
		e.setConfig(*e.pending)
		e.pending = nil
		e.log.Info("configuration applied",
			logx.Int("sites", len(e.cfg.Targets)))
	}
}

func (e *Engine) config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

func (e *Engine) httpClient() *http.Client {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client
}

// Run blocks and executes monitoring cycles until ctx is canceled or Stop is
// called. A stop request never aborts an in-flight cycle; the loop exits at
// the next boundary. Returns ErrAlreadyRunning if a session is active.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	e.stopCh = make(chan struct{})
	stop := e.stopCh
	e.mu.Unlock()

	e.stats.reset(time.Now())
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	cfg := e.config()
	e.log.Info("monitoring started",
		logx.Int("sites", len(cfg.Targets)),
		logx.Int("max_concurrent", cfg.MaxConcurrent))

	for {
		e.takePending()
		cfg = e.config()

		sched, err := ParseSchedule(cfg.Schedule, cfg.Interval)
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}

		e.runCycle(ctx)

		// A stop or cancel observed during the cycle exits here, after
		// the barrier, never mid-cycle.
		select {
		case <-ctx.Done():
			e.log.Info("monitoring stopped", logx.String("reason", "context canceled"))
			return nil
		case <-stop:
			e.log.Info("monitoring stopped", logx.String("reason", "stop requested"))
			return nil
		default:
		}

		wait := sched.NextWait(time.Now())
		e.log.Debug("cycle complete, sleeping", logx.Duration("wait", wait))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			e.log.Info("monitoring stopped", logx.String("reason", "context canceled"))
			return nil
		case <-stop:
			timer.Stop()
			e.log.Info("monitoring stopped", logx.String("reason", "stop requested"))
			return nil
		case <-timer.C:
		}
	}
}

// Stop requests a graceful shutdown of the running session. Safe to call
// multiple times and when not running.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		e.log.Debug("stop requested but monitor is not running")
		return
	}
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
}

// Running reports whether a monitoring session is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// RunOneCycle executes a single full monitoring cycle with diffing and
// notifications, then returns. Used for one-shot CLI runs and the manual
// trigger endpoint; it serializes against the background loop.
func (e *Engine) RunOneCycle(ctx context.Context) {
	e.runCycle(ctx)
}

// CheckSingleSite checks every URL of one site without touching the dedup
// state or sending notifications. Returns ErrSiteNotFound for unknown names.
func (e *Engine) CheckSingleSite(ctx context.Context, name string) ([]CheckResult, error) {
	cfg := e.config()
	var target *Target
	for i := range cfg.Targets {
		if cfg.Targets[i].Name == name {
			target = &cfg.Targets[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %q", ErrSiteNotFound, name)
	}
	return e.dispatch(ctx, cfg, []Target{*target}), nil
}

// StatsSnapshot returns a copy of the session counters. Counters only move
// at cycle boundaries, so a snapshot taken mid-cycle reflects the last
// completed one.
func (e *Engine) StatsSnapshot() Stats {
	return e.stats.snapshot()
}

// Targets returns the currently applied targets.
func (e *Engine) Targets() []Target {
	cfg := e.config()
	out := make([]Target, len(cfg.Targets))
	copy(out, cfg.Targets)
	return out
}

// runCycle performs one full pass: dispatch, barrier, diff, fan-out, record.
func (e *Engine) runCycle(ctx context.Context) {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	cfg := e.config()
	targets := enabledTargets(cfg.Targets)
	if len(targets) == 0 {
		e.log.Warn("no enabled sites, skipping cycle")
		return
	}

	started := time.Now()
	e.log.Info("cycle started", logx.Int("sites", len(targets)))

	results := e.dispatch(ctx, cfg, targets)
	events, succeeded, failed, newSizes := e.diffResults(results)
	notified := e.fanOut(ctx, events)

	finished := time.Now()
	e.stats.recordCycle(len(results), succeeded, failed, finished)
	if e.metrics != nil {
		e.metrics.ObserveCycle(finished.Sub(started))
	}
	if e.recorder != nil {
		if err := e.recorder.RecordCycle(ctx, CycleSummary{
			StartedAt:  started,
			FinishedAt: finished,
			Total:      len(results),
			Succeeded:  succeeded,
			Failed:     failed,
			NewSizes:   newSizes,
			Notified:   notified,
		}); err != nil {
			e.log.Warn("recording cycle failed", logx.Err(err))
		}
	}

	e.log.Info("cycle finished",
		logx.Int("checks", len(results)),
		logx.Int("succeeded", succeeded),
		logx.Int("failed", failed),
		logx.Int("new_sizes", newSizes),
		logx.Duration("elapsed", finished.Sub(started)))
}

func enabledTargets(all []Target) []Target {
	out := make([]Target, 0, len(all))
	for _, t := range all {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}
