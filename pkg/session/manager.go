package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/relay"
	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/aretw0/relay/pkg/report"
	"github.com/aretw0/relay/pkg/workflows"
)

var (
	// ErrEmptyTask is returned when the task is blank.
	ErrEmptyTask = errors.New("task cannot be empty")
	// ErrUnknownSystem is returned for a system name other than multi or single.
	ErrUnknownSystem = errors.New("unknown system")
)

// SummaryLength is the number of characters of the result kept in history.
const SummaryLength = 200

// Result is everything a front-end needs after a run.
type Result struct {
	Outcome domain.Outcome
	Report  report.Report
	Record  ports.RunRecord
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager runs systems and keeps their history.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	history ports.HistoryStore
	engines map[string]*relay.Engine

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker   ports.Locker
	lockTTL  time.Duration
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	maxSteps int
	pipeline workflows.Options
	graphs   map[string]*graph.Graph
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker serializes identical runs across processes.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(m *Manager) {
		m.locker = locker
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and its engines.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLifecycleHooks registers hooks on every engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithMaxSteps sets the step budget of every run.
func WithMaxSteps(n int) Option {
	return func(m *Manager) {
		m.maxSteps = n
	}
}

// WithPipeline toggles the optional multi-agent stages.
func WithPipeline(o workflows.Options) Option {
	return func(m *Manager) {
		m.pipeline = o
	}
}

// WithGraph replaces the built-in graph of a system, e.g. with a compiled
// pipeline. The graph must carry the task field of that system.
func WithGraph(system string, g *graph.Graph) Option {
	return func(m *Manager) {
		if g != nil {
			m.graphs[normalize(system)] = g
		}
	}
}

// NewManager builds the multi- and single-agent engines over deps.
func NewManager(deps workflows.Deps, history ports.HistoryStore, opts ...Option) (*Manager, error) {
	if history == nil {
		return nil, fmt.Errorf("history store is required")
	}
	m := &Manager{
		history: history,
		engines: make(map[string]*relay.Engine),
		locks:   make(map[string]*lockEntry),
		graphs:  make(map[string]*graph.Graph),
		lockTTL: 5 * time.Minute,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if deps.Logger == nil {
		deps.Logger = m.logger
	}

	for _, system := range []string{workflows.Multi, workflows.Single} {
		g, ok := m.graphs[system]
		if !ok {
			var err error
			if g, err = workflows.Build(system, deps, m.pipeline); err != nil {
				return nil, fmt.Errorf("build %s system: %w", system, err)
			}
		}
		if _, ok := g.Schema().Field(workflows.TaskField(system)); !ok {
			return nil, fmt.Errorf("%w: %s graph has no %q field", graph.ErrConstruction, system, workflows.TaskField(system))
		}
		eng, err := relay.New(g,
			relay.WithName(system),
			relay.WithLogger(m.logger),
			relay.WithLifecycleHooks(m.hooks),
			relay.WithMaxSteps(m.maxSteps),
		)
		if err != nil {
			return nil, err
		}
		m.engines[system] = eng
	}
	return m, nil
}

// Graph returns the graph of a system.
func (m *Manager) Graph(system string) (*graph.Graph, error) {
	eng, ok := m.engines[normalize(system)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSystem, system)
	}
	return eng.Graph(), nil
}

// Run executes the named system for task and records it.
// The error is non-nil only when the run could not start or its record could
// not be saved; failed runs are reported through Result.Outcome.
func (m *Manager) Run(ctx context.Context, system, task string) (Result, error) {
	system = normalize(system)
	task = strings.TrimSpace(task)
	if task == "" {
		return Result{}, ErrEmptyTask
	}
	eng, ok := m.engines[system]
	if !ok {
		return Result{}, fmt.Errorf("%w %q", ErrUnknownSystem, system)
	}

	var res Result
	err := m.WithLock(ctx, system, func(ctx context.Context) error {
		out, err := eng.Run(ctx, map[string]any{workflows.TaskField(system): task})
		if err != nil {
			return err
		}

		rep := report.FromOutcome(system, out)
		res = Result{Outcome: out, Report: rep, Record: record(rep, out)}

		m.logger.Info("Run recorded", "run_id", out.RunID, "system", system, "status", out.Status, "degraded", rep.Degraded)
		// The run is over; persisting it must survive caller cancellation.
		if err := m.history.Save(context.WithoutCancel(ctx), res.Record); err != nil {
			return fmt.Errorf("save run %s: %w", out.RunID, err)
		}
		return nil
	})
	return res, err
}

func record(rep report.Report, out domain.Outcome) ports.RunRecord {
	return ports.RunRecord{
		ID:         out.RunID,
		System:     rep.System,
		Task:       rep.Task,
		Success:    out.Done(),
		Status:     string(out.Status),
		Reason:     out.Reason,
		Diagnostic: rep.Status,
		Summary:    rep.Summary(SummaryLength),
		Report:     rep.Content,
		Path:       rep.Path,
		Steps:      out.Steps,
		StartedAt:  out.StartedAt,
		Duration:   out.Duration(),
	}
}

// History lists recent runs, most recent first.
func (m *Manager) History(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	return m.history.List(ctx, limit)
}

// Lookup loads one run record.
func (m *Manager) Lookup(ctx context.Context, id string) (ports.RunRecord, error) {
	return m.history.Load(ctx, id)
}

// Forget deletes one run record. Forgetting an unknown run is not an error.
func (m *Manager) Forget(ctx context.Context, id string) error {
	return m.history.Delete(ctx, id)
}

// Store returns the underlying history store.
func (m *Manager) Store() ports.HistoryStore {
	return m.history
}

func normalize(system string) string {
	s := strings.ToLower(strings.TrimSpace(system))
	if s == "" {
		return workflows.Multi
	}
	return s
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
