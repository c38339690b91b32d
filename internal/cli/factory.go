package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/relay/internal/compiler"
	"github.com/aretw0/relay/internal/config"
	"github.com/aretw0/relay/internal/logging"
	"github.com/aretw0/relay/pkg/adapters/anthropic"
	"github.com/aretw0/relay/pkg/adapters/file"
	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/adapters/redis"
	"github.com/aretw0/relay/pkg/adapters/sqlite"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/observability"
	"github.com/aretw0/relay/pkg/persistence/middleware"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/aretw0/relay/pkg/retry"
	"github.com/aretw0/relay/pkg/session"
	"github.com/aretw0/relay/pkg/workflows"
)

// App bundles the collaborators every front-end needs.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Manager  *session.Manager
	Deps     workflows.Deps
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	closers []func() error
}

// AppOption configures NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	logger   *slog.Logger
	pipeline string
	system   string
	hooks    []domain.LifecycleHooks
	offline  bool
}

// WithHooks adds lifecycle hooks to every run, after metrics and audit logging.
func WithHooks(hooks ...domain.LifecycleHooks) AppOption {
	return func(o *appOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithOffline forces the deterministic generator regardless of the configuration.
func WithOffline() AppOption {
	return func(o *appOptions) {
		o.offline = true
	}
}

// WithLogger overrides the logger derived from the configuration.
func WithLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithPipelineFile replaces the graph of system with the pipeline compiled from path.
func WithPipelineFile(system, path string) AppOption {
	return func(o *appOptions) {
		o.system = system
		o.pipeline = path
	}
}

// NewApp initializes an App with standard CLI conventions.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Logger: o.logger, Registry: prometheus.NewRegistry()}
	if app.Logger == nil {
		logger, err := NewLogger(cfg)
		if err != nil {
			return nil, err
		}
		app.Logger = logger
	}

	if o.offline {
		offline := *cfg
		offline.Generator.Provider = config.ProviderOffline
		cfg = &offline
		app.Config = cfg
	}
	main, fast, err := NewGenerators(cfg, app.Logger)
	if err != nil {
		return nil, err
	}
	catalog := memory.NewCatalog()
	policy := Policy(cfg, app.Logger)
	app.Deps = workflows.Deps{
		Topics:        retry.Topics(catalog, policy),
		Retriever:     retry.Retriever(catalog, policy),
		Generator:     main,
		FastGenerator: fast,
		Logger:        app.Logger,
	}

	history, locker, closeHistory, err := NewHistory(cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeHistory)

	app.Metrics = observability.NewMetrics(app.Registry)
	managerOpts := []session.Option{
		session.WithLogger(app.Logger),
		session.WithMaxSteps(cfg.Runtime.MaxSteps),
		session.WithLifecycleHooks(domain.ChainHooks(append([]domain.LifecycleHooks{
			app.Metrics.Hooks(),
			observability.AuditHooks(app.Logger),
		}, o.hooks...)...)),
		session.WithPipeline(workflows.Options{
			MaxTopics: cfg.Pipeline.MaxTopics,
			Timeframe: cfg.Pipeline.Timeframe,
			Sentiment: cfg.Pipeline.Sentiment,
			Edit:      cfg.Pipeline.Edit,
		}),
	}
	if locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(locker, cfg.Runtime.Timeout))
	}
	if o.pipeline != "" {
		p, err := compiler.CompileFile(o.pipeline, registry.Agents(app.Deps))
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		managerOpts = append(managerOpts, session.WithGraph(o.system, p.Graph))
		if p.MaxSteps > 0 {
			managerOpts = append(managerOpts, session.WithMaxSteps(p.MaxSteps))
		}
	}

	app.Manager, err = session.NewManager(app.Deps, history, managerOpts...)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// Close releases the history backend.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if c != nil {
			errs = append(errs, c())
		}
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger described by cfg.Log.
func NewLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(level, cfg.Log.Format), nil
}

// Policy derives the retry policy of collaborator calls from cfg.Runtime.
func Policy(cfg *config.Config, logger *slog.Logger) retry.Policy {
	return retry.Policy{
		Attempts: cfg.Runtime.Retries + 1,
		Initial:  cfg.Runtime.Backoff,
		Max:      cfg.Runtime.MaxBackoff,
		OnRetry: func(err error, wait time.Duration) {
			logger.Warn("Retrying collaborator call", "wait", wait, "err", err)
		},
	}
}

// NewGenerators returns the main and fast generators, both wrapped with retries.
// Without an API key, or with the offline provider, both are deterministic.
func NewGenerators(cfg *config.Config, logger *slog.Logger) (main, fast ports.Generator, err error) {
	if cfg.Offline() {
		logger.Info("Using offline generator", "provider", cfg.Generator.Provider)
		g := memory.NewGenerator()
		return g, g, nil
	}

	opts := []anthropic.Option{
		anthropic.WithModel(cfg.Generator.Model),
		anthropic.WithMaxTokens(cfg.Generator.MaxTokens),
		anthropic.WithTemperature(cfg.Generator.Temperature),
	}
	m, err := anthropic.New(cfg.Generator.APIKey, opts...)
	if err != nil {
		return nil, nil, err
	}
	main = retry.Generator(m, Policy(cfg, logger))
	if cfg.Generator.FastModel == "" {
		return main, main, nil
	}

	f, err := anthropic.New(cfg.Generator.APIKey, append(opts, anthropic.WithModel(cfg.Generator.FastModel))...)
	if err != nil {
		return nil, nil, err
	}
	return main, retry.Generator(f, Policy(cfg, logger)), nil
}

// NewHistory opens the history backend selected by cfg.History.Backend.
// Only the redis backend provides a distributed Locker.
func NewHistory(cfg *config.Config) (ports.HistoryStore, ports.Locker, func() error, error) {
	store, locker, closeFn, err := openHistory(cfg.History)
	if err != nil {
		return nil, nil, nil, err
	}
	mws, err := historyMiddleware(cfg.History)
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, nil, nil, err
	}
	return middleware.Chain(store, mws...), locker, closeFn, nil
}

func openHistory(h config.HistoryConfig) (ports.HistoryStore, ports.Locker, func() error, error) {
	switch h.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil, nil, nil
	case config.BackendFile:
		return file.New(h.Path), nil, nil, nil
	case config.BackendSQLite:
		store, err := sqlite.Open(h.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, store.Close, nil
	case config.BackendRedis:
		store := redis.New(h.Redis.Addr, h.Redis.Password, h.Redis.DB,
			redis.WithTTL(h.Redis.TTL),
			redis.WithPrefix(h.Redis.Prefix),
		)
		return store, redis.NewLocker(store.Client(), h.Redis.Prefix), store.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: history.backend %q", config.ErrInvalid, h.Backend)
	}
}

// historyMiddleware redacts records first and then seals them.
func historyMiddleware(h config.HistoryConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(h.Redact) > 0 {
		redact, err := middleware.NewPIIMiddleware(h.Redact)
		if err != nil {
			return nil, fmt.Errorf("%w: history.redact: %v", config.ErrInvalid, err)
		}
		mws = append(mws, redact)
	}
	if h.EncryptionKey == "" {
		return mws, nil
	}
	active, err := decodeKey(h.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: history.encryption_key: %v", config.ErrInvalid, err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range h.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("%w: history.fallback_keys[%d]: %v", config.ErrInvalid, i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	seal, err := middleware.NewEncryptionMiddleware(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	return append(mws, seal), nil
}

func decodeKey(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
}
