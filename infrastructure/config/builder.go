package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	arrange "github.com/felixgeelhaar/arrange-go"
	"github.com/felixgeelhaar/arrange-go/application"
	"github.com/felixgeelhaar/arrange-go/domain/cache"
	"github.com/felixgeelhaar/arrange-go/domain/commit"
	domainconfig "github.com/felixgeelhaar/arrange-go/domain/config"
	"github.com/felixgeelhaar/arrange-go/domain/notification"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
	"github.com/felixgeelhaar/arrange-go/domain/telemetry"
	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
	infranotif "github.com/felixgeelhaar/arrange-go/infrastructure/notification"
	"github.com/felixgeelhaar/arrange-go/infrastructure/observability"
	"github.com/felixgeelhaar/arrange-go/infrastructure/processing"
	"github.com/felixgeelhaar/arrange-go/infrastructure/resilience"
	"github.com/felixgeelhaar/arrange-go/infrastructure/storage/badger"
	"github.com/felixgeelhaar/arrange-go/infrastructure/storage/memory"
	"github.com/felixgeelhaar/arrange-go/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/arrange-go/infrastructure/storage/redis"
	"github.com/felixgeelhaar/arrange-go/infrastructure/storage/sqlite"
	infratelemetry "github.com/felixgeelhaar/arrange-go/infrastructure/telemetry"
)

// Builder builds workspace components from configuration.
type Builder struct {
	config *domainconfig.StudioConfig
}

// NewBuilder creates a new configuration builder.
func NewBuilder(config *domainconfig.StudioConfig) *Builder {
	return &Builder{config: config}
}

// BuildResult contains the components built from configuration.
type BuildResult struct {
	// Client talks to the processing service.
	Client *processing.Client
	// Loader loads structures, through the cache when one is configured.
	Loader structure.Loader
	// Cache is the structure cache, nil when caching is off.
	Cache cache.Cache
	// History records commits, nil when history is off.
	History commit.Store
	// Notifier publishes session events.
	Notifier notification.Notifier
	// Tracer traces loads, commits and service calls.
	Tracer telemetry.Tracer
	// Recorder records session metrics.
	Recorder telemetry.Recorder
	// Workspace ties the components together.
	Workspace *application.Workspace

	closers []func(context.Context) error
}

// Close releases every backend opened by Build, in reverse order.
func (r *BuildResult) Close(ctx context.Context) error {
	r.logCacheStats()

	var errs []error
	if r.Workspace != nil {
		errs = append(errs, r.Workspace.Close(ctx))
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i](ctx))
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *BuildResult) logCacheStats() {
	sp, ok := r.Cache.(cache.StatsProvider)
	if !ok {
		return
	}
	stats := sp.Stats()
	logging.Debug().
		Add(logging.Component("cache")).
		Add(logging.Int("hits", int(stats.Hits))).
		Add(logging.Int("misses", int(stats.Misses))).
		Add(logging.Int("hit_percent", int(stats.HitRatio()*100))).
		Msg("structure cache closed")
}

func (r *BuildResult) onClose(fn func(context.Context) error) {
	r.closers = append(r.closers, fn)
}

func closeWith(fn func() error) func(context.Context) error {
	return func(context.Context) error { return fn() }
}

// Build builds the workspace and its backends. Backends opened before a
// failure are closed again.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	result := &BuildResult{}
	if err := b.build(ctx, result); err != nil {
		_ = result.Close(ctx)
		return nil, err
	}
	return result, nil
}

func (b *Builder) build(ctx context.Context, result *BuildResult) error {
	if err := b.buildTracing(result); err != nil {
		return fmt.Errorf("%w: tracing: %w", domainconfig.ErrBuildFailed, err)
	}
	b.buildRecorder(result)

	result.Client = processing.New(b.clientConfig(), processing.WithTracer(result.Tracer))
	result.Loader = result.Client

	if err := b.buildCache(ctx, result); err != nil {
		return fmt.Errorf("%w: cache: %w", domainconfig.ErrBuildFailed, err)
	}
	if err := b.buildHistory(ctx, result); err != nil {
		return fmt.Errorf("%w: history: %w", domainconfig.ErrBuildFailed, err)
	}
	b.buildNotification(result)

	opts := []application.WorkspaceOption{
		application.WithNotifier(result.Notifier),
		application.WithTracer(result.Tracer),
		application.WithRecorder(result.Recorder),
		application.WithReloadAfterCommit(b.config.Workspace.ReloadAfterCommit),
	}
	if result.History != nil {
		opts = append(opts, application.WithHistory(result.History))
	}

	ws, err := application.NewWorkspace(result.Loader, result.Client, opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", domainconfig.ErrBuildFailed, err)
	}
	result.Workspace = ws
	return nil
}

func (b *Builder) buildTracing(result *BuildResult) error {
	opts := append([]observability.Option{
		observability.WithServiceName(b.config.Name),
		observability.WithServiceVersion(arrange.Version),
	}, observability.FromTelemetryConfig(b.config.Telemetry)...)
	provider, err := observability.New(opts...)
	if err != nil {
		return err
	}
	result.Tracer = provider.Tracer()
	result.onClose(provider.Shutdown)
	return nil
}

func (b *Builder) buildRecorder(result *BuildResult) {
	mp := infratelemetry.NewMetricsProvider(infratelemetry.DefaultMetricsConfig())
	if err := mp.Error(); err != nil {
		logging.Warn().
			Add(logging.Component("metrics")).
			Add(logging.ErrorField(err)).
			Msg("metrics disabled")
		result.Recorder = telemetry.NoopRecorder{}
		return
	}
	result.Recorder = mp
}

func (b *Builder) clientConfig() processing.Config {
	svc := b.config.Service
	cfg := processing.DefaultConfig()
	cfg.BaseURL = svc.BaseURL
	cfg.Token = svc.Token
	cfg.ClientID = svc.ClientID
	cfg.Endpoints = processing.EndpointsFromConfig(svc.Endpoints)
	cfg.Resilience = ResilienceFrom(b.config.Resilience)
	return cfg
}

// ResilienceFrom maps the resilience section onto executor settings.
// Disabled patterns are configured so that they never engage.
func ResilienceFrom(cfg domainconfig.ResilienceConfig) resilience.ExecutorConfig {
	opts := []resilience.Option{resilience.WithTimeout(cfg.Timeout.Duration())}

	if cfg.Retry.Enabled {
		opts = append(opts, resilience.WithRetry(cfg.Retry.MaxAttempts,
			cfg.Retry.InitialDelay.Duration(), cfg.Retry.Multiplier))
	} else {
		opts = append(opts, resilience.WithoutRetry())
	}

	if cfg.CircuitBreaker.Enabled {
		opts = append(opts, resilience.WithCircuitBreaker(cfg.CircuitBreaker.Threshold,
			cfg.CircuitBreaker.Timeout.Duration()))
	} else {
		opts = append(opts, resilience.WithoutCircuitBreaker())
	}

	if cfg.Bulkhead.Enabled {
		opts = append(opts, resilience.WithMaxConcurrent(cfg.Bulkhead.MaxConcurrent))
	} else {
		opts = append(opts, resilience.WithoutBulkhead())
	}
	return resilience.NewConfig(opts...)
}

func (b *Builder) buildCache(ctx context.Context, result *BuildResult) error {
	cc := b.config.Cache

	var c cache.Cache
	switch cc.Backend {
	case "", "none":
		return nil
	case "memory":
		var opts []memory.CacheOption
		if cc.MaxSize > 0 {
			opts = append(opts, memory.WithMaxSize(cc.MaxSize))
		}
		c = memory.NewCache(opts...)
	case "redis":
		rc, err := redis.NewCache(redis.DefaultConfig(), redisOptions(cc.Redis)...)
		if err != nil {
			return err
		}
		result.onClose(closeWith(rc.Close))
		c = rc
	case "badger":
		bc, err := badger.NewCache(badger.DefaultConfig(), badger.WithDir(cc.Path))
		if err != nil {
			return err
		}
		result.onClose(closeWith(bc.Close))
		c = bc
	case "sqlite":
		sc, err := sqlite.NewCache(sqlite.DefaultConfig(), sqlite.WithDSN(cc.Path))
		if err != nil {
			return err
		}
		result.onClose(closeWith(sc.Close))
		c = sc
	default:
		return fmt.Errorf("unknown backend %q", cc.Backend)
	}

	if p, ok := c.(cache.Pruner); ok {
		if n, err := p.Prune(ctx); err != nil {
			logging.Warn().
				Add(logging.Component("cache")).
				Add(logging.ErrorField(err)).
				Msg("failed to prune structure cache")
		} else if n > 0 {
			logging.Info().
				Add(logging.Component("cache")).
				Add(logging.Int("pruned", n)).
				Msg("pruned expired structures")
		}
	}

	result.Cache = c
	result.Loader = application.NewCachingLoader(result.Client, c, cc.TTL.Duration())
	return nil
}

func (b *Builder) buildHistory(ctx context.Context, result *BuildResult) error {
	hc := b.config.History

	switch hc.Backend {
	case "", "none":
		return nil
	case "memory":
		result.History = memory.NewCommitStore()
	case "sqlite":
		store, err := sqlite.NewCommitStore(sqlite.DefaultConfig(), sqlite.WithDSN(hc.DSN))
		if err != nil {
			return err
		}
		result.onClose(closeWith(store.Close))
		result.History = store
	case "postgres":
		pool, err := postgres.NewPool(ctx, postgres.DefaultConfig(), postgres.WithDSN(hc.DSN))
		if err != nil {
			return err
		}
		result.onClose(func(context.Context) error {
			pool.Close()
			return nil
		})
		store := postgres.NewCommitStore(pool, hc.Schema)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		result.History = store
	case "redis":
		store, err := redis.NewCommitStore(redis.DefaultConfig(), redisOptions(hc.Redis)...)
		if err != nil {
			return err
		}
		result.onClose(closeWith(store.Close))
		result.History = store
	default:
		return fmt.Errorf("unknown backend %q", hc.Backend)
	}
	return nil
}

func redisOptions(rc domainconfig.RedisConfig) []redis.ConfigOption {
	opts := []redis.ConfigOption{
		redis.WithAddress(rc.Addr),
		redis.WithPassword(rc.Password),
		redis.WithDB(rc.DB),
	}
	if rc.Prefix != "" {
		opts = append(opts, redis.WithKeyPrefix(rc.Prefix))
	}
	return opts
}

func (b *Builder) buildNotification(result *BuildResult) {
	if !b.config.Notification.Enabled {
		result.Notifier = notification.NopNotifier{}
		return
	}

	notifier := infranotif.NewWebhookNotifier(infranotif.ConfigFromNotification(b.config.Notification))
	result.onClose(closeWith(notifier.Close))
	result.Notifier = notifier
}

// LoggingFrom maps the logging section onto logger settings.
func LoggingFrom(cfg domainconfig.LoggingConfig) logging.Config {
	out := logging.DefaultConfig()
	if cfg.Level != "" {
		out.Level = cfg.Level
	}
	if cfg.Format != "" {
		out.Format = cfg.Format
	}
	out.Output = os.Stderr
	return out
}

// DefaultConfig returns the default studio configuration.
func DefaultConfig() *domainconfig.StudioConfig {
	cfg := domainconfig.Default()
	return &cfg
}
