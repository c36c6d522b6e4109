package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/config"
	"github.com/mcdev12/draftturn/go/internal/draft/engine"
	"github.com/mcdev12/draftturn/go/internal/draft/memstore"
	"github.com/mcdev12/draftturn/go/internal/draft/notify"
	"github.com/mcdev12/draftturn/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftturn/go/internal/draft/repository"
	"github.com/mcdev12/draftturn/go/internal/draft/service"
	"github.com/mcdev12/draftturn/go/internal/eligibility"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// draftStore is a store that also serves the pool reads of eligibility and
// auto-select and the pool writes of the RPC service.
type draftStore interface {
	engine.Store
	eligibility.Holdings
	orchestrator.Pool
	service.PoolWriter
}

var (
	_ draftStore = (*memstore.Store)(nil)
	_ draftStore = (*repository.Repository)(nil)
)

// runtime wires a local engine over the configured store and notifiers.
// Database → Store → Engine → Notifiers
type runtime struct {
	cfg       *config.Config
	clock     clockwork.Clock
	db        *sql.DB
	store     draftStore
	engine    *engine.Engine
	broker    *notify.Broker
	jetstream *notify.JetStreamPublisher
	notifiers *notify.Multi
	closers   []func() error
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{
		cfg:       cfg,
		clock:     clockwork.NewRealClock(),
		notifiers: &notify.Multi{},
	}

	switch cfg.Store {
	case config.StorePostgres:
		database, err := setupDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		rt.db = database
		rt.closers = append(rt.closers, database.Close)
		rt.store = repository.NewRepository(database, rt.clock)
	default:
		log.Warn().Msg("using in-memory draft store; state is lost on exit")
		rt.store = memstore.New(rt.clock)
	}

	rt.broker = notify.NewBroker(rt.clock)
	*rt.notifiers = append(*rt.notifiers, rt.broker)

	if cfg.HasBackend(config.NotifierPGNotify) {
		*rt.notifiers = append(*rt.notifiers, notify.NewPGNotifier(rt.db, cfg.Notifier.Channel, rt.clock))
	}
	if cfg.HasBackend(config.NotifierJetStream) {
		js, err := newJetStream(ctx, cfg.Notifier)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.jetstream = js
		rt.closers = append(rt.closers, js.Close)
		*rt.notifiers = append(*rt.notifiers, notify.AsNotifier(js, rt.clock))
	}

	checker := eligibility.NewCategoryCapChecker(rt.store)
	rt.engine = engine.New(rt.store, checker,
		engine.WithClock(rt.clock),
		engine.WithNotifier(rt.notifiers),
		engine.WithSampler(orchestrator.NewRandomStrategy(rt.store, checker)),
		engine.WithEligibilityTimeout(cfg.Server.EligibilityTimeout),
	)
	return rt, nil
}

// newOrchestrator builds a resolver loop and subscribes it to local changes.
func (rt *runtime) newOrchestrator(resolver orchestrator.Resolver) *orchestrator.Orchestrator {
	orch := newOrchestrator(resolver, rt.cfg.Resolver, rt.clock)
	*rt.notifiers = append(*rt.notifiers, orch)
	return orch
}

// apiHandler serves the draft RPC surface over the local engine and store.
func (rt *runtime) apiHandler() (string, http.Handler) {
	return service.NewHandler(service.NewService(rt.engine, rt.store, rt.clock))
}

func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newOrchestrator(resolver orchestrator.Resolver, cfg config.ResolverConfig, clock clockwork.Clock) *orchestrator.Orchestrator {
	return orchestrator.NewOrchestrator(resolver, orchestrator.Config{
		Workers:      cfg.Workers,
		MaxSleep:     cfg.MaxSleep,
		ErrorBackoff: cfg.ErrorBackoff,
	}, orchestrator.WithClock(clock))
}

func newJetStream(ctx context.Context, cfg config.NotifierConfig) (*notify.JetStreamPublisher, error) {
	jsCfg := notify.DefaultJetStreamConfig()
	if cfg.NATSURL != "" {
		jsCfg.URL = cfg.NATSURL
	}
	if cfg.StreamName != "" {
		jsCfg.StreamName = cfg.StreamName
	}
	js, err := notify.NewJetStreamPublisher(ctx, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("create JetStream publisher: %w", err)
	}
	return js, nil
}

// newRedis returns nil when no address is configured, which disables snapshot caching.
func newRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info().Str("addr", addr).Msg("connected to redis")
	return rdb, nil
}
