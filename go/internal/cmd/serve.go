package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/mcdev12/draftturn/go/internal/draft/gateway"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the draft API, websocket gateway and timeout resolver in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg := opts.cfg
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	rdb, err := newRedis(ctx, cfg.Gateway.RedisAddr)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	gw := gateway.NewService(gatewayConfig(cfg.Gateway.SnapshotTTL), rt.engine, rdb, rt.clock)
	changes, unsubscribe := rt.broker.Subscribe(256)
	defer unsubscribe()
	go gw.Start(ctx)
	go func() {
		if err := gw.Consumer().ConsumeChannel(ctx, changes); err != nil {
			log.Error().Err(err).Msg("gateway consumer stopped")
		}
	}()

	if cfg.Resolver.Enabled {
		orch := rt.newOrchestrator(rt.engine)
		go func() {
			if err := orch.RunScheduler(ctx); err != nil {
				log.Error().Err(err).Msg("timeout resolver stopped")
			}
		}()
	}

	r := chi.NewRouter()
	path, handler := rt.apiHandler()
	r.Handle(path+"*", handler)
	gw.RegisterRoutes(r)

	log.Info().
		Str("store", cfg.Store).
		Strs("notifiers", cfg.Notifier.Backends).
		Bool("resolver", cfg.Resolver.Enabled).
		Msg("draftturn serving")
	return serveUntilDone(ctx, setupServer(r, cfg.Server.Port, serverOrigins(cfg.Server)))
}
