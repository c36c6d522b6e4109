package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/config"
	"github.com/mcdev12/draftturn/go/internal/draft/gateway"
	"github.com/mcdev12/draftturn/go/internal/draft/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newGatewayCmd(opts *rootOptions) *cobra.Command {
	var (
		apiURL   string
		instance string
	)
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run a standalone websocket gateway fed by JetStream",
		Long: `Serves /ws/drafts/{draftID} and /drafts/{draftID}/snapshot. Snapshots are read
from a draftturn server over RPC (--api) or from the configured store.
Each instance needs its own JetStream consumer, named by --instance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runGateway(ctx, opts.cfg, apiURL, instance)
		},
	}
	hostname, _ := os.Hostname()
	cmd.Flags().StringVar(&apiURL, "api", "", "base URL of a draftturn server")
	cmd.Flags().StringVar(&instance, "instance", hostname, "unique gateway instance name")
	return cmd
}

func runGateway(ctx context.Context, cfg *config.Config, apiURL, instance string) error {
	var source gateway.SnapshotSource
	if apiURL != "" {
		source = service.NewClient(http.DefaultClient, apiURL)
	} else {
		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()
		source = rt.engine
	}

	rdb, err := newRedis(ctx, cfg.Gateway.RedisAddr)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	js, err := newJetStream(ctx, cfg.Notifier)
	if err != nil {
		return err
	}
	defer js.Close()

	gwCfg := gatewayConfig(cfg.Gateway.SnapshotTTL)
	gwCfg.JetStreamConfig.StreamName = cfg.Notifier.StreamName
	gwCfg.JetStreamConfig.ConsumerName = fmt.Sprintf("draft-gateway-%s", instance)

	gw := gateway.NewService(gwCfg, source, rdb, clockwork.NewRealClock())
	go gw.Start(ctx)
	go func() {
		if err := gw.Consumer().ConsumeJetStream(ctx, js.JetStream(), gwCfg.JetStreamConfig); err != nil {
			log.Error().Err(err).Msg("gateway consumer stopped")
		}
	}()

	r := chi.NewRouter()
	gw.RegisterRoutes(r)
	return serveUntilDone(ctx, setupServer(r, cfg.Gateway.Port, serverOrigins(cfg.Server)))
}

func gatewayConfig(ttl time.Duration) gateway.Config {
	gwCfg := gateway.DefaultConfig()
	if ttl > 0 {
		gwCfg.SnapshotTTL = ttl
	}
	return gwCfg
}
