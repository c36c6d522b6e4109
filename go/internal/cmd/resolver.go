package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/draftturn/go/internal/config"
	"github.com/mcdev12/draftturn/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftturn/go/internal/draft/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newResolverCmd(opts *rootOptions) *cobra.Command {
	var apiURL string
	cmd := &cobra.Command{
		Use:   "resolver",
		Short: "Run only the timeout resolver",
		Long: `Runs the timeout resolver loop. With --api it drives a remote draftturn
server over RPC; otherwise it opens the configured store directly.
Change events from JetStream wake it early when the jetstream notifier is enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runResolver(ctx, opts.cfg, apiURL)
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "", "base URL of a draftturn server (e.g. http://localhost:8080)")
	return cmd
}

func runResolver(ctx context.Context, cfg *config.Config, apiURL string) error {
	var orch *orchestrator.Orchestrator
	if apiURL != "" {
		client := service.NewClient(http.DefaultClient, apiURL)
		orch = newOrchestrator(client, cfg.Resolver, clockwork.NewRealClock())
		log.Info().Str("api", apiURL).Msg("resolving timeouts through remote API")
	} else {
		rt, err := newRuntime(ctx, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()
		orch = rt.newOrchestrator(rt.engine)
	}

	if cfg.HasBackend(config.NotifierJetStream) {
		js, err := newJetStream(ctx, cfg.Notifier)
		if err != nil {
			return err
		}
		defer js.Close()

		consumerCfg := orchestrator.DefaultConsumerConfig()
		consumerCfg.StreamName = cfg.Notifier.StreamName
		go func() {
			if err := orch.ConsumeChanges(ctx, js.JetStream(), consumerCfg); err != nil {
				log.Error().Err(err).Msg("change consumer stopped")
			}
		}()
	}

	return orch.RunScheduler(ctx)
}
