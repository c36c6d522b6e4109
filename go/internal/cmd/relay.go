package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/draftturn/go/internal/config"
	"github.com/mcdev12/draftturn/go/internal/draft/notify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRelayCmd(opts *rootOptions) *cobra.Command {
	var healthPort string
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Relay Postgres change notifications to JetStream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runRelay(ctx, opts.cfg, healthPort)
		},
	}
	cmd.Flags().StringVar(&healthPort, "health-port", "8082", "port for the relay health endpoint (empty disables it)")
	return cmd
}

func runRelay(ctx context.Context, cfg *config.Config, healthPort string) error {
	dbCfg := cfg.Database.ForProcess("relay")
	database, err := setupDatabase(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer database.Close()

	publisher, err := newJetStream(ctx, cfg.Notifier)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("close publisher")
		}
	}()

	ltCfg := notify.DefaultListenerConfig()
	ltCfg.DatabaseURL = dbCfg.DSN()
	if cfg.Notifier.Channel != "" {
		ltCfg.NotifyChannel = cfg.Notifier.Channel
	}
	listener, err := notify.NewListener(publisher, ltCfg)
	if err != nil {
		return err
	}

	if healthPort != "" {
		checker := notify.NewRelayHealthChecker(listener, database, publisher)
		mux := http.NewServeMux()
		mux.Handle("/health", checker)
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%s", healthPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := serveUntilDone(ctx, srv); err != nil {
				log.Error().Err(err).Msg("relay health server stopped")
			}
		}()
	}

	log.Info().
		Str("channel", ltCfg.NotifyChannel).
		Str("database", cfg.Database.Database).
		Msg("starting change relay")
	return listener.Start(ctx)
}
