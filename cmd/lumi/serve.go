package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	api "github.com/ViniZap4/lumi-entries/http"
	"github.com/ViniZap4/lumi-entries/logger"
	"github.com/ViniZap4/lumi-entries/store"
	"github.com/ViniZap4/lumi-entries/ws"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the entries API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != "" {
			cfg.Server.Port = servePort
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, cfg.Database.URL, cfg.Database.AutoMigrate)
		if err != nil {
			return err
		}
		defer st.Close()

		hub := ws.NewHub(logger.Component(log, "hub"))
		go hub.Run(ctx)

		app := api.NewApp(cfg.Server, api.NewServer(st, hub, logger.Component(log, "http")))

		errCh := make(chan error, 1)
		go func() {
			log.Info().
				Str("port", cfg.Server.Port).
				Str("database", redact(cfg.Database.URL)).
				Bool("auth", cfg.Server.TokenHash != "").
				Msg("server starting")
			errCh <- app.Listen(":" + cfg.Server.Port)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (default $LUMI_PORT or 3000)")
	rootCmd.AddCommand(serveCmd)
}
