package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-entries/client"
	"github.com/ViniZap4/lumi-entries/config"
	"github.com/ViniZap4/lumi-entries/logger"
)

var (
	cfg *config.Config
	log zerolog.Logger

	apiURL   string
	apiToken string
	dbURL    string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "lumi",
	Short: "Notes server and command line client",
	Long: `lumi serves a small notes API backed by SQLite or Postgres and talks to it
from the command line. "lumi edit" opens a note in a line editor that saves
automatically a few seconds after you stop typing.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		flags := cmd.Flags()
		if flags.Changed("api-url") {
			cfg.Client.APIURL = apiURL
		}
		if flags.Changed("token") {
			cfg.Client.Token = apiToken
		}
		if flags.Changed("database") {
			cfg.Database.URL = dbURL
		}
		if flags.Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		log = logger.New(cfg.Log)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&apiURL, "api-url", "", "API base URL (default $LUMI_API_URL or http://localhost:3000)")
	pf.StringVar(&apiToken, "token", "", "API token (default $LUMI_TOKEN)")
	pf.StringVar(&dbURL, "database", "", "SQLite path or postgres:// URL (default $LUMI_DATABASE_URL)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func newClient() *client.Client {
	return client.New(cfg.Client, logger.Component(log, "client"))
}
