package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-entries/store"
	"github.com/ViniZap4/lumi-entries/store/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dialect := store.DialectOf(cfg.Database.URL)
		dsn := strings.TrimPrefix(cfg.Database.URL, "sqlite://")

		if len(args) == 1 && args[0] == "down" {
			if err := migrations.Down(dialect, dsn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
			return nil
		}

		version, err := migrations.Up(dialect, dsn)
		if err != nil {
			return err
		}
		log.Info().Str("database", redact(cfg.Database.URL)).Uint("version", version).Msg("migrations applied")
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// redact hides the password of a postgres URL before it is logged.
func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
