package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-entries/filesystem"
	"github.com/ViniZap4/lumi-entries/store"
)

var transferLocal bool

type entrySource interface {
	filesystem.Source
	filesystem.Sink
}

// openEntries returns the API client, or the database itself with --local.
func openEntries(ctx context.Context) (entrySource, func(), error) {
	if !transferLocal {
		return newClient(), func() {}, nil
	}
	st, err := store.Open(ctx, cfg.Database.URL, cfg.Database.AutoMigrate)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { st.Close() }, nil
}

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write every entry to <dir> as markdown with frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, closeFn, err := openEntries(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := filesystem.Export(cmd.Context(), src, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", n, args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Create or update entries from the markdown files in <dir>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst, closeFn, err := openEntries(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := filesystem.Import(cmd.Context(), dst, args[0])
		for _, path := range res.Skipped {
			log.Warn().Str("file", path).Msg("skipped")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d, skipped %d\n", res.Created, res.Updated, len(res.Skipped))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		c.Flags().BoolVar(&transferLocal, "local", false, "use the database directly instead of the API")
	}
	rootCmd.AddCommand(exportCmd, importCmd)
}
