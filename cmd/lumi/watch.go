package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-entries/ws"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print entry changes as they happen",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		err := newClient().Watch(ctx, func(msg ws.Message) {
			if msg.Entry == nil {
				return
			}
			switch msg.Type {
			case ws.EntryDeleted:
				fmt.Fprintf(out, "%s\t%d\n", msg.Type, msg.Entry.ID)
			default:
				fmt.Fprintf(out, "%s\t%d\t%s\n", msg.Type, msg.Entry.ID, msg.Entry.Title)
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
