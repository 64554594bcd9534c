package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-entries/autosave"
	"github.com/ViniZap4/lumi-entries/domain"
)

var (
	createTitle   string
	createContent string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := newClient().List(cmd.Context())
		if err != nil {
			return err
		}
		printEntries(cmd.OutOrStdout(), entries, time.Now())
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		entry, err := newClient().Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := newClient().Create(cmd.Context(), domain.NoteInput{Title: createTitle, Content: createContent})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created entry %d\n", entry.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := newClient().Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted entry %d\n", id)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createTitle, "title", "t", "", "entry title")
	createCmd.Flags().StringVarP(&createContent, "content", "c", "", "entry content")
	rootCmd.AddCommand(listCmd, getCmd, createCmd, deleteCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid entry id %q", s)
	}
	return id, nil
}

func printEntries(w io.Writer, entries []*domain.Note, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tEDITED")
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID, title, autosave.FormatRelativeTime(now.Sub(e.UpdatedAt)))
	}
	tw.Flush()
}

func printEntry(w io.Writer, e *domain.Note) {
	fmt.Fprintf(w, "# %s\n", e.Title)
	fmt.Fprintf(w, "id %d, created %s, updated %s\n\n", e.ID,
		e.CreatedAt.Local().Format(time.DateTime), e.UpdatedAt.Local().Format(time.DateTime))
	fmt.Fprintln(w, e.Content)
}
