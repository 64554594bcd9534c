package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ViniZap4/lumi-entries/autosave"
	"github.com/ViniZap4/lumi-entries/domain"
	"github.com/ViniZap4/lumi-entries/logger"
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an entry line by line with autosave",
	Long: `Opens an entry and reads edits from standard input:

  :title <text>   set the title
  :switch <id>    save and open another entry
  :clear          empty the content
  :show           print the current buffer
  :status         print the save status
  :quit           save and exit (end of input does the same)

Any other line is appended to the content; start it with "::" to append a
line that begins with ":". Changes are saved a few seconds after the last
edit, and immediately when switching entries or exiting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		session := uuid.NewString()
		editLog := logger.Component(log, "editor").With().Str("session", session).Logger()
		ed := newEditor(newClient(), cmd.OutOrStdout(), editLog,
			autosave.WithDebounce(cfg.Autosave.Debounce),
			autosave.WithSavedDisplay(cfg.Autosave.SavedDisplay),
		)
		if err := ed.open(ctx, id); err != nil {
			return err
		}
		return ed.run(ctx, cmd.InOrStdin())
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}

type entryAPI interface {
	Get(ctx context.Context, id int64) (*domain.Note, error)
	autosave.Updater
}

type editor struct {
	api  entryAPI
	ctrl *autosave.Controller
	log  zerolog.Logger

	outMu   sync.Mutex
	out     io.Writer
	closing atomic.Bool
}

func newEditor(api entryAPI, out io.Writer, log zerolog.Logger, opts ...autosave.Option) *editor {
	e := &editor{api: api, out: out, log: log}
	opts = append(opts,
		autosave.WithLogger(log),
		autosave.OnStatus(e.statusChanged),
		autosave.OnError(func(err *autosave.WriteError) {
			e.printf("save failed: %v\n", err.Err)
		}),
	)
	e.ctrl = autosave.New(api, opts...)
	return e
}

func (e *editor) printf(format string, args ...any) {
	e.outMu.Lock()
	defer e.outMu.Unlock()
	fmt.Fprintf(e.out, format, args...)
}

// statusChanged prints the status it was called with; by the time the hook
// runs the controller may already have moved on.
func (e *editor) statusChanged(s autosave.Status) {
	if e.closing.Load() {
		return
	}
	label := s.Label()
	if label == "" {
		label = e.ctrl.Label(time.Now())
	}
	if label != "" {
		e.printf("[%s]\n", label)
	}
}

func (e *editor) open(ctx context.Context, id int64) error {
	note, err := e.api.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("open entry %d: %w", id, err)
	}
	e.ctrl.SetActiveNote(note)
	e.log.Debug().Int64("entry", id).Msg("opened")

	title := note.Title
	if title == "" {
		title = "(untitled)"
	}
	e.printf("editing %d: %s [%s]\n", note.ID, title, e.ctrl.Label(time.Now()))
	return nil
}

// handle applies one input line and reports whether the editor should exit.
func (e *editor) handle(ctx context.Context, line string) bool {
	if strings.HasPrefix(line, "::") {
		e.appendLine(line[1:])
		return false
	}
	if !strings.HasPrefix(line, ":") {
		e.appendLine(line)
		return false
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	switch name {
	case "q", "quit":
		return true
	case "title":
		e.ctrl.EditTitle(arg)
	case "clear":
		e.ctrl.EditContent("")
	case "switch":
		id, err := parseID(strings.TrimSpace(arg))
		if err != nil {
			e.printf("%v\n", err)
			return false
		}
		if err := e.open(ctx, id); err != nil {
			e.printf("%v\n", err)
		}
	case "show":
		title, content := e.ctrl.Buffer()
		e.printf("# %s\n%s", title, content)
	case "status":
		e.printf("[%s]\n", e.ctrl.Label(time.Now()))
	default:
		e.printf("unknown command %q\n", name)
	}
	return false
}

func (e *editor) appendLine(line string) {
	_, content := e.ctrl.Buffer()
	e.ctrl.EditContent(content + line + "\n")
}

// run reads lines until :quit, end of input or ctx is done, then saves.
func (e *editor) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if e.handle(ctx, line) {
				break loop
			}
		}
	}
	return e.close()
}

// close flushes unsaved edits and waits for them to land.
func (e *editor) close() error {
	e.closing.Store(true)
	e.ctrl.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.ctrl.Drain(ctx); err != nil {
		return fmt.Errorf("waiting for save: %w", err)
	}
	if err := e.ctrl.LastError(); err != nil {
		return err
	}
	e.log.Debug().Msg("closed")
	return nil
}
