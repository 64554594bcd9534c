// Package autosave keeps the in-progress edits of one note and flushes them
// to the persistence service after a quiet period, or immediately when the
// edited note changes or the editor goes away.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-entries/domain"
)

const (
	DefaultDebounce     = 3 * time.Second
	DefaultSavedDisplay = 2 * time.Second
)

type Status int

const (
	StatusIdle Status = iota
	StatusSaving
	StatusSaved
)

func (s Status) String() string {
	switch s {
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	default:
		return "idle"
	}
}

// Updater persists a note's editable fields and returns the stored note.
type Updater interface {
	UpdateEntry(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error)
}

type UpdaterFunc func(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error)

func (f UpdaterFunc) UpdateEntry(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	return f(ctx, id, patch)
}

type Option func(*Controller)

func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

func WithSavedDisplay(d time.Duration) Option {
	return func(c *Controller) { c.savedDisplay = d }
}

func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithContext sets the context writes run under.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.ctx = ctx }
}

// OnStatus registers a hook called after every status change. Hooks run
// outside the controller's lock, possibly on a timer or writer goroutine.
func OnStatus(fn func(Status)) Option {
	return func(c *Controller) { c.onStatus = fn }
}

// OnError registers a hook for failed writes.
func OnError(fn func(*WriteError)) Option {
	return func(c *Controller) { c.onError = fn }
}

type buffer struct {
	noteID  int64
	title   string
	content string
}

type baseline struct {
	title     string
	content   string
	updatedAt time.Time
}

type writeRequest struct {
	noteID  int64
	title   string
	content string
	// session is the selection the request was made under; completions
	// from older sessions never touch the displayed status.
	session uint64
}

// Controller is safe for concurrent use. Writes happen one at a time on a
// goroutine owned by the controller.
type Controller struct {
	updater      Updater
	clock        Clock
	log          zerolog.Logger
	ctx          context.Context
	debounce     time.Duration
	savedDisplay time.Duration
	onStatus     func(Status)
	onError      func(*WriteError)

	mu       sync.Mutex
	buf      buffer
	base     baseline
	status   Status
	session  uint64
	disposed bool
	lastErr  error

	debounceSlot timerSlot
	revertSlot   timerSlot

	queue    []writeRequest
	inflight *writeRequest
	// idle is closed when the writer goroutine exits; nil when none runs.
	idle chan struct{}

	events []func()
}

func New(updater Updater, opts ...Option) *Controller {
	c := &Controller{
		updater:      updater,
		clock:        realClock{},
		log:          zerolog.Nop(),
		ctx:          context.Background(),
		debounce:     DefaultDebounce,
		savedDisplay: DefaultSavedDisplay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetActiveNote switches the edited note. Unsaved edits of the previous
// note are written immediately; pending timers are cancelled. Passing the
// note that is already active only refreshes its persisted baseline.
func (c *Controller) SetActiveNote(note *domain.Note) {
	c.mu.Lock()
	defer c.unlock()

	if c.disposed {
		return
	}

	var id int64
	if note != nil {
		id = note.ID
	}
	if id != 0 && id == c.buf.noteID {
		c.base = baseline{title: note.Title, content: note.Content, updatedAt: note.UpdatedAt}
		return
	}

	c.flushIfDirty()
	c.stopTimers()
	c.session++

	c.buf = buffer{noteID: id}
	c.base = baseline{}
	if note != nil {
		c.buf.title, c.buf.content = note.Title, note.Content
		c.base = baseline{title: note.Title, content: note.Content, updatedAt: note.UpdatedAt}
	}
	c.setStatus(StatusIdle)
}

// ActiveNoteID returns the id of the edited note, or 0.
func (c *Controller) ActiveNoteID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.noteID
}

// Buffer returns the current, possibly unsaved, title and content.
func (c *Controller) Buffer() (title, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.title, c.buf.content
}

// EditTitle replaces the buffered title and restarts the debounce timer.
// Every call restarts the timer, even when the value is unchanged.
func (c *Controller) EditTitle(text string) {
	c.edit(func(b *buffer) { b.title = text })
}

// EditContent replaces the buffered content and restarts the debounce timer.
func (c *Controller) EditContent(text string) {
	c.edit(func(b *buffer) { b.content = text })
}

func (c *Controller) edit(apply func(*buffer)) {
	c.mu.Lock()
	defer c.unlock()

	if c.disposed || c.buf.noteID == 0 {
		return
	}
	apply(&c.buf)

	if c.status == StatusSaved {
		c.revertSlot.stop()
		c.setStatus(StatusIdle)
	}
	seq := c.debounceSlot.arm(c.clock, c.debounce, c.debounceFired)
	c.log.Trace().Int64("note_id", c.buf.noteID).Uint64("seq", seq).Msg("debounce armed")
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the most recent write failure, or nil. A later
// successful write of the same note clears it.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Dispose flushes unsaved edits and cancels all timers. It does not wait
// for the flush to finish; use Drain for that. Calling it again is a no-op.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.unlock()

	if c.disposed {
		return
	}
	c.flushIfDirty()
	c.stopTimers()
	c.disposed = true
	c.session++
	c.setStatus(StatusIdle)
}

// Drain blocks until every queued and in-flight write has completed.
func (c *Controller) Drain(ctx context.Context) error {
	for {
		c.mu.Lock()
		idle := c.idle
		c.mu.Unlock()

		if idle == nil {
			return nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Controller) debounceFired(seq uint64) {
	c.mu.Lock()
	defer c.unlock()

	if c.disposed || !c.debounceSlot.fired(seq) {
		return
	}
	c.revertSlot.stop()
	c.setStatus(StatusSaving)
	c.enqueue(writeRequest{
		noteID:  c.buf.noteID,
		title:   c.buf.title,
		content: c.buf.content,
		session: c.session,
	})
}

func (c *Controller) revertFired(seq uint64) {
	c.mu.Lock()
	defer c.unlock()

	if !c.revertSlot.fired(seq) || c.status != StatusSaved {
		return
	}
	c.setStatus(StatusIdle)
}

// flushIfDirty queues a write of the buffer when it differs from the
// persisted fields of the active note. Caller holds c.mu.
func (c *Controller) flushIfDirty() {
	if c.buf.noteID == 0 {
		return
	}
	if c.buf.title == c.base.title && c.buf.content == c.base.content {
		return
	}
	req := writeRequest{noteID: c.buf.noteID, title: c.buf.title, content: c.buf.content, session: c.session}
	if c.inflight != nil && c.inflight.noteID == req.noteID &&
		c.inflight.title == req.title && c.inflight.content == req.content && !c.queuedFor(req.noteID) {
		return
	}
	c.log.Debug().Int64("note_id", req.noteID).Msg("flushing unsaved edits")
	c.enqueue(req)
}

func (c *Controller) queuedFor(noteID int64) bool {
	for _, q := range c.queue {
		if q.noteID == noteID {
			return true
		}
	}
	return false
}

// enqueue adds req to the write queue, replacing a queued request for the
// same note so only the newest buffer is written. Caller holds c.mu.
func (c *Controller) enqueue(req writeRequest) {
	replaced := false
	for i := range c.queue {
		if c.queue[i].noteID == req.noteID {
			c.queue[i] = req
			replaced = true
			break
		}
	}
	if !replaced {
		c.queue = append(c.queue, req)
	}

	if c.idle == nil {
		c.idle = make(chan struct{})
		go c.runWrites(c.idle)
	}
}

func (c *Controller) runWrites(done chan struct{}) {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.inflight = nil
			c.idle = nil
			c.unlock()
			close(done)
			return
		}
		req := c.queue[0]
		c.queue = c.queue[1:]
		c.inflight = &req
		if req.session == c.session && req.noteID == c.buf.noteID && !c.disposed {
			c.revertSlot.stop()
			c.setStatus(StatusSaving)
		}
		c.unlock()

		note, err := c.updater.UpdateEntry(c.ctx, req.noteID, domain.FullPatch(req.title, req.content))

		c.mu.Lock()
		c.finishWrite(req, note, err)
		c.unlock()
	}
}

// finishWrite applies the outcome of req. Caller holds c.mu.
func (c *Controller) finishWrite(req writeRequest, note *domain.Note, err error) {
	active := req.session == c.session && req.noteID == c.buf.noteID && !c.disposed

	if err != nil {
		werr := &WriteError{NoteID: req.noteID, Title: req.title, Content: req.content, Err: err}
		c.lastErr = werr
		c.log.Warn().Err(err).Int64("note_id", req.noteID).Msg("autosave write failed")
		if hook := c.onError; hook != nil {
			c.events = append(c.events, func() { hook(werr) })
		}
		if active {
			c.setStatus(StatusIdle)
		}
		return
	}

	if we, ok := c.lastErr.(*WriteError); ok && we.NoteID == req.noteID {
		c.lastErr = nil
	}
	c.log.Debug().Int64("note_id", req.noteID).Msg("autosave write succeeded")
	if !active {
		return
	}

	c.base.title, c.base.content = req.title, req.content
	if note != nil {
		c.base.updatedAt = note.UpdatedAt
	}
	c.setStatus(StatusSaved)
	c.revertSlot.arm(c.clock, c.savedDisplay, c.revertFired)
}

func (c *Controller) stopTimers() {
	c.debounceSlot.stop()
	c.revertSlot.stop()
}

// timerSlot holds at most one armed timer. seq changes on every arm and
// stop so a callback that already fired while the slot was re-armed or
// stopped can tell it is stale. Guarded by Controller.mu.
type timerSlot struct {
	t   Timer
	seq uint64
}

func (s *timerSlot) arm(clock Clock, d time.Duration, fn func(seq uint64)) uint64 {
	s.stop()
	seq := s.seq
	s.t = clock.AfterFunc(d, func() { fn(seq) })
	return seq
}

func (s *timerSlot) stop() {
	if s.t != nil {
		s.t.Stop()
		s.t = nil
	}
	s.seq++
}

// fired reports whether seq is the live timer and clears the slot if so.
func (s *timerSlot) fired(seq uint64) bool {
	if s.t == nil || seq != s.seq {
		return false
	}
	s.t = nil
	return true
}

// setStatus records s and queues the status hook. Caller holds c.mu.
func (c *Controller) setStatus(s Status) {
	if c.status == s {
		return
	}
	c.status = s
	if hook := c.onStatus; hook != nil {
		c.events = append(c.events, func() { hook(s) })
	}
}

// unlock releases c.mu and then runs queued hooks.
func (c *Controller) unlock() {
	events := c.events
	c.events = nil
	c.mu.Unlock()

	for _, fn := range events {
		fn()
	}
}
