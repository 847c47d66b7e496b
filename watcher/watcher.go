// Package watcher delivers debounced change notifications for metadata
// files. It watches directories recursively, filters events down to
// recognized settings formats, and coalesces the bursts editors and
// package managers produce into single events per path.
package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ternarybob/arbor"

	"github.com/dshills/scopemeta/internal/diag"
	"github.com/dshills/scopemeta/settings"
)

// Watcher errors.
var (
	ErrWatcherClosed = errors.New("watcher closed")
	ErrPathNotExist  = errors.New("path does not exist")
)

// Op describes the file operations an event carries. Coalesced events can
// carry several.
type Op uint8

// Operations.
const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Has reports whether op contains o.
func (op Op) Has(o Op) bool {
	return op&o != 0
}

// String returns a "create|write" style description.
func (op Op) String() string {
	var parts []string
	if op.Has(OpCreate) {
		parts = append(parts, "create")
	}
	if op.Has(OpWrite) {
		parts = append(parts, "write")
	}
	if op.Has(OpRemove) {
		parts = append(parts, "remove")
	}
	if op.Has(OpRename) {
		parts = append(parts, "rename")
	}
	if op.Has(OpChmod) {
		parts = append(parts, "chmod")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Event is one debounced change to a metadata file.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Config controls watcher behavior.
type Config struct {
	// Debounce is how long a path must stay quiet before its coalesced
	// event is delivered.
	Debounce time.Duration

	// Extensions limits events to paths with these extensions (compared
	// case-insensitively, leading dot included). Empty means every
	// extension the settings package can parse.
	Extensions []string

	// BufferSize is the capacity of the event channel.
	BufferSize int

	// Logger receives watch errors and drop notices.
	Logger arbor.ILogger
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		Debounce:   250 * time.Millisecond,
		BufferSize: 64,
	}
}

// Option adjusts watcher configuration.
type Option func(*Config)

// WithDebounce sets the quiet period before events are delivered.
func WithDebounce(d time.Duration) Option {
	return func(c *Config) { c.Debounce = d }
}

// WithExtensions limits events to the given file extensions.
func WithExtensions(exts ...string) Option {
	return func(c *Config) { c.Extensions = exts }
}

// WithBufferSize sets the event channel capacity.
func WithBufferSize(n int) Option {
	return func(c *Config) { c.BufferSize = n }
}

// WithLogger sets the logger for watch errors.
func WithLogger(logger arbor.ILogger) Option {
	return func(c *Config) { c.Logger = logger }
}

// Watcher watches metadata directories and emits debounced events.
type Watcher struct {
	fsw    *fsnotify.Watcher
	config Config
	logger arbor.ILogger

	mu      sync.Mutex
	pending map[string]*pendingEvent
	closed  bool

	events  chan Event
	closeCh chan struct{}
	wg      sync.WaitGroup
	// fireWg counts live pending entries so Close can wait out in-flight
	// deliveries before closing the event channel.
	fireWg sync.WaitGroup
}

// pendingEvent is a coalesced event waiting out its quiet period.
type pendingEvent struct {
	event Event
	timer *time.Timer
	ops   Op
}

// New creates a watcher. It starts delivering events once directories are
// added with Add.
func New(opts ...Option) (*Watcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Debounce <= 0 {
		config.Debounce = 250 * time.Millisecond
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 64
	}
	if config.Logger == nil {
		config.Logger = diag.Logger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		config:  config,
		logger:  config.Logger,
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, config.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Add watches path. Directories are watched recursively; hidden
// directories are skipped. A plain file is watched directly.
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	w.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return w.fsw.Add(absPath)
	}

	return filepath.WalkDir(absPath, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if base := filepath.Base(p); p != absPath && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(p); addErr != nil {
			w.logger.Warn().Str("path", p).Err(addErr).Msg("Failed to watch directory")
		}
		return nil
	})
}

// Events returns the debounced event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Flush fires every pending event immediately.
func (w *Watcher) Flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path, p := range w.pending {
		p.timer.Stop()
		paths = append(paths, path)
	}
	w.mu.Unlock()

	for _, path := range paths {
		w.fire(path)
	}
}

// Close stops the watcher and closes the event channel. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
		w.fireWg.Done()
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	w.fireWg.Wait()
	close(w.events)
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Watch error")
		}
	}
}

func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	// New directories under a watched tree get watched too; directory
	// events themselves are not delivered.
	if op.Has(OpCreate) {
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			if err := w.Add(fsEvent.Name); err != nil && !errors.Is(err, ErrWatcherClosed) {
				w.logger.Warn().Str("path", fsEvent.Name).Err(err).Msg("Failed to watch new directory")
			}
			return
		}
	}

	if !w.wantsPath(fsEvent.Name) {
		return
	}

	w.debounce(Event{Path: fsEvent.Name, Op: op, Time: time.Now()})
}

// wantsPath reports whether events for path should be delivered.
func (w *Watcher) wantsPath(path string) bool {
	if len(w.config.Extensions) == 0 {
		_, ok := settings.FormatForPath(path)
		return ok
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.config.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// debounce coalesces the event with any pending one for the same path and
// restarts its quiet period.
func (w *Watcher) debounce(event Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if p, exists := w.pending[event.Path]; exists {
		p.ops |= event.Op
		p.event.Op = p.ops
		p.event.Time = event.Time
		p.timer.Reset(w.config.Debounce)
		return
	}

	p := &pendingEvent{event: event, ops: event.Op}
	p.timer = time.AfterFunc(w.config.Debounce, func() {
		w.fire(event.Path)
	})
	w.pending[event.Path] = p
	w.fireWg.Add(1)
}

// fire delivers the pending event for path, if it is still pending.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	p, exists := w.pending[path]
	if !exists {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	event := p.event
	w.mu.Unlock()
	defer w.fireWg.Done()

	select {
	case w.events <- event:
	case <-w.closeCh:
	default:
		w.logger.Warn().Str("path", event.Path).Msg("Event channel full, dropping event")
	}
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}
