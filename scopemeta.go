// Package scopemeta resolves per-language editing metadata, indentation
// trigger patterns, comment markers, and shell variables, for scope stacks.
//
// A Resolver loads metadata files (.tmPreferences property lists, plus
// JSON, TOML, and YAML equivalents) from folders, merges them into a
// single collection, and answers queries:
//
//	r := scopemeta.New()
//	if err := r.LoadFolder("Packages"); err != nil {
//	    log.Fatal(err)
//	}
//	scoped, err := r.ForScopeString("source.go meta.block")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if scoped.IncreaseIndent("if x {") {
//	    // indent the next line
//	}
//
// The first folder loaded is the base layer; files inside it merge key by
// key per selector. Every later folder (and every file loaded with
// LoadFile) is an overlay whose selectors replace base selectors
// wholesale, which is how user overrides shadow stock packages. Watch
// keeps the collection current as files change on disk.
//
// The merge and query semantics live in the metadata package; scope
// parsing and selector scoring live in the scope package.
package scopemeta

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/dshills/scopemeta/internal/diag"
	"github.com/dshills/scopemeta/metadata"
	"github.com/dshills/scopemeta/scope"
	"github.com/dshills/scopemeta/settings"
	"github.com/dshills/scopemeta/watcher"
)

// ErrResolverClosed is returned by load operations after Close.
var ErrResolverClosed = errors.New("resolver closed")

// Resolver owns a metadata collection assembled from folders and files and
// answers scope queries against a consistent snapshot of it. All methods
// are safe for concurrent use.
type Resolver struct {
	logger   arbor.ILogger
	loader   *settings.Loader
	debounce time.Duration

	mu      sync.RWMutex
	meta    *metadata.Metadata
	folders []string
	files   []string
	fw      *watcher.Watcher
	closed  bool
	subs    []func(*metadata.Metadata)

	wg sync.WaitGroup
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for load diagnostics and reloads.
func WithLogger(logger arbor.ILogger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFileSystem loads metadata through fsys instead of the OS file
// system. Watch is unavailable on a custom file system.
func WithFileSystem(fsys settings.FileSystem) Option {
	return func(r *Resolver) { r.loader = settings.NewLoaderWithFS(fsys) }
}

// WithDebounce sets the quiet period for Watch reloads.
func WithDebounce(d time.Duration) Option {
	return func(r *Resolver) { r.debounce = d }
}

// New creates an empty resolver. Queries against it resolve nothing until
// a folder or file is loaded.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		logger:   diag.Logger(),
		debounce: 250 * time.Millisecond,
		meta:     &metadata.Metadata{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loader == nil {
		r.loader = settings.NewLoader()
	}
	return r
}

// LoadFolder loads every metadata file under dir and layers it onto the
// collection. Folders are replayed in load order whenever the collection
// is rebuilt, so call order decides which overlay wins. If the resolver is
// watching, the new folder joins the watch.
func (r *Resolver) LoadFolder(dir string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrResolverClosed
	}

	folders := append(append([]string(nil), r.folders...), dir)
	meta, err := r.build(r.logger, folders, r.files)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.folders = folders
	r.meta = meta
	fw := r.fw
	r.mu.Unlock()

	if fw != nil {
		if err := fw.Add(dir); err != nil {
			r.logger.Warn().Str("folder", dir).Err(err).Msg("Failed to watch folder")
		}
	}
	r.notify(meta)
	return nil
}

// LoadFile layers a single metadata file onto the collection as an
// overlay. The file is replayed after every folder on rebuilds.
func (r *Resolver) LoadFile(path string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrResolverClosed
	}

	// validate the file before tracking it
	probe := metadata.NewAccumulator(r.logger)
	if err := probe.AddFile(r.loader, path); err != nil {
		r.mu.Unlock()
		return err
	}

	files := append(append([]string(nil), r.files...), path)
	meta, err := r.build(r.logger, r.folders, files)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.files = files
	r.meta = meta
	r.mu.Unlock()

	r.notify(meta)
	return nil
}

// Metadata returns the current collection. Callers must treat it as
// read-only; Clone it before mutating.
func (r *Resolver) Metadata() *metadata.Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.meta
}

// ForScope resolves metadata for a scope stack against the current
// collection.
func (r *Resolver) ForScope(stack scope.Stack) metadata.ScopedMetadata {
	return r.Metadata().ForScope(stack)
}

// ForScopeString parses a space-separated scope stack, innermost scope
// last, and resolves it.
func (r *Resolver) ForScopeString(s string) (metadata.ScopedMetadata, error) {
	stack, err := scope.ParseStack(s)
	if err != nil {
		return metadata.ScopedMetadata{}, err
	}
	return r.ForScope(stack), nil
}

// OnReload registers fn to run after every metadata swap, whether from a
// manual load or a watch reload. Callbacks run synchronously on the
// loading goroutine and receive the new collection.
func (r *Resolver) OnReload(fn func(*metadata.Metadata)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

func (r *Resolver) notify(meta *metadata.Metadata) {
	r.mu.RLock()
	subs := make([]func(*metadata.Metadata), len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	for _, fn := range subs {
		fn(meta)
	}
}

// build assembles a fresh collection from the given sources. The first
// source is the base; every later folder or file overlays it. Files that
// fail to load during a rebuild are logged and skipped so one bad write
// cannot empty the collection.
func (r *Resolver) build(logger arbor.ILogger, folders, files []string) (*metadata.Metadata, error) {
	var meta *metadata.Metadata

	for _, dir := range folders {
		acc := metadata.NewAccumulator(logger)
		if err := r.accumulateFolder(logger, acc, dir); err != nil {
			return nil, err
		}
		if meta == nil {
			meta = acc.Merge()
		} else {
			meta = meta.MergeRaw(acc)
		}
	}

	for _, path := range files {
		acc := metadata.NewAccumulator(logger)
		if err := acc.AddFile(r.loader, path); err != nil {
			logger.Warn().Str("path", path).Err(err).Msg("Skipping metadata file")
			continue
		}
		if meta == nil {
			meta = acc.Merge()
		} else {
			meta = meta.MergeRaw(acc)
		}
	}

	if meta == nil {
		meta = &metadata.Metadata{}
	}
	return meta, nil
}

// accumulateFolder walks dir and adds every file in a recognized settings
// format. Hidden directories are skipped. Files that fail to parse are
// logged and skipped; only the walk itself fails the folder.
func (r *Resolver) accumulateFolder(logger arbor.ILogger, acc *metadata.Accumulator, dir string) error {
	err := fs.WalkDir(r.loader.FS(), dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if _, ok := settings.FormatForPath(path); !ok {
			return nil
		}
		if err := acc.AddFile(r.loader, path); err != nil {
			logger.Warn().Str("path", path).Err(err).Msg("Skipping metadata file")
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading metadata folder %s: %w", dir, err)
	}
	return nil
}
