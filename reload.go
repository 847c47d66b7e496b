package scopemeta

import (
	"github.com/google/uuid"

	"github.com/dshills/scopemeta/watcher"
)

// Watch starts watching every loaded folder and rebuilds the collection
// when metadata files change. Folders loaded after Watch join the watch
// automatically. Calling Watch twice is a no-op.
func (r *Resolver) Watch() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrResolverClosed
	}
	if r.fw != nil {
		r.mu.Unlock()
		return nil
	}

	fw, err := watcher.New(
		watcher.WithDebounce(r.debounce),
		watcher.WithLogger(r.logger),
	)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.fw = fw
	folders := append([]string(nil), r.folders...)
	r.mu.Unlock()

	for _, dir := range folders {
		if err := fw.Add(dir); err != nil {
			r.logger.Warn().Str("folder", dir).Err(err).Msg("Failed to watch folder")
		}
	}

	r.wg.Add(1)
	go r.watchLoop(fw)
	return nil
}

func (r *Resolver) watchLoop(fw *watcher.Watcher) {
	defer r.wg.Done()
	for event := range fw.Events() {
		r.reload(event)
	}
}

// reload rebuilds the collection from every tracked source. Each reload
// gets its own correlation id so its log lines can be read as one unit.
// If the rebuild fails, the previous collection stays in place.
func (r *Resolver) reload(event watcher.Event) {
	logger := r.logger.WithCorrelationId(uuid.New().String())
	logger.Info().
		Str("path", event.Path).
		Str("op", event.Op.String()).
		Msg("Metadata changed, reloading")

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	meta, err := r.build(logger, r.folders, r.files)
	if err != nil {
		r.mu.Unlock()
		logger.Warn().Err(err).Msg("Reload failed, keeping previous metadata")
		return
	}
	r.meta = meta
	r.mu.Unlock()

	logger.Info().Int("sets", meta.Len()).Msg("Metadata reloaded")
	r.notify(meta)
}

// Close stops watching and releases the watcher. The resolver keeps its
// last collection and still answers queries; only loads are refused.
func (r *Resolver) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	fw := r.fw
	r.fw = nil
	r.mu.Unlock()

	var err error
	if fw != nil {
		err = fw.Close()
	}
	r.wg.Wait()
	return err
}
