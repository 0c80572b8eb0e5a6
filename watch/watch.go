// SPDX-License-Identifier: EPL-2.0

// Package watch evicts cached sounds whose files change on disk, so the
// next load picks up the new content.
package watch

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ik5/audcache"
)

// DefaultDebounce is how long a file must stay quiet before it is evicted.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches one directory for changes to sound files.
type Watcher struct {
	cache    *audcache.Cache
	ext      string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func(name string)
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool

	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Editors often write a file in
// several steps; only the last one triggers an eviction.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// OnChange registers fn to run after a name was evicted.
func OnChange(fn func(name string)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// New starts watching dir. Files in dir with the cache's extension map to
// the name without the extension, which is passed to Cache.Destroy. dir
// is expected to be the cache's directory.
func New(c *audcache.Cache, dir string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		cache:    c,
		ext:      c.Config().Extension,
		watcher:  fw,
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
		pending:  make(map[string]*time.Timer),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w, nil
}

// Close stops watching. Pending evictions are dropped.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done

		w.mu.Lock()
		w.closed = true
		for _, t := range w.pending {
			t.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			name, ok := nameFor(event.Name, w.ext)
			if !ok {
				continue
			}
			w.schedule(name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-w.closeCh:
			return
		}
	}
}

// schedule evicts name once no event for it arrived for the debounce period.
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if t, ok := w.pending[name]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[name] = time.AfterFunc(w.debounce, func() { w.evict(name) })
}

func (w *Watcher) evict(name string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, name)
	w.mu.Unlock()

	w.cache.Destroy(name, nil)
	w.log.Debug("sound changed on disk", zap.String("name", name))
	if w.onChange != nil {
		w.onChange(name)
	}
}

// nameFor maps a changed file to a cache name. ext includes the dot and
// is matched without regard to case.
func nameFor(path, ext string) (string, bool) {
	base := filepath.Base(path)
	got := filepath.Ext(base)
	if ext == "" || !strings.EqualFold(got, ext) {
		return "", false
	}
	name := strings.TrimSuffix(base, got)
	if name == "" || strings.HasPrefix(name, ".") {
		return "", false
	}
	return name, true
}
