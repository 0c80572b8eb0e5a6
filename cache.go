// SPDX-License-Identifier: EPL-2.0

package audcache

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/ik5/audcache/clock"
	"github.com/ik5/audcache/engine"
)

// Cache owns the sound handles loaded through one engine.
//
// Handles are kept in insertion order and indexed by source id. Create
// always adds a new handle, so a name may map to several handles. The load
// queue and PlayOnce share the same store.
//
// A Cache is safe for concurrent use. Callbacks never run with a cache
// lock held and may call back into the cache.
type Cache struct {
	engine engine.Engine
	cfg    Config
	clock  clock.Clock
	log    *zap.Logger

	mu       sync.Mutex
	nextID   uint64
	handles  []*Handle
	index    map[string][]*Handle
	onLoaded func()
	queue    loadQueue
	oneShots map[uint64]*Handle
}

// New creates an empty cache loading through eng.
func New(eng engine.Engine, opts ...Option) *Cache {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Cache{
		engine:   eng,
		cfg:      o.cfg,
		clock:    o.clock,
		log:      o.logger,
		index:    make(map[string][]*Handle),
		oneShots: make(map[uint64]*Handle),
	}
}

// Config returns the configuration the cache was built with.
func (c *Cache) Config() Config {
	return c.cfg
}

// Resolve maps a name to its source id by plain concatenation of the
// directory, the name and the extension.
func (c *Cache) Resolve(name string) string {
	return c.cfg.Directory + name + c.cfg.Extension
}

// Create starts loading name into a new Session handle, even if the name
// is already cached.
func (c *Cache) Create(name string) *Handle {
	return c.CreateWith(name, nil)
}

// CreateWith is Create with a completion callback. After fn returns the
// cache checks whether every handle is loaded; see SetLoadedCallback.
func (c *Cache) CreateWith(name string, fn LoadedFunc) *Handle {
	sourceID := c.Resolve(name)

	c.mu.Lock()
	h := c.addLocked(sourceID, Session, func(err error) {
		if fn != nil {
			fn(err)
		}
		c.checkAllLoaded()
	})
	c.mu.Unlock()

	c.log.Debug("loading", zap.String("source", sourceID))
	h.start()
	return h
}

// addLocked creates and stores a handle. The engine load begins here so
// that the handle is visible to lookups before any completion can run.
func (c *Cache) addLocked(sourceID string, retention Retention, onLoaded LoadedFunc) *Handle {
	c.nextID++
	h := newHandle(c.engine, c.nextID, sourceID, retention, onLoaded, pollParams{
		clock:        c.clock,
		log:          c.log,
		initialDelay: c.cfg.InitialDelay,
		interval:     c.cfg.PollInterval,
		maxRetries:   c.cfg.MaxRetries,
	})
	c.handles = append(c.handles, h)
	c.index[sourceID] = append(c.index[sourceID], h)
	return h
}

// removeLocked drops h from every structure of the cache. It does not
// unload h.
func (c *Cache) removeLocked(h *Handle) {
	c.handles = slices.DeleteFunc(c.handles, func(x *Handle) bool { return x == h })

	rest := slices.DeleteFunc(c.index[h.sourceID], func(x *Handle) bool { return x == h })
	if len(rest) == 0 {
		delete(c.index, h.sourceID)
	} else {
		c.index[h.sourceID] = rest
	}

	delete(c.oneShots, h.id)
}

func (c *Cache) checkAllLoaded() {
	c.mu.Lock()
	fn := c.onLoaded
	loaded, total := c.countLocked()
	c.mu.Unlock()

	if fn != nil && total > 0 && loaded == total {
		fn()
	}
}

// SetLoadedCallback sets the function run when a Create'd handle settles
// and every cached handle is loaded. nil clears it.
func (c *Cache) SetLoadedCallback(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLoaded = fn
}

// Find returns the oldest handle loaded from name.
func (c *Cache) Find(name string) (*Handle, error) {
	sourceID := c.Resolve(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	hs := c.index[sourceID]
	if len(hs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sourceID)
	}
	return hs[0], nil
}

// FindIndex returns the insertion position of the oldest handle loaded
// from name.
func (c *Cache) FindIndex(name string) (int, error) {
	sourceID := c.Resolve(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.handles, func(h *Handle) bool { return h.sourceID == sourceID })
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotFound, sourceID)
	}
	return i, nil
}

// Handles returns a snapshot of the cached handles in insertion order.
func (c *Cache) Handles() []*Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.handles)
}

// Len returns the number of cached handles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// Destroy unloads and removes every handle loaded from name, then calls
// cb (which may be nil). Destroying an unknown name only calls cb.
func (c *Cache) Destroy(name string, cb func()) {
	sourceID := c.Resolve(name)

	c.mu.Lock()
	victims := slices.Clone(c.index[sourceID])
	for _, h := range victims {
		c.removeLocked(h)
	}
	c.mu.Unlock()

	c.release(victims)
	if len(victims) > 0 {
		c.log.Debug("destroyed", zap.String("source", sourceID), zap.Int("handles", len(victims)))
	}
	if cb != nil {
		cb()
	}
}

// Kill unloads and removes every handle, then calls cb (which may be nil).
// A running drain stops without its queue callback and the pending names
// are dropped, so nothing is loaded after Kill returns. Callbacks are kept.
func (c *Cache) Kill(cb func()) {
	c.mu.Lock()
	victims := c.handles
	c.handles = nil
	c.index = make(map[string][]*Handle)
	c.oneShots = make(map[uint64]*Handle)
	c.queue.reset()
	c.mu.Unlock()

	c.release(victims)
	c.log.Debug("cache cleared", zap.Int("handles", len(victims)))
	if cb != nil {
		cb()
	}
}

// release unloads evicted handles. If the queue was waiting on one of
// them the drain moves on to the next item.
func (c *Cache) release(victims []*Handle) {
	for _, h := range victims {
		h.Unload()
	}
	for _, h := range victims {
		c.abandonQueued(h)
	}
}

// Close is Kill without a callback. The cache stays usable.
func (c *Cache) Close() {
	c.Kill(nil)
}

// ResetQueuedInstance evicts the Transient handles, keeps the Session
// ones, and resets the queue along with every callback.
func (c *Cache) ResetQueuedInstance() {
	c.mu.Lock()
	var victims []*Handle
	for _, h := range c.handles {
		if h.retention == Transient {
			victims = append(victims, h)
		}
	}
	for _, h := range victims {
		c.removeLocked(h)
	}
	c.queue = loadQueue{}
	c.onLoaded = nil
	c.mu.Unlock()

	for _, h := range victims {
		h.Unload()
	}
	c.log.Debug("transient handles evicted", zap.Int("handles", len(victims)))
}

// countLocked returns how many handles are loaded and the total.
func (c *Cache) countLocked() (loaded, total int) {
	for _, h := range c.handles {
		if h.State() == Loaded {
			loaded++
		}
	}
	return loaded, len(c.handles)
}

// IsLoading reports the fraction of cached handles that finished loading.
// ok is false for an empty cache, where no fraction exists.
func (c *Cache) IsLoading() (fraction float64, ok bool) {
	c.mu.Lock()
	loaded, total := c.countLocked()
	c.mu.Unlock()

	if total == 0 {
		return 0, false
	}
	return float64(loaded) / float64(total), true
}

// Stats counts cached handles by load state.
type Stats struct {
	Loaded  int
	Loading int
	Failed  int
	Total   int
}

// Stats returns the current handle counts.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Total: len(c.handles)}
	for _, h := range c.handles {
		switch h.State() {
		case Loaded:
			s.Loaded++
		case Loading:
			s.Loading++
		case Failed:
			s.Failed++
		}
	}
	return s
}
