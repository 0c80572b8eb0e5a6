// SPDX-License-Identifier: EPL-2.0

package audcache

import (
	"fmt"

	"go.uber.org/zap"
)

// loadQueue is the sequential preload state. It is guarded by Cache.mu.
type loadQueue struct {
	pending  []string
	total    int
	active   bool
	inflight uint64 // id of the handle the drain waits for, 0 for none
	progress float64

	onDone   func()
	onStatus func(float64)
	onError  func(sourceID string, err error)
}

// report clamps v to [0, 1] and never lets it go below an earlier value
// of the same drain.
func (q *loadQueue) report(v float64) float64 {
	v = min(max(v, 0), 1)
	if v < q.progress {
		v = q.progress
	}
	q.progress = v
	return v
}

// reset stops the drain and drops pending names. Callbacks are kept.
func (q *loadQueue) reset() {
	q.pending = nil
	q.total = 0
	q.active = false
	q.inflight = 0
	q.progress = 0
}

// Enqueue appends name to the preload queue. Names already cached when
// their turn comes are skipped.
func (c *Cache) Enqueue(name string) {
	sourceID := c.Resolve(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.pending = append(c.queue.pending, sourceID)
	c.queue.total++
}

// LoadQueue starts draining the queue: one item at a time, each load
// starting only after the previous one settled. It does nothing while a
// drain is already running. With nothing queued no callback fires.
func (c *Cache) LoadQueue() {
	c.mu.Lock()
	q := &c.queue
	if q.active {
		c.mu.Unlock()
		c.log.Debug("queue already draining")
		return
	}
	if len(q.pending) == 0 {
		q.total = 0
		c.mu.Unlock()
		return
	}
	q.active = true
	q.inflight = 0
	q.progress = 0
	c.mu.Unlock()

	c.drain()
}

// drain runs queue steps until a load has to be waited for or the queue
// is exhausted. Every step first reports the share of items dispatched so
// far, then either skips a cached head or starts loading it.
func (c *Cache) drain() {
	for {
		c.mu.Lock()
		q := &c.queue
		if !q.active || q.inflight != 0 {
			c.mu.Unlock()
			return
		}

		if len(q.pending) == 0 {
			q.active = false
			q.total = 0
			status, done := q.onStatus, q.onDone
			v := q.report(1)
			c.mu.Unlock()

			if status != nil {
				status(v)
			}
			c.log.Debug("queue finished")
			if done != nil {
				done()
			}
			return
		}

		status := q.onStatus
		v := q.report(1 - float64(len(q.pending))/float64(q.total))
		c.mu.Unlock()

		if status != nil {
			status(v)
		}

		c.mu.Lock()
		if !q.active || q.inflight != 0 || len(q.pending) == 0 {
			// the status callback changed the queue
			c.mu.Unlock()
			continue
		}

		head := q.pending[0]
		q.pending = q.pending[1:]
		if len(c.index[head]) > 0 {
			c.mu.Unlock()
			c.log.Debug("queued sound already cached", zap.String("source", head))
			continue
		}

		var h *Handle
		h = c.addLocked(head, Transient, func(err error) {
			c.queuedLoaded(h.id, head, err)
		})
		q.inflight = h.id
		c.mu.Unlock()

		c.log.Debug("loading", zap.String("source", head), zap.Bool("queued", true))
		h.start()
		return
	}
}

// queuedLoaded advances the drain if id is still the handle it waits for.
func (c *Cache) queuedLoaded(id uint64, sourceID string, err error) {
	c.mu.Lock()
	q := &c.queue
	if !q.active || q.inflight != id {
		c.mu.Unlock()
		return
	}
	q.inflight = 0
	onErr := q.onError
	c.mu.Unlock()

	if err != nil && onErr != nil {
		onErr(sourceID, err)
	}
	c.drain()
}

// abandonQueued moves the drain past h when h was evicted before its load
// settled.
func (c *Cache) abandonQueued(h *Handle) {
	c.mu.Lock()
	q := &c.queue
	if !q.active || q.inflight != h.id {
		c.mu.Unlock()
		return
	}
	q.inflight = 0
	onErr := q.onError
	c.mu.Unlock()

	if onErr != nil {
		onErr(h.sourceID, fmt.Errorf("%w: %s", ErrHandleReleased, h.sourceID))
	}
	c.drain()
}

// SetQueueCallback sets the function run once when a drain finishes.
func (c *Cache) SetQueueCallback(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.onDone = fn
}

// SetStatusCallback sets the progress listener. It receives values in
// [0, 1] that never decrease within a drain, ending with 1.
func (c *Cache) SetStatusCallback(fn func(progress float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.onStatus = fn
}

// SetQueueErrorCallback sets the function told about queued loads that
// failed, timed out or were evicted. The drain continues either way.
func (c *Cache) SetQueueErrorCallback(fn func(sourceID string, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.onError = fn
}

// ResetQueue drops the pending names and stops the drain without calling
// the queue callback. A load already in flight stays in the cache but no
// longer advances anything. Callbacks are kept.
func (c *Cache) ResetQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.reset()
}

// QueueActive reports whether a drain is running.
func (c *Cache) QueueActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.active
}

// Pending returns the number of names not yet dispatched.
func (c *Cache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue.pending)
}
