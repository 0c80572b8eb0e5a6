// SPDX-License-Identifier: EPL-2.0

package audcache

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/ik5/audcache/engine"
)

// PlayOnce loads name into a new Transient handle and plays it right away.
// The handle is reclaimed once playback ends: whenever any one-shot ends,
// every tracked one-shot that is no longer playing is unloaded and removed
// from the cache. A one-shot whose load fails is reclaimed the same way.
func (c *Cache) PlayOnce(name string) (*Handle, error) {
	sourceID := c.Resolve(name)

	c.mu.Lock()
	h := c.addLocked(sourceID, Transient, func(err error) {
		if err != nil {
			c.sweepOneShots()
		}
	})
	c.oneShots[h.id] = h
	c.mu.Unlock()

	c.log.Debug("loading", zap.String("source", sourceID), zap.Bool("oneshot", true))
	h.start()

	if err := h.OnEnd(c.sweepOneShots); err != nil {
		return h, err
	}
	if err := h.Play(); err != nil {
		return h, err
	}
	return h, nil
}

// OneShots returns how many one-shots are tracked.
func (c *Cache) OneShots() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.oneShots)
}

// sweepOneShots marks finished one-shots, then removes and unloads them in
// a separate pass. Handles another sweep already took are skipped.
func (c *Cache) sweepOneShots() {
	c.mu.Lock()
	tracked := slices.Collect(maps.Values(c.oneShots))
	c.mu.Unlock()

	var finished []*Handle
	for _, h := range tracked {
		if oneShotFinished(h) {
			finished = append(finished, h)
		}
	}
	if len(finished) == 0 {
		return
	}

	c.mu.Lock()
	reclaimed := finished[:0]
	for _, h := range finished {
		if _, ok := c.oneShots[h.id]; !ok {
			continue
		}
		c.removeLocked(h)
		reclaimed = append(reclaimed, h)
	}
	c.mu.Unlock()

	for _, h := range reclaimed {
		h.Unload()
		c.log.Debug("one-shot reclaimed", zap.String("source", h.sourceID))
	}
}

// oneShotFinished reports whether h is done playing. A one-shot that is
// still loading has not started yet.
func oneShotFinished(h *Handle) bool {
	if h.State() == Failed {
		return true
	}
	s, err := h.live()
	if err != nil {
		return true
	}
	if s.State() == engine.Loading {
		return false
	}
	return !s.Playing()
}
