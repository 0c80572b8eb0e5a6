// SPDX-License-Identifier: EPL-2.0

package audcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audcache/clock"
	"github.com/ik5/audcache/engine"
)

// LoadState is the load state of a Handle as seen by the cache.
type LoadState int

const (
	Loading LoadState = iota
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Retention decides whether ResetQueuedInstance evicts a handle.
type Retention int

const (
	// Session handles survive ResetQueuedInstance.
	Session Retention = iota
	// Transient handles come from the load queue or PlayOnce and are
	// evicted by ResetQueuedInstance.
	Transient
)

func (r Retention) String() string {
	if r == Transient {
		return "transient"
	}
	return "session"
}

// LoadedFunc is called exactly once when a handle's load settles: nil on
// success, an error wrapping ErrLoadFailed or ErrLoadTimedOut otherwise.
// It is not called for handles released before they settle.
type LoadedFunc func(err error)

type pollParams struct {
	clock        clock.Clock
	log          *zap.Logger
	initialDelay time.Duration
	interval     time.Duration
	maxRetries   int
}

// Handle is one cached sound. It wraps the engine sound, watches its load
// and forwards playback controls.
type Handle struct {
	id        uint64
	sourceID  string
	retention Retention
	created   time.Time
	sound     engine.Sound
	poll      pollParams

	mu        sync.Mutex
	state     LoadState
	err       error
	settledAt time.Time
	checks    int
	timer     clock.Timer
	onLoaded  LoadedFunc
	released  bool
	done      chan struct{}
	closeOnce sync.Once
}

// newHandle starts the engine load right away. Completion tracking begins
// with start, so the caller can publish the handle first.
func newHandle(eng engine.Engine, id uint64, sourceID string, retention Retention, onLoaded LoadedFunc, p pollParams) *Handle {
	return &Handle{
		id:        id,
		sourceID:  sourceID,
		retention: retention,
		created:   p.clock.Now(),
		sound:     eng.Load(sourceID),
		poll:      p,
		state:     Loading,
		onLoaded:  onLoaded,
		done:      make(chan struct{}),
	}
}

func (h *Handle) start() {
	h.mu.Lock()
	if h.released || h.state != Loading {
		h.mu.Unlock()
		return
	}
	h.timer = h.poll.clock.AfterFunc(h.poll.initialDelay, h.checkProgress)
	h.mu.Unlock()

	h.sound.OnLoad(h.engineSettled)
}

func (h *Handle) engineSettled(err error) {
	if err != nil {
		h.settle(fmt.Errorf("%w: %s: %w", ErrLoadFailed, h.sourceID, err))
		return
	}
	h.settle(nil)
}

// checkProgress is the polling fallback for engines whose load
// notification never arrives.
func (h *Handle) checkProgress() {
	h.mu.Lock()
	if h.released || h.state != Loading {
		h.mu.Unlock()
		return
	}
	h.timer = nil
	h.mu.Unlock()

	switch h.sound.State() {
	case engine.Loaded:
		h.settle(nil)
		return
	case engine.Failed:
		h.engineSettled(h.sound.Err())
		return
	}

	h.mu.Lock()
	if h.released || h.state != Loading {
		h.mu.Unlock()
		return
	}
	h.checks++
	if h.poll.maxRetries > 0 && h.checks >= h.poll.maxRetries {
		checks := h.checks
		h.mu.Unlock()
		h.poll.log.Warn("giving up on sound load",
			zap.String("source", h.sourceID),
			zap.Int("checks", checks))
		h.settle(fmt.Errorf("%w: %s after %d checks", ErrLoadTimedOut, h.sourceID, checks))
		return
	}
	h.timer = h.poll.clock.AfterFunc(h.poll.interval, h.checkProgress)
	h.mu.Unlock()
}

func (h *Handle) settle(err error) {
	h.mu.Lock()
	if h.released || h.state != Loading {
		h.mu.Unlock()
		return
	}
	if err != nil {
		h.state = Failed
		h.err = err
	} else {
		h.state = Loaded
	}
	h.settledAt = h.poll.clock.Now()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	cb := h.onLoaded
	h.onLoaded = nil
	took := h.settledAt.Sub(h.created)
	h.mu.Unlock()

	h.closeDone()

	if err != nil {
		h.poll.log.Warn("sound load failed", zap.String("source", h.sourceID), zap.Error(err))
	} else {
		h.poll.log.Debug("sound loaded", zap.String("source", h.sourceID), zap.Duration("took", took))
	}

	if cb != nil {
		cb(err)
	}
}

func (h *Handle) closeDone() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ID is unique within the cache that created the handle. Ids grow
// monotonically and are never reused.
func (h *Handle) ID() uint64 { return h.id }

// SourceID is the resolved path the handle was loaded from.
func (h *Handle) SourceID() string { return h.sourceID }

func (h *Handle) Retention() Retention { return h.retention }

// Created is when the load was requested.
func (h *Handle) Created() time.Time { return h.created }

func (h *Handle) State() LoadState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err is the load error of a Failed handle.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// LoadTime is how long the load took to settle, or 0 while loading.
func (h *Handle) LoadTime() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Loading {
		return 0
	}
	return h.settledAt.Sub(h.created)
}

// Released reports whether Unload was called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Done is closed once the load settles or the handle is released.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the load settles and returns its error. It returns
// ErrHandleReleased if the handle was released while loading.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Loading {
		return ErrHandleReleased
	}
	return h.err
}

func (h *Handle) live() (engine.Sound, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, fmt.Errorf("%w: %s", ErrHandleReleased, h.sourceID)
	}
	return h.sound, nil
}

// Play starts playback. Playing a handle that is still loading is up to
// the engine.
func (h *Handle) Play() error {
	s, err := h.live()
	if err != nil {
		return err
	}
	s.Play()
	return nil
}

// Stop halts playback and rewinds.
func (h *Handle) Stop() error {
	s, err := h.live()
	if err != nil {
		return err
	}
	s.Stop()
	return nil
}

// Seek moves the playback position.
func (h *Handle) Seek(pos time.Duration) error {
	s, err := h.live()
	if err != nil {
		return err
	}
	s.SetSeek(pos)
	return nil
}

// SetCurrentTime is an alias of Seek.
func (h *Handle) SetCurrentTime(pos time.Duration) error {
	return h.Seek(pos)
}

func (h *Handle) SetVolume(v float64) error {
	s, err := h.live()
	if err != nil {
		return err
	}
	s.SetVolume(v)
	return nil
}

func (h *Handle) SetLoop(loop bool) error {
	s, err := h.live()
	if err != nil {
		return err
	}
	s.SetLoop(loop)
	return nil
}

func (h *Handle) SetPlaybackRate(rate float64) error {
	s, err := h.live()
	if err != nil {
		return err
	}
	s.SetRate(rate)
	return nil
}

func (h *Handle) Volume() (float64, error) {
	s, err := h.live()
	if err != nil {
		return 0, err
	}
	return s.Volume(), nil
}

func (h *Handle) Loop() (bool, error) {
	s, err := h.live()
	if err != nil {
		return false, err
	}
	return s.Loop(), nil
}

func (h *Handle) Playing() (bool, error) {
	s, err := h.live()
	if err != nil {
		return false, err
	}
	return s.Playing(), nil
}

func (h *Handle) PlaybackRate() (float64, error) {
	s, err := h.live()
	if err != nil {
		return 0, err
	}
	return s.Rate(), nil
}

// CurrentTime is the playback position.
func (h *Handle) CurrentTime() (time.Duration, error) {
	s, err := h.live()
	if err != nil {
		return 0, err
	}
	return s.Seek(), nil
}

// Position is an alias of CurrentTime.
func (h *Handle) Position() (time.Duration, error) {
	return h.CurrentTime()
}

// Duration is the length of the sound, 0 until it is loaded.
func (h *Handle) Duration() (time.Duration, error) {
	s, err := h.live()
	if err != nil {
		return 0, err
	}
	return s.Duration(), nil
}

// OnEnd registers fn to run whenever playback reaches the end.
func (h *Handle) OnEnd(fn func()) error {
	s, err := h.live()
	if err != nil {
		return err
	}
	s.OnEnd(fn)
	return nil
}

// Unload releases the engine resource and stops load tracking. A pending
// LoadedFunc is dropped. Calling Unload more than once is harmless.
//
// Unload does not remove the handle from its cache; use Cache.Destroy.
func (h *Handle) Unload() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.onLoaded = nil
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()

	h.closeDone()
	h.sound.Unload()
}

// Destroy is an alias of Unload.
func (h *Handle) Destroy() {
	h.Unload()
}
