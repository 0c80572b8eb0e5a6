// SPDX-License-Identifier: EPL-2.0

package headless

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/clock"
	"github.com/ik5/audcache/engine"
)

// Sound is a decoded sound with a virtual playhead.
//
// While playing, the position advances with the clock scaled by the
// playback rate. Reaching the end fires the OnEnd listeners; a looping
// sound then starts over.
type Sound struct {
	id     string
	clock  clock.Clock
	cancel context.CancelFunc

	mu        sync.Mutex
	state     engine.State
	err       error
	buf       *audio.Buffer
	onLoad    []func(error)
	onEnd     []func()
	volume    float64
	rate      float64
	loop      bool
	playing   bool
	deferred  bool // Play was called while loading
	offset    time.Duration
	startedAt time.Time
	endTimer  clock.Timer
	gen       uint64
}

func newSound(id string, clk clock.Clock, cancel context.CancelFunc) *Sound {
	return &Sound{
		id:     id,
		clock:  clk,
		cancel: cancel,
		state:  engine.Loading,
		volume: 1,
		rate:   1,
	}
}

func (s *Sound) ready(buf *audio.Buffer) {
	s.mu.Lock()
	if s.state != engine.Loading {
		s.mu.Unlock()
		return
	}
	s.state = engine.Loaded
	s.buf = buf
	fns := s.onLoad
	s.onLoad = nil
	if s.deferred {
		s.deferred = false
		s.startLocked()
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(nil)
	}
}

func (s *Sound) fail(err error) {
	s.mu.Lock()
	if s.state != engine.Loading {
		s.mu.Unlock()
		return
	}
	s.state = engine.Failed
	s.err = err
	s.deferred = false
	fns := s.onLoad
	s.onLoad = nil
	s.mu.Unlock()

	for _, fn := range fns {
		fn(err)
	}
}

// PCM returns the decoded samples, or nil until the sound is loaded.
// The buffer is shared and must not be modified.
func (s *Sound) PCM() *audio.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// Source returns a fresh reader over the decoded samples, or nil until
// the sound is loaded.
func (s *Sound) Source() audio.Source {
	buf := s.PCM()
	if buf == nil {
		return nil
	}
	return audio.NewBufferSource(buf)
}

func (s *Sound) State() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sound) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Sound) OnLoad(fn func(error)) {
	s.mu.Lock()
	switch s.state {
	case engine.Loading:
		s.onLoad = append(s.onLoad, fn)
		s.mu.Unlock()
		return
	case engine.Unloaded:
		s.mu.Unlock()
		return
	}
	err := s.err
	s.mu.Unlock()

	fn(err)
}

func (s *Sound) OnEnd(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != engine.Unloaded {
		s.onEnd = append(s.onEnd, fn)
	}
}

// Play starts playback from the current position. Playing a sound that
// is still loading starts it once the load completes. Play on a playing,
// failed or unloaded sound does nothing.
func (s *Sound) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == engine.Loading:
		s.deferred = true
	case s.state == engine.Loaded && !s.playing:
		s.startLocked()
	}
}

func (s *Sound) startLocked() {
	length := s.buf.Duration()
	if s.offset >= length {
		s.offset = 0
	}
	s.playing = true
	s.startedAt = s.clock.Now()
	s.scheduleEndLocked(length)
}

func (s *Sound) scheduleEndLocked(length time.Duration) {
	s.stopTimerLocked()
	s.gen++
	gen := s.gen
	remaining := time.Duration(float64(length-s.offset) / s.rate)
	s.endTimer = s.clock.AfterFunc(remaining, func() { s.reachedEnd(gen) })
}

func (s *Sound) stopTimerLocked() {
	if s.endTimer != nil {
		s.endTimer.Stop()
		s.endTimer = nil
	}
}

func (s *Sound) reachedEnd(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.playing {
		s.mu.Unlock()
		return
	}
	s.endTimer = nil
	s.offset = 0
	if s.loop {
		s.startLocked()
	} else {
		s.playing = false
	}
	fns := slices.Clone(s.onEnd)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// positionLocked folds the time played so far into the position.
func (s *Sound) positionLocked() time.Duration {
	if !s.playing {
		return s.offset
	}
	elapsed := s.clock.Now().Sub(s.startedAt)
	pos := s.offset + time.Duration(float64(elapsed)*s.rate)
	return min(pos, s.buf.Duration())
}

func (s *Sound) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.gen++
	s.playing = false
	s.deferred = false
	s.offset = 0
}

func (s *Sound) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Sound) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume clamps v to [0, 1].
func (s *Sound) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = min(max(v, 0), 1)
}

func (s *Sound) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

func (s *Sound) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

func (s *Sound) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

// SetRate changes the playback speed. Non-positive rates are ignored.
func (s *Sound) SetRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rate <= 0 || rate == s.rate {
		return
	}
	if !s.playing {
		s.rate = rate
		return
	}
	s.offset = s.positionLocked()
	s.startedAt = s.clock.Now()
	s.rate = rate
	s.scheduleEndLocked(s.buf.Duration())
}

func (s *Sound) Seek() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

// SetSeek moves the playhead, clamped to the sound.
func (s *Sound) SetSeek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	length := time.Duration(0)
	if s.buf != nil {
		length = s.buf.Duration()
	}
	s.offset = min(max(pos, 0), length)
	if s.playing {
		s.startedAt = s.clock.Now()
		s.scheduleEndLocked(length)
	}
}

func (s *Sound) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return 0
	}
	return s.buf.Duration()
}

func (s *Sound) Unload() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == engine.Unloaded {
		return
	}
	s.state = engine.Unloaded
	s.stopTimerLocked()
	s.gen++
	s.playing = false
	s.deferred = false
	s.buf = nil
	s.onLoad = nil
	s.onEnd = nil
}
