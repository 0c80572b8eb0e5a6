// SPDX-License-Identifier: EPL-2.0

package ebitenaudio

import (
	"slices"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"go.uber.org/zap"

	"github.com/ik5/audcache/clock"
	"github.com/ik5/audcache/engine"
)

// Sound wraps an Ebitengine player.
type Sound struct {
	id      string
	clock   clock.Clock
	endPoll time.Duration
	log     *zap.Logger

	mu       sync.Mutex
	state    engine.State
	err      error
	player   *audio.Player
	length   time.Duration
	onLoad   []func(error)
	onEnd    []func()
	volume   float64
	rate     float64
	loop     bool
	playing  bool
	deferred bool
	timer    clock.Timer
	gen      uint64
}

func newSound(id string, clk clock.Clock, endPoll time.Duration, log *zap.Logger) *Sound {
	return &Sound{
		id:      id,
		clock:   clk,
		endPoll: endPoll,
		log:     log,
		state:   engine.Loading,
		volume:  1,
		rate:    1,
	}
}

func (s *Sound) ready(p *audio.Player, length time.Duration) {
	s.mu.Lock()
	if s.state != engine.Loading {
		s.mu.Unlock()
		p.Close()
		return
	}
	s.state = engine.Loaded
	s.player = p
	s.length = length
	p.SetVolume(s.volume)
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

// Play starts the player. While loading, playback starts once the load
// completes.
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
	s.player.Play()
	s.playing = true
	s.scheduleCheckLocked()
}

func (s *Sound) scheduleCheckLocked() {
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.endPoll, func() { s.checkEnd(gen) })
}

func (s *Sound) stopTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// checkEnd notices that the player ran out of data.
func (s *Sound) checkEnd(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.playing {
		s.mu.Unlock()
		return
	}
	if s.player.IsPlaying() {
		s.scheduleCheckLocked()
		s.mu.Unlock()
		return
	}

	s.seekFailed("rewind", s.player.Rewind())
	if s.loop {
		s.startLocked()
	} else {
		s.playing = false
		s.timer = nil
	}
	fns := slices.Clone(s.onEnd)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *Sound) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.deferred = false
	s.playing = false
	if s.player != nil {
		s.player.Pause()
		s.seekFailed("rewind", s.player.Rewind())
	}
}

// seekFailed logs a player seek error, if any.
func (s *Sound) seekFailed(op string, err error) {
	if err != nil {
		s.log.Warn("seek failed", zap.String("source", s.id), zap.String("op", op), zap.Error(err))
	}
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

func (s *Sound) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = min(max(v, 0), 1)
	if s.player != nil {
		s.player.SetVolume(s.volume)
	}
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

// SetRate only records the rate; Ebitengine players have no speed control.
func (s *Sound) SetRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rate > 0 {
		s.rate = rate
	}
}

func (s *Sound) Seek() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return 0
	}
	return s.player.Position()
}

func (s *Sound) SetSeek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.seekFailed("set position", s.player.SetPosition(min(max(pos, 0), s.length)))
	}
}

func (s *Sound) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.length
}

func (s *Sound) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == engine.Unloaded {
		return
	}
	s.state = engine.Unloaded
	s.stopTimerLocked()
	s.playing = false
	s.deferred = false
	s.onLoad = nil
	s.onEnd = nil
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
}
