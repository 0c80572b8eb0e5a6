// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"sync"
	"time"

	"github.com/ik5/audcache/engine"
)

// MockEngine is a scripted engine.Engine. Loads stay pending until the test
// calls Complete or Fail on the returned sound.
type MockEngine struct {
	mu     sync.Mutex
	sounds []*MockSound

	// Quiet suppresses OnLoad notifications so that only polling State can
	// observe completion.
	Quiet bool
}

// NewMockEngine creates an engine with no sounds.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

func (e *MockEngine) Load(sourceID string) engine.Sound {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := &MockSound{
		id:     sourceID,
		state:  engine.Loading,
		quiet:  e.Quiet,
		volume: 1,
		rate:   1,
	}
	e.sounds = append(e.sounds, s)
	return s
}

// Sounds returns every sound created so far, in load order.
func (e *MockEngine) Sounds() []*MockSound {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*MockSound(nil), e.sounds...)
}

// Loads returns the requested source ids in order.
func (e *MockEngine) Loads() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.sounds))
	for i, s := range e.sounds {
		out[i] = s.id
	}
	return out
}

// Last returns the most recently created sound or nil.
func (e *MockEngine) Last() *MockSound {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.sounds) == 0 {
		return nil
	}
	return e.sounds[len(e.sounds)-1]
}

// MockSound is the engine.Sound handed out by MockEngine.
type MockSound struct {
	mu       sync.Mutex
	id       string
	state    engine.State
	err      error
	quiet    bool
	onLoad   []func(error)
	onEnd    []func()
	playing  bool
	plays    int
	unloads  int
	volume   float64
	loop     bool
	rate     float64
	pos      time.Duration
	duration time.Duration
}

// ID returns the source id the sound was loaded from.
func (s *MockSound) ID() string { return s.id }

// Complete marks the load successful and notifies listeners.
func (s *MockSound) Complete() {
	s.settle(engine.Loaded, nil)
}

// Fail marks the load failed with err and notifies listeners.
func (s *MockSound) Fail(err error) {
	s.settle(engine.Failed, err)
}

func (s *MockSound) settle(state engine.State, err error) {
	s.mu.Lock()
	if s.state != engine.Loading {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.err = err
	fns := s.onLoad
	s.onLoad = nil
	quiet := s.quiet
	s.mu.Unlock()

	if quiet {
		return
	}
	for _, fn := range fns {
		fn(err)
	}
}

// Finish simulates playback reaching the end.
func (s *MockSound) Finish() {
	s.mu.Lock()
	s.playing = false
	s.pos = 0
	fns := append([]func(){}, s.onEnd...)
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// SetDuration sets the value reported by Duration.
func (s *MockSound) SetDuration(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = d
}

// Plays counts Play calls.
func (s *MockSound) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

// Unloads counts Unload calls.
func (s *MockSound) Unloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unloads
}

// EndListeners counts OnEnd registrations.
func (s *MockSound) EndListeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.onEnd)
}

func (s *MockSound) State() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *MockSound) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *MockSound) OnLoad(fn func(error)) {
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
	quiet := s.quiet
	s.mu.Unlock()

	if !quiet {
		fn(err)
	}
}

func (s *MockSound) OnEnd(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnd = append(s.onEnd, fn)
}

func (s *MockSound) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
	s.playing = true
}

func (s *MockSound) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.pos = 0
}

func (s *MockSound) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *MockSound) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *MockSound) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *MockSound) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

func (s *MockSound) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

func (s *MockSound) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *MockSound) SetRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = rate
}

func (s *MockSound) Seek() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *MockSound) SetSeek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = pos
}

func (s *MockSound) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *MockSound) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unloads++
	s.playing = false
	s.state = engine.Unloaded
	s.onLoad = nil
}
