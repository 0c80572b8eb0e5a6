// SPDX-License-Identifier: EPL-2.0

// Package engine defines the audio engine capability consumed by the cache.
//
// An Engine starts loading a source identifier and hands back a Sound right
// away. The Sound reports readiness through State and OnLoad and exposes the
// playback primitives. How audio is decoded or output is up to the
// implementation; see backend/headless and backend/ebitenaudio.
package engine

import "time"

// State is the load state of a Sound.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
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

// Engine begins asynchronous loads.
type Engine interface {
	// Load starts loading sourceID and never blocks on the load itself.
	// Problems such as a missing file are reported by the returned Sound
	// through State, Err and OnLoad.
	Load(sourceID string) Sound
}

// Sound is one loaded (or loading) asset inside an engine.
// Implementations must be safe for concurrent use.
type Sound interface {
	State() State
	// Err describes why the load failed; nil unless State is Failed.
	Err() error
	// OnLoad registers fn to run once the load settles, with nil on
	// success. If the load already settled fn runs immediately.
	OnLoad(fn func(err error))
	// OnEnd registers fn to run every time playback reaches the end.
	OnEnd(fn func())

	Play()
	Stop()
	Playing() bool

	Volume() float64
	SetVolume(v float64)
	Loop() bool
	SetLoop(loop bool)
	Rate() float64
	SetRate(rate float64)

	// Seek returns the current playback position.
	Seek() time.Duration
	SetSeek(pos time.Duration)
	Duration() time.Duration

	// Unload releases the engine resources. Calling it twice is harmless.
	Unload()
}
