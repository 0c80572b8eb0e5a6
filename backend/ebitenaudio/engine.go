// SPDX-License-Identifier: EPL-2.0

// Package ebitenaudio implements engine.Engine on top of Ebitengine's audio
// package, so cached sounds play on the device of a running game.
//
// Sounds are decoded completely when loaded (WAV, MP3 and Ogg Vorbis, using
// Ebitengine's decoders) and played from memory. Ebitengine does not signal
// the end of playback, so each playing sound is checked on a short clock
// interval. Playback rate is recorded but not applied.
package ebitenaudio

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"go.uber.org/zap"

	audiopkg "github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/clock"
	"github.com/ik5/audcache/engine"
)

// Ebitengine players take 16-bit little-endian stereo.
const bytesPerFrame = 4

// DefaultEndPoll is how often a playing sound is checked for its end.
const DefaultEndPoll = 50 * time.Millisecond

type decodeFunc func(sampleRate int, r io.Reader) (io.Reader, error)

func decodeWAV(sr int, r io.Reader) (io.Reader, error)    { return wav.DecodeWithSampleRate(sr, r) }
func decodeMP3(sr int, r io.Reader) (io.Reader, error)    { return mp3.DecodeWithSampleRate(sr, r) }
func decodeVorbis(sr int, r io.Reader) (io.Reader, error) { return vorbis.DecodeWithSampleRate(sr, r) }

var decoders = map[string]decodeFunc{
	"wav":  decodeWAV,
	"wave": decodeWAV,
	"mp3":  decodeMP3,
	"ogg":  decodeVorbis,
	"oga":  decodeVorbis,
}

// decoderFor picks the decoder by the extension of sourceID.
func decoderFor(sourceID string) (decodeFunc, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(sourceID), "."))
	dec, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%q: %w", sourceID, audiopkg.ErrUnsupportedFormat)
	}
	return dec, nil
}

// pcmDuration is the play time of n bytes of player PCM.
func pcmDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	frames := n / bytesPerFrame
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// Engine loads sounds into an Ebitengine audio context.
type Engine struct {
	ctx     *audio.Context
	fsys    fs.FS
	clock   clock.Clock
	endPoll time.Duration
	log     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFS reads sources from fsys, e.g. an embed.FS.
func WithFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.fsys = fsys
	}
}

// WithClock sets the clock used for end detection.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithEndPoll sets the end detection interval.
func WithEndPoll(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.endPoll = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an engine playing through ctx. A program has a single
// audio.Context; create it once with audio.NewContext.
func New(ctx *audio.Context, opts ...Option) *Engine {
	e := &Engine{
		ctx:     ctx,
		clock:   clock.Real(),
		endPoll: DefaultEndPoll,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load reads and decodes sourceID in the background.
func (e *Engine) Load(sourceID string) engine.Sound {
	s := newSound(sourceID, e.clock, e.endPoll, e.log)
	go e.load(s)
	return s
}

func (e *Engine) load(s *Sound) {
	pcm, err := e.decode(s.id)
	if err != nil {
		e.log.Warn("decode failed", zap.String("source", s.id), zap.Error(err))
		s.fail(err)
		return
	}

	length := pcmDuration(len(pcm), e.ctx.SampleRate())
	s.ready(e.ctx.NewPlayerFromBytes(pcm), length)
	e.log.Debug("decoded", zap.String("source", s.id), zap.Duration("length", length))
}

func (e *Engine) decode(sourceID string) ([]byte, error) {
	dec, err := decoderFor(sourceID)
	if err != nil {
		return nil, err
	}

	data, err := e.readFile(sourceID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sourceID, err)
	}

	stream, err := dec(e.ctx.SampleRate(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", sourceID, err)
	}

	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", sourceID, err)
	}
	return pcm, nil
}

func (e *Engine) readFile(sourceID string) ([]byte, error) {
	if e.fsys == nil {
		return os.ReadFile(sourceID)
	}
	return fs.ReadFile(e.fsys, path.Clean(strings.TrimPrefix(sourceID, "/")))
}
