// SPDX-License-Identifier: EPL-2.0

package headless

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/clock"
	"github.com/ik5/audcache/engine"
	"github.com/ik5/audcache/formats/aiff"
	"github.com/ik5/audcache/formats/mp3"
	"github.com/ik5/audcache/formats/vorbis"
	"github.com/ik5/audcache/formats/wav"
)

// Engine decodes sounds into memory on background goroutines and plays
// them against a clock instead of an output device.
type Engine struct {
	fsys       fs.FS
	reg        *audio.Registry
	sampleRate int
	mono       bool
	clock      clock.Clock
	log        *zap.Logger

	sem   *semaphore.Weighted
	group singleflight.Group
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	fsys          fs.FS
	reg           *audio.Registry
	sampleRate    int
	mono          bool
	maxConcurrent int
	clock         clock.Clock
	logger        *zap.Logger
}

// WithFS reads sources from fsys instead of the OS file system. Source ids
// are cleaned with path.Clean, so "./sounds/a.wav" opens "sounds/a.wav".
func WithFS(fsys fs.FS) Option {
	return func(c *config) {
		c.fsys = fsys
	}
}

// WithRegistry replaces the default decoder registry.
func WithRegistry(reg *audio.Registry) Option {
	return func(c *config) {
		c.reg = reg
	}
}

// WithSampleRate resamples every decoded sound to hz. Zero keeps the
// source rate.
func WithSampleRate(hz int) Option {
	return func(c *config) {
		c.sampleRate = hz
	}
}

// WithMono down-mixes multi-channel sounds to one channel.
func WithMono(mono bool) Option {
	return func(c *config) {
		c.mono = mono
	}
}

// WithMaxConcurrent bounds how many files are decoded at once. The
// default is the number of CPUs.
func WithMaxConcurrent(n int) Option {
	return func(c *config) {
		c.maxConcurrent = n
	}
}

// WithClock sets the clock driving playback.
func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clock = clk
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// DefaultRegistry returns a registry with every bundled decoder: WAV,
// MP3, Ogg Vorbis and AIFF.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	wav.Register(reg)
	mp3.Register(reg)
	vorbis.Register(reg)
	aiff.Register(reg)
	return reg
}

// New creates an engine.
func New(opts ...Option) *Engine {
	cfg := &config{
		maxConcurrent: runtime.NumCPU(),
		clock:         clock.Real(),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.reg == nil {
		cfg.reg = DefaultRegistry()
	}

	return &Engine{
		fsys:       cfg.fsys,
		reg:        cfg.reg,
		sampleRate: cfg.sampleRate,
		mono:       cfg.mono,
		clock:      cfg.clock,
		log:        cfg.logger,
		sem:        semaphore.NewWeighted(int64(max(cfg.maxConcurrent, 1))),
	}
}

// Load starts decoding sourceID in the background. Concurrent loads of
// the same source id share one decode.
func (e *Engine) Load(sourceID string) engine.Sound {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSound(sourceID, e.clock, cancel)
	go e.load(ctx, s)
	return s
}

func (e *Engine) load(ctx context.Context, s *Sound) {
	ch := e.group.DoChan(s.id, func() (any, error) {
		if err := e.sem.Acquire(context.Background(), 1); err != nil {
			return nil, err
		}
		defer e.sem.Release(1)
		return e.decode(s.id)
	})

	select {
	case <-ctx.Done():
		// unloaded before the decode finished
	case res := <-ch:
		if res.Err != nil {
			e.log.Warn("decode failed", zap.String("source", s.id), zap.Error(res.Err))
			s.fail(res.Err)
			return
		}
		s.ready(res.Val.(*audio.Buffer))
	}
}

func (e *Engine) decode(sourceID string) (*audio.Buffer, error) {
	start := time.Now()

	dec, err := e.reg.Lookup(sourceID)
	if err != nil {
		return nil, err
	}

	f, err := e.open(sourceID)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", sourceID, err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", sourceID, err)
	}

	if e.mono && src.Channels() > 1 {
		src = audio.NewMonoMixer(src)
	}
	if e.sampleRate > 0 && src.SampleRate() != e.sampleRate {
		src = audio.NewResampler(src, e.sampleRate)
	}

	buf, err := audio.ReadAll(src, 0)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", sourceID, err)
	}

	e.log.Debug("decoded",
		zap.String("source", sourceID),
		zap.Int("sample_rate", buf.SampleRate),
		zap.Int("channels", buf.Channels),
		zap.Duration("length", buf.Duration()),
		zap.Duration("took", time.Since(start)))
	return buf, nil
}

func (e *Engine) open(sourceID string) (io.ReadCloser, error) {
	if e.fsys == nil {
		return os.Open(sourceID)
	}
	return e.fsys.Open(path.Clean(strings.TrimPrefix(sourceID, "/")))
}
