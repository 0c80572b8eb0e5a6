// SPDX-License-Identifier: EPL-2.0

package audcache

import (
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audcache/clock"
)

// Option configures a Cache.
//
// Options use the functional options pattern:
//
//	c := audcache.New(eng,
//	    audcache.WithDirectory("./assets/sfx/"),
//	    audcache.WithExtension(".ogg"),
//	    audcache.WithLogger(logger),
//	)
type Option func(*options)

type options struct {
	cfg    Config
	clock  clock.Clock
	logger *zap.Logger
}

func defaultOptions() *options {
	return &options{
		cfg:    DefaultConfig(),
		clock:  clock.Real(),
		logger: zap.NewNop(),
	}
}

// WithConfig replaces the whole configuration, e.g. one from LoadConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithDirectory sets the prefix prepended to every name.
func WithDirectory(dir string) Option {
	return func(o *options) {
		o.cfg.Directory = dir
	}
}

// WithExtension sets the suffix appended to every name, including the dot.
func WithExtension(ext string) Option {
	return func(o *options) {
		o.cfg.Extension = ext
	}
}

// WithPolling sets the delay before the first readiness check and the
// interval between later checks.
func WithPolling(initialDelay, interval time.Duration) Option {
	return func(o *options) {
		o.cfg.InitialDelay = initialDelay
		o.cfg.PollInterval = interval
	}
}

// WithMaxRetries bounds the number of readiness checks; 0 polls forever.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.cfg.MaxRetries = n
	}
}

// WithClock swaps the timer source, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
