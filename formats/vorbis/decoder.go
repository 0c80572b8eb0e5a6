// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/ik5/audcache/audio"
	"github.com/jfreymuth/oggvorbis"
)

// Extensions handled by this package.
var Extensions = []string{"ogg", "oga"}

// Register adds the Vorbis decoder to reg under every extension.
func Register(reg *audio.Registry) {
	for _, ext := range Extensions {
		reg.Register(ext, Decoder{})
	}
}

// frameReader is the part of oggvorbis.Reader the source uses; tests fake it.
// Read fills interleaved samples and returns how many it wrote.
type frameReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec    frameReader
	closer io.Closer
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return s.dec.Channels() }
func (s *source) BufSize() int    { return 4096 }

func (s *source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	ch := s.dec.Channels()
	// hand the decoder whole frames only
	usable := len(dst) - len(dst)%ch
	if usable == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst[:usable])
	if n == 0 && err == nil {
		return 0, nil
	}
	return n, err
}

type Decoder struct{}

// Decode parses the Ogg Vorbis headers. If r is an io.Closer it is closed
// together with the source.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}

	closer, _ := r.(io.Closer)
	return &source{dec: dec, closer: closer}, nil
}
