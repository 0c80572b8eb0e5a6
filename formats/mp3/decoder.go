// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/audcache/audio"
)

// Extensions handled by this package.
var Extensions = []string{"mp3"}

// Register adds the MP3 decoder to reg.
func Register(reg *audio.Registry) {
	for _, ext := range Extensions {
		reg.Register(ext, Decoder{})
	}
}

// go-mp3 always produces 16-bit little-endian stereo.
const channels = 2

// pcmReader is the part of gomp3.Decoder the source uses; tests fake it.
type pcmReader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec    pcmReader
	buf    []byte
	closer io.Closer
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return channels }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

func (s *source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	n, err := s.dec.Read(s.buf)
	samples := n / 2
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
		dst[i] = float32(v) / 32768.0
	}

	if samples == 0 && err == nil {
		return 0, nil
	}
	return samples, err
}

type Decoder struct{}

// Decode reads the first frame headers through go-mp3. If r is an
// io.Closer it is closed together with the source.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	closer, _ := r.(io.Closer)
	return &source{
		dec:    dec,
		buf:    make([]byte, 8192),
		closer: closer,
	}, nil
}
