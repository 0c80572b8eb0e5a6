// SPDX-License-Identifier: EPL-2.0

// Package intpcm adapts go-audio integer PCM decoders (WAV, AIFF) to
// audio.Source.
package intpcm

import (
	"io"

	goaudio "github.com/go-audio/audio"
)

// Reader is the part of the go-audio decoders the source needs.
type Reader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer PCM frames of a fixed bit depth to float32.
type Source struct {
	dec        Reader
	sampleRate int
	channels   int
	scale      float32
	bias       int
	intBuf     *goaudio.IntBuffer
	closer     io.Closer
	done       bool
}

// New wraps dec. bias is added to every integer sample before scaling
// (WAV stores 8-bit samples unsigned, so it passes -128). closer, if not
// nil, is closed with the source.
func New(dec Reader, sampleRate, channels, bitDepth, bias int, closer io.Closer) *Source {
	return &Source{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
		scale:      1 / FullScale(bitDepth),
		bias:       bias,
		closer:     closer,
	}
}

// FullScale returns the magnitude of the most negative sample at bitDepth.
func FullScale(bitDepth int) float32 {
	switch bitDepth {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default:
		return 32768.0
	}
}

// Supported reports whether bitDepth can be converted.
func Supported(bitDepth int) bool {
	switch bitDepth {
	case 8, 16, 24, 32:
		return true
	default:
		return false
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }

func (s *Source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *Source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.done {
		return 0, io.EOF
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err == io.EOF {
		err = nil
		s.done = true
	}
	if err != nil {
		return 0, err
	}

	for i := range n {
		dst[i] = float32(s.intBuf.Data[i]+s.bias) * s.scale
	}

	// go-audio reports the end of data as a short read with a nil error
	if n < len(dst) {
		s.done = true
	}
	if s.done {
		return n, io.EOF
	}
	return n, nil
}
