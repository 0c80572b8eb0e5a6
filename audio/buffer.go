// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// Buffer is a fully decoded clip held in memory as interleaved float32 samples.
type Buffer struct {
	SampleRate int
	Channels   int
	Data       []float32
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the playback length of the clip at its native rate.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// ReadAll drains src into a Buffer and closes it.
// bufferSize is the read chunk in samples; values <= 0 use src.BufSize().
func ReadAll(src Source, bufferSize int) (*Buffer, error) {
	defer src.Close()

	if src.SampleRate() <= 0 || src.Channels() <= 0 {
		return nil, ErrInvalidFormat
	}

	if bufferSize <= 0 {
		bufferSize = src.BufSize()
	}
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	// keep reads frame aligned so resamplers and mixers accept the slice
	if rem := bufferSize % src.Channels(); rem != 0 {
		bufferSize += src.Channels() - rem
	}

	out := &Buffer{
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
		Data:       make([]float32, 0, bufferSize*4),
	}
	chunk := make([]float32, bufferSize)

	for {
		n, err := src.ReadSamples(chunk)
		if n > 0 {
			out.Data = append(out.Data, chunk[:n]...)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		if n == 0 {
			// a source that returns nothing without EOF is treated as drained
			break
		}
	}

	return out, nil
}

// bufferSource replays a Buffer as a Source.
type bufferSource struct {
	buf *Buffer
	pos int
}

// NewBufferSource returns a Source that streams b from the start.
// The buffer is shared, not copied.
func NewBufferSource(b *Buffer) Source {
	return &bufferSource{buf: b}
}

func (s *bufferSource) SampleRate() int { return s.buf.SampleRate }
func (s *bufferSource) Channels() int   { return s.buf.Channels }
func (s *bufferSource) BufSize() int    { return 4096 }
func (s *bufferSource) Close() error    { return nil }

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.buf.Data) {
		return 0, io.EOF
	}

	n := copy(dst, s.buf.Data[s.pos:])
	s.pos += n

	if s.pos >= len(s.buf.Data) {
		return n, io.EOF
	}
	return n, nil
}
