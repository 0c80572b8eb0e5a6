// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ik5/audcache/internal/audiotest"
)

type failingSource struct {
	calls int
}

func (s *failingSource) SampleRate() int { return 8000 }
func (s *failingSource) Channels() int   { return 1 }
func (s *failingSource) BufSize() int    { return 16 }
func (s *failingSource) Close() error    { return nil }

func (s *failingSource) ReadSamples(dst []float32) (int, error) {
	s.calls++
	if s.calls > 1 {
		return 0, errors.New("device unplugged")
	}
	return len(dst), nil
}

func TestReadAll_CollectsEverySample(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 2, 1000, 0.25)
	buf, err := ReadAll(src, 300)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if buf.SampleRate != 8000 || buf.Channels != 2 {
		t.Errorf("format = %d Hz/%d ch, want 8000 Hz/2 ch", buf.SampleRate, buf.Channels)
	}
	if buf.Frames() != 1000 {
		t.Errorf("Frames() = %d, want 1000", buf.Frames())
	}
	for i, v := range buf.Data {
		if v != 0.25 {
			t.Fatalf("Data[%d] = %v, want 0.25", i, v)
		}
	}
	if !src.Closed() {
		t.Error("ReadAll() did not close the source")
	}
}

func TestReadAll_AlignsOddBufferSize(t *testing.T) {
	t.Parallel()

	// a 3 sample chunk would split stereo frames; ReadAll rounds it up
	src := audiotest.NewSineSource(8000, 2, 17, 440)
	buf, err := ReadAll(src, 3)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if buf.Frames() != 17 {
		t.Errorf("Frames() = %d, want 17", buf.Frames())
	}
}

func TestReadAll_PropagatesErrors(t *testing.T) {
	t.Parallel()

	_, err := ReadAll(&failingSource{}, 0)
	if err == nil {
		t.Fatal("ReadAll() error = nil, want read error")
	}
}

func TestReadAll_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := ReadAll(audiotest.NewSilentSource(0, 1, 10), 0)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("ReadAll() error = %v, want ErrInvalidFormat", err)
	}
}

func TestBuffer_Duration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		buf  *Buffer
		want time.Duration
	}{
		{"nil", nil, 0},
		{"one second mono", &Buffer{SampleRate: 100, Channels: 1, Data: make([]float32, 100)}, time.Second},
		{"half second stereo", &Buffer{SampleRate: 100, Channels: 2, Data: make([]float32, 100)}, 500 * time.Millisecond},
		{"zero rate", &Buffer{SampleRate: 0, Channels: 1, Data: make([]float32, 10)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.buf.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBufferSource_Replays(t *testing.T) {
	t.Parallel()

	buf := &Buffer{SampleRate: 8000, Channels: 1, Data: []float32{0.1, 0.2, 0.3, 0.4, 0.5}}
	src := NewBufferSource(buf)

	dst := make([]float32, 2)
	var got []float32
	for {
		n, err := src.ReadSamples(dst)
		got = append(got, dst[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	if len(got) != len(buf.Data) {
		t.Fatalf("read %d samples, want %d", len(got), len(buf.Data))
	}
	for i := range got {
		if got[i] != buf.Data[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], buf.Data[i])
		}
	}

	// a second source starts from the beginning again
	if n, _ := NewBufferSource(buf).ReadSamples(dst); n != 2 || dst[0] != 0.1 {
		t.Errorf("fresh source read n=%d first=%v, want 2 and 0.1", n, dst[0])
	}
}
