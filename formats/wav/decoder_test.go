// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/audcache/audio"
)

type closeTracker struct {
	*bytes.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func mustEncode(t *testing.T, rate, channels int, samples []int16) []byte {
	t.Helper()

	data, err := EncodeWAV16(rate, channels, samples)
	if err != nil {
		t.Fatalf("EncodeWAV16() error = %v", err)
	}
	return data
}

func TestDecoder_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rate     int
		channels int
		samples  []int16
	}{
		{"mono 8k", 8000, 1, []int16{0, 100, 200, -100, -200, 0}},
		{"stereo 44.1k", 44100, 2, []int16{100, 200, 300, 400, 500, 600}},
		{"single frame", 16000, 1, []int16{42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := Decoder{}.Decode(bytes.NewReader(mustEncode(t, tt.rate, tt.channels, tt.samples)))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if src.SampleRate() != tt.rate {
				t.Errorf("SampleRate() = %d, want %d", src.SampleRate(), tt.rate)
			}
			if src.Channels() != tt.channels {
				t.Errorf("Channels() = %d, want %d", src.Channels(), tt.channels)
			}

			clip, err := audio.ReadAll(src, 64)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(clip.Data) != len(tt.samples) {
				t.Fatalf("decoded %d samples, want %d", len(clip.Data), len(tt.samples))
			}
			for i, s := range tt.samples {
				want := float32(s) / 32768.0
				if math.Abs(float64(clip.Data[i]-want)) > 1e-6 {
					t.Errorf("sample %d = %v, want %v", i, clip.Data[i], want)
				}
			}
		})
	}
}

func TestDecoder_NonSeekableReader(t *testing.T) {
	t.Parallel()

	data := mustEncode(t, 8000, 1, []int16{1, 2, 3, 4})
	// io.MultiReader hides Seek, forcing the in-memory path
	src, err := Decoder{}.Decode(io.MultiReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	clip, err := audio.ReadAll(src, 0)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if clip.Frames() != 4 {
		t.Errorf("Frames() = %d, want 4", clip.Frames())
	}
}

func TestDecoder_ClosesReader(t *testing.T) {
	t.Parallel()

	r := &closeTracker{Reader: bytes.NewReader(mustEncode(t, 8000, 1, []int16{1, 2}))}
	src, err := Decoder{}.Decode(r)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !r.closed {
		t.Error("Close() did not close the underlying reader")
	}
}

func TestDecoder_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"garbage", []byte("NOT A WAV FILE DATA AT ALL, JUST TEXT"), ErrNotWavFile},
		{"empty", nil, ErrNotWavFile},
		{"truncated", []byte("RIFF\x00"), ErrNotWavFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	reg := audio.NewRegistry()
	Register(reg)

	for _, path := range []string{"a.wav", "b.WAV", "c.wave"} {
		if _, err := reg.Lookup(path); err != nil {
			t.Errorf("Lookup(%q) error = %v", path, err)
		}
	}
}
