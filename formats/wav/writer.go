// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// WriteWAV16 writes interleaved 16-bit PCM samples as a WAV file.
// The encoder seeks back to patch the chunk sizes, hence io.WriteSeeker.
func WriteWAV16(w io.WriteSeeker, sampleRate, channels int, samples []int16) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return ErrInvalidChannels
	}

	enc := gowav.NewEncoder(w, sampleRate, 16, channels, wavFormatPCM)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return errors.Join(fmt.Errorf("wav: write: %w", err), enc.Close())
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav: close: %w", err)
	}
	return nil
}

// EncodeWAV16 is WriteWAV16 into memory.
func EncodeWAV16(sampleRate, channels int, samples []int16) ([]byte, error) {
	var ws writeSeeker
	if err := WriteWAV16(&ws, sampleRate, channels, samples); err != nil {
		return nil, err
	}
	return ws.buf, nil
}

// writeSeeker is an in-memory io.WriteSeeker.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	if end := w.pos + len(p); end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	n := copy(w.buf[w.pos:], p)
	w.pos += n
	return n, nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(w.pos) + offset
	case io.SeekEnd:
		next = int64(len(w.buf)) + offset
	default:
		return 0, fmt.Errorf("wav: invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("wav: negative position %d", next)
	}
	w.pos = int(next)
	return next, nil
}
