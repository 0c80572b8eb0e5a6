// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"
	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/formats/internal/intpcm"
)

// Extensions handled by this package.
var Extensions = []string{"wav", "wave"}

// Register adds the WAV decoder to reg under every extension.
func Register(reg *audio.Registry) {
	for _, ext := range Extensions {
		reg.Register(ext, Decoder{})
	}
}

const wavFormatPCM = 1

type Decoder struct{}

// Decode parses the RIFF header with go-audio/wav and streams the PCM data
// chunk. Readers that cannot seek are buffered in memory first. If r is an
// io.Closer it is closed together with the source.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}

	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	if dec.WavAudioFormat != wavFormatPCM {
		return nil, ErrNotPCM
	}

	bitDepth := int(dec.BitDepth)
	if !intpcm.Supported(bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrUnsupportedWavLayout
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	bias := 0
	if bitDepth == 8 {
		bias = -128
	}

	closer, _ := r.(io.Closer)
	return intpcm.New(dec, format.SampleRate, format.NumChannels, bitDepth, bias, closer), nil
}
