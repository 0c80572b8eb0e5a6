// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	goaiff "github.com/go-audio/aiff"
	"github.com/ik5/audcache/audio"
	"github.com/ik5/audcache/formats/internal/intpcm"
)

// Extensions handled by this package.
var Extensions = []string{"aif", "aiff"}

// Register adds the AIFF decoder to reg under every extension.
func Register(reg *audio.Registry) {
	for _, ext := range Extensions {
		reg.Register(ext, Decoder{})
	}
}

type Decoder struct{}

// Decode reads the COMM chunk with go-audio/aiff. go-audio needs to seek, so
// other readers are buffered in memory first. If r is an io.Closer it is
// closed together with the source.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := goaiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	bitDepth := int(dec.BitDepth)
	if !intpcm.Supported(bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	closer, _ := r.(io.Closer)
	return intpcm.New(dec, format.SampleRate, format.NumChannels, bitDepth, 0, closer), nil
}
