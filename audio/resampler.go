// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Resampler streams from src to a target sample rate using Catmull-Rom
// interpolation over a four frame window. Channel count is preserved.
// When downsampling a one-pole low-pass is applied to incoming frames.
type Resampler struct {
	src      Source
	channels int
	dstRate  int
	step     float64 // source frames advanced per output frame

	// window[1] and window[2] bracket the output position; real marks
	// frames that came from src rather than edge padding
	window [4][]float32
	real   [4]bool
	frac   float64
	primed bool

	in    []float32
	inPos int
	inLen int
	eof   bool

	lowPass bool
	alpha   float32
	lpState []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		channels: channels,
		dstRate:  dstRate,
		step:     step,
		in:       make([]float32, channels*1024),
		lowPass:  step > 1.0,
		alpha:    0.5,
		lpState:  make([]float32, channels),
	}
	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}
	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler: %w", err)
	}
	return nil
}

// nextFrame copies the next source frame into dst. It returns false once
// the source is exhausted.
func (r *Resampler) nextFrame(dst []float32) (bool, error) {
	if r.inPos >= r.inLen {
		if r.eof {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.channels
		if err == io.EOF {
			r.eof = true
		} else if err != nil {
			return false, fmt.Errorf("resampler: %w", err)
		}
		if r.inLen == 0 {
			// an empty read is treated as the end of the stream
			r.eof = true
			return false, nil
		}
	}

	copy(dst, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels

	if r.lowPass {
		for c := range r.channels {
			dst[c] = r.alpha*dst[c] + (1-r.alpha)*r.lpState[c]
			r.lpState[c] = dst[c]
		}
	}
	return true, nil
}

// fill loads window slot i, padding with the previous slot at end of stream.
func (r *Resampler) fill(i int) error {
	ok, err := r.nextFrame(r.window[i])
	if err != nil {
		return err
	}
	r.real[i] = ok
	if !ok {
		copy(r.window[i], r.window[i-1])
	}
	return nil
}

func (r *Resampler) prime() error {
	ok, err := r.nextFrame(r.window[1])
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	if r.lowPass {
		// seed the filter with the first frame to avoid a fade-in
		copy(r.lpState, r.window[1])
	}

	r.real[1] = true
	copy(r.window[0], r.window[1])
	r.real[0] = true

	if err := r.fill(2); err != nil {
		return err
	}
	if err := r.fill(3); err != nil {
		return err
	}
	r.primed = true
	return nil
}

func (r *Resampler) advance() error {
	first := r.window[0]
	r.window[0], r.window[1], r.window[2] = r.window[1], r.window[2], r.window[3]
	r.window[3] = first
	r.real[0], r.real[1], r.real[2] = r.real[1], r.real[2], r.real[3]
	return r.fill(3)
}

// ReadSamples produces samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	frames := len(dst) / r.channels
	written := 0

	for written < frames {
		for r.frac >= 1.0 {
			r.frac -= 1.0
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		// past the last real frame, or between it and padding
		if !r.real[1] || (!r.real[2] && r.frac > 0) {
			return written * r.channels, io.EOF
		}

		x := float32(r.frac)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range r.channels {
			out[c] = cubic(r.window[0][c], r.window[1][c], r.window[2][c], r.window[3][c], x)
		}

		written++
		r.frac += r.step
	}

	return written * r.channels, nil
}

// cubic evaluates a Catmull-Rom spline between y1 (x=0) and y2 (x=1).
func cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	return ((a0*x+a1)*x+a2)*x + y1
}
