// SPDX-License-Identifier: EPL-2.0

// Package audio provides the PCM primitives shared by the decoders and the
// engines.
//
// This package contains:
//   - Source interface for streamed audio input
//   - Registry mapping file extensions to decoders
//   - Buffer, a fully decoded clip, plus ReadAll and NewBufferSource
//   - Resampler for sample rate conversion
//   - MonoMixer for channel down-mixing
//
// # Source Interface
//
// Every decoder and processor implements Source so they can be chained:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 values in [-1.0, 1.0]. ReadSamples returns
// io.EOF once the stream is finished.
//
// # Registry
//
// Decoders are registered by extension and looked up by path:
//
//	reg := audio.NewRegistry()
//	wav.Register(reg)
//	dec, err := reg.Lookup("./sounds/step.wav")
//
// Lookup wraps ErrUnsupportedFormat when no decoder matches.
//
// # Decoding a Whole Clip
//
// Engines that keep clips in memory use ReadAll, optionally after
// normalizing the stream:
//
//	src, _ := dec.Decode(file)
//	src = audio.NewMonoMixer(audio.NewResampler(src, 44100))
//	clip, err := audio.ReadAll(src, 4096)
//	fmt.Println(clip.Duration())
package audio
