// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and encodes WAV files through github.com/go-audio/wav.
//
// # Supported Formats
//
// The decoder accepts integer PCM at 8, 16, 24 and 32 bits, any channel
// count and any sample rate. Samples come out as float32 in [-1.0, 1.0].
//
// # Decoding
//
//	file, _ := os.Open("./sounds/step.wav")
//	src, err := wav.Decoder{}.Decode(file)
//	if err != nil {
//	    // errors.Is(err, wav.ErrNotWavFile), ...
//	}
//	defer src.Close() // also closes file
//
// Register adds the decoder to an audio.Registry under "wav" and "wave".
//
// # Encoding
//
// WriteWAV16 writes interleaved 16-bit samples to an io.WriteSeeker;
// EncodeWAV16 returns the file bytes, which is handy for fixtures:
//
//	data, _ := wav.EncodeWAV16(8000, 1, []int16{100, -100, 200, -200})
//
// # Errors
//
//   - ErrNotWavFile: no RIFF/WAVE header
//   - ErrUnsupportedWavLayout: header present but unusable
//   - ErrNotPCM: compressed or float WAV
//   - ErrUnsupportedBitDepth: bit depth other than 8/16/24/32
//   - ErrInvalidChannels: WriteWAV16 sample count not frame aligned
package wav
