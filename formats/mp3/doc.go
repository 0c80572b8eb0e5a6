// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files with github.com/hajimehoshi/go-mp3.
//
// The source is always stereo at the file's sample rate; samples are
// float32 in [-1.0, 1.0]. Use audio.NewMonoMixer and audio.NewResampler to
// normalize it:
//
//	src, err := mp3.Decoder{}.Decode(file)
//	if err != nil {
//	    return err
//	}
//	clip, err := audio.ReadAll(audio.NewMonoMixer(src), 0)
//
// Register adds the decoder to an audio.Registry under "mp3".
// Encoding is not supported.
package mp3
