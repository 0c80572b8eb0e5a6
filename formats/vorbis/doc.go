// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files with github.com/jfreymuth/oggvorbis.
//
// Channel count and sample rate come from the stream headers; samples are
// float32 in [-1.0, 1.0]:
//
//	src, err := vorbis.Decoder{}.Decode(file)
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
// Register adds the decoder to an audio.Registry under "ogg" and "oga".
package vorbis
