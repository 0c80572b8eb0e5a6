// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files with github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 and 32 bits is supported, any channel count and
// sample rate:
//
//	file, _ := os.Open("./sounds/door.aif")
//	src, err := aiff.Decoder{}.Decode(file)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // not AIFF
//	}
//
// Register adds the decoder to an audio.Registry under "aif" and "aiff".
package aiff
