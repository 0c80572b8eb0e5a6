// SPDX-License-Identifier: EPL-2.0

// Package headless implements engine.Engine without an audio device.
//
// Files are read from the OS or an fs.FS, decoded with the decoder
// registered for their extension and kept in memory as float32 PCM,
// optionally down-mixed and resampled to a common format. Playback is
// simulated: a sound "plays" for its duration on the engine's clock and
// then reports the end, which makes the engine useful for servers, tools
// and tests that need real decoding and realistic timing.
//
//	eng := headless.New(
//	    headless.WithSampleRate(44100),
//	    headless.WithMaxConcurrent(4),
//	)
//	c := audcache.New(eng)
package headless
