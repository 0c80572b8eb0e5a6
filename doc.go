// SPDX-License-Identifier: EPL-2.0

// Package audcache is an asynchronous cache of sound assets.
//
// A Cache turns short names into source ids (directory + name + extension),
// asks an engine.Engine to load them and keeps the resulting Handles. Loads
// are tracked twice: through the engine's load notification and through a
// polling fallback that checks the sound after an initial delay and then at
// a fixed interval, giving up after a configurable number of checks.
//
// On top of the store sit two helpers:
//
//   - a sequential load queue (Enqueue, LoadQueue) that skips names already
//     cached, loads the rest one after another and reports progress;
//   - one-shot playback (PlayOnce) that reclaims finished sounds.
//
// Handles created by the queue and by PlayOnce are Transient and can be
// flushed together with ResetQueuedInstance, leaving Session handles from
// Create in place.
//
// Example:
//
//	eng := headless.New(headless.WithLogger(logger))
//	c := audcache.New(eng, audcache.WithDirectory("./sfx/"))
//
//	c.SetStatusCallback(func(p float64) { fmt.Printf("%3.0f%%\n", p*100) })
//	c.SetQueueCallback(func() { fmt.Println("ready") })
//	for _, name := range []string{"jump", "coin", "hit"} {
//	    c.Enqueue(name)
//	}
//	c.LoadQueue()
package audcache
