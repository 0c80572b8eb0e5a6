// SPDX-License-Identifier: EPL-2.0

package audcache_test

import (
	"fmt"
	"time"

	"github.com/ik5/audcache"
	"github.com/ik5/audcache/internal/audiotest"
)

func ExampleCache_LoadQueue() {
	eng := audiotest.NewMockEngine()
	c := audcache.New(eng,
		audcache.WithDirectory("sfx/"),
		audcache.WithClock(audiotest.NewFakeClock(time.Unix(0, 0))),
	)

	c.SetStatusCallback(func(p float64) {
		fmt.Printf("progress %.0f%%\n", p*100)
	})
	c.SetQueueCallback(func() {
		fmt.Println("all loaded")
	})

	c.Enqueue("jump")
	c.Enqueue("coin")
	c.LoadQueue()

	// the mock engine finishes loads when told to
	eng.Last().Complete()
	eng.Last().Complete()

	for _, h := range c.Handles() {
		fmt.Println(h.SourceID(), h.State(), h.Retention())
	}

	// Output:
	// progress 0%
	// progress 50%
	// progress 100%
	// all loaded
	// sfx/jump.wav loaded transient
	// sfx/coin.wav loaded transient
}

func ExampleCache_IsLoading() {
	eng := audiotest.NewMockEngine()
	c := audcache.New(eng, audcache.WithClock(audiotest.NewFakeClock(time.Unix(0, 0))))

	if _, ok := c.IsLoading(); !ok {
		fmt.Println("nothing cached")
	}

	c.Create("music")
	c.Create("music")
	eng.Last().Complete()

	frac, _ := c.IsLoading()
	fmt.Printf("%.1f of %d handles loaded\n", frac, c.Len())

	// Output:
	// nothing cached
	// 0.5 of 2 handles loaded
}
