// SPDX-License-Identifier: EPL-2.0

package headless

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ik5/audcache"
	"github.com/ik5/audcache/internal/audiotest"
)

func TestCache_WithHeadlessEngine(t *testing.T) {
	t.Parallel()

	clk := audiotest.NewFakeClock(time.Unix(0, 0))
	fsys := fstest.MapFS{
		"sfx/jump.wav": {Data: tone(t, 8000, 1, 4000)},
		"sfx/coin.wav": {Data: tone(t, 8000, 2, 2000)},
	}
	c := audcache.New(New(WithFS(fsys), WithClock(clk)),
		audcache.WithDirectory("sfx/"),
		audcache.WithClock(clk),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	jump := c.Create("jump")
	if err := jump.Wait(ctx); err != nil {
		t.Fatalf("Wait(jump) error = %v", err)
	}
	if d, _ := jump.Duration(); d != 500*time.Millisecond {
		t.Errorf("jump Duration() = %v, want 500ms", d)
	}

	missing := c.Create("missing")
	if err := missing.Wait(ctx); !errors.Is(err, audcache.ErrLoadFailed) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Wait(missing) error = %v, want ErrLoadFailed wrapping fs.ErrNotExist", err)
	}

	shot, err := c.PlayOnce("coin")
	if err != nil {
		t.Fatalf("PlayOnce() error = %v", err)
	}
	if err := shot.Wait(ctx); err != nil {
		t.Fatalf("Wait(coin) error = %v", err)
	}
	if playing, _ := shot.Playing(); !playing {
		t.Fatal("one-shot is not playing after its load")
	}

	clk.Advance(250 * time.Millisecond)
	if c.OneShots() != 0 {
		t.Errorf("OneShots() = %d after the sound ended, want 0", c.OneShots())
	}
	if !shot.Released() {
		t.Error("finished one-shot was not released")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want jump and the failed load", c.Len())
	}
}

func TestQueue_WithHeadlessEngine(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a.wav": {Data: tone(t, 8000, 1, 80)},
		"b.wav": {Data: tone(t, 8000, 1, 80)},
		"c.wav": {Data: tone(t, 8000, 1, 80)},
	}
	c := audcache.New(New(WithFS(fsys)), audcache.WithDirectory(""))

	done := make(chan struct{})
	var last float64
	c.SetStatusCallback(func(p float64) { last = p })
	c.SetQueueCallback(func() { close(done) })

	for _, name := range []string{"a", "b", "c", "a"} {
		c.Enqueue(name)
	}
	c.LoadQueue()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not finish")
	}

	if last != 1 {
		t.Errorf("last status = %v, want 1", last)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
	if frac, ok := c.IsLoading(); !ok || frac != 1 {
		t.Errorf("IsLoading() = %v, %v; want 1, true", frac, ok)
	}
}
