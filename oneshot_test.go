// SPDX-License-Identifier: EPL-2.0

package audcache

import (
	"testing"
)

func TestPlayOnce_ReclaimedOnEnd(t *testing.T) {
	t.Parallel()

	c, eng, _ := newTestCache(t, false)
	h, err := c.PlayOnce("fx")
	if err != nil {
		t.Fatalf("PlayOnce() error = %v", err)
	}
	s := eng.Last()
	s.Complete()

	if s.Plays() != 1 {
		t.Errorf("engine Play calls = %d, want 1", s.Plays())
	}
	if h.Retention() != Transient {
		t.Errorf("Retention() = %v, want transient", h.Retention())
	}
	if c.OneShots() != 1 || c.Len() != 1 {
		t.Fatalf("OneShots() = %d Len() = %d, want 1 and 1", c.OneShots(), c.Len())
	}

	s.Finish()

	if c.OneShots() != 0 {
		t.Errorf("OneShots() = %d after end, want 0", c.OneShots())
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after end, want 0", c.Len())
	}
	if s.Unloads() != 1 || !h.Released() {
		t.Errorf("engine Unload calls = %d released = %v, want 1 and true", s.Unloads(), h.Released())
	}

	// a repeated end event finds nothing to do
	s.Finish()
	if s.Unloads() != 1 {
		t.Errorf("engine Unload calls = %d after a second end, want 1", s.Unloads())
	}
}

func TestPlayOnce_SweepKeepsPlaying(t *testing.T) {
	t.Parallel()

	c, eng, _ := newTestCache(t, false)
	if _, err := c.PlayOnce("a"); err != nil {
		t.Fatal(err)
	}
	first := eng.Last()
	if _, err := c.PlayOnce("b"); err != nil {
		t.Fatal(err)
	}
	second := eng.Last()
	if _, err := c.PlayOnce("c"); err != nil {
		t.Fatal(err)
	}
	loading := eng.Last()

	first.Complete()
	second.Complete()
	first.Finish()

	if c.OneShots() != 2 {
		t.Fatalf("OneShots() = %d, want 2", c.OneShots())
	}
	if second.Unloads() != 0 || loading.Unloads() != 0 {
		t.Error("sweep released a one-shot that was still playing or loading")
	}

	second.Finish()
	if c.OneShots() != 1 {
		t.Errorf("OneShots() = %d, want only the loading one-shot left", c.OneShots())
	}
}

func TestPlayOnce_SweepCollectsAllFinished(t *testing.T) {
	t.Parallel()

	c, eng, _ := newTestCache(t, false)
	for _, name := range []string{"a", "b", "c"} {
		if _, err := c.PlayOnce(name); err != nil {
			t.Fatal(err)
		}
		eng.Last().Complete()
	}

	sounds := eng.Sounds()
	// two sounds stop without their own end event reaching the cache
	sounds[0].Stop()
	sounds[1].Stop()
	sounds[2].Finish()

	if c.OneShots() != 0 || c.Len() != 0 {
		t.Errorf("OneShots() = %d Len() = %d, want 0 and 0", c.OneShots(), c.Len())
	}
	for _, s := range sounds {
		if s.Unloads() != 1 {
			t.Errorf("sound %s unloaded %d times, want 1", s.ID(), s.Unloads())
		}
	}
}

func TestPlayOnce_FailedLoadReclaimed(t *testing.T) {
	t.Parallel()

	c, eng, _ := newTestCache(t, false)
	if _, err := c.PlayOnce("missing"); err != nil {
		t.Fatalf("PlayOnce() error = %v", err)
	}
	eng.Last().Fail(errDecode)

	if c.OneShots() != 0 || c.Len() != 0 {
		t.Errorf("OneShots() = %d Len() = %d, want 0 and 0", c.OneShots(), c.Len())
	}
}

func TestPlayOnce_NotDeduplicated(t *testing.T) {
	t.Parallel()

	c, eng, _ := newTestCache(t, false)
	c.Create("step")
	for range 3 {
		if _, err := c.PlayOnce("step"); err != nil {
			t.Fatal(err)
		}
	}

	if got := len(eng.Loads()); got != 4 {
		t.Errorf("engine loads = %d, want 4", got)
	}
	if c.OneShots() != 3 {
		t.Errorf("OneShots() = %d, want 3", c.OneShots())
	}
}

func TestPlayOnce_DestroyForgetsOneShot(t *testing.T) {
	t.Parallel()

	c, eng, _ := newTestCache(t, false)
	if _, err := c.PlayOnce("fx"); err != nil {
		t.Fatal(err)
	}
	s := eng.Last()
	s.Complete()

	c.Destroy("fx", nil)
	if c.OneShots() != 0 {
		t.Errorf("OneShots() = %d after Destroy, want 0", c.OneShots())
	}

	s.Finish()
	if s.Unloads() != 1 {
		t.Errorf("engine Unload calls = %d, want 1", s.Unloads())
	}
}
