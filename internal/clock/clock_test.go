package clock

import (
	"testing"
	"time"

	"flapd/pkg/logx"
)

func TestMillisMonotonic(t *testing.T) {
	t.Parallel()
	c := NewSystem("", logx.Nop())
	a := c.NowMillis()
	time.Sleep(5 * time.Millisecond)
	b := c.NowMillis()
	if b-a == 0 || b-a > 10_000 {
		t.Fatalf("delta = %d ms, want a small positive value", b-a)
	}
}

func TestWrapDelta(t *testing.T) {
	t.Parallel()
	// The invariant callers rely on: deltas survive counter wrap.
	var last uint32 = 1<<32 - 1
	var now uint32 = 4
	if d := now - last; d != 5 {
		t.Fatalf("wrap delta = %d, want 5", d)
	}
}

func TestSyncedFlag(t *testing.T) {
	t.Parallel()
	c := NewSystem("UTC", logx.Nop())
	if c.Synced() {
		t.Fatal("clock should start unsynced")
	}
	c.MarkSynced()
	if !c.Synced() {
		t.Fatal("MarkSynced did not stick")
	}
}

func TestInvalidZoneFallsBack(t *testing.T) {
	t.Parallel()
	c := NewSystem("Not/AZone", logx.Nop())
	if c.Location() != time.Local {
		t.Fatalf("Location = %v, want time.Local", c.Location())
	}
}
