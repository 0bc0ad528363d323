package hal

import (
	"testing"
	"time"
)

func TestHostTimeCountsMilliseconds(t *testing.T) {
	now := time.Unix(0, 0)
	ht := newHostTimeWithClock(func() time.Time { return now })

	ht.step()
	if got := <-ht.Ticks(); got != 1 {
		t.Fatalf("expected first tick 1, got %d", got)
	}

	now = now.Add(2500 * time.Microsecond)
	ht.step()
	if got := <-ht.Ticks(); got != 3 {
		t.Fatalf("expected tick 3 after 2.5ms, got %d", got)
	}

	// The half millisecond carried over completes the next tick.
	now = now.Add(600 * time.Microsecond)
	ht.step()
	if got := <-ht.Ticks(); got != 4 {
		t.Fatalf("expected tick 4, got %d", got)
	}

	now = now.Add(100 * time.Microsecond)
	ht.step()
	select {
	case got := <-ht.Ticks():
		t.Fatalf("expected no tick, got %d", got)
	default:
	}
}
