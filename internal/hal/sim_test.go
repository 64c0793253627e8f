package hal

import (
	"math"
	"testing"
	"time"
)

func TestSimClockAdvance(t *testing.T) {
	c := NewSimClock(0)
	c.AdvanceMillis(3)
	c.AdvanceMicros(250)
	c.Advance(2 * time.Millisecond)

	if got := c.Micros(); got != 5250 {
		t.Fatalf("Micros = %d, want 5250", got)
	}
	if got := c.Millis(); got != 5 {
		t.Fatalf("Millis = %d, want 5", got)
	}

	c.Advance(-time.Second)
	if got := c.Micros(); got != 5250 {
		t.Fatalf("negative advance moved clock to %d", got)
	}
}

func TestSimClockWraps(t *testing.T) {
	start := uint64(math.MaxUint64 - 4)
	c := NewSimClock(start)
	c.AdvanceMicros(10)

	if got := c.Micros(); got != 5 {
		t.Fatalf("Micros after wrap = %d, want 5", got)
	}
	if elapsed := c.Micros() - start; elapsed != 10 {
		t.Fatalf("unsigned elapsed = %d, want 10", elapsed)
	}
}

func TestSimPinsPrecedence(t *testing.T) {
	p := NewSimPins()

	if got := p.ReadDigital(2); got != Low {
		t.Fatalf("floating pin = %v, want low", got)
	}

	p.SetPinMode(2, InputPullup)
	if got := p.ReadDigital(2); got != High {
		t.Fatalf("pulled-up pin = %v, want high", got)
	}

	p.WriteDigital(2, Low)
	if got := p.ReadDigital(2); got != Low {
		t.Fatalf("written pin = %v, want low", got)
	}

	p.Drive(2, High)
	if got := p.ReadDigital(2); got != High {
		t.Fatalf("driven pin = %v, want high", got)
	}

	p.Release(2)
	if got := p.ReadDigital(2); got != Low {
		t.Fatalf("released pin = %v, want low", got)
	}
	if p.Writes() != 1 {
		t.Fatalf("Writes = %d, want 1", p.Writes())
	}
}
