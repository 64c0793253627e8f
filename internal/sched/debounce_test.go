package sched

import (
	"testing"

	"coopsched/internal/hal"
)

type edgeCounter struct {
	opens, closes int
}

func (c *edgeCounter) config(pin int, debounce uint64, w Wiring) InputConfig {
	return InputConfig{
		Pin:        pin,
		DebounceMS: Debounce(debounce),
		Wiring:     w,
		OnOpen:     func() { c.opens++ },
		OnClose:    func() { c.closes++ },
	}
}

func TestDebounceIgnoresFlicker(t *testing.T) {
	const pin = 4
	clock := hal.NewSimClock(0)
	pins := hal.NewSimPins()
	pins.Drive(pin, hal.Low)
	var edges edgeCounter
	d := NewDebouncedInput(clock, pins, edges.config(pin, 50, ExternalPullUp))

	if !d.IsClosed() {
		t.Fatal("low on a pull-up input should read closed")
	}

	script := map[uint64]hal.Level{0: hal.High, 30: hal.Low, 40: hal.High}
	for ms := uint64(0); ms <= 120; ms++ {
		if l, ok := script[ms]; ok {
			pins.Drive(pin, l)
		}
		clock.SetMillis(ms)
		if !d.advance() {
			t.Fatalf("watcher finished at %d ms", ms)
		}

		switch {
		case ms < 90 && !d.IsClosed():
			t.Fatalf("stable state changed early at %d ms", ms)
		case ms >= 90 && !d.IsOpen():
			t.Fatalf("stable state not open at %d ms", ms)
		}
	}

	if edges.opens != 1 || edges.closes != 0 {
		t.Fatalf("opens=%d closes=%d, want 1/0", edges.opens, edges.closes)
	}
	if got := d.TimeOpen(); got != 120-40 {
		t.Fatalf("TimeOpen = %d, want 80", got)
	}
	if got := d.TimeClosed(); got != 0 {
		t.Fatalf("TimeClosed while open = %d", got)
	}
}

func TestDebounceConfiguresPin(t *testing.T) {
	tests := []struct {
		wiring   Wiring
		wantBias hal.Level
		wantOpen bool
	}{
		{InternalPullUp, hal.High, true},
		{ExternalPullUp, hal.Low, false},
		{ExternalPullDown, hal.Low, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.wiring.String(), func(t *testing.T) {
			pins := hal.NewSimPins()
			var edges edgeCounter
			cfg := edges.config(7, 0, tt.wiring)
			cfg.DebounceMS = nil
			d := NewDebouncedInput(hal.NewSimClock(0), pins, cfg)

			if pins.Mode(7) != hal.Input {
				t.Fatalf("pin mode = %v, want input", pins.Mode(7))
			}
			if bias, ok := pins.Written(7); !ok || bias != tt.wantBias {
				t.Fatalf("bias = %v (written %v), want %v", bias, ok, tt.wantBias)
			}
			if d.IsOpen() != tt.wantOpen {
				t.Fatalf("IsOpen = %v, want %v", d.IsOpen(), tt.wantOpen)
			}
			if d.debounce != DefaultDebounceMS {
				t.Fatalf("debounce = %d, want default", d.debounce)
			}

			d.advance()
			if edges.opens+edges.closes != 0 {
				t.Fatal("spurious edge reported at start")
			}
		})
	}
}

func TestDebouncePullDownPolarity(t *testing.T) {
	const pin = 2
	clock := hal.NewSimClock(0)
	pins := hal.NewSimPins()
	var edges edgeCounter
	d := NewDebouncedInput(clock, pins, edges.config(pin, 10, ExternalPullDown))

	pins.Drive(pin, hal.High)
	d.advance()
	clock.SetMillis(10)
	d.advance()
	if edges.closes != 1 || !d.IsClosed() {
		t.Fatalf("closes=%d closed=%v, want 1/true", edges.closes, d.IsClosed())
	}

	clock.SetMillis(25)
	if got := d.TimeClosed(); got != 25 {
		t.Fatalf("TimeClosed = %d, want 25", got)
	}
	if d.TimeOpen() != 0 {
		t.Fatal("TimeOpen while closed should be 0")
	}

	pins.Drive(pin, hal.Low)
	d.advance()
	clock.SetMillis(35)
	d.advance()
	if edges.opens != 1 || !d.IsOpen() {
		t.Fatalf("opens=%d open=%v, want 1/true", edges.opens, d.IsOpen())
	}
}

func TestDebounceKillStopsWatcher(t *testing.T) {
	const pin = 3
	clock := hal.NewSimClock(0)
	pins := hal.NewSimPins()
	var edges edgeCounter
	d := NewDebouncedInput(clock, pins, edges.config(pin, 5, InternalPullUp))

	pins.Drive(pin, hal.Low)
	d.advance()
	if err := d.RequestKill(false); err != nil {
		t.Fatalf("RequestKill: %v", err)
	}
	clock.SetMillis(100)
	if d.advance() {
		t.Fatal("watcher ignored kill request")
	}
	if edges.opens+edges.closes != 0 {
		t.Fatal("callback fired after kill")
	}
}

func TestParseWiring(t *testing.T) {
	tests := []struct {
		in      string
		want    Wiring
		wantErr bool
	}{
		{"", InternalPullUp, false},
		{"internal_pullup", InternalPullUp, false},
		{"External_PullUp", ExternalPullUp, false},
		{" external_pulldown ", ExternalPullDown, false},
		{"floating", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseWiring(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseWiring(%q) err = %v", tt.in, err)
		}
		if !tt.wantErr && got != tt.want {
			t.Fatalf("ParseWiring(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDebounceZeroWindowAcceptsNextStep(t *testing.T) {
	const pin = 5
	clock := hal.NewSimClock(0)
	pins := hal.NewSimPins()
	var edges edgeCounter
	d := NewDebouncedInput(clock, pins, edges.config(pin, 0, InternalPullUp))
	if !d.IsOpen() {
		t.Fatal("pulled-up input should start open")
	}

	pins.Drive(pin, hal.Low)
	d.advance() // raw change recorded
	if edges.closes != 0 {
		t.Fatal("change accepted on the step that saw it")
	}
	d.advance()
	if edges.closes != 1 || !d.IsClosed() {
		t.Fatalf("closes = %d closed = %v, want 1/true", edges.closes, d.IsClosed())
	}
}
