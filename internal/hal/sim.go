package hal

import "time"

// SimClock is a manually advanced clock. Millis is derived from Micros, so
// both counters move together.
type SimClock struct {
	micros uint64
}

// NewSimClock creates a clock reading startMicros.
func NewSimClock(startMicros uint64) *SimClock {
	return &SimClock{micros: startMicros}
}

func (c *SimClock) Millis() uint64 { return c.micros / 1000 }
func (c *SimClock) Micros() uint64 { return c.micros }

// Advance moves the clock forward by d (wrapping on overflow).
func (c *SimClock) Advance(d time.Duration) {
	if d < 0 {
		return
	}
	c.micros += uint64(d / time.Microsecond)
}

// AdvanceMillis moves the clock forward by n milliseconds.
func (c *SimClock) AdvanceMillis(n uint64) { c.micros += n * 1000 }

// AdvanceMicros moves the clock forward by n microseconds.
func (c *SimClock) AdvanceMicros(n uint64) { c.micros += n }

// SetMillis jumps the clock to an absolute millisecond reading.
func (c *SimClock) SetMillis(ms uint64) { c.micros = ms * 1000 }

// SimPins simulates a bank of digital pins.
//
// A pin reads, in order of precedence: the level an external source drives
// onto it (Drive), the level last written to it, High when it is in
// InputPullup mode, and Low otherwise. On inputs a written High enables the
// pull-up, the way AVR boards behave.
type SimPins struct {
	modes   map[int]PinMode
	written map[int]Level
	driven  map[int]Level
	writes  int
}

// NewSimPins creates a pin bank with every pin floating low.
func NewSimPins() *SimPins {
	return &SimPins{
		modes:   make(map[int]PinMode),
		written: make(map[int]Level),
		driven:  make(map[int]Level),
	}
}

func (p *SimPins) SetPinMode(pin int, mode PinMode) { p.modes[pin] = mode }

func (p *SimPins) WriteDigital(pin int, level Level) {
	p.written[pin] = level
	p.writes++
}

func (p *SimPins) ReadDigital(pin int) Level {
	if l, ok := p.driven[pin]; ok {
		return l
	}
	if l, ok := p.written[pin]; ok {
		return l
	}
	if p.modes[pin] == InputPullup {
		return High
	}
	return Low
}

// Mode reports the mode last set on pin.
func (p *SimPins) Mode(pin int) PinMode { return p.modes[pin] }

// Written reports the level last written to pin and whether any write happened.
func (p *SimPins) Written(pin int) (Level, bool) {
	l, ok := p.written[pin]
	return l, ok
}

// Writes is the total number of WriteDigital calls.
func (p *SimPins) Writes() int { return p.writes }

// Drive forces pin to level as an external circuit would.
func (p *SimPins) Drive(pin int, level Level) { p.driven[pin] = level }

// Release stops driving pin externally.
func (p *SimPins) Release(pin int) { delete(p.driven, pin) }
