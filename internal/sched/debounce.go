package sched

import (
	"fmt"
	"strings"

	"coopsched/internal/hal"
)

// DefaultDebounceMS is the debounce window used when none is configured.
const DefaultDebounceMS = 50

// Wiring describes how a switch is biased, which fixes the mapping from
// electrical level to open/closed.
type Wiring uint8

const (
	// InternalPullUp uses the MCU's pull-up; high means open.
	InternalPullUp Wiring = iota
	// ExternalPullUp uses an external pull-up resistor; high means open.
	ExternalPullUp
	// ExternalPullDown uses an external pull-down resistor; high means closed.
	ExternalPullDown
)

func (w Wiring) String() string {
	switch w {
	case InternalPullUp:
		return "internal_pullup"
	case ExternalPullUp:
		return "external_pullup"
	case ExternalPullDown:
		return "external_pulldown"
	default:
		return "unknown"
	}
}

// ParseWiring accepts the names produced by Wiring.String. An empty string
// means InternalPullUp.
func ParseWiring(s string) (Wiring, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "internal_pullup":
		return InternalPullUp, nil
	case "external_pullup":
		return ExternalPullUp, nil
	case "external_pulldown":
		return ExternalPullDown, nil
	}
	return 0, fmt.Errorf("unknown wiring %q", s)
}

// Debounce returns a debounce window for InputConfig.DebounceMS.
func Debounce(ms uint64) *uint64 { return &ms }

// InputConfig configures a DebouncedInput.
type InputConfig struct {
	Pin int
	// DebounceMS is how long a raw level must hold before it is accepted.
	// Nil means DefaultDebounceMS; zero accepts a change on the next step.
	DebounceMS *uint64
	Wiring     Wiring
	OnOpen     func()
	OnClose    func()
}

// DebouncedInput watches a digital input, filters contact bounce, and calls
// OnOpen/OnClose once per accepted transition.
type DebouncedInput struct {
	*Task

	pins     hal.Pins
	pin      int
	debounce uint64
	wiring   Wiring
	onOpen   func()
	onClose  func()

	raw, stable      hal.Level
	lastRawChange    uint64 // ms
	lastStableChange uint64 // ms
}

// NewDebouncedInput configures the pin for cfg.Wiring and seeds both the raw
// and stable state from its current level, so no edge is reported at start.
func NewDebouncedInput(clock hal.Clock, pins hal.Pins, cfg InputConfig, opts ...Option) *DebouncedInput {
	d := &DebouncedInput{
		pins:     pins,
		pin:      cfg.Pin,
		debounce: DefaultDebounceMS,
		wiring:   cfg.Wiring,
		onOpen:   cfg.OnOpen,
		onClose:  cfg.OnClose,
	}
	if cfg.DebounceMS != nil {
		d.debounce = *cfg.DebounceMS
	}
	d.Task = newTask(clock, d.step, buildOptions(opts))

	// Writing high to an input enables the internal pull-up.
	bias := hal.Low
	if cfg.Wiring == InternalPullUp {
		bias = hal.High
	}
	pins.SetPinMode(cfg.Pin, hal.Input)
	pins.WriteDigital(cfg.Pin, bias)

	now := d.clock.Millis()
	d.raw = pins.ReadDigital(cfg.Pin)
	d.stable = d.raw
	d.lastRawChange, d.lastStableChange = now, now
	return d
}

func (d *DebouncedInput) Pin() int         { return d.pin }
func (d *DebouncedInput) Wiring() Wiring   { return d.wiring }
func (d *DebouncedInput) Level() hal.Level { return d.stable }

// IsOpen reports the debounced state.
func (d *DebouncedInput) IsOpen() bool { return d.openAt(d.stable) }

// IsClosed reports the debounced state.
func (d *DebouncedInput) IsClosed() bool { return !d.openAt(d.stable) }

// TimeOpen returns the milliseconds since the switch was accepted as open,
// or 0 if it is closed.
func (d *DebouncedInput) TimeOpen() uint64 {
	if !d.IsOpen() {
		return 0
	}
	return d.clock.Millis() - d.lastStableChange
}

// TimeClosed returns the milliseconds since the switch was accepted as
// closed, or 0 if it is open.
func (d *DebouncedInput) TimeClosed() uint64 {
	if !d.IsClosed() {
		return 0
	}
	return d.clock.Millis() - d.lastStableChange
}

func (d *DebouncedInput) openAt(l hal.Level) bool {
	if d.wiring == ExternalPullDown {
		return l == hal.Low
	}
	return l == hal.High
}

func (d *DebouncedInput) task() *Task {
	if d == nil {
		return nil
	}
	return d.Task
}

func (d *DebouncedInput) step(self *Task) bool {
	if self.killRequested {
		return false
	}

	now := d.clock.Millis()
	level := d.pins.ReadDigital(d.pin)

	// Every raw flicker restarts the window.
	if level != d.raw {
		d.raw = level
		d.lastRawChange = now
		return true
	}

	if now-d.lastRawChange >= d.debounce && d.raw != d.stable {
		d.stable = d.raw
		d.lastStableChange = d.lastRawChange
		if d.openAt(d.raw) {
			if d.onOpen != nil {
				d.onOpen()
			}
		} else if d.onClose != nil {
			d.onClose()
		}
	}
	return true
}
