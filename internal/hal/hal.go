// internal/hal/hal.go

// Package hal describes the board facilities the scheduler needs: a monotonic
// clock and digital pin I/O. Host builds use SystemClock; tests and the
// simulator use SimClock and SimPins.
package hal

// Level is the electrical level of a digital pin.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// PinMode configures the direction of a digital pin.
type PinMode uint8

const (
	Input PinMode = iota
	Output
	InputPullup
)

// Clock is a monotonic counter in two resolutions. Both counters may wrap;
// callers compare instants with unsigned subtraction.
type Clock interface {
	Millis() uint64
	Micros() uint64
}

// Pins is digital pin I/O.
type Pins interface {
	SetPinMode(pin int, mode PinMode)
	WriteDigital(pin int, level Level)
	ReadDigital(pin int) Level
}
