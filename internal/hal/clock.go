package hal

import "time"

// SystemClock counts from its creation using the runtime's monotonic clock.
type SystemClock struct {
	anchor time.Time
}

// NewSystemClock creates a clock anchored at the current instant.
func NewSystemClock() *SystemClock {
	return &SystemClock{anchor: time.Now()}
}

func (c *SystemClock) Millis() uint64 { return uint64(time.Since(c.anchor) / time.Millisecond) }
func (c *SystemClock) Micros() uint64 { return uint64(time.Since(c.anchor) / time.Microsecond) }
