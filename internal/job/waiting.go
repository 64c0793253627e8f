package job

import (
	"coopsched/internal/hal"
	"coopsched/internal/sched"
)

// Delay returns a step that waits ms milliseconds, runs fn once and finishes.
// A kill request before the deadline cancels fn.
func Delay(ms uint64, fn func()) sched.StepFunc {
	armed := false
	return func(t *sched.Task) bool {
		if t.KillRequested() {
			return false
		}
		if !armed {
			armed = true
			return t.SleepMillis(ms) == nil
		}
		if fn != nil {
			fn()
		}
		return false
	}
}

// Blink returns a step that toggles an output pin every periodMS
// milliseconds. count bounds the number of toggles; 0 blinks until killed.
// The pin is left low when the step finishes.
func Blink(pins hal.Pins, pin int, periodMS uint64, count int) sched.StepFunc {
	level := hal.Low
	toggles := 0
	configured := false
	return func(t *sched.Task) bool {
		if !configured {
			configured = true
			pins.SetPinMode(pin, hal.Output)
		}
		if t.KillRequested() || (count > 0 && toggles >= count) {
			pins.WriteDigital(pin, hal.Low)
			return false
		}
		if level == hal.Low {
			level = hal.High
		} else {
			level = hal.Low
		}
		pins.WriteDigital(pin, level)
		toggles++
		return t.SleepMillis(periodMS) == nil
	}
}
