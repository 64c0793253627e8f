package sched

import "coopsched/internal/hal"

// EventTask polls a condition and reacts to it.
//
// While idle, each step evaluates condition; when it holds, onEvent runs and
// its result arms the task. While armed, each step calls onEvent again
// without consulting condition, so one event may span several steps; the
// task re-arms for a new condition once onEvent returns false.
//
// A graceful kill is honoured only while idle, never in the middle of an
// armed event. A nil condition or onEvent behaves as always-false.
type EventTask struct {
	*Task

	condition func() bool
	onEvent   func() bool
	armed     bool
}

// NewEventTask creates an EventTask.
func NewEventTask(clock hal.Clock, condition, onEvent func() bool, opts ...Option) *EventTask {
	e := &EventTask{condition: condition, onEvent: onEvent}
	e.Task = newTask(clock, e.step, buildOptions(opts))
	return e
}

func (e *EventTask) task() *Task {
	if e == nil {
		return nil
	}
	return e.Task
}

// Armed reports whether an event is in progress.
func (e *EventTask) Armed() bool { return e.armed }

func (e *EventTask) step(self *Task) bool {
	if e.armed {
		e.armed = e.fire()
		return true
	}
	if self.killRequested {
		return false
	}
	if e.condition != nil && e.condition() {
		e.armed = e.fire()
	}
	return true
}

func (e *EventTask) fire() bool {
	return e.onEvent != nil && e.onEvent()
}
