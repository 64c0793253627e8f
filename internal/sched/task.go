package sched

import (
	"math"
	"strconv"
	"sync/atomic"

	"coopsched/internal/hal"
	"coopsched/internal/logx"
)

// TaskID uniquely identifies a task in the process.
type TaskID uint64

var lastTaskID atomic.Uint64

// StepFunc is one quick unit of work. It runs to completion without blocking
// and returns true to be stepped again later, or false when the task is done
// for good.
type StepFunc func(t *Task) bool

// Schedulable is anything a Runner can own: a *Task, or a type embedding one
// (Runner, EventTask, DebouncedInput, or user types built on NewTask).
// A nil handle of any of the package's types yields a nil *Task.
type Schedulable interface {
	task() *Task
}

// Task is a unit of cooperatively scheduled work.
//
// A task is advanced only by the Runner (or Host) that owns it. It is
// destroyed the moment its step reports completion or a forced kill is
// observed; after that it must not be used again.
type Task struct {
	id    TaskID
	name  string
	clock hal.Clock
	step  StepFunc
	log   logx.Logger

	mode          Mode
	killRequested bool
	stopTime      uint64 // in the clock unit of the current sleep mode
	waitTime      uint64

	owner     *Runner
	hosted    bool
	runner    *Runner // set when this task is the base of a Runner
	released  bool
	onRelease []func()
}

// NewTask creates a running task that calls step on every advance.
// A nil clock falls back to a SystemClock; a nil step finishes on its first
// advance.
func NewTask(clock hal.Clock, step StepFunc, opts ...Option) *Task {
	return newTask(clock, step, buildOptions(opts))
}

func newTask(clock hal.Clock, step StepFunc, o options) *Task {
	if clock == nil {
		clock = hal.NewSystemClock()
	}
	return &Task{
		id:        TaskID(lastTaskID.Add(1)),
		name:      o.name,
		clock:     clock,
		step:      step,
		log:       o.log,
		mode:      ModeRunning,
		onRelease: o.onRelease,
	}
}

func (t *Task) task() *Task { return t }

func (t *Task) ID() TaskID { return t.id }

// Name returns the configured name, or "task-<id>".
func (t *Task) Name() string {
	if t.name != "" {
		return t.name
	}
	return "task-" + strconv.FormatUint(uint64(t.id), 10)
}

// Mode returns the current lifecycle state.
func (t *Task) Mode() Mode { return t.mode }

// KillRequested reports whether a graceful kill has been asked for. Step
// functions are expected to check it and finish.
func (t *Task) KillRequested() bool { return t.killRequested }

// CancelKill withdraws a graceful kill request.
func (t *Task) CancelKill() { t.killRequested = false }

// Released reports whether the task has been destroyed.
func (t *Task) Released() bool { return t.released }

// Clock returns the clock the task sleeps against.
func (t *Task) Clock() hal.Clock { return t.clock }

// RequestKill asks the task to stop.
//
// With force, the task is put in ModeKillPending and destroyed on its next
// advance without stepping again. Without force, a paused or sleeping task is
// woken and the kill flag is set so its step can finish cleanly; the step may
// ignore the flag. A graceful request fails with ErrKillPending once a forced
// kill is pending.
func (t *Task) RequestKill(force bool) error {
	if t.released {
		return ErrReleased
	}
	if force {
		t.mode = ModeKillPending
		return nil
	}
	if t.mode == ModeKillPending {
		return ErrKillPending
	}
	t.mode = ModeRunning
	t.killRequested = true
	return nil
}

// Pause stops the task from stepping until Resume. Any sleep is cancelled.
// Pausing a paused task succeeds.
func (t *Task) Pause() error {
	if t.released {
		return ErrReleased
	}
	if t.mode == ModeKillPending {
		return ErrKillPending
	}
	t.mode = ModePaused
	t.stopTime, t.waitTime = 0, 0
	return nil
}

// Resume returns a paused or sleeping task to ModeRunning.
func (t *Task) Resume() error {
	if t.released {
		return ErrReleased
	}
	if t.mode == ModeKillPending {
		return ErrKillPending
	}
	t.mode = ModeRunning
	return nil
}

// SleepSeconds suspends stepping for n seconds, measured on the millisecond
// clock. Like the other sleeps it only succeeds from ModeRunning; a zero
// duration wakes on the next advance. Durations beyond the millisecond range
// are clamped to math.MaxUint64 ms.
func (t *Task) SleepSeconds(n uint64) error {
	ms := uint64(math.MaxUint64)
	if n <= math.MaxUint64/1000 {
		ms = n * 1000
	}
	return t.sleep(ModeSleepSeconds, t.clockMillis, ms)
}

// SleepMillis suspends stepping for n milliseconds.
func (t *Task) SleepMillis(n uint64) error {
	return t.sleep(ModeSleepMillis, t.clockMillis, n)
}

// SleepMicros suspends stepping for n microseconds.
func (t *Task) SleepMicros(n uint64) error {
	return t.sleep(ModeSleepMicros, t.clockMicros, n)
}

func (t *Task) clockMillis() uint64 { return t.clock.Millis() }
func (t *Task) clockMicros() uint64 { return t.clock.Micros() }

func (t *Task) sleep(mode Mode, now func() uint64, wait uint64) error {
	if t.released {
		return ErrReleased
	}
	if t.mode != ModeRunning {
		return ErrNotRunning
	}
	t.mode = mode
	t.stopTime = now()
	t.waitTime = wait
	return nil
}

// advance dispatches the state machine once. It returns false when the task
// has finished; by then the task is already released and the caller must
// drop it.
func (t *Task) advance() bool {
	if t.released {
		t.log.Warn("advance on released task",
			logx.Uint64("task_id", uint64(t.id)), logx.String("task", t.Name()))
		return false
	}

	switch t.mode {
	case ModeRunning:
		return t.runStep()
	case ModePaused:
		return true
	case ModeSleepSeconds, ModeSleepMillis:
		if t.clock.Millis()-t.stopTime < t.waitTime {
			return true
		}
		t.mode = ModeRunning
		return t.runStep()
	case ModeSleepMicros:
		if t.clock.Micros()-t.stopTime < t.waitTime {
			return true
		}
		t.mode = ModeRunning
		return t.runStep()
	}

	// ModeKillPending, or a mode that should not exist.
	t.release()
	return false
}

func (t *Task) runStep() bool {
	if t.step != nil && t.step(t) {
		return true
	}
	t.release()
	return false
}

// release destroys the task exactly once and runs its release hooks.
func (t *Task) release() {
	if t.released {
		return
	}
	t.released = true
	t.owner = nil
	hooks := t.onRelease
	t.onRelease = nil
	for _, fn := range hooks {
		fn()
	}
}
