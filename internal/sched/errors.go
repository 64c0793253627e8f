package sched

import "errors"

var (
	// ErrNilTask is returned by Add and NewHost for a nil task.
	ErrNilTask = errors.New("sched: nil task")
	// ErrCapacity is returned by Add when the runner is full. The task is not
	// added and the caller keeps it.
	ErrCapacity = errors.New("sched: runner at capacity")
	// ErrAlreadyOwned is returned by Add when the task already belongs to a
	// runner or is the root of a Host.
	ErrAlreadyOwned = errors.New("sched: task already owned")
	// ErrCycle is returned by Add when a runner would be nested inside itself
	// or one of its descendants.
	ErrCycle = errors.New("sched: runner nesting cycle")
	// ErrReleased is returned when operating on a task that has been destroyed.
	ErrReleased = errors.New("sched: task released")
	// ErrKillPending is returned when the task is already marked for a forced kill.
	ErrKillPending = errors.New("sched: kill pending")
	// ErrNotRunning is returned by the sleep calls unless the task is running.
	ErrNotRunning = errors.New("sched: task not running")
	// ErrClockStopped is returned by Host.Run when its tick source closes.
	ErrClockStopped = errors.New("sched: tick clock stopped")
)
