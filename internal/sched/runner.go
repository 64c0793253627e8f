// internal/sched/runner.go

package sched

import (
	"github.com/emirpasic/gods/lists/arraylist"

	"coopsched/internal/hal"
	"coopsched/internal/logx"
)

// Runner is a Task that owns an ordered set of child tasks and advances
// exactly one of them per step, round-robin. Because it is a Task, runners
// nest: a low-priority runner inside a busier one gets one slot per round.
//
// Pausing, sleeping or killing a runner applies to all of its children at
// once. Destroying a runner destroys every child still in it.
//
// A task belongs to at most one runner; Add enforces this and refuses to
// nest a runner inside itself or one of its descendants.
type Runner struct {
	*Task

	tasks    *arraylist.List // of Schedulable
	cursor   int             // next child to advance; valid while tasks is non-empty
	persist  bool
	maxTasks int
	observer Observer
}

// NewRunner creates an empty runner. Unless WithPersist(true) is given, the
// runner finishes (and is removed from its own parent) once it runs out of
// children, including when it starts empty.
func NewRunner(clock hal.Clock, opts ...Option) *Runner {
	o := buildOptions(opts)
	r := &Runner{
		tasks:    arraylist.New(),
		persist:  o.persist,
		maxTasks: o.maxTasks,
		observer: o.observer,
	}
	r.Task = newTask(clock, r.step, o)
	r.Task.runner = r
	r.Task.onRelease = append([]func(){r.drain}, r.Task.onRelease...)
	return r
}

func (r *Runner) task() *Task {
	if r == nil {
		return nil
	}
	return r.Task
}

// Len returns the number of children.
func (r *Runner) Len() int { return r.tasks.Size() }

// Persistent reports whether the runner outlives its last child.
func (r *Runner) Persistent() bool { return r.persist }

// Tasks returns the children in round-robin order.
func (r *Runner) Tasks() []Schedulable {
	out := make([]Schedulable, 0, r.tasks.Size())
	r.tasks.Each(func(_ int, v interface{}) {
		out = append(out, v.(Schedulable))
	})
	return out
}

// Add appends s to the end of the round-robin order and takes ownership of
// it. On error the runner is unchanged and the caller keeps s.
//
// Add may be called from a step function, including one of this runner's
// own children.
func (r *Runner) Add(s Schedulable) error {
	var t *Task
	if s != nil {
		t = s.task()
	}
	if t == nil {
		r.log.Warn("task rejected", logx.String("runner", r.Name()), logx.Err(ErrNilTask))
		return ErrNilTask
	}

	var err error
	switch {
	case r.released || t.released:
		err = ErrReleased
	case t.owner != nil || t.hosted:
		err = ErrAlreadyOwned
	case t.runner != nil && r.descendsFrom(t.runner):
		err = ErrCycle
	case r.maxTasks > 0 && r.tasks.Size() >= r.maxTasks:
		err = ErrCapacity
	}
	if err != nil {
		r.log.Warn("task rejected",
			logx.String("runner", r.Name()),
			logx.Uint64("task_id", uint64(t.id)),
			logx.Err(err),
		)
		r.emit(StatusReject, t)
		return err
	}

	r.inherit(t)
	t.owner = r
	r.tasks.Add(s)
	r.log.Debug("task enqueued",
		logx.String("runner", r.Name()),
		logx.Uint64("task_id", uint64(t.id)),
		logx.String("task", t.Name()),
	)
	r.emit(StatusEnqueue, t)
	return nil
}

// descendsFrom reports whether r is anc or nested somewhere below it.
func (r *Runner) descendsFrom(anc *Runner) bool {
	for p := r; p != nil; p = p.owner {
		if p == anc {
			return true
		}
	}
	return false
}

// inherit hands the runner's logger and observer down to a new child that
// has none of its own.
func (r *Runner) inherit(t *Task) {
	if t.log.IsZero() {
		t.log = r.log
	}
	if t.runner == nil {
		return
	}
	if t.runner.observer == nil {
		t.runner.observer = r.observer
	}
	t.runner.tasks.Each(func(_ int, v interface{}) {
		t.runner.inherit(v.(Schedulable).task())
	})
}

func (r *Runner) step(self *Task) bool {
	if self.killRequested {
		return false
	}
	if r.tasks.Empty() {
		return r.persist
	}

	v, _ := r.tasks.Get(r.cursor)
	child := v.(Schedulable).task()
	if child.advance() {
		r.cursor = (r.cursor + 1) % r.tasks.Size()
		return true
	}

	// The child is already released; drop its slot and keep the order.
	r.tasks.Remove(r.cursor)
	if r.cursor >= r.tasks.Size() {
		r.cursor = 0
	}
	r.log.Debug("task finished",
		logx.String("runner", r.Name()),
		logx.Uint64("task_id", uint64(child.id)),
		logx.String("task", child.Name()),
	)
	r.emit(StatusFinish, child)

	if r.tasks.Empty() {
		r.tasks.Clear()
		r.emit(StatusIdle, nil)
		return r.persist
	}
	return true
}

// drain destroys every remaining child, depth-first. It runs when the runner
// itself is released.
func (r *Runner) drain() {
	children := r.tasks.Values()
	r.tasks.Clear()
	r.cursor = 0
	for _, v := range children {
		child := v.(Schedulable).task()
		child.owner = nil
		r.log.Debug("task drained",
			logx.String("runner", r.Name()),
			logx.Uint64("task_id", uint64(child.id)),
		)
		r.emit(StatusDrain, child)
		child.release()
	}
}

func (r *Runner) emit(kind StatusKind, t *Task) {
	if r.observer == nil {
		return
	}
	ev := StatusEvent{
		AtMillis: r.clock.Millis(),
		Kind:     kind,
		Runner:   r.Name(),
		Pending:  r.tasks.Size(),
	}
	if t != nil {
		ev.TaskID = t.id
		ev.Task = t.Name()
	}
	r.observer(ev)
}
