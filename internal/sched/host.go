package sched

import (
	"context"

	"coopsched/internal/logx"
)

// Host owns the root runner of a program and is the single entry point the
// outer loop calls. Once the root completes it is dropped and further ticks
// do nothing.
type Host struct {
	root  *Runner
	name  string
	ticks uint64
	log   logx.Logger
}

// NewHost takes ownership of root. root must not belong to a runner.
func NewHost(root *Runner, log logx.Logger) (*Host, error) {
	if root == nil || root.Task == nil {
		return nil, ErrNilTask
	}
	switch {
	case root.released:
		return nil, ErrReleased
	case root.owner != nil || root.hosted:
		return nil, ErrAlreadyOwned
	}
	root.hosted = true
	if root.log.IsZero() {
		root.log = log
	}
	return &Host{root: root, name: root.Name(), log: log}, nil
}

// Root returns the root runner, or nil once it has completed.
func (h *Host) Root() *Runner { return h.root }

// Alive reports whether the root is still running.
func (h *Host) Alive() bool { return h.root != nil }

// Ticks returns how many ticks advanced the root.
func (h *Host) Ticks() uint64 { return h.ticks }

// Tick advances the root runner once.
func (h *Host) Tick() {
	root := h.root
	if root == nil {
		return
	}
	h.ticks++
	root.emit(StatusTick, nil)
	if root.advance() {
		return
	}

	// root is released; report with the observer it had.
	if root.observer != nil {
		root.observer(StatusEvent{
			AtMillis: root.clock.Millis(),
			Kind:     StatusHalt,
			Runner:   h.name,
			TaskID:   root.id,
			Task:     h.name,
		})
	}
	h.log.Info("root runner completed",
		logx.String("runner", h.name),
		logx.Uint64("ticks", h.ticks),
	)
	h.root = nil
}

// Run ticks the host once per tick of clock until the root completes, limit
// ticks have run (0 means no limit), or ctx is done.
func (h *Host) Run(ctx context.Context, clock *TickClock, limit uint64) error {
	for {
		if !h.Alive() || (limit > 0 && h.ticks >= limit) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-clock.Ch:
			if !ok {
				return ErrClockStopped
			}
			h.Tick()
		}
	}
}
