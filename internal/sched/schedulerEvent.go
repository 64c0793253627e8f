// internal/sched/schedulerEvent.go

package sched

import (
	"coopsched/internal/logx"
)

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusEnqueue
	StatusReject
	StatusFinish
	StatusDrain
	StatusTick
	StatusHalt
)

// StatusEvent is emitted by runners on collection changes and by the host
// every tick.
type StatusEvent struct {
	AtMillis uint64
	Kind     StatusKind
	Runner   string
	TaskID   TaskID
	Task     string
	Pending  int // children left in Runner after the change
}

// Observer receives events synchronously, on the scheduling goroutine. It
// must return quickly.
type Observer func(StatusEvent)

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusEnqueue:
		return "Enqueued"
	case StatusReject:
		return "Rejected"
	case StatusFinish:
		return "Finish"
	case StatusDrain:
		return "Drain"
	case StatusTick:
		return "Tick"
	case StatusHalt:
		return "Halt"
	default:
		return "Unknown"
	}
}

// Observers fans an event out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	var live []Observer
	for _, o := range obs {
		if o != nil {
			live = append(live, o)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(ev StatusEvent) {
		for _, o := range live {
			o(ev)
		}
	}
}

// LogObserver writes events to log. Ticks are skipped for the brevity of
// output.
func LogObserver(log logx.Logger) Observer {
	return func(ev StatusEvent) {
		if ev.Kind == StatusTick {
			return
		}
		log.Debug(ev.Kind.String(),
			logx.Uint64("at_ms", ev.AtMillis),
			logx.String("runner", ev.Runner),
			logx.Uint64("task_id", uint64(ev.TaskID)),
			logx.String("task", ev.Task),
			logx.Int("pending", ev.Pending),
		)
	}
}
