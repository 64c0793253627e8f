package sched

import (
	"bytes"
	"strings"
	"testing"

	"coopsched/internal/hal"
	"coopsched/internal/logx"
)

// forever returns a task that never finishes and appends name to *log on
// every step.
func forever(clock hal.Clock, name string, log *[]string) *Task {
	return NewTask(clock, func(*Task) bool {
		*log = append(*log, name)
		return true
	}, WithName(name))
}

// finishAfter returns a task that finishes on its n-th step.
func finishAfter(clock hal.Clock, name string, n int, log *[]string) *Task {
	calls := 0
	return NewTask(clock, func(*Task) bool {
		calls++
		*log = append(*log, name)
		return calls < n
	}, WithName(name))
}

// poisonLogger captures warnings. Tasks log a warning when advanced after
// release, so an empty buffer proves no runner touched a dead task.
type poisonLogger struct {
	buf bytes.Buffer
}

func (p *poisonLogger) logger() logx.Logger { return logx.New(&p.buf, "warn") }

func (p *poisonLogger) assertClean(t *testing.T) {
	t.Helper()
	if strings.Contains(p.buf.String(), "advance on released task") {
		t.Fatalf("released task was advanced: %s", p.buf.String())
	}
}

type eventLog struct {
	events []StatusEvent
}

func (l *eventLog) observe(ev StatusEvent) { l.events = append(l.events, ev) }

func (l *eventLog) kinds() []StatusKind {
	out := make([]StatusKind, 0, len(l.events))
	for _, ev := range l.events {
		if ev.Kind != StatusTick {
			out = append(out, ev.Kind)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
