package sched

import "coopsched/internal/logx"

type options struct {
	name      string
	log       logx.Logger
	onRelease []func()

	// Runner-only
	persist  bool
	maxTasks int
	observer Observer
}

// Option configures a task or runner at construction.
type Option func(*options)

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithName sets a human-friendly name used in logs and events.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the task's logger. Without one, a task inherits the logger
// of the runner it is added to.
func WithLogger(l logx.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithOnRelease registers fn to run once when the task is destroyed.
// Multiple hooks run in registration order.
func WithOnRelease(fn func()) Option {
	return func(o *options) {
		if fn != nil {
			o.onRelease = append(o.onRelease, fn)
		}
	}
}

// WithPersist keeps a runner alive after its last child finishes. Without it,
// an empty runner completes. Ignored by plain tasks.
func WithPersist(persist bool) Option {
	return func(o *options) { o.persist = persist }
}

// WithMaxTasks bounds the number of children a runner holds; n <= 0 means
// unbounded. Ignored by plain tasks.
func WithMaxTasks(n int) Option {
	return func(o *options) { o.maxTasks = n }
}

// WithObserver sets the runner's event sink. Nested runners without one
// inherit it when added. Ignored by plain tasks.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}
