// Package app assembles a scheduler tree from a scenario config and runs it
// on the host loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coopsched/internal/config"
	"coopsched/internal/hal"
	"coopsched/internal/job"
	"coopsched/internal/logx"
	"coopsched/internal/metrics"
	"coopsched/internal/sched"
)

// App owns the host, its simulated board and the optional observability
// sinks.
type App struct {
	cfg   config.Config
	log   logx.Logger
	clock hal.Clock
	pins  *hal.SimPins
	reg   *prom.Registry

	host    *sched.Host
	inputs  []*sched.DebouncedInput
	metrics *metrics.Collector
	trace   *sched.CSVRecorder
}

// Option customizes New.
type Option func(*App)

// WithClock replaces the system clock, e.g. with a SimClock in tests.
func WithClock(c hal.Clock) Option { return func(a *App) { a.clock = c } }

// WithPins replaces the simulated pin bank.
func WithPins(p *hal.SimPins) Option { return func(a *App) { a.pins = p } }

// WithRegistry sets the Prometheus registry metrics are registered on.
func WithRegistry(r *prom.Registry) Option { return func(a *App) { a.reg = r } }

// New builds the scheduler tree described by cfg.
func New(cfg config.Config, log logx.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, log: log}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.clock == nil {
		a.clock = hal.NewSystemClock()
	}
	if a.pins == nil {
		a.pins = hal.NewSimPins()
	}
	if a.reg == nil {
		a.reg = prom.NewRegistry()
	}

	observers := []sched.Observer{sched.LogObserver(log)}
	if cfg.MetricsAddr != "" {
		c, err := metrics.NewCollector("coopsched", a.reg)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		a.metrics = c
		observers = append(observers, c.Observe)
	}
	if cfg.TraceCSV != "" {
		rec, err := sched.CreateCSVRecorder(cfg.TraceCSV)
		if err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
		a.trace = rec
		observers = append(observers, rec.Observe)
	}

	root := sched.NewRunner(a.clock,
		sched.WithName("root"),
		sched.WithPersist(cfg.PersistRoot),
		sched.WithMaxTasks(cfg.MaxTasks),
		sched.WithLogger(log),
		sched.WithObserver(sched.Observers(observers...)),
	)
	if err := a.build(root); err != nil {
		a.closeTrace()
		return nil, err
	}

	host, err := sched.NewHost(root, log)
	if err != nil {
		a.closeTrace()
		return nil, err
	}
	a.host = host
	return a, nil
}

func (a *App) build(root *sched.Runner) error {
	for _, in := range a.cfg.Inputs {
		if err := root.Add(a.newInput(in)); err != nil {
			return fmt.Errorf("input %q: %w", in.Name, err)
		}
	}

	if len(a.cfg.Blinkers) > 0 {
		blinkers := sched.NewRunner(a.clock,
			sched.WithName("blinkers"),
			sched.WithMaxTasks(a.cfg.MaxTasks),
		)
		for _, b := range a.cfg.Blinkers {
			t := sched.NewTask(a.clock, job.Blink(a.pins, b.Pin, b.PeriodMS, b.Count), sched.WithName(b.Name))
			if err := blinkers.Add(t); err != nil {
				return fmt.Errorf("blinker %q: %w", b.Name, err)
			}
		}
		if err := root.Add(blinkers); err != nil {
			return fmt.Errorf("blinkers: %w", err)
		}
	}

	if len(a.cfg.Script) > 0 {
		if err := root.Add(a.newScript()); err != nil {
			return fmt.Errorf("script: %w", err)
		}
	}
	return nil
}

func (a *App) newInput(in config.InputConfig) *sched.DebouncedInput {
	wiring, _ := sched.ParseWiring(in.Wiring) // validated by config
	name := in.Name
	if name == "" {
		name = fmt.Sprintf("input-%d", in.Pin)
	}
	d := sched.NewDebouncedInput(a.clock, a.pins, sched.InputConfig{
		Pin:        in.Pin,
		DebounceMS: sched.Debounce(a.cfg.InputDebounce(in)),
		Wiring:     wiring,
		OnOpen: func() {
			a.log.Info("switch opened", logx.String("input", name), logx.Int("pin", in.Pin))
		},
		OnClose: func() {
			a.log.Info("switch closed", logx.String("input", name), logx.Int("pin", in.Pin))
		},
	}, sched.WithName(name))
	a.inputs = append(a.inputs, d)
	return d
}

// newScript replays the configured pin events against the simulated board.
// Events due at the same instant are applied on consecutive steps of one
// armed event; the task finishes after the last one.
func (a *App) newScript() *sched.EventTask {
	events := append([]config.PinEvent(nil), a.cfg.Script...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].AtMS < events[j].AtMS })

	start := a.clock.Millis()
	next := 0
	due := func() bool {
		return next < len(events) && a.clock.Millis()-start >= events[next].AtMS
	}

	var script *sched.EventTask
	script = sched.NewEventTask(a.clock, due, func() bool {
		ev := events[next]
		level, _ := ev.Parse()
		a.pins.Drive(ev.Pin, level)
		a.log.Debug("pin driven", logx.Int("pin", ev.Pin), logx.String("level", level.String()))
		next++
		if next == len(events) {
			_ = script.RequestKill(false)
			return false
		}
		return due()
	}, sched.WithName("script"))
	return script
}

// Host returns the host driving the tree.
func (a *App) Host() *sched.Host { return a.host }

// Pins returns the simulated board.
func (a *App) Pins() *hal.SimPins { return a.pins }

// Inputs returns the debounced inputs in config order.
func (a *App) Inputs() []*sched.DebouncedInput { return a.inputs }

// Run ticks the host every tick_ms until the root completes, max_ticks is
// reached, or ctx is cancelled. Cancellation is not reported as an error.
func (a *App) Run(ctx context.Context) error {
	defer a.closeTrace()

	if a.cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server failed", logx.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		a.log.Info("metrics listening", logx.String("addr", a.cfg.MetricsAddr))
	}

	tc := sched.NewTickClock(16)
	tc.Start(time.Duration(a.cfg.TickMS) * time.Millisecond)
	defer tc.Stop()

	a.log.Info("host started",
		logx.Int("tick_ms", a.cfg.TickMS),
		logx.Uint64("max_ticks", a.cfg.MaxTicks),
		logx.Int("inputs", len(a.inputs)),
	)
	err := a.host.Run(ctx, tc, a.cfg.MaxTicks)
	a.log.Info("host stopped",
		logx.Uint64("ticks", a.host.Ticks()),
		logx.Bool("root_alive", a.host.Alive()),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) closeTrace() {
	if a.trace == nil {
		return
	}
	if err := a.trace.Close(); err != nil {
		a.log.Warn("trace close failed", logx.Err(err))
	}
	a.trace = nil
}
