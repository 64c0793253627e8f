// Package metrics exports scheduler events as Prometheus collectors.
package metrics

import (
	"errors"
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"

	"coopsched/internal/sched"
)

// Collector counts scheduler events and tracks runner occupancy.
type Collector struct {
	eventsTotal *prom.CounterVec
	pending     *prom.GaugeVec
	ticksTotal  prom.Counter
	haltsTotal  prom.Counter
}

// NewCollector creates and registers the collectors on reg (the default
// registerer when nil).
func NewCollector(namespace string, reg prom.Registerer) (*Collector, error) {
	if namespace == "" {
		namespace = "coopsched"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	eventsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Scheduler events by kind and runner.",
	}, []string{"runner", "kind"})
	pendingVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "runner_pending",
		Help:      "Children currently owned by each runner.",
	}, []string{"runner"})
	ticks := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "host_ticks_total",
		Help:      "Host loop ticks that advanced the root runner.",
	})
	halts := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "host_halts_total",
		Help:      "Root runners that completed.",
	})

	var err error
	if eventsVec, err = registerCollector(reg, eventsVec); err != nil {
		return nil, err
	}
	if pendingVec, err = registerCollector(reg, pendingVec); err != nil {
		return nil, err
	}
	if ticks, err = registerCollector(reg, ticks); err != nil {
		return nil, err
	}
	if halts, err = registerCollector(reg, halts); err != nil {
		return nil, err
	}

	return &Collector{
		eventsTotal: eventsVec,
		pending:     pendingVec,
		ticksTotal:  ticks,
		haltsTotal:  halts,
	}, nil
}

// Observe records ev. It satisfies sched.Observer.
func (c *Collector) Observe(ev sched.StatusEvent) {
	if c == nil {
		return
	}
	switch ev.Kind {
	case sched.StatusTick:
		c.ticksTotal.Inc()
		return
	case sched.StatusHalt:
		c.haltsTotal.Inc()
		c.pending.DeleteLabelValues(normalizeLabel(ev.Runner, "unknown"))
		return
	}
	runner := normalizeLabel(ev.Runner, "unknown")
	c.eventsTotal.WithLabelValues(runner, ev.Kind.String()).Inc()
	c.pending.WithLabelValues(runner).Set(float64(ev.Pending))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prom.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return c, fmt.Errorf("collector type mismatch: %T", are.ExistingCollector)
			}
			return existing, nil
		}
		return c, err
	}
	return c, nil
}
