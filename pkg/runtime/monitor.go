package runtime

import (
	"github.com/latticeforge/conclave/pkg/event"
	"github.com/latticeforge/conclave/pkg/failure"
	"github.com/latticeforge/conclave/pkg/monitor"
)

// monitorContext is the concrete monitor.Context handed to a monitor's
// handlers and entry actions: monitors don't send or create actors, so
// this is narrower than actorContext.
type monitorContext struct {
	rt *Runtime
	m  *monitor.Monitor
}

func (c *monitorContext) Goto(name string) {
	if err := c.m.Goto(c, name); err != nil {
		c.rt.sched.Report(failure.KindInvariant, "%s", err)
	}
}

func (c *monitorContext) Assert(cond bool, format string, args ...any) {
	if !cond {
		c.rt.sched.Report(failure.KindAssertion, format, args...)
	}
}

func (c *monitorContext) Sink() failure.Sink { return c.rt.sched }

// observeMonitors delivers e to every monitor registered on the
// runtime, in registration order, per §4.4's "Monitor(event)" operation.
// A monitor handler's error ends the iteration as an exception, the
// same as a regular actor handler's.
func (rt *Runtime) observeMonitors(e event.Event) {
	for _, m := range rt.monitors {
		mc := &monitorContext{rt: rt, m: m}
		if err := m.Observe(mc, e); err != nil {
			rt.sched.Report(failure.KindException, "monitor %q: %s", m.Name(), err)
			return
		}
		if rt.trace != nil {
			rt.trace.Monitor(m.Name(), e.EventType())
		}
	}
}
