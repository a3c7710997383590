// Package metrics provides a lightweight, Prometheus-compatible metrics
// collector. It outputs text/plain in Prometheus exposition format without
// requiring the heavy prometheus/client_golang dependency.
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Default is the process-wide collector.
var Default = New()

// Collector aggregates counters and gauges.
type Collector struct {
	counters  sync.Map // name -> *Counter
	gauges    sync.Map // name -> *Gauge
	order     []string
	orderMu   sync.Mutex
	startTime time.Time
}

func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// Uptime returns how long the collector has been running.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n.
func (c *Counter) Add(n int64) { c.value.Add(n) }

// Value returns the current counter value.
func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	name  string
	help  string
	value atomic.Int64
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(v int64) { g.value.Store(v) }

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.value.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.value.Add(-1) }

// Value returns the current gauge value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Counter returns or creates a counter with the given name.
func (c *Collector) Counter(name, help string) *Counter {
	if v, ok := c.counters.Load(name); ok {
		return v.(*Counter)
	}
	ctr := &Counter{name: name, help: help}
	actual, loaded := c.counters.LoadOrStore(name, ctr)
	if !loaded {
		c.orderMu.Lock()
		c.order = append(c.order, name)
		c.orderMu.Unlock()
	}
	return actual.(*Counter)
}

// Gauge returns or creates a gauge with the given name.
func (c *Collector) Gauge(name, help string) *Gauge {
	if v, ok := c.gauges.Load(name); ok {
		return v.(*Gauge)
	}
	g := &Gauge{name: name, help: help}
	actual, loaded := c.gauges.LoadOrStore(name, g)
	if !loaded {
		c.orderMu.Lock()
		c.order = append(c.order, name)
		c.orderMu.Unlock()
	}
	return actual.(*Gauge)
}

// Handler returns an http.HandlerFunc that renders metrics in Prometheus
// text format.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder

		fmt.Fprintf(&sb, "# HELP ringleader_uptime_seconds Time since start in seconds\n")
		fmt.Fprintf(&sb, "# TYPE ringleader_uptime_seconds gauge\n")
		fmt.Fprintf(&sb, "ringleader_uptime_seconds %d\n", int64(c.Uptime().Seconds()))

		c.orderMu.Lock()
		names := make([]string, len(c.order))
		copy(names, c.order)
		c.orderMu.Unlock()

		for _, name := range names {
			if v, ok := c.counters.Load(name); ok {
				ctr := v.(*Counter)
				fmt.Fprintf(&sb, "# HELP %s %s\n", ctr.name, ctr.help)
				fmt.Fprintf(&sb, "# TYPE %s counter\n", ctr.name)
				fmt.Fprintf(&sb, "%s %d\n", ctr.name, ctr.Value())
				continue
			}
			if v, ok := c.gauges.Load(name); ok {
				g := v.(*Gauge)
				fmt.Fprintf(&sb, "# HELP %s %s\n", g.name, g.help)
				fmt.Fprintf(&sb, "# TYPE %s gauge\n", g.name)
				fmt.Fprintf(&sb, "%s %d\n", g.name, g.Value())
			}
		}

		w.Write([]byte(sb.String()))
	}
}

// Router counters.
var (
	EventsReceived  = Default.Counter("ringleader_events_received_total", "Inbound daemon events seen by the router")
	EventsDropped   = Default.Counter("ringleader_events_dropped_total", "Events suppressed by the authorship policy")
	EventsMalformed = Default.Counter("ringleader_events_malformed_total", "Events failing field validation for their type")
	Commands        = Default.Counter("ringleader_commands_total", "Command invocations dispatched to handlers")
	UnknownCommands = Default.Counter("ringleader_unknown_commands_total", "Command tokens without a registered handler")
	UnknownTypes    = Default.Counter("ringleader_unknown_types_total", "Messages with an unrecognized content type")
	Transfers       = Default.Counter("ringleader_transfers_total", "Finished transfers processed")
)
