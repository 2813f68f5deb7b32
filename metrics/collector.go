// Package metrics exposes the outcome of a ping session as Prometheus metrics.
package metrics

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/mikaelmello/echoping/core"
)

const namespace = "echoping"

// Collector accumulates the round trips of a session into its own registry.
type Collector struct {
	registry *prometheus.Registry

	sent     prometheus.Counter
	outcomes *prometheus.CounterVec
	rtt      prometheus.Histogram
	ttl      prometheus.Gauge
}

// NewCollector creates a collector whose metrics are labelled with the target address.
func NewCollector(target string) *Collector {
	labels := prometheus.Labels{"target": target}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "requests_sent_total",
			Help:        "Echo requests sent.",
			ConstLabels: labels,
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "round_trips_total",
			Help:        "Echo requests by outcome.",
			ConstLabels: labels,
		}, []string{"result"}),
		rtt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "rtt_seconds",
			Help:        "Round trip time of replied echo requests [s].",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		ttl: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "reply_ttl",
			Help:        "TTL of the last echo reply.",
			ConstLabels: labels,
		}),
	}

	c.registry.MustRegister(c.sent, c.outcomes, c.rtt, c.ttl)

	// all outcomes are exported even when they never happen
	for _, res := range []core.RoundTripResult{core.Replied, core.TimedOut, core.Invalid} {
		c.outcomes.WithLabelValues(res.String())
	}

	return c
}

// Register makes the collector observe every round trip of the session.
func (c *Collector) Register(s *core.Session) {
	s.AddOnRecv(func(_ *core.Session, rt *core.RoundTrip) {
		c.Observe(rt)
	})
}

// Observe records one round trip.
func (c *Collector) Observe(rt *core.RoundTrip) {
	c.sent.Inc()
	c.outcomes.WithLabelValues(rt.Res.String()).Inc()

	if rt.Res == core.Replied {
		c.rtt.Observe(rt.Time.Seconds())
		c.ttl.Set(float64(rt.TTL))
	}
}

// Registry returns the registry holding the metrics of this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Write writes the metrics in the Prometheus text exposition format.
func (c *Collector) Write(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrapf(err, "writing metric %s", mf.GetName())
		}
	}

	return nil
}
