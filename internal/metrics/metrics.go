// Package metrics holds the Prometheus collectors of the dashboard. All
// methods are safe to call on a nil *Collector.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	pending          prometheus.Gauge
	pollInterval     prometheus.Gauge
	polls            prometheus.Counter
	members          prometheus.Gauge
	drafts           prometheus.Gauge
	sseClients       prometheus.Gauge
}

func New() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lmsadmin_http_requests_total",
			Help: "Dashboard API requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lmsadmin_http_request_duration_seconds",
			Help:    "Dashboard API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		upstreamCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lmsadmin_upstream_requests_total",
			Help: "Calls to the loyalty API by operation and outcome",
		}, []string{"operation", "outcome"}),
		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lmsadmin_upstream_request_duration_seconds",
			Help:    "Loyalty API call latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lmsadmin_pending_transactions",
			Help: "Transactions last seen in PENDING state",
		}),
		pollInterval: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lmsadmin_pending_poll_interval_seconds",
			Help: "Current delay between pending transaction polls",
		}),
		polls: factory.NewCounter(prometheus.CounterOpts{
			Name: "lmsadmin_pending_polls_total",
			Help: "Pending transaction polls issued",
		}),
		members: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lmsadmin_directory_members",
			Help: "Members held by the member directory",
		}),
		drafts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lmsadmin_rule_drafts",
			Help: "Open rule drafts",
		}),
		sseClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "lmsadmin_sse_clients",
			Help: "Connected event stream clients",
		}),
	}
}

func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveUpstream records one loyalty API call. Outcome is "ok", "error" for
// non-2xx answers or "network" when no answer arrived.
func (c *Collector) ObserveUpstream(operation, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.upstreamCalls.WithLabelValues(operation, outcome).Inc()
	c.upstreamDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *Collector) ObservePoll(pending int, next time.Duration) {
	if c == nil {
		return
	}
	c.polls.Inc()
	c.pending.Set(float64(pending))
	c.pollInterval.Set(next.Seconds())
}

func (c *Collector) SetMembers(n int) {
	if c == nil {
		return
	}
	c.members.Set(float64(n))
}

func (c *Collector) SetDrafts(n int) {
	if c == nil {
		return
	}
	c.drafts.Set(float64(n))
}

func (c *Collector) SetSSEClients(n int) {
	if c == nil {
		return
	}
	c.sseClients.Set(float64(n))
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
