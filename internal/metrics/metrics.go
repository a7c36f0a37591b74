// Package metrics exposes the tracker's Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector groups every metric the service records. A nil *Collector is a no-op.
type Collector struct {
	reg *prometheus.Registry

	PositionsIngested *prometheus.CounterVec // result: accepted|superseded|rejected
	ETAQueries        *prometheus.CounterVec // source: real-time|scheduled|none

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	FeedPolls    *prometheus.CounterVec // result: ok|error
	FeedVehicles prometheus.Gauge

	RequestDuration *prometheus.HistogramVec // method, route, status
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		PositionsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_positions_ingested_total",
			Help: "Position reports received, by outcome.",
		}, []string{"result"}),
		ETAQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_eta_queries_total",
			Help: "ETA answers served, by the source that won reconciliation.",
		}, []string{"source"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		FeedPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_feed_polls_total",
			Help: "GTFS-realtime vehicle feed polls, by outcome.",
		}, []string{"result"}),
		FeedVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_feed_vehicles",
			Help: "Vehicles ingested from the last successful feed poll.",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracker_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.PositionsIngested, c.ETAQueries,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.FeedPolls, c.FeedVehicles, c.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the private registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) IngestResult(result string) {
	if c == nil {
		return
	}
	c.PositionsIngested.WithLabelValues(result).Inc()
}

func (c *Collector) ETAServed(source string) {
	if c == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	c.ETAQueries.WithLabelValues(source).Inc()
}

func (c *Collector) NATSPublishedInc() {
	if c == nil {
		return
	}
	c.NATSPublished.Inc()
}

func (c *Collector) NATSPublishErrInc() {
	if c == nil {
		return
	}
	c.NATSPublishErrs.Inc()
}

func (c *Collector) PublishObserve(d time.Duration) {
	if c == nil {
		return
	}
	c.PublishDuration.Observe(d.Seconds())
}

func (c *Collector) NATSSetConnected(connected bool) {
	if c == nil {
		return
	}
	if connected {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

func (c *Collector) FeedPolled(err error, vehicles int) {
	if c == nil {
		return
	}
	if err != nil {
		c.FeedPolls.WithLabelValues("error").Inc()
		return
	}
	c.FeedPolls.WithLabelValues("ok").Inc()
	c.FeedVehicles.Set(float64(vehicles))
}

// ObserveRequest records one HTTP request. route is the router pattern, not the raw path.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
