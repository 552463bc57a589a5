package daemon

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manav03panchal/birthdays/internal/scheduler"
)

const namespace = "birthdays"

// Metrics tracks daemon operational metrics on its own registry.
// It observes both reschedule passes and webhook deliveries.
type Metrics struct {
	registry *prometheus.Registry

	reschedules        prometheus.Counter
	rescheduleFailures prometheus.Counter
	rescheduleDuration prometheus.Histogram
	alertsScheduled    prometheus.Gauge
	lastReschedule     prometheus.Gauge
	externalChanges    prometheus.Counter

	deliveries       *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	alertsFired      *prometheus.CounterVec
}

var _ scheduler.Observer = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them, together with the
// Go runtime and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reschedules: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reschedules_total",
			Help:      "Reschedule passes run.",
		}),
		rescheduleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reschedule_failures_total",
			Help:      "Birthdays that could not be scheduled.",
		}),
		rescheduleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reschedule_duration_seconds",
			Help:      "Time spent replacing the pending alerts.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		alertsScheduled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_scheduled",
			Help:      "Alerts scheduled by the last reschedule pass.",
		}),
		lastReschedule: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reschedule_timestamp_seconds",
			Help:      "Unix time of the last reschedule pass.",
		}),
		externalChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_external_changes_total",
			Help:      "Reloads after another process changed the store.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook deliveries by webhook and outcome.",
		}, []string{"webhook", "result"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_delivery_duration_seconds",
			Help:      "Webhook delivery latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"webhook"}),
		alertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_fired_total",
			Help:      "Alerts whose trigger fired, by outcome.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.reschedules,
		m.rescheduleFailures,
		m.rescheduleDuration,
		m.alertsScheduled,
		m.lastReschedule,
		m.externalChanges,
		m.deliveries,
		m.deliveryDuration,
		m.alertsFired,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveReschedule records one reschedule pass.
func (m *Metrics) ObserveReschedule(result scheduler.Result, took time.Duration) {
	m.reschedules.Inc()
	m.rescheduleFailures.Add(float64(len(result.Failures)))
	m.rescheduleDuration.Observe(took.Seconds())
	m.alertsScheduled.Set(float64(len(result.Scheduled)))
	m.lastReschedule.SetToCurrentTime()
}

// ObserveExternalChange records a reload caused by another process.
func (m *Metrics) ObserveExternalChange() {
	m.externalChanges.Inc()
}

// ObserveDispatch records one webhook delivery.
func (m *Metrics) ObserveDispatch(webhook string, took time.Duration, err error) {
	m.deliveries.WithLabelValues(webhook, outcome(err)).Inc()
	m.deliveryDuration.WithLabelValues(webhook).Observe(took.Seconds())
}

// ObserveAlert records a fired alert. It matches the signature of
// scheduler.CenterOptions.OnDelivered.
func (m *Metrics) ObserveAlert(_ scheduler.Alert, err error) {
	m.alertsFired.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
