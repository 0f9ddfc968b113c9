package prom

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	xhttp "github.com/rosadoagency/appointment-api/pkg/http"
	"github.com/rosadoagency/appointment-api/pkg/logger"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemReminders    = "reminder"
	SystemAppointments = "appointment"
	SystemProviders    = "provider"
)

const (
	MetricReminderChannelTotal       = "channel_total"
	MetricReminderDispatchTotal      = "dispatch_total"
	MetricReminderSweepDuration      = "sweep_duration_seconds"
	MetricAppointmentTransitionTotal = "transition_total"
	MetricProviderRequestDuration    = "request_duration_seconds"
)

const (
	TypeCounterVec   = "counterVec"
	TypeHistogramVec = "histogramVec"
)

type definition struct {
	kind      string
	subsystem string
	name      string
	help      string
	labels    []string
}

var definitions = []definition{
	{TypeCounterVec, SystemReminders, MetricReminderChannelTotal, "Reminder deliveries per channel and result.", []string{"channel", "result"}},
	{TypeCounterVec, SystemReminders, MetricReminderDispatchTotal, "Reminder dispatches per trigger and outcome.", []string{"trigger", "outcome"}},
	{TypeHistogramVec, SystemReminders, MetricReminderSweepDuration, "Duration of daily reminder sweeps.", nil},
	{TypeCounterVec, SystemAppointments, MetricAppointmentTransitionTotal, "Appointment status transitions per target status.", []string{"status"}},
	{TypeHistogramVec, SystemProviders, MetricProviderRequestDuration, "Notification provider request latency.", []string{"provider", "channel", "result"}},
}

var (
	mu            sync.RWMutex
	enabled       bool
	namespace     = "none"
	defaultLabels prometheus.Labels
	counterVecs   = make(map[string]*prometheus.CounterVec)
	histogramVecs = make(map[string]*prometheus.HistogramVec)
)

// Create registers every metric with the default registry. Until it is
// called all recording functions are no-ops.
func Create(host string, env string, nameSpace string) error {
	mu.Lock()
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace
	mu.Unlock()

	for _, d := range definitions {
		if err := CreateMetric(d.kind, d.subsystem, d.name, d.help, d.labels...); err != nil {
			return err
		}
	}

	mu.Lock()
	enabled = true
	mu.Unlock()
	return nil
}

func CreateMetric(metricType, subsystem, name, help string, labels ...string) error {
	mu.Lock()
	defer mu.Unlock()

	key := subsystem + name
	switch metricType {
	case TypeCounterVec:
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: defaultLabels,
		}, labels)
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("register %s: %w", key, err)
		}
		counterVecs[key] = c
	case TypeHistogramVec:
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: defaultLabels,
			Buckets:     prometheus.DefBuckets,
		}, labels)
		if err := prometheus.Register(h); err != nil {
			return fmt.Errorf("register %s: %w", key, err)
		}
		histogramVecs[key] = h
	default:
		return fmt.Errorf("metric type %s is not defined", metricType)
	}
	return nil
}

// NewServer builds the metrics endpoint, the caller owns ListenAndServe/Shutdown.
func NewServer(url string) *xhttp.Engine {
	if url == "" {
		url = "/metrics"
	}
	s := xhttp.CreateServer()
	s.GET(url, fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	logger.Info("[metrics-server] configured", "url", url)
	return s
}

func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return
	}
	if v, ok := counterVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func ObserveHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return
	}
	if v, ok := histogramVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncReminderChannel(channel string, ok bool) {
	IncCounterVec(SystemReminders, MetricReminderChannelTotal, channel, result(ok))
}

// IncReminderDispatch outcome is one of sent, already_sent, failed, busy.
func IncReminderDispatch(trigger, outcome string) {
	IncCounterVec(SystemReminders, MetricReminderDispatchTotal, trigger, outcome)
}

func ObserveSweepDuration(seconds float64) {
	ObserveHistogramVec(SystemReminders, MetricReminderSweepDuration, seconds)
}

func IncAppointmentTransition(status string) {
	IncCounterVec(SystemAppointments, MetricAppointmentTransitionTotal, status)
}

func ObserveProviderRequest(provider, channel string, ok bool, seconds float64) {
	ObserveHistogramVec(SystemProviders, MetricProviderRequestDuration, seconds, provider, channel, result(ok))
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
