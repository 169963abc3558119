package prom

import (
	"fmt"
	"sync"

	xhttp "github.com/nimasrn/campaign-console/pkg/http"
	"github.com/nimasrn/campaign-console/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemGateway = "gateway"
	SystemCache   = "cache"
	SystemAction  = "action"
	SystemJournal = "journal"
)

const (
	MetricGatewayRequestDuration = "request_duration_seconds"
	MetricGatewayRequests        = "requests_total"
	MetricCacheLoads             = "loads_total"
	MetricCacheStaleLoads        = "stale_loads_total"
	MetricActions                = "actions_total"
	MetricJournalDropped         = "dropped_total"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounters = make(map[string]prometheus.Counter)
var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers every console metric. Until it is called the Add/Inc
// helpers are no-ops, which keeps tests free of registry state.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = make(prometheus.Labels)
	defaultLabels["env"] = env
	defaultLabels["instance"] = host
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createHistogramVec(SystemGateway, MetricGatewayRequestDuration, []string{"op"}))
	hasError(createCounterVec(SystemGateway, MetricGatewayRequests, []string{"op", "code"}))
	hasError(createCounterVec(SystemCache, MetricCacheLoads, []string{"cache", "outcome"}))
	hasError(createCounterVec(SystemCache, MetricCacheStaleLoads, []string{"cache"}))
	hasError(createCounterVec(SystemAction, MetricActions, []string{"action", "outcome"}))
	hasError(createCounter(SystemJournal, MetricJournalDropped))

	return err
}

// Handler exposes the default registry on a fasthttp route.
func Handler() xhttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
}

func ListenAndServer(port string, url string) {
	s := xhttp.CreateServer()
	s.GET(url, Handler())
	logger.Info("[metrics-server] listening...", "url", url)
	if err := s.ListenAndServe(port); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func opts(subsystem, name string) (string, string, string, prometheus.Labels) {
	return namespace, subsystem, name, defaultLabels
}

func createCounter(subsystem, name string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	ns, sub, n, labels := opts(subsystem, name)
	MetricCollectionCounters[subsystem+name] = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns, Subsystem: sub, Name: n, Help: help(subsystem, name), ConstLabels: labels,
	})
	return prometheus.Register(MetricCollectionCounters[subsystem+name])
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	ns, sub, n, constLabels := opts(subsystem, name)
	MetricCollectionCounterVec[subsystem+name] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns, Subsystem: sub, Name: n, Help: help(subsystem, name), ConstLabels: constLabels,
	}, labels)
	return prometheus.Register(MetricCollectionCounterVec[subsystem+name])
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	ns, sub, n, constLabels := opts(subsystem, name)
	MetricCollectionHistogramVec[subsystem+name] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns, Subsystem: sub, Name: n, Help: help(subsystem, name), ConstLabels: constLabels,
	}, labels)
	return prometheus.Register(MetricCollectionHistogramVec[subsystem+name])
}

func help(subsystem, name string) string {
	return subsystem + " " + name
}

func IncCounter(subsystem, name string) {
	AddCounter(subsystem, name, 1)
}

func AddCounter(subsystem, name string, number float64) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounters[subsystem+name]; ok {
		v.Add(number)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionCounterVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := MetricCollectionHistogramVec[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

/* ---------------------------- console helpers ---------------------------- */

func ObserveGatewayRequest(op string, code int, seconds float64) {
	AddHistogramVec(SystemGateway, MetricGatewayRequestDuration, seconds, op)
	IncCounterVec(SystemGateway, MetricGatewayRequests, op, fmt.Sprintf("%d", code))
}

func IncCacheLoad(cache, outcome string) {
	IncCounterVec(SystemCache, MetricCacheLoads, cache, outcome)
}

func IncCacheStaleLoad(cache string) {
	IncCounterVec(SystemCache, MetricCacheStaleLoads, cache)
}

func IncAction(action, outcome string) {
	IncCounterVec(SystemAction, MetricActions, action, outcome)
}

func IncJournalDropped() {
	IncCounter(SystemJournal, MetricJournalDropped)
}
