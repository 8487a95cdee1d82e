package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var msBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000}

// Prometheus registers its collectors on a dedicated registry.
type Prometheus struct {
	registry *prometheus.Registry

	partnerCalls   *prometheus.HistogramVec
	batchLegs      *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	tokenFetches   *prometheus.CounterVec
	fulfillments   *prometheus.HistogramVec
	httpRequests   *prometheus.HistogramVec
	kafkaProcessed *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		partnerCalls: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "partner_call_duration_ms", Help: "Partner API call latency in ms.", Buckets: msBuckets},
			[]string{"endpoint", "status"},
		),
		batchLegs: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "partner_batch_legs_total", Help: "Batch legs by outcome."},
			[]string{"outcome"},
		),
		batchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Name: "partner_batch_duration_ms", Help: "Whole batch latency in ms.", Buckets: msBuckets},
		),
		tokenFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "partner_token_fetches_total", Help: "Access token acquisitions by outcome and attempts used."},
			[]string{"outcome", "attempts"},
		),
		fulfillments: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "order_fulfill_duration_ms", Help: "Order fulfilment latency in ms.", Buckets: msBuckets},
			[]string{"type", "outcome"},
		),
		httpRequests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "http_request_duration_ms", Help: "Inbound HTTP latency in ms.", Buckets: msBuckets},
			[]string{"method", "route", "status"},
		),
		kafkaProcessed: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "kafka_process_duration_ms", Help: "Payment event processing latency in ms.", Buckets: msBuckets},
			[]string{"outcome"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "memo_cache_lookups_total", Help: "Memo cache lookups by result."},
			[]string{"result"},
		),
	}

	p.registry.MustRegister(
		p.partnerCalls,
		p.batchLegs,
		p.batchDuration,
		p.tokenFetches,
		p.fulfillments,
		p.httpRequests,
		p.kafkaProcessed,
		p.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

func (p *Prometheus) ObservePartnerCall(endpoint string, status int, durMs float64) {
	p.partnerCalls.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(durMs)
}

func (p *Prometheus) ObserveBatch(legs, failed int, durMs float64) {
	p.batchLegs.WithLabelValues("ok").Add(float64(legs - failed))
	p.batchLegs.WithLabelValues("failed").Add(float64(failed))
	p.batchDuration.Observe(durMs)
}

func (p *Prometheus) ObserveTokenFetch(attempts int, ok bool) {
	p.tokenFetches.WithLabelValues(outcome(ok), strconv.Itoa(attempts)).Inc()
}

func (p *Prometheus) ObserveFulfill(kind, result string, durMs float64) {
	p.fulfillments.WithLabelValues(kind, result).Observe(durMs)
}

func (p *Prometheus) ObserveHTTP(method, route string, status int, durMs float64) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(durMs)
}

func (p *Prometheus) ObserveKafka(processMs float64, ok bool) {
	p.kafkaProcessed.WithLabelValues(outcome(ok)).Observe(processMs)
}

func (p *Prometheus) IncCacheHit()  { p.cacheLookups.WithLabelValues("hit").Inc() }
func (p *Prometheus) IncCacheMiss() { p.cacheLookups.WithLabelValues("miss").Inc() }

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
