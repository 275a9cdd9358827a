// Package metrics exports page manager instrumentation to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/simple-pages/pkg/pages"
)

const namespace = "pages"

// PrometheusRecorder implements pages.Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	cacheLookups  *prometheus.CounterVec
	storeQueries  *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

var _ pages.Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the collectors and registers them with reg.
// A nil reg uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusRecorder{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Session page cache lookups.",
			},
			[]string{"key", "result"},
		),
		storeQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "queries_total",
				Help:      "Page store round trips.",
			},
			[]string{"op", "success"},
		),
		storeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "query_duration_seconds",
				Help:      "Page store round trip duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}
	for _, c := range []prometheus.Collector{r.cacheLookups, r.storeQueries, r.storeDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) CacheLookup(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(key, result).Inc()
}

func (r *PrometheusRecorder) StoreQuery(op string, d time.Duration, err error) {
	r.storeQueries.WithLabelValues(op, strconv.FormatBool(err == nil)).Inc()
	r.storeDuration.WithLabelValues(op).Observe(d.Seconds())
}
