package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	refreshCycles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearme",
		Subsystem: "refresh",
		Name:      "cycles_total",
		Help:      "Refresh cycles by outcome (success or failure kind).",
	}, []string{"outcome"})
	fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nearme",
		Subsystem: "refresh",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of venue search calls.",
		Buckets:   prometheus.DefBuckets,
	})
	storedVenues = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearme",
		Subsystem: "store",
		Name:      "venues",
		Help:      "Number of venues in the current set.",
	})
	lastReplaced = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearme",
		Subsystem: "store",
		Name:      "last_replaced_timestamp_seconds",
		Help:      "Unix timestamp of the most recent replace-all.",
	})
	imageLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearme",
		Subsystem: "imagecache",
		Name:      "lookups_total",
		Help:      "Image cache lookups by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(refreshCycles, fetchDuration, storedVenues, lastReplaced, imageLookups)
}

// RecordRefresh counts a finished refresh cycle.
func RecordRefresh(outcome string) {
	refreshCycles.WithLabelValues(outcome).Inc()
}

// ObserveFetch records how long a venue search took.
func ObserveFetch(d time.Duration) {
	fetchDuration.Observe(d.Seconds())
}

// RecordReplace updates the store gauges after a replace-all.
func RecordReplace(count int, ts time.Time) {
	storedVenues.Set(float64(count))
	if !ts.IsZero() {
		lastReplaced.Set(float64(ts.Unix()))
	}
}

// RecordImageLookup counts a cache hit or miss.
func RecordImageLookup(hit bool) {
	if hit {
		imageLookups.WithLabelValues("hit").Inc()
		return
	}
	imageLookups.WithLabelValues("miss").Inc()
}
