package observ

import (
	"strconv"
	"time"

	"github.com/lalith-99/teamsync/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Metrics holds the service collectors. A nil *Metrics is valid and
// records nothing, which keeps tests free of registry setup.
type Metrics struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimitHits  *prometheus.CounterVec
	channelSyncs   *prometheus.CounterVec
	syncedMembers  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamsync",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teamsync",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamsync",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route"}),
		channelSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamsync",
			Subsystem: "membership",
			Name:      "channel_syncs_total",
			Help:      "Channels re-synced after a team membership change",
		}, []string{"scope"}),
		syncedMembers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teamsync",
			Subsystem: "membership",
			Name:      "channel_members_removed_total",
			Help:      "Channel member rows removed because the user left the team",
		}, []string{"scope"}),
	}

	collectors := []prometheus.Collector{m.requestTotal, m.requestLatency, m.rateLimitHits, m.channelSyncs, m.syncedMembers}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(d.Seconds())
}

func (m *Metrics) RateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimitHits.WithLabelValues(route).Inc()
}

// ChannelSynced records one channel touched by team sync and how many of
// its member rows were removed.
func (m *Metrics) ChannelSynced(scope models.MembersScope, removed int) {
	if m == nil {
		return
	}
	m.channelSyncs.WithLabelValues(scope.String()).Inc()
	if removed > 0 {
		m.syncedMembers.WithLabelValues(scope.String()).Add(float64(removed))
	}
}
