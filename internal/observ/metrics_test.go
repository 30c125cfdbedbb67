package observ

import (
	"net/http"
	"testing"
	"time"

	"github.com/lalith-99/teamsync/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.ObserveRequest(http.MethodGet, "/v1/teams", http.StatusOK, 10*time.Millisecond)
	m.ChannelSynced(models.ScopeLimited, 2)
	m.ChannelSynced(models.ScopeDefault, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/v1/teams", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.channelSyncs.WithLabelValues("limited")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncedMembers.WithLabelValues("limited")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
	m.RateLimited("/")
	m.ChannelSynced(models.ScopeDefault, 3)
}
