package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.RecordTick(time.Millisecond)
	m.RecordTick(time.Millisecond)
	m.RecordTickFailure()
	m.RecordOpen("long")
	m.RecordOpen("long")
	m.RecordOpen("short")
	m.RecordClose("liquidated")
	m.RecordAlert("liquidation")
	m.SetPrice("BTC", 65000)
	m.SetLedger(2, -125.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tickFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.positionsOpened.WithLabelValues("long")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.positionsClosed.WithLabelValues("liquidated")))
	assert.Equal(t, 65000.0, testutil.ToFloat64(m.prices.WithLabelValues("BTC")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.openPositions))
	assert.Equal(t, -125.5, testutil.ToFloat64(m.unrealizedPnL))
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.SetPrice("ETH", 3500)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `perpshield_instrument_price{symbol="ETH"} 3500`)
	assert.Contains(t, string(body), "perpshield_ticks_total 0")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
