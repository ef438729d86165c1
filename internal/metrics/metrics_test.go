package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecorder(t *testing.T) {
	m := New()

	m.PinAttempt(domain.ReasonNone)
	m.PinAttempt(domain.ReasonLimit)
	m.PinAttempt(domain.ReasonLimit)
	m.StoreWrite("file", nil)
	m.StoreWrite("file", errors.New("disk full"))
	m.Collection(7, 3)
	m.Cascade(2)

	body := scrape(t, m)
	assert.Contains(t, body, `tokendock_pin_attempts_total{result="success"} 1`)
	assert.Contains(t, body, `tokendock_pin_attempts_total{result="limit"} 2`)
	assert.Contains(t, body, `tokendock_store_writes_total{driver="file",result="error"} 1`)
	assert.Contains(t, body, "tokendock_favorites 7")
	assert.Contains(t, body, "tokendock_favorites_pinned 3")
	assert.Contains(t, body, "tokendock_cascade_deleted_total 2")
}

func TestAppsReloadKeepsGaugeOnError(t *testing.T) {
	m := New()

	m.AppsReload(4, nil)
	m.AppsReload(0, errors.New("parse"))

	body := scrape(t, m)
	assert.Contains(t, body, "tokendock_apps 4")
	assert.Contains(t, body, `tokendock_apps_reloads_total{result="error"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PinAttempt(domain.ReasonLimit)
		m.StoreWrite("redis", nil)
		m.Collection(1, 1)
		m.Cascade(1)
		m.AppsReload(1, nil)
		m.ObserveHTTP(http.MethodGet, 200, time.Millisecond)
	})
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodPost, 0, 5*time.Millisecond)

	assert.Contains(t, scrape(t, m), `tokendock_http_requests_total{method="POST",status="200"} 1`)
}
