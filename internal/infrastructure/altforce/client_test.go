package altforce_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/altforce"
	"github.com/jhoicas/portal-intranet/pkg/config"
)

func newClient(t *testing.T, h http.HandlerFunc) *altforce.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return altforce.NewClient(config.AltForceConfig{
		BaseURL:        srv.URL,
		CompanyID:      "acme",
		APIKey:         "chave",
		RequestsPerSec: 1000,
	}, nil).WithBackoff(time.Millisecond)
}

func TestFetchWindow_ParametrosEnMilisegundos(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acme/orders", r.URL.Path)
		assert.Equal(t, "chave", r.Header.Get("authorization"))
		assert.Equal(t, "1715299200000", r.URL.Query().Get("start"))
		assert.Equal(t, "1715385600000", r.URL.Query().Get("end"))
		_, _ = w.Write([]byte(`{"items":[{"id":1},{"id":2}]}`))
	})

	start := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	recs, err := c.FetchWindow(context.Background(), "orders", start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestFetchWindow_InicioDepoisDoFim(t *testing.T) {
	c := newClient(t, func(http.ResponseWriter, *http.Request) { t.Fatal("não deveria chamar") })
	now := time.Now()
	_, err := c.FetchWindow(context.Background(), "orders", now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetchAll_ReintentaEn429Y5xx(t *testing.T) {
	var calls int32
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`[{"id":"c1"}]`))
		}
	})

	recs, err := c.FetchAll(context.Background(), "customers")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchAll_AgotaReintentos(t *testing.T) {
	var calls int32
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.FetchAll(context.Background(), "customers")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.EqualValues(t, 4, atomic.LoadInt32(&calls))
}

func TestFetchAll_ErrorDeClienteNoReintenta(t *testing.T) {
	var calls int32
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"api key inválida"}`))
	})

	_, err := c.FetchAll(context.Background(), "leads")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchAll_CircuitoAbre(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := c.FetchAll(context.Background(), "orders")
		require.ErrorIs(t, err, domain.ErrUpstream)
	}
	_, err := c.FetchAll(context.Background(), "orders")
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "circuito aberto")
}

func TestFetch_SinConfiguracion(t *testing.T) {
	c := altforce.NewClient(config.AltForceConfig{}, nil)
	_, err := c.FetchAll(context.Background(), "orders")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
