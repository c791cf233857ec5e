package rhapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/rhapi"
	"github.com/jhoicas/portal-intranet/pkg/config"
)

const tokenBody = `{"accessToken":"tok","refreshToken":"ref","expiracaoDoToken":"2099-01-01T00:00:00Z"}`

func newClient(t *testing.T, mux *http.ServeMux) *rhapi.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return rhapi.NewClient(config.RHConfig{
		BaseURL:   srv.URL,
		Email:     "rh@empresa.com",
		Password:  "segredo",
		RetryMax:  3,
		RetryBase: time.Millisecond,
	}, nil)
}

func TestEPIDeliveries_PaginaHastaVacio(t *testing.T) {
	var logins int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&logins, 1)
		_, _ = w.Write([]byte(tokenBody))
	})
	mux.HandleFunc("/segurancaTrabalho/entregasEpi", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("pagina") {
		case "1":
			_, _ = w.Write([]byte(`[{"contrato":1},{"contrato":2}]`))
		case "2":
			_, _ = w.Write([]byte(`[{"contrato":3}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})

	rows, err := newClient(t, mux).EPIDeliveries(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.EqualValues(t, 1, atomic.LoadInt32(&logins))
}

func TestEPIDeliveries_RespetaRetryAfter(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(tokenBody)) })
	mux.HandleFunc("/segurancaTrabalho/entregasEpi", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		if r.URL.Query().Get("pagina") == "1" {
			_, _ = w.Write([]byte(`[{"contrato":1}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	rows, err := newClient(t, mux).EPIDeliveries(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestEPIDeliveries_ReloginEn401(t *testing.T) {
	var logins, calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&logins, 1)
		_, _ = w.Write([]byte(tokenBody))
	})
	mux.HandleFunc("/segurancaTrabalho/entregasEpi", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := newClient(t, mux).EPIDeliveries(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&logins))
}

func TestContract_DatosY404(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(tokenBody)) })
	mux.HandleFunc("/colaborador/contratos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("contrato") == "999" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"nome":"Bruno Lima","centroCusto2":"310","descricaoCentroCusto2":"Manutenção"}]`))
	})
	c := newClient(t, mux)

	info, err := c.Contract(context.Background(), "4411")
	require.NoError(t, err)
	assert.Equal(t, ports.ContractInfo{Name: "Bruno Lima", CostCenter: "310", CostCenterDescription: "Manutenção"}, info)

	info, err = c.Contract(context.Background(), "999")
	require.NoError(t, err)
	assert.Equal(t, ports.ContractInfo{}, info)
}

func TestClient_CredencialesRecusadas(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) })

	_, err := newClient(t, mux).EPIDeliveries(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestClient_SinConfiguracion(t *testing.T) {
	_, err := rhapi.NewClient(config.RHConfig{}, nil).Contract(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
