package powerbi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/powerbi"
	"github.com/jhoicas/portal-intranet/pkg/config"
)

func newClient(t *testing.T, h http.HandlerFunc) *powerbi.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return powerbi.NewClient(config.PowerBIConfig{APIBaseURL: srv.URL + "/v1.0/myorg"}, nil).
		WithHTTPClient(srv.Client())
}

func TestEmbedToken_UsaCache(t *testing.T) {
	var generated int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/GenerateToken"):
			atomic.AddInt32(&generated, 1)
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"accessLevel":"View"}`, string(body))
			exp := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
			_, _ = w.Write([]byte(`{"token":"tok-1","expiration":"` + exp + `"}`))
		case strings.HasSuffix(r.URL.Path, "/groups/ws/reports/rep"):
			_, _ = w.Write([]byte(`{"id":"rep","name":"Vendas","embedUrl":"https://app.powerbi.com/embed","datasetId":"ds"}`))
		default:
			http.NotFound(w, r)
		}
	})

	first, err := c.EmbedToken(context.Background(), "ws", "rep")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first.Token)
	assert.Equal(t, "ds", first.DatasetID)

	second, err := c.EmbedToken(context.Background(), "ws", "rep")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&generated))
}

func TestEmbedToken_RenuevaCercaDeExpirar(t *testing.T) {
	var generated int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/GenerateToken") {
			atomic.AddInt32(&generated, 1)
			exp := time.Now().Add(2 * time.Minute).UTC().Format(time.RFC3339)
			_, _ = w.Write([]byte(`{"token":"curto","expiration":"` + exp + `"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"rep","embedUrl":"u"}`))
	})

	_, err := c.EmbedToken(context.Background(), "ws", "rep")
	require.NoError(t, err)
	_, err = c.EmbedToken(context.Background(), "ws", "rep")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&generated))
}

func TestEmbedToken_SinExpirationUsaClaimExp(t *testing.T) {
	exp := time.Now().Add(40 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("qualquer"))
	require.NoError(t, err)

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/GenerateToken") {
			_, _ = w.Write([]byte(`{"token":"` + token + `"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"rep","embedUrl":"u"}`))
	})

	info, err := c.EmbedToken(context.Background(), "ws", "rep")
	require.NoError(t, err)
	assert.True(t, info.ExpiresAt.Equal(exp), "expira %s, esperado %s", info.ExpiresAt, exp)
}

func TestEmbedToken_TokenOpacoSinExpiration(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/GenerateToken") {
			_, _ = w.Write([]byte(`{"token":"H4sIAAAAAAAEAB2Uxw"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"rep","embedUrl":"u"}`))
	})

	before := time.Now()
	info, err := c.EmbedToken(context.Background(), "ws", "rep")
	require.NoError(t, err)
	assert.WithinDuration(t, before.Add(50*time.Minute), info.ExpiresAt, 5*time.Second)
}

func TestLastRefresh_SoloCompletedYWorkspaceDelDataset(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.0/myorg/groups/ws/reports":
			_, _ = w.Write([]byte(`{"value":[{"id":"outro"},{"id":"rep","datasetId":"ds","datasetWorkspaceId":"ws-dados"}]}`))
		case "/v1.0/myorg/groups/ws-dados/datasets/ds/refreshes":
			assert.Equal(t, "50", r.URL.Query().Get("$top"))
			_, _ = w.Write([]byte(`{"value":[
				{"status":"Failed","endTime":"2024-05-10T12:00:00Z"},
				{"status":"Completed","startTime":"2024-05-09T08:00:00Z","endTime":"2024-05-09T08:05:00Z"},
				{"status":"Completed","startTime":"2024-05-08T08:00:00"}
			]}`))
		default:
			http.NotFound(w, r)
		}
	})

	ds, err := c.DatasetID(context.Background(), "ws", "rep")
	require.NoError(t, err)
	assert.Equal(t, "ds", ds)

	at, err := c.LastRefresh(context.Background(), "ws", ds)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.Equal(t, time.Date(2024, 5, 9, 8, 5, 0, 0, time.UTC), *at)
}

func TestDatasetID_RelatorioAusente(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[]}`))
	})
	_, err := c.DatasetID(context.Background(), "ws", "rep")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTriggerRefresh_ErrorLegible(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"PowerBINotAuthorizedException","message":"sem permissão"}}`))
	})

	err := c.TriggerRefresh(context.Background(), "ws", "ds")
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "http_403:PowerBINotAuthorizedException - sem permissão")
}

func TestClient_SinCredenciales(t *testing.T) {
	c := powerbi.NewClient(config.PowerBIConfig{APIBaseURL: "http://x"}, nil)
	_, err := c.EmbedToken(context.Background(), "ws", "rep")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
