package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/usecase"
	"github.com/jhoicas/portal-intranet/internal/domain/altforce"
	"github.com/jhoicas/portal-intranet/internal/domain/entity"
	"github.com/jhoicas/portal-intranet/internal/domain/repository"
	apphttp "github.com/jhoicas/portal-intranet/internal/interfaces/http"
)

type stubAltForce struct {
	failAt int
	calls  int
}

func (s *stubAltForce) FetchWindow(context.Context, string, time.Time, time.Time) ([]altforce.Record, error) {
	s.calls++
	if s.calls == s.failAt {
		return nil, errors.New("timeout upstream")
	}
	return []altforce.Record{{"id": "p1"}}, nil
}

func (s *stubAltForce) FetchAll(context.Context, string) ([]altforce.Record, error) {
	return nil, nil
}

type stubAFRepo struct {
	repository.AltForceRepository
}

func (stubAFRepo) UpsertOrder(context.Context, *entity.AFOrder) (bool, error) { return true, nil }

func newSyncApp(client *stubAltForce) *fiber.App {
	uc := usecase.NewAltForceSyncUseCase(client, stubAFRepo{}, nil, usecase.AltForceSyncConfig{DefaultDays: 20, ChunkDays: 7}, nil)
	app := fiber.New()
	app.Post("/api/altforce/sync", apphttp.NewSyncHandler(uc, nil).Run)
	return app
}

func postSync(t *testing.T, app *fiber.App, body string) (int, apphttp.SyncResult) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/altforce/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out apphttp.SyncResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestSyncHandler_Completa200(t *testing.T) {
	status, out := postSync(t, newSyncApp(&stubAltForce{}), `{"resource":"orders"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, out.Error)
	require.Len(t, out.Results, 1)
	assert.Equal(t, 3, out.Results[0].Windows)
	assert.Empty(t, out.Results[0].Errors)
}

func TestSyncHandler_JanelaFalhaDevolve207(t *testing.T) {
	status, out := postSync(t, newSyncApp(&stubAltForce{failAt: 2}), `{"resource":"orders"}`)

	assert.Equal(t, http.StatusMultiStatus, status)
	assert.Contains(t, out.Error, "orders")
	require.Len(t, out.Results, 1)
	// las otras dos ventanas quedaron guardadas
	assert.Equal(t, 3, out.Results[0].Windows)
	assert.Equal(t, 2, out.Results[0].Received)
	require.Len(t, out.Results[0].Errors, 1)
	assert.Contains(t, out.Results[0].Errors[0], "timeout upstream")
}
