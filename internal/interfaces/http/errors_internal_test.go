package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/portal-intranet/internal/application/dto"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/internal/domain/form"
)

func errorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/x", func(c *fiber.Ctx) error { return writeError(c, err) })
	return app
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestWriteError_MapeaErroresDeDominio(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("documento: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{fmt.Errorf("%w: revisão em aberto", domain.ErrConflict), http.StatusConflict, "CONFLICT"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrNotSelect, http.StatusBadRequest, "NOT_SELECT"},
		{domain.ErrConversionFailed, http.StatusUnprocessableEntity, "CONVERSION_FAILED"},
		{fmt.Errorf("power bi http_500: %w", domain.ErrUpstream), http.StatusBadGateway, "UPSTREAM"},
		{domain.ErrNotConfigured, http.StatusServiceUnavailable, "NOT_CONFIGURED"},
		{domain.ErrFormUnavailable, http.StatusGone, "FORM_UNAVAILABLE"},
	}
	for _, tc := range cases {
		resp, err := errorApp(tc.err).Test(httptest.NewRequest(http.MethodGet, "/x", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		assert.Equal(t, tc.code, decodeError(t, resp).Code)
	}
}

func TestWriteError_NoMapeadoNoExponeDetalle(t *testing.T) {
	resp, err := errorApp(errors.New("pq: senha=segredo")).Test(httptest.NewRequest(http.MethodGet, "/x", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	out := decodeError(t, resp)
	assert.Equal(t, "INTERNAL", out.Code)
	assert.NotContains(t, out.Message, "segredo")
}

func TestWriteError_ErroresDeFormularioVanEnDetails(t *testing.T) {
	verrs := &form.ValidationErrors{Global: []string{"Campo obrigatório"}, Fields: map[string][]string{"f1": {"Campo obrigatório"}}}
	resp, err := errorApp(verrs).Test(httptest.NewRequest(http.MethodGet, "/x", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"FORM_INVALID"`)
	assert.Contains(t, string(body), `"f1"`)
}

type bindSample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestBindJSON_ValidaYTraduce(t *testing.T) {
	app := fiber.New()
	app.Post("/x", func(c *fiber.Ctx) error {
		var in bindSample
		if err := bindJSON(c, &in); err != nil {
			return writeError(c, err)
		}
		return c.JSON(in)
	})

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"name":"Ana"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	out := decodeError(t, post(`{"email":"x"}`))
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Contains(t, out.Message, "name é obrigatório")

	out = decodeError(t, post(`{nao-json`))
	assert.Equal(t, "INVALID_BODY", out.Code)
}

func TestErrorHandler_RutaInexistente(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nada", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, resp).Code)
}

func TestDateParam(t *testing.T) {
	from, err := dateParam("2024-05-01", false)
	require.NoError(t, err)
	assert.Equal(t, 1, from.Day())
	assert.Zero(t, from.Hour())

	to, err := dateParam("2024-05-01", true)
	require.NoError(t, err)
	assert.Equal(t, 23, to.Hour())
	assert.Equal(t, 1, to.Day())

	zero, err := dateParam("", true)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = dateParam("01/05/2024", false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
