// Package altforce cliente HTTP de la API de integración AltForce.
package altforce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	afdomain "github.com/jhoicas/portal-intranet/internal/domain/altforce"
	"github.com/jhoicas/portal-intranet/internal/infrastructure/metrics"
	"github.com/jhoicas/portal-intranet/pkg/config"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

var _ ports.AltForceClient = (*Client)(nil)

const (
	breakerName = "altforce-api"
	maxRetries  = 3
)

// Client implementa ports.AltForceClient con reintentos, rate limit y circuit breaker.
type Client struct {
	baseURL string // <base>/<company_id>
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	backoff time.Duration
	log     *logger.Logger
}

// NewClient arma el cliente a partir de la configuración.
func NewClient(cfg config.AltForceConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("altforce_client")

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 404 y errores de cliente no abren el circuito
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domain.ErrUpstream)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker AltForce mudou de estado")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	base := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.CompanyID != "" {
		base += "/" + strings.Trim(cfg.CompanyID, "/")
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cb:      cb,
		backoff: time.Second,
		log:     log,
	}
}

// WithBackoff cambia la espera base entre reintentos (tests).
func (c *Client) WithBackoff(d time.Duration) *Client {
	c.backoff = d
	return c
}

// FetchWindow GET /<resource>?start=<ms>&end=<ms>.
func (c *Client) FetchWindow(ctx context.Context, resource string, start, end time.Time) ([]afdomain.Record, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: início maior que fim", domain.ErrInvalidInput)
	}
	q := url.Values{}
	q.Set("start", strconv.FormatInt(start.UTC().UnixMilli(), 10))
	q.Set("end", strconv.FormatInt(end.UTC().UnixMilli(), 10))
	return c.fetch(ctx, resource, q)
}

// FetchAll GET /<resource>.
func (c *Client) FetchAll(ctx context.Context, resource string) ([]afdomain.Record, error) {
	return c.fetch(ctx, resource, nil)
}

func (c *Client) fetch(ctx context.Context, resource string, q url.Values) ([]afdomain.Record, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, fmt.Errorf("%w: AltForce", domain.ErrNotConfigured)
	}
	u := c.baseURL + "/" + strings.TrimLeft(resource, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	body, err := c.cb.Execute(func() ([]byte, error) { return c.getWithRetry(ctx, u) })
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		return nil, fmt.Errorf("%w: AltForce indisponível (circuito aberto)", domain.ErrUpstream)
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()

	return afdomain.ExtractList(body, strings.Trim(resource, "/"))
}

// getWithRetry reintenta 429 y 5xx con espera lineal (1s, 2s, 3s).
func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, status, err := c.get(ctx, u)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(status) {
			return nil, err
		}
		c.log.Warn().Err(err).Int("attempt", attempt+1).Str("url", u).Msg("AltForce GET falhou, tentando de novo")
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("authorization", c.apiKey)
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		// error de red: se reintenta como un 503
		return nil, http.StatusServiceUnavailable, fmt.Errorf("%w: AltForce: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, http.StatusServiceUnavailable, fmt.Errorf("%w: AltForce: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 800 {
			snippet = snippet[:800]
		}
		c.log.Error().Int("status", resp.StatusCode).Str("url", u).Str("body", snippet).Msg("AltForce GET falhou")
		if resp.StatusCode == http.StatusNotFound {
			return nil, resp.StatusCode, fmt.Errorf("%w: AltForce %s", domain.ErrNotFound, req.URL.Path)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, resp.StatusCode, fmt.Errorf("%w: AltForce http %d", domain.ErrUpstream, resp.StatusCode)
		}
		return nil, resp.StatusCode, fmt.Errorf("%w: AltForce http %d: %s", domain.ErrInvalidInput, resp.StatusCode, snippet)
	}
	return body, resp.StatusCode, nil
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
