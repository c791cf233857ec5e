// Package rhapi cliente de la API de RH (entregas de EPI y contratos de colaboradores).
package rhapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/pkg/config"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

var _ ports.HRClient = (*Client)(nil)

const (
	epLogin      = "/login"
	epRefresh    = "/refresh"
	epDeliveries = "/segurancaTrabalho/entregasEpi"
	epContracts  = "/colaborador/contratos"

	// el token se renueva este margen antes de expirar
	tokenMargin = 60 * time.Second
	maxPages    = 10000
)

// Client implementa ports.HRClient.
type Client struct {
	baseURL   string
	email     string
	password  string
	retryMax  int
	retryBase time.Duration
	http      *http.Client
	log       *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	access  string
	refresh string
	exp     time.Time
}

// NewClient arma el cliente con la configuración RH_API_*.
func NewClient(cfg config.RHConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		email:     cfg.Email,
		password:  cfg.Password,
		retryMax:  cfg.RetryMax,
		retryBase: cfg.RetryBase,
		http:      &http.Client{Timeout: 20 * time.Second},
		log:       log.Named("rh_api"),
		now:       time.Now,
	}
	if c.retryMax <= 0 {
		c.retryMax = 5
	}
	if c.retryBase <= 0 {
		c.retryBase = 2 * time.Second
	}
	return c
}

// EPIDeliveries baja páginas (pagina=1,2,...) hasta recibir una vacía.
func (c *Client) EPIDeliveries(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	for page := 1; page <= maxPages; page++ {
		q := url.Values{"pagina": {strconv.Itoa(page)}}
		raw, err := c.getWithRetry(ctx, epDeliveries, q)
		if err != nil {
			return nil, fmt.Errorf("entregas página %d: %w", page, err)
		}
		chunk, err := decodeList(raw)
		if err != nil {
			return nil, fmt.Errorf("entregas página %d: %w", page, err)
		}
		if len(chunk) == 0 {
			break
		}
		out = append(out, chunk...)
	}
	c.log.Info().Int("total", len(out)).Msg("entregas de EPI recebidas")
	return out, nil
}

// Contract datos del colaborador; 404 o lista vacía devuelven ContractInfo vacío.
func (c *Client) Contract(ctx context.Context, contract string) (ports.ContractInfo, error) {
	q := url.Values{"contrato": {contract}, "pagina": {"1"}}
	raw, err := c.getWithRetry(ctx, epContracts, q)
	if errors.Is(err, domain.ErrNotFound) {
		c.log.Warn().Str("contrato", contract).Msg("contrato inexistente")
		return ports.ContractInfo{}, nil
	}
	if err != nil {
		return ports.ContractInfo{}, err
	}
	list, err := decodeList(raw)
	if err != nil || len(list) == 0 {
		return ports.ContractInfo{}, err
	}
	first := list[0]
	return ports.ContractInfo{
		Name:                  str(first["nome"]),
		CostCenter:            str(first["centroCusto2"]),
		CostCenterDescription: str(first["descricaoCentroCusto2"]),
	}, nil
}

// ── HTTP ─────────────────────────────────────────────────────────────────────

type statusError struct {
	code       int
	retryAfter string
}

func (e *statusError) Error() string { return "http " + strconv.Itoa(e.code) }

// getWithRetry repite en 429 respetando Retry-After; otros códigos se propagan.
func (c *Client) getWithRetry(ctx context.Context, path string, q url.Values) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		raw, err := c.get(ctx, path, q)
		var se *statusError
		if err == nil || !errors.As(err, &se) || se.code != http.StatusTooManyRequests || attempt >= c.retryMax-1 {
			return raw, mapStatus(err)
		}
		wait := c.retryBase * time.Duration(attempt+1)
		if secs, perr := strconv.ParseFloat(se.retryAfter, 64); perr == nil {
			wait = time.Duration(secs * float64(time.Second))
		}
		c.log.Warn().Str("path", path).Int("attempt", attempt+1).Dur("wait", wait).Msg("rate limit (429), aguardando")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func mapStatus(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case se.code == http.StatusNotFound:
		return fmt.Errorf("%w: RH %s", domain.ErrNotFound, se)
	default:
		return fmt.Errorf("%w: RH %s", domain.ErrUpstream, se)
	}
}

// get con un único reintento tras re-login si la API responde 401.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.doGet(ctx, path, q, token)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusUnauthorized {
		c.log.Info().Str("path", path).Msg("401, renovando token e repetindo")
		if token, err = c.forceLogin(ctx); err != nil {
			return nil, err
		}
		raw, err = c.doGet(ctx, path, q, token)
	}
	return raw, err
}

func (c *Client) doGet(ctx context.Context, path string, q url.Values, token string) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return c.send(req)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: RH: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: RH: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode, retryAfter: resp.Header.Get("Retry-After")}
	}
	return raw, nil
}

// ── Token ────────────────────────────────────────────────────────────────────

type tokenPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Expiration   string `json:"expiracaoDoToken"`
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.access != "" && c.now().Add(tokenMargin).Before(c.exp) {
		return c.access, nil
	}
	if c.refresh != "" {
		if err := c.postToken(ctx, epRefresh+"?"+url.Values{"refreshToken": {c.refresh}}.Encode(), nil); err == nil {
			return c.access, nil
		}
	}
	if err := c.login(ctx); err != nil {
		return "", err
	}
	return c.access, nil
}

func (c *Client) forceLogin(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.login(ctx); err != nil {
		return "", err
	}
	return c.access, nil
}

// login requiere c.mu tomado.
func (c *Client) login(ctx context.Context) error {
	if c.baseURL == "" || c.email == "" || c.password == "" {
		return fmt.Errorf("%w: RH_API_*", domain.ErrNotConfigured)
	}
	body := map[string]string{"email": c.email, "senha": c.password}
	if err := c.postToken(ctx, epLogin, body); err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusUnauthorized || se.code == http.StatusForbidden) {
			return fmt.Errorf("%w: RH: credenciais recusadas", domain.ErrUpstream)
		}
		return mapStatus(err)
	}
	return nil
}

// postToken requiere c.mu tomado.
func (c *Client) postToken(ctx context.Context, path string, body any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	raw, err := c.send(req)
	if err != nil {
		return err
	}
	var p tokenPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.AccessToken == "" {
		return fmt.Errorf("%w: RH: resposta de token inválida", domain.ErrUpstream)
	}
	c.access, c.refresh = p.AccessToken, p.RefreshToken
	c.exp = c.now().Add(5 * time.Minute)
	if t, ok := parseExpiration(p.Expiration); ok {
		c.exp = t
	} else if p.Expiration != "" {
		c.log.Warn().Str("expiracao", p.Expiration).Msg("expiração do token RH ilegível, assumindo 5 min")
	}
	c.log.Info().Time("expira", c.exp).Msg("token RH obtido")
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// layouts ISO 8601 que devuelve la API; sin zona se interpreta UTC.
var expirationLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseExpiration(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range expirationLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// decodeList acepta array o un objeto suelto.
func decodeList(raw []byte) ([]map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var one map[string]any
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("%w: RH: json inválido", domain.ErrUpstream)
		}
		return []map[string]any{one}, nil
	}
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: RH: json inválido", domain.ErrUpstream)
	}
	return list, nil
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
