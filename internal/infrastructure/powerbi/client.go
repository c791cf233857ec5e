// Package powerbi cliente de la API REST de Power BI autenticado como service principal.
package powerbi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/jhoicas/portal-intranet/internal/application/ports"
	"github.com/jhoicas/portal-intranet/internal/domain"
	"github.com/jhoicas/portal-intranet/pkg/config"
	"github.com/jhoicas/portal-intranet/pkg/logger"
)

var _ ports.PowerBIClient = (*Client)(nil)

const (
	embedTTL    = 50 * time.Minute
	minLifetime = 5 * time.Minute
	cacheSize   = 256
)

// Client implementa ports.PowerBIClient.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
	now     func() time.Time

	embeds *expirable.LRU[string, *ports.EmbedInfo]

	mu sync.Mutex
	// datasetID -> workspace del dataset, que puede diferir del workspace del relatório
	datasetGroups map[string]string
}

// NewClient arma el cliente; sin TenantID/ClientID devuelve ErrNotConfigured en cada llamada.
func NewClient(cfg config.PowerBIConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		baseURL:       strings.TrimRight(cfg.APIBaseURL, "/"),
		log:           log.Named("powerbi"),
		now:           time.Now,
		embeds:        expirable.NewLRU[string, *ports.EmbedInfo](cacheSize, nil, embedTTL),
		datasetGroups: map[string]string{},
	}
	if cfg.TenantID != "" && cfg.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL(),
			Scopes:       []string{cfg.Scope},
		}
		// el token source cachea el access token y lo renueva antes de expirar
		c.http = cc.Client(context.Background())
		c.http.Timeout = 15 * time.Second
	}
	return c
}

// WithHTTPClient reemplaza el cliente autenticado (tests).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

type reportInfo struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	EmbedURL           string `json:"embedUrl"`
	DatasetID          string `json:"datasetId"`
	DatasetWorkspaceID string `json:"datasetWorkspaceId"`
}

// EmbedToken token de visualización; se reusa del cache mientras le queden más de 5 minutos.
func (c *Client) EmbedToken(ctx context.Context, workspaceID, reportID string) (*ports.EmbedInfo, error) {
	key := workspaceID + ":" + reportID
	if cached, ok := c.embeds.Get(key); ok {
		if cached.ExpiresAt.Sub(c.now()) > minLifetime {
			return cached, nil
		}
		c.log.Info().Str("report_id", reportID).Msg("embed token a menos de 5 min de expirar, renovando")
		c.embeds.Remove(key)
	}

	var info reportInfo
	reportURL := fmt.Sprintf("%s/groups/%s/reports/%s", c.baseURL, workspaceID, reportID)
	if err := c.do(ctx, http.MethodGet, reportURL, nil, &info); err != nil {
		return nil, err
	}
	c.rememberDataset(info, workspaceID)

	var gen struct {
		Token      string    `json:"token"`
		Expiration time.Time `json:"expiration"`
	}
	if err := c.do(ctx, http.MethodPost, reportURL+"/GenerateToken", map[string]string{"accessLevel": "View"}, &gen); err != nil {
		return nil, err
	}
	if gen.Expiration.IsZero() {
		gen.Expiration = c.tokenExpiry(gen.Token)
	}

	out := &ports.EmbedInfo{
		EmbedURL:  info.EmbedURL,
		Token:     gen.Token,
		ExpiresAt: gen.Expiration,
		DatasetID: info.DatasetID,
	}
	c.embeds.Add(key, out)
	c.log.Info().Str("report", info.Name).Time("expires_at", gen.Expiration).Msg("embed token gerado")
	return out, nil
}

// tokenExpiry lee el claim exp del embed token (sin verificar la firma);
// si el token no es un JWT con exp se asume embedTTL.
func (c *Client) tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	c.log.Warn().Msg("embed token sem expiration nem claim exp, assumindo 50 min")
	return c.now().Add(embedTTL)
}

// DatasetID resuelve el dataset del relatório.
func (c *Client) DatasetID(ctx context.Context, workspaceID, reportID string) (string, error) {
	var list struct {
		Value []reportInfo `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/groups/%s/reports", c.baseURL, workspaceID), nil, &list); err != nil {
		return "", err
	}
	for _, r := range list.Value {
		if r.ID != reportID {
			continue
		}
		if r.DatasetID == "" {
			return "", fmt.Errorf("%w: relatório %s sem dataset", domain.ErrNotFound, reportID)
		}
		c.rememberDataset(r, workspaceID)
		return r.DatasetID, nil
	}
	return "", fmt.Errorf("%w: relatório %s não encontrado no workspace", domain.ErrNotFound, reportID)
}

// LastRefresh fin (o inicio) más reciente entre los refreshes Completed.
func (c *Client) LastRefresh(ctx context.Context, workspaceID, datasetID string) (*time.Time, error) {
	var list struct {
		Value []struct {
			Status    string `json:"status"`
			StartTime string `json:"startTime"`
			EndTime   string `json:"endTime"`
		} `json:"value"`
	}
	u := fmt.Sprintf("%s/groups/%s/datasets/%s/refreshes?$top=50", c.baseURL, c.datasetGroup(datasetID, workspaceID), datasetID)
	if err := c.do(ctx, http.MethodGet, u, nil, &list); err != nil {
		return nil, err
	}
	var newest *time.Time
	for _, r := range list.Value {
		if strings.TrimSpace(r.Status) != "Completed" {
			continue
		}
		for _, s := range []string{r.EndTime, r.StartTime} {
			if t, ok := parseTime(s); ok && (newest == nil || t.After(*newest)) {
				newest = &t
			}
		}
	}
	return newest, nil
}

// TriggerRefresh dispara un refresh Full sin notificación.
func (c *Client) TriggerRefresh(ctx context.Context, workspaceID, datasetID string) error {
	u := fmt.Sprintf("%s/groups/%s/datasets/%s/refreshes", c.baseURL, c.datasetGroup(datasetID, workspaceID), datasetID)
	body := map[string]string{"type": "Full", "notifyOption": "NoNotification"}
	if err := c.do(ctx, http.MethodPost, u, body, nil); err != nil {
		return err
	}
	c.log.Info().Str("dataset_id", datasetID).Msg("refresh acionado")
	return nil
}

func (c *Client) rememberDataset(r reportInfo, workspaceID string) {
	if r.DatasetID == "" {
		return
	}
	group := r.DatasetWorkspaceID
	if group == "" {
		group = workspaceID
	}
	c.mu.Lock()
	c.datasetGroups[r.DatasetID] = group
	c.mu.Unlock()
}

func (c *Client) datasetGroup(datasetID, fallback string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.datasetGroups[datasetID]; ok {
		return g
	}
	return fallback
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	if c.http == nil {
		return fmt.Errorf("%w: Power BI", domain.ErrNotConfigured)
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: power bi: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: power bi %s", domain.ErrNotFound, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error().Int("status", resp.StatusCode).Str("url", req.URL.Path).Bytes("body", raw).Msg("chamada Power BI falhou")
		return fmt.Errorf("%w: power bi http_%d%s", domain.ErrUpstream, resp.StatusCode, serviceError(raw))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: power bi: resposta inválida: %v", domain.ErrUpstream, err)
	}
	return nil
}

// serviceError extrae ":code - mensaje" del payload de error de Power BI.
func serviceError(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &payload) != nil {
		return ""
	}
	var out string
	if payload.Error.Code != "" {
		out += ":" + payload.Error.Code
	}
	msg := payload.Error.Message
	if msg == "" {
		msg = payload.Message
	}
	if msg != "" {
		if len(msg) > 300 {
			msg = msg[:300]
		}
		out += " - " + msg
	}
	return out
}

// parseTime acepta RFC3339 con o sin zona; sin zona se asume UTC.
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
