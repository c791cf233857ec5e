package usecase

import (
	"sort"

	"github.com/jhoicas/portal-intranet/pkg/config"
)

// Integraciones externas opcionales.
const (
	IntegrationLDAP     = "ldap"
	IntegrationPowerBI  = "powerbi"
	IntegrationAltForce = "altforce"
	IntegrationRH       = "rh"
	IntegrationSQLHub   = "sqlhub"
	IntegrationAI       = "ia"
	IntegrationMail     = "mail"
)

// IntegrationService informa qué integraciones externas tienen credenciales configuradas.
// Es el único punto de la aplicación que decide si una integración está habilitada.
type IntegrationService struct {
	enabled map[string]bool
}

// NewIntegrationService evalúa la configuración una sola vez al arrancar.
func NewIntegrationService(cfg *config.Config) *IntegrationService {
	return &IntegrationService{enabled: map[string]bool{
		IntegrationLDAP:     cfg.LDAP.Enabled && cfg.LDAP.URL != "",
		IntegrationPowerBI:  cfg.PowerBI.TenantID != "" && cfg.PowerBI.ClientID != "" && cfg.PowerBI.ClientSecret != "",
		IntegrationAltForce: cfg.AltForce.CompanyID != "" && cfg.AltForce.APIKey != "",
		IntegrationRH:       cfg.RH.BaseURL != "" && cfg.RH.Email != "",
		IntegrationSQLHub:   cfg.SQLHub.SecretKey != "",
		IntegrationAI:       cfg.AI.GeminiAPIKey != "" || cfg.AI.AnthropicAPIKey != "",
		IntegrationMail:     cfg.Mail.Enabled && cfg.Mail.Host != "",
	}}
}

// IsEnabled informa si la integración está configurada. Nombres desconocidos devuelven false.
func (s *IntegrationService) IsEnabled(name string) bool {
	return s.enabled[name]
}

// Status estado de todas las integraciones, ordenado por nombre.
func (s *IntegrationService) Status() []IntegrationStatus {
	out := make([]IntegrationStatus, 0, len(s.enabled))
	for name, ok := range s.enabled {
		out = append(out, IntegrationStatus{Name: name, Enabled: ok})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IntegrationStatus entrada del endpoint de estado.
type IntegrationStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}
