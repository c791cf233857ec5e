package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	HTTP      HTTPConfig
	LDAP      LDAPConfig
	Office    OfficeConfig
	PowerBI   PowerBIConfig
	AltForce  AltForceConfig
	RH        RHConfig
	SQLHub    SQLHubConfig
	AI        AIConfig
	Mail      MailConfig
	Scheduler SchedulerConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env       string // development, staging, production
	Name      string
	LogLevel  string
	MediaRoot string // raíz de archivos subidos (documentos, anexos, respuestas)
	BaseURL   string // URL pública del portal, usada en e-mails y links compartidos
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
	// pool
	MaxConns        int
	MinConns        int
	ApplicationName string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host        string
	Port        int
	CORSOrigins string
	BodyLimitMB int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LDAPConfig conexión al Active Directory. Enabled=false deja sólo la autenticación local.
type LDAPConfig struct {
	Enabled      bool
	URL          string // ldap://dc01.empresa.local:389 o ldaps://...
	Domain       string // sufijo UPN: usuario@Domain
	BaseDN       string
	BindUser     string // cuenta de servicio para búsquedas (opcional)
	BindPassword string
	UserFilter   string // %s se reemplaza por el sAMAccountName
	StartTLS     bool
	Timeout      time.Duration
}

// OfficeConfig conversión de documentos con LibreOffice.
type OfficeConfig struct {
	SofficePath string
	Timeout     time.Duration
}

// PowerBIConfig credenciales del service principal de Power BI.
type PowerBIConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Authority    string
	Scope        string
	APIBaseURL   string
	// RefreshLockTTL ventana en la que no se repite un refresh manual del mismo informe.
	RefreshLockTTL time.Duration
}

// DefaultRefreshLockTTL bloqueo del refresh manual de un informe.
const DefaultRefreshLockTTL = 5 * time.Minute

// TokenURL endpoint OAuth2 del tenant.
func (c PowerBIConfig) TokenURL() string {
	return strings.TrimRight(c.Authority, "/") + "/" + c.TenantID + "/oauth2/v2.0/token"
}

// AltForceConfig API de pedidos/orçamentos/leads.
type AltForceConfig struct {
	BaseURL        string
	CompanyID      string
	APIKey         string
	DefaultDays    int
	ChunkDays      int
	OverlapMinutes int
	SleepBetween   time.Duration
	BackfillDays   int
	MaxWindows     int
	RequestsPerSec float64
}

// RHConfig API de RH (entregas de EPI).
type RHConfig struct {
	BaseURL   string
	Email     string
	Password  string
	RetryMax  int
	RetryBase time.Duration
}

// SQLHubConfig ponte SQL ad-hoc.
type SQLHubConfig struct {
	SecretKey  string // 32 bytes en hex o base64 para sellar senhas das conexões
	SoftMax    int
	CacheTTL   time.Duration
	QueryLimit time.Duration
}

// AIConfig proveedores de IA y tabla de cambio para custos.
type AIConfig struct {
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	Provider        string // gemini | anthropic
	USDToBRL        string
}

// MailConfig SMTP para notificaciones.
type MailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SchedulerConfig intervalos de los jobs del worker.
type SchedulerConfig struct {
	AltForceEvery  time.Duration
	CustomersEvery time.Duration
	EPIEvery       time.Duration
	BIPollEvery    time.Duration
	CachePurge     time.Duration
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, LDAP_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:       getString(v, "APP_ENV", "development"),
			Name:      getString(v, "APP_NAME", "portal-intranet"),
			LogLevel:  getString(v, "LOG_LEVEL", "info"),
			MediaRoot: getString(v, "MEDIA_ROOT", "./media"),
			BaseURL:   getString(v, "APP_BASE_URL", "http://localhost:8080"),
		},
		DB: DBConfig{
			DatabaseURL:     getString(v, "DATABASE_URL", ""),
			Host:            getString(v, "DB_HOST", "localhost"),
			Port:            getInt(v, "DB_PORT", 5432),
			User:            getString(v, "DB_USER", "postgres"),
			Password:        getString(v, "DB_PASSWORD", ""),
			DBName:          getString(v, "DB_NAME", "portal"),
			SSLMode:         getString(v, "DB_SSLMODE", "disable"),
			AutoMigrate:     getBool(v, "DB_AUTO_MIGRATE", true),
			MaxConns:        getInt(v, "DB_MAX_CONNS", 20),
			MinConns:        getInt(v, "DB_MIN_CONNS", 2),
			ApplicationName: getString(v, "DB_APPLICATION_NAME", "portal-intranet"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "portal-intranet"),
		},
		HTTP: HTTPConfig{
			Host:        getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:        getInt(v, "HTTP_PORT", 8080),
			CORSOrigins: getString(v, "HTTP_CORS_ORIGINS", "*"),
			BodyLimitMB: getInt(v, "HTTP_BODY_LIMIT_MB", 64),
		},
		LDAP: LDAPConfig{
			Enabled:      getBool(v, "LDAP_ENABLED", false),
			URL:          getString(v, "LDAP_URL", ""),
			Domain:       getString(v, "LDAP_DOMAIN", ""),
			BaseDN:       getString(v, "LDAP_BASE_DN", ""),
			BindUser:     getString(v, "LDAP_BIND_USER", ""),
			BindPassword: getString(v, "LDAP_BIND_PASSWORD", ""),
			UserFilter:   getString(v, "LDAP_USER_FILTER", "(sAMAccountName=%s)"),
			StartTLS:     getBool(v, "LDAP_STARTTLS", false),
			Timeout:      getDuration(v, "LDAP_TIMEOUT", 10*time.Second),
		},
		Office: OfficeConfig{
			SofficePath: getString(v, "LIBREOFFICE_PATH", "/usr/bin/soffice"),
			Timeout:     getDuration(v, "LIBREOFFICE_TIMEOUT", 180*time.Second),
		},
		PowerBI: PowerBIConfig{
			TenantID:       getString(v, "PBI_TENANT_ID", ""),
			ClientID:       getString(v, "PBI_CLIENT_ID", ""),
			ClientSecret:   getString(v, "PBI_CLIENT_SECRET", ""),
			Authority:      getString(v, "PBI_AUTHORITY", "https://login.microsoftonline.com"),
			Scope:          getString(v, "PBI_SCOPE", "https://analysis.windows.net/powerbi/api/.default"),
			APIBaseURL:     getString(v, "PBI_API_BASE_URL", "https://api.powerbi.com/v1.0/myorg"),
			RefreshLockTTL: getDuration(v, "PBI_REFRESH_LOCK_TTL", DefaultRefreshLockTTL),
		},
		AltForce: AltForceConfig{
			BaseURL:        getString(v, "ALT_FORCE_BASE_URL", "https://integration.altforce.com.br"),
			CompanyID:      getString(v, "ALT_FORCE_COMPANY_ID", ""),
			APIKey:         getString(v, "ALT_FORCE_API_KEY", ""),
			DefaultDays:    getInt(v, "ORDERS_DEFAULT_DAYS", 30),
			ChunkDays:      getInt(v, "ORDERS_CHUNK_DAYS", 7),
			OverlapMinutes: getInt(v, "ALT_FORCE_OVERLAP_MINUTES", 0),
			SleepBetween:   getDuration(v, "ALT_FORCE_SLEEP_BETWEEN", 0),
			BackfillDays:   getInt(v, "ALT_FORCE_BACKFILL_DAYS", 730),
			MaxWindows:     getInt(v, "ALT_FORCE_MAX_WINDOWS", 1000),
			RequestsPerSec: getFloat(v, "ALT_FORCE_RPS", 5),
		},
		RH: RHConfig{
			BaseURL:   getString(v, "RH_API_BASE_URL", ""),
			Email:     getString(v, "RH_API_EMAIL", ""),
			Password:  getString(v, "RH_API_PASSWORD", ""),
			RetryMax:  getInt(v, "RH_RETRY_MAX", 5),
			RetryBase: getDuration(v, "RH_RETRY_BASE", 2*time.Second),
		},
		SQLHub: SQLHubConfig{
			SecretKey:  getString(v, "SQLHUB_SECRET_KEY", ""),
			SoftMax:    getInt(v, "SQLHUB_SOFT_MAX", 5000),
			CacheTTL:   getDuration(v, "SQLHUB_CACHE_TTL", 5*time.Minute),
			QueryLimit: getDuration(v, "SQLHUB_QUERY_TIMEOUT", 60*time.Second),
		},
		AI: AIConfig{
			GeminiAPIKey:    getString(v, "GEMINI_API_KEY", ""),
			GeminiModel:     getString(v, "GEMINI_MODEL", "gemini-1.5-flash-latest"),
			AnthropicAPIKey: getString(v, "ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getString(v, "ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			Provider:        getString(v, "AI_PROVIDER", "gemini"),
			USDToBRL:        getString(v, "AI_USD_TO_BRL", "5.50"),
		},
		Mail: MailConfig{
			Enabled:  getBool(v, "MAIL_ENABLED", false),
			Host:     getString(v, "MAIL_HOST", ""),
			Port:     getInt(v, "MAIL_PORT", 587),
			User:     getString(v, "MAIL_USER", ""),
			Password: getString(v, "MAIL_PASSWORD", ""),
			From:     getString(v, "MAIL_FROM", "portal@localhost"),
		},
		Scheduler: SchedulerConfig{
			AltForceEvery:  getDuration(v, "SCHED_ALTFORCE_EVERY", time.Hour),
			CustomersEvery: getDuration(v, "SCHED_CUSTOMERS_EVERY", 24*time.Hour),
			EPIEvery:       getDuration(v, "SCHED_EPI_EVERY", time.Hour),
			BIPollEvery:    getDuration(v, "SCHED_BI_POLL_EVERY", 15*time.Minute),
			CachePurge:     getDuration(v, "SCHED_CACHE_PURGE_EVERY", 10*time.Minute),
		},
	}

	if cfg.JWT.Secret == "" && cfg.App.Env == "production" {
		return nil, fmt.Errorf("config: JWT_SECRET es obligatorio en production")
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if v.IsSet(key) {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return b
	}
	return def
}

// getDuration acepta "90s", "5m" o un entero en segundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(v.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
