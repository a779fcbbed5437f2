package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	// Zonas embebidas: la imagen puede no traer /usr/share/zoneinfo.
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Proveedores soportados.
const (
	AuthMemory = "memory"
	AuthGoTrue = "gotrue"

	DataMemory   = "memory"
	DataPostgres = "postgres"
	DataSupabase = "supabase"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port string

	LogLevel  string
	LogFormat string
	AppName   string

	AuthProvider string
	DataProvider string

	DBDSN string

	SupabaseURL            string
	SupabaseAnonKey        string
	SupabaseServiceRoleKey string

	HTTPTimeout time.Duration

	// Timezone es la zona IANA de los campos date/time de las reservas.
	Timezone string
}

// New prepara un viper con defaults y lectura de env.
// El caller puede setear un archivo con v.SetConfigFile antes de Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("app_name", "pawtastic")
	v.SetDefault("auth_provider", AuthMemory)
	v.SetDefault("data_provider", DataMemory)
	v.SetDefault("db_dsn", "")
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_anon_key", "")
	v.SetDefault("supabase_service_role_key", "")
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("timezone", "UTC")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load lee el archivo (si hay uno seteado) y arma Config.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = New()
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Port:                   strings.TrimSpace(v.GetString("port")),
		LogLevel:               v.GetString("log_level"),
		LogFormat:              v.GetString("log_format"),
		AppName:                strings.TrimSpace(v.GetString("app_name")),
		AuthProvider:           strings.ToLower(strings.TrimSpace(v.GetString("auth_provider"))),
		DataProvider:           strings.ToLower(strings.TrimSpace(v.GetString("data_provider"))),
		DBDSN:                  strings.TrimSpace(v.GetString("db_dsn")),
		SupabaseURL:            strings.TrimRight(strings.TrimSpace(v.GetString("supabase_url")), "/"),
		SupabaseAnonKey:        strings.TrimSpace(v.GetString("supabase_anon_key")),
		SupabaseServiceRoleKey: strings.TrimSpace(v.GetString("supabase_service_role_key")),
		HTTPTimeout:            v.GetDuration("http_timeout"),
		Timezone:               strings.TrimSpace(v.GetString("timezone")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rechaza combinaciones inconsistentes.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port required", ErrInvalidConfig)
	}

	switch c.AuthProvider {
	case AuthMemory:
	case AuthGoTrue:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("%w: gotrue requires SUPABASE_URL and SUPABASE_ANON_KEY", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown auth provider %q", ErrInvalidConfig, c.AuthProvider)
	}

	switch c.DataProvider {
	case DataMemory:
	case DataPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("%w: postgres requires DB_DSN", ErrInvalidConfig)
		}
	case DataSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("%w: supabase requires SUPABASE_URL and SUPABASE_ANON_KEY", ErrInvalidConfig)
		}
		// PostgREST aplica RLS con el token del usuario: sin gotrue no hay token.
		if c.AuthProvider != AuthGoTrue {
			return fmt.Errorf("%w: supabase data requires gotrue auth", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown data provider %q", ErrInvalidConfig, c.DataProvider)
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: negative http timeout", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Timezone, err)
	}
	return nil
}

// Location resuelve Timezone. Vacío es UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Addr devuelve ":<port>" para http.Server.
func (c Config) Addr() string {
	return ":" + c.Port
}
