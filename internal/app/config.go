package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the full application configuration tree.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Verification VerificationConfig `mapstructure:"verification"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Maintenance  MaintenanceConfig  `mapstructure:"maintenance"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the listen address.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig controls the storage backend.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// VerificationConfig controls the review flow and the disclosure challenge.
type VerificationConfig struct {
	OTPTTL           time.Duration `mapstructure:"otp_ttl"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	EchoCodes        bool          `mapstructure:"echo_codes"`
	OTPRequestLimit  int           `mapstructure:"otp_request_limit"`
	OTPRequestWindow time.Duration `mapstructure:"otp_request_window"`

	Survey SurveyConfig `mapstructure:"survey"`
}

// SurveyConfig controls the external land-registry collaborator.
type SurveyConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SMTPConfig controls outbound email delivery.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MaintenanceConfig controls background cleanup.
type MaintenanceConfig struct {
	Schedule          string        `mapstructure:"schedule"`
	ActivityRetention time.Duration `mapstructure:"activity_retention"`
}

// Load reads configuration from the optional file path, environment variables
// prefixed with REALESTATE_, and built-in defaults, in that order of
// precedence (file wins over defaults, environment wins over both).
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("REALESTATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/realestate.db")

	v.SetDefault("auth.jwt_issuer", "realestate")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("verification.otp_ttl", "10m")
	v.SetDefault("verification.max_attempts", 5)
	v.SetDefault("verification.echo_codes", false)
	v.SetDefault("verification.otp_request_limit", 5)
	v.SetDefault("verification.otp_request_window", "1m")
	v.SetDefault("verification.survey.timeout", "5s")

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.timeout", "10s")

	v.SetDefault("logging.level", "info")

	v.SetDefault("maintenance.schedule", "@every 15m")
	v.SetDefault("maintenance.activity_retention", "2160h")
}
