package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 10*time.Minute, cfg.Verification.OTPTTL)
	require.Equal(t, 5, cfg.Verification.MaxAttempts)
	require.Equal(t, 5*time.Second, cfg.Verification.Survey.Timeout)
	require.False(t, cfg.Verification.EchoCodes)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
verification:
  otp_ttl: 3m
  max_attempts: 2
  echo_codes: true
  survey:
    base_url: http://registry.local
smtp:
  enabled: true
  host: smtp.local
  port: 587
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 3*time.Minute, cfg.Verification.OTPTTL)
	require.Equal(t, 2, cfg.Verification.MaxAttempts)
	require.True(t, cfg.Verification.EchoCodes)
	require.Equal(t, "http://registry.local", cfg.Verification.Survey.BaseURL)
	require.True(t, cfg.SMTP.Enabled)
	require.Equal(t, 587, cfg.SMTP.Port)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("REALESTATE_VERIFICATION_OTP_TTL", "90s")
	t.Setenv("REALESTATE_DATABASE_DRIVER", "postgres")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 90*time.Second, cfg.Verification.OTPTTL)
	require.Equal(t, "postgres", cfg.Database.Driver)
}

func TestApplyRuntimeDefaultsGeneratesSecret(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ApplyRuntimeDefaults(cfg))
	require.NotEmpty(t, cfg.Auth.JWTSecret)

	fixed := &Config{Auth: AuthConfig{JWTSecret: "configured"}}
	require.NoError(t, ApplyRuntimeDefaults(fixed))
	require.Equal(t, "configured", fixed.Auth.JWTSecret)
}
