package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RECORD_STORE", "")
	t.Setenv("OTP_MAX_ATTEMPTS", "")

	cfg := Load()
	assert.Equal(t, "dynamo", cfg.RecordStore)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.StepUpTokenTTL)
	assert.Equal(t, "argon2id", cfg.PinHasher)
	assert.False(t, cfg.BiometricAvailable)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RECORD_STORE", "Postgres")
	t.Setenv("OTP_MAX_ATTEMPTS", "0")
	t.Setenv("PIN_LOCKOUT", "90s")
	t.Setenv("BIOMETRIC_AVAILABLE", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a,http://b")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.RecordStore)
	assert.Equal(t, 0, cfg.OTPMaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.PinLockout)
	assert.True(t, cfg.BiometricAvailable)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("PIN_MAX_ATTEMPTS", "many")
	t.Setenv("JWT_EXPIRY", "forever")

	cfg := Load()
	assert.Equal(t, 5, cfg.PinMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
}
