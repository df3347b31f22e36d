package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// RecordStore selects the backend for the OTP ledger and PIN tables:
	// "dynamo", "postgres" or "memory".
	RecordStore string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// LocalStatePath is the SQLite file holding client-local state.
	LocalStatePath string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion      string
	NotifyTopicARN string

	OTPMaxAttempts     int // 0 disables the bound
	PinMaxAttempts     int // 0 disables the bound
	PinLockout         time.Duration
	PinHasher          string // "argon2id" | "plain"
	StepUpTokenTTL     time.Duration
	BiometricAvailable bool
	TOTPIssuer         string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users     string
	Sessions  string
	OTPLedger string
	Pins      string
	Wallets   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:  getEnv("APP_PORT", "3000"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:     getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:  getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			OTPLedger: getEnv("DYNAMO_TABLE_OTP_LEDGER", "otp_ledger"),
			Pins:      getEnv("DYNAMO_TABLE_PINS", "pins"),
			Wallets:   getEnv("DYNAMO_TABLE_WALLETS", "wallets"),
		},

		RecordStore: strings.ToLower(getEnv("RECORD_STORE", "dynamo")),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LocalStatePath: getEnv("LOCAL_STATE_PATH", "./vault-state.db"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion:      getEnv("SNS_REGION", "us-east-1"),
		NotifyTopicARN: getEnv("NOTIFY_TOPIC_ARN", ""),

		OTPMaxAttempts:     getEnvInt("OTP_MAX_ATTEMPTS", 5),
		PinMaxAttempts:     getEnvInt("PIN_MAX_ATTEMPTS", 5),
		PinLockout:         getEnvDuration("PIN_LOCKOUT", 15*time.Minute),
		PinHasher:          strings.ToLower(getEnv("PIN_HASHER", "argon2id")),
		StepUpTokenTTL:     getEnvDuration("STEP_UP_TOKEN_TTL", 2*time.Minute),
		BiometricAvailable: getEnvBool("BIOMETRIC_AVAILABLE", false),
		TOTPIssuer:         getEnv("TOTP_ISSUER", "NextWallet"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
