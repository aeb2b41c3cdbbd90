package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	Email    EmailConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Bank     BankConfig
	WhatsApp WhatsAppConfig
	Plans    PlansConfig
	Workers  WorkersConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	CORSOrigins     string
	Environment     string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	ResetTokenExpiry   time.Duration
	BCryptCost         int
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// EmailConfig contains SMTP settings. An empty SMTPHost means emails are
// logged instead of sent.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	FromName     string
	MaxAttempts  int
}

// Enabled reports whether an SMTP relay is configured
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != ""
}

// StorageConfig selects where payment proofs are kept
type StorageConfig struct {
	Driver    string // local, s3 or gcs
	LocalPath string
	Bucket    string
	Prefix    string

	S3Region       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	GCSCredentialsJSON string
}

// LLMConfig selects the AI consultant backend
type LLMConfig struct {
	Provider     string // openai or gemini
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	MaxTokens    int
	Timeout      time.Duration
}

// BankConfig holds the account users transfer to
type BankConfig struct {
	BankName      string
	AccountHolder string
	AccountNumber string
	IBAN          string
	SwiftCode     string
	Currency      string
}

// WhatsAppConfig holds the consultation contact
type WhatsAppConfig struct {
	Number  string
	Message string
}

// PlansConfig points to an optional plan catalog file
type PlansConfig struct {
	CatalogPath      string
	SubscriptionDays int
}

// WorkersConfig controls the background workers
type WorkersConfig struct {
	EmailDispatchInterval time.Duration
	EmailBatchSize        int
	SubscriptionSweep     string // cron spec
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8001),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
			CORSOrigins:     getEnv("CORS_ORIGINS", ""),
			Environment:     getEnv("ENVIRONMENT", "development"),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "growen"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./growen.db"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			AccessTokenExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 7*24*time.Hour),
			RefreshTokenExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 30*24*time.Hour),
			ResetTokenExpiry:   getEnvAsDuration("RESET_TOKEN_EXPIRY", time.Hour),
			BCryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("EMAIL_FROM", "no-reply@growen.ao"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Growen"),
			MaxAttempts:  getEnvAsInt("EMAIL_MAX_ATTEMPTS", 3),
		},
		Storage: StorageConfig{
			Driver:             getEnv("STORAGE_DRIVER", "local"),
			LocalPath:          getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			Bucket:             getEnv("STORAGE_BUCKET", ""),
			Prefix:             getEnv("STORAGE_PREFIX", "payment-proofs"),
			S3Region:           getEnv("S3_REGION", "us-east-1"),
			S3Endpoint:         getEnv("S3_ENDPOINT", ""),
			S3AccessKey:        getEnv("S3_ACCESS_KEY_ID", ""),
			S3SecretKey:        getEnv("S3_SECRET_ACCESS_KEY", ""),
			S3UsePathStyle:     getEnvAsBool("S3_USE_PATH_STYLE", false),
			GCSCredentialsJSON: getEnv("GCS_CREDENTIALS_JSON", ""),
		},
		LLM: LLMConfig{
			Provider:     getEnv("LLM_PROVIDER", "openai"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			MaxTokens:    getEnvAsInt("LLM_MAX_TOKENS", 1200),
			Timeout:      getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Bank: BankConfig{
			BankName:      getEnv("BANK_NAME", "Banco BAI"),
			AccountHolder: getEnv("BANK_ACCOUNT_HOLDER", "Growen Consultoria Lda"),
			AccountNumber: getEnv("BANK_ACCOUNT_NUMBER", "0000 0000 0000 0"),
			IBAN:          getEnv("BANK_IBAN", "AO06 0040 0000 0000 0000 0000 0"),
			SwiftCode:     getEnv("BANK_SWIFT", "BAIPAOLU"),
			Currency:      getEnv("BANK_CURRENCY", "AOA"),
		},
		WhatsApp: WhatsAppConfig{
			Number:  getEnv("WHATSAPP_NUMBER", "+244943201590"),
			Message: getEnv("WHATSAPP_MESSAGE", "Olá! Gostaria de agendar uma consultoria com a Growen."),
		},
		Plans: PlansConfig{
			CatalogPath:      getEnv("PLAN_CATALOG_PATH", ""),
			SubscriptionDays: getEnvAsInt("SUBSCRIPTION_DAYS", 30),
		},
		Workers: WorkersConfig{
			EmailDispatchInterval: getEnvAsDuration("EMAIL_DISPATCH_INTERVAL", 15*time.Second),
			EmailBatchSize:        getEnvAsInt("EMAIL_BATCH_SIZE", 20),
			SubscriptionSweep:     getEnv("SUBSCRIPTION_SWEEP_SCHEDULE", "@hourly"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "supersecretkey" {
		return fmt.Errorf("JWT_SECRET must be set and should not use a default value")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "local":
	case "s3", "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for storage driver %s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.Storage.Driver)
	}

	if c.LLM.Provider != "openai" && c.LLM.Provider != "gemini" {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	if c.Plans.SubscriptionDays < 1 {
		return fmt.Errorf("SUBSCRIPTION_DAYS must be positive")
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
