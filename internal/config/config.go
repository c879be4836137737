package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSessionSecretLength = 32

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Razorpay RazorpayConfig
	Email    EmailConfig
	SMTP     SMTPConfig
	Resend   ResendConfig
	R2       R2Config
	Redis    RedisConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port    string
	Host    string
	Env     string
	BaseURL string // public URL used in ticket links
	// AllowedOrigins is the CORS allow list; empty allows any origin.
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string // Full database URL
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AuthConfig struct {
	// AdminSecrets are the accepted admin login secrets: the comma separated
	// plaintext ADMIN_SECRET entries followed by the whitespace separated
	// argon2id hashes in ADMIN_SECRET_HASHES.
	AdminSecrets         []string
	SessionSecret        string
	AdminSessionTTL      time.Duration
	OTPSecret            string
	OTPTTL               time.Duration
	OTPTokenTTL          time.Duration
	OrganizerTokenSecret string
}

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	BaseURL       string
	VerifyCapture bool
	DefaultAmount int64 // paise
	Currency      string
}

type EmailConfig struct {
	Provider     string // smtp, resend or log
	FromEmail    string
	FromName     string
	SupportEmail string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

type ResendConfig struct {
	APIKey  string
	BaseURL string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	Region          string
	Endpoint        string
}

type RedisConfig struct {
	URL string
}

type StorageConfig struct {
	LocalPath        string
	SignedURLExpires time.Duration
}

func Load() (*Config, error) {
	// Load .env files if they exist (try .env.local first, then .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	port := getEnv("PORT", "8080")
	host := getEnv("HOST", "localhost")

	config := &Config{
		Server: ServerConfig{
			Port:           port,
			Host:           host,
			Env:            getEnv("ENV", "development"),
			BaseURL:        strings.TrimSuffix(getEnv("BASE_URL", fmt.Sprintf("http://%s:%s", host, port)), "/"),
			AllowedOrigins: getEnvAsList("CORS_ORIGINS"),
		},
		Database: parseDatabaseConfig(),
		Auth: AuthConfig{
			AdminSecrets:         append(getEnvAsList("ADMIN_SECRET"), strings.Fields(os.Getenv("ADMIN_SECRET_HASHES"))...),
			SessionSecret:        getEnv("SESSION_SECRET", ""),
			AdminSessionTTL:      getEnvAsSeconds("ADMIN_SESSION_TTL", time.Hour),
			OTPSecret:            getEnv("OTP_SECRET", ""),
			OTPTTL:               getEnvAsSeconds("OTP_TTL", 10*time.Minute),
			OTPTokenTTL:          getEnvAsSeconds("OTP_TOKEN_TTL", 10*time.Minute),
			OrganizerTokenSecret: getEnv("ORGANIZER_JWT_SECRET", ""),
		},
		Razorpay: RazorpayConfig{
			KeyID:         getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
			BaseURL:       getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			VerifyCapture: getEnvAsBool("RAZORPAY_VERIFY_CAPTURE", true),
			DefaultAmount: int64(getEnvAsInt("TICKET_PRICE_PAISE", 100000)),
			Currency:      getEnv("RAZORPAY_CURRENCY", "INR"),
		},
		Email: EmailConfig{
			Provider:     getEnv("EMAIL_PROVIDER", "smtp"),
			FromEmail:    getEnv("EMAIL_FROM", "noreply@planora.app"),
			FromName:     getEnv("EMAIL_FROM_NAME", "Planora Tickets"),
			SupportEmail: getEnv("SUPPORT_EMAIL", "support@planora.app"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 465),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASS", ""),
		},
		Resend: ResendConfig{
			APIKey:  getEnv("RESEND_API_KEY", ""),
			BaseURL: getEnv("RESEND_BASE_URL", "https://api.resend.com"),
		},
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", "tickets"),
			PublicURL:       getEnv("R2_PUBLIC_URL", ""),
			Region:          getEnv("R2_REGION", "auto"),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Storage: StorageConfig{
			LocalPath:        getEnv("STORAGE_LOCAL_PATH", "./storage"),
			SignedURLExpires: getEnvAsSeconds("STORAGE_URL_EXPIRES", 7*24*time.Hour),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadDatabase reads only the database settings, for tools that do not need
// the rest of the server configuration.
func LoadDatabase() DatabaseConfig {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	return parseDatabaseConfig()
}

// Validate refuses configurations that would leave a trust boundary without a
// secret. There are no built-in fallback secrets.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Auth.AdminSecrets) == 0 {
		errs = append(errs, errors.New("ADMIN_SECRET or ADMIN_SECRET_HASHES is required"))
	}
	if len(c.Auth.SessionSecret) < minSessionSecretLength {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLength))
	}
	if c.Auth.OTPSecret == "" {
		errs = append(errs, errors.New("OTP_SECRET is required"))
	}
	if c.Auth.OTPSecret != "" && c.Auth.OTPSecret == c.Auth.OrganizerTokenSecret {
		errs = append(errs, errors.New("OTP_SECRET and ORGANIZER_JWT_SECRET must differ"))
	}
	if c.Razorpay.KeySecret == "" {
		errs = append(errs, errors.New("RAZORPAY_KEY_SECRET is required"))
	}

	switch c.Email.Provider {
	case "smtp":
		if c.SMTP.User == "" || c.SMTP.Password == "" {
			errs = append(errs, errors.New("SMTP_USER and SMTP_PASS are required for the smtp provider"))
		}
	case "resend":
		if c.Resend.APIKey == "" {
			errs = append(errs, errors.New("RESEND_API_KEY is required for the resend provider"))
		}
	case "log":
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// UseR2 reports whether object storage credentials are configured.
func (c *Config) UseR2() bool {
	return c.R2.AccessKeyID != "" && c.R2.SecretAccessKey != ""
}

func parseDatabaseConfig() DatabaseConfig {
	// Check if DATABASE_URL is provided
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL != "" {
		return parseDatabaseURL(databaseURL)
	}

	// Fall back to individual environment variables
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "planora"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func parseDatabaseURL(databaseURL string) DatabaseConfig {
	config := DatabaseConfig{
		URL: databaseURL,
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		// If parsing fails, return the URL as-is
		return config
	}

	config.Host = u.Hostname()
	if u.Port() != "" {
		config.Port, _ = strconv.Atoi(u.Port())
	} else {
		config.Port = 5432
	}

	if u.User != nil {
		config.User = u.User.Username()
		config.Password, _ = u.User.Password()
	}

	config.DBName = strings.TrimPrefix(u.Path, "/")

	config.SSLMode = u.Query().Get("sslmode")
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSeconds reads a positive number of seconds.
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	seconds := getEnvAsInt(key, 0)
	if seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
