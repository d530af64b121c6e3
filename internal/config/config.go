// Package config loads the service configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/notify"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/payment"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/pricing"
)

type Config struct {
	Server   ServerConfig
	API      APIConfig
	Pricing  pricing.Config
	Redis    database.RedisConfig
	Postgres database.PostgresConfig
	Stripe   payment.StripeConfig
	Sandbox  SandboxConfig
	SMTP     notify.SMTPConfig
	Template notify.TemplateProviderConfig
	// Empty disables the order.updated events
	RabbitMQURL string
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	// Used when a checkout does not name a gateway
	DefaultGateway string
}

type APIConfig struct {
	BaseURL         string
	Timeout         time.Duration
	CatalogCacheTTL time.Duration
}

type SandboxConfig struct {
	// Off unless SANDBOX_ENABLED or PAYMENT_GATEWAY=sandbox
	Enabled     bool
	Deferred    bool
	ReturnURL   string
	FailureRate float64
	TimeoutRate float64
}

// Load reads .env when present, then the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded, using the process environment: %v", err)
	}

	defaultGateway := getEnv("PAYMENT_GATEWAY", payment.StripeGatewayName)

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS"),
			DefaultGateway: defaultGateway,
		},
		API: APIConfig{
			BaseURL:         getEnv("API_BASE_URL", "http://localhost/api"),
			Timeout:         getDuration("API_TIMEOUT", 30*time.Second),
			CatalogCacheTTL: getDuration("CATALOG_CACHE_TTL", 5*time.Minute),
		},
		Pricing: pricing.Config{
			CancellationFee: getFloat("CANCELLATION_FEE", pricing.DefaultCancellationFee),
			Policy:          pricing.ParsePolicy(os.Getenv("DISCOUNT_POLICY")),
		},
		Redis: database.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Postgres: database.PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "parking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Stripe: payment.StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Currency:      getEnv("CURRENCY", "gbp"),
			SuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/booking/success"),
			CancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/booking/cancelled"),
		},
		Sandbox: SandboxConfig{
			Enabled:     getBool("SANDBOX_ENABLED", false) || defaultGateway == payment.SandboxGatewayName,
			Deferred:    getBool("SANDBOX_DEFERRED", false),
			ReturnURL:   os.Getenv("SANDBOX_RETURN_URL"),
			FailureRate: getFloat("SANDBOX_FAILURE_RATE", 0.15),
			TimeoutRate: getFloat("SANDBOX_TIMEOUT_RATE", 0.05),
		},
		SMTP: notify.SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		},
		Template: notify.TemplateProviderConfig{
			Endpoint:   getEnv("EMAIL_ENDPOINT", "https://api.emailjs.com/api/v1.0/email/send"),
			ServiceID:  os.Getenv("EMAIL_SERVICE_ID"),
			TemplateID: os.Getenv("EMAIL_TEMPLATE_ID"),
			UserID:     os.Getenv("EMAIL_USER_ID"),
		},
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
	}
}

// StripeEnabled reports whether a Stripe secret key is configured
func (c *Config) StripeEnabled() bool {
	return c.Stripe.SecretKey != ""
}

// PostgresEnabled reports whether the change journal should be opened
func (c *Config) PostgresEnabled() bool {
	return os.Getenv("DB_HOST") != ""
}

// SMTPEnabled reports whether change emails go out over SMTP
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.From != ""
}

// TemplateEnabled reports whether change emails go through the template provider
func (c *Config) TemplateEnabled() bool {
	return c.Template.ServiceID != "" && c.Template.TemplateID != "" && c.Template.UserID != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		log.Printf("Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

// getDuration accepts a Go duration ("30s") or a number of seconds
func getDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Invalid %s=%q, using %s", key, v, fallback)
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
