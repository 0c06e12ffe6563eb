package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Checkout CheckoutConfig
	Courier  CourierConfig
	ChatBot  ChatBotConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// CheckoutConfig holds the shared secret for verifying payment-processor
// webhooks and the provider name recorded on orders.
type CheckoutConfig struct {
	WebhookSecret string
	Provider      string
}

// CourierConfig holds credentials for the carrier submission API.
// An empty APIKey means dispatch falls back to manual review.
type CourierConfig struct {
	BaseURL        string
	APIKey         string
	DefaultCourier string
	SenderName     string
	SenderStreet   string
	SenderCity     string
	SenderZip      string
	SenderCountry  string
	RequestTimeout time.Duration
	WorkerInterval time.Duration
}

// ChatBotConfig for operational alerts via a Telegram bot.
type ChatBotConfig struct {
	BaseURL string
	Token   string
	ChatID  string
}

type LoggingConfig struct {
	Level string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8088"),
			Env:          getEnv("ENV", "development"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "bottega:bottega@tcp(localhost:3306)/bottega?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "bottega"),
		},
		Checkout: CheckoutConfig{
			WebhookSecret: getEnv("CHECKOUT_WEBHOOK_SECRET", ""),
			Provider:      getEnv("CHECKOUT_PROVIDER", "stripe"),
		},
		Courier: CourierConfig{
			BaseURL:        getEnv("COURIER_BASE_URL", "https://api.parcelline.eu"),
			APIKey:         getEnv("COURIER_API_KEY", ""),
			DefaultCourier: getEnv("COURIER_DEFAULT", "brt"),
			SenderName:     getEnv("COURIER_SENDER_NAME", "Bottega"),
			SenderStreet:   getEnv("COURIER_SENDER_STREET", ""),
			SenderCity:     getEnv("COURIER_SENDER_CITY", ""),
			SenderZip:      getEnv("COURIER_SENDER_ZIP", ""),
			SenderCountry:  getEnv("COURIER_SENDER_COUNTRY", "IT"),
			RequestTimeout: getDuration("COURIER_REQUEST_TIMEOUT", 30*time.Second),
			WorkerInterval: getDuration("COURIER_WORKER_INTERVAL", 5*time.Minute),
		},
		ChatBot: ChatBotConfig{
			BaseURL: getEnv("CHATBOT_BASE_URL", "https://api.telegram.org"),
			Token:   getEnv("CHATBOT_TOKEN", ""),
			ChatID:  getEnv("CHATBOT_CHAT_ID", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
