package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Payment      PaymentConfig
	Withdrawal   WithdrawalConfig
	LiberecMpesa LiberecMpesaConfig
	BankRail     BankRailConfig
	Booking      BookingConfig
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

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret string
	Issuer       string
}

type PaymentConfig struct {
	Provider      string // funding provider: liberec or stub
	WebhookSecret string
	PaymentExpiry time.Duration
}

type WithdrawalConfig struct {
	OTPTTL time.Duration
}

// LiberecMpesaConfig covers both STK funding and B2C payout via TheLiberec API.
type LiberecMpesaConfig struct {
	BaseURL        string
	Email          string
	Password       string
	WebhookBaseURL string
}

type BankRailConfig struct {
	BaseURL string
	APIKey  string
}

// BookingConfig points at the service-request module that owns booking
// settlement; the reconciler calls it when a service payment succeeds.
type BookingConfig struct {
	BaseURL      string
	ServiceToken string
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8099"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "huduma:huduma@tcp(localhost:3306)/huduma?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret: getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			Issuer:       getenv("JWT_ISSUER", "huduma"),
		},
		Payment: PaymentConfig{
			Provider:      getenv("PAYMENT_PROVIDER", "stub"),
			WebhookSecret: getenv("PAYMENT_WEBHOOK_SECRET", ""),
			PaymentExpiry: 30 * time.Minute,
		},
		Withdrawal: WithdrawalConfig{
			OTPTTL: time.Hour,
		},
		LiberecMpesa: LiberecMpesaConfig{
			BaseURL:        getenv("LIBEREC_BASE_URL", "https://card-api.theliberec.com"),
			Email:          getenv("LIBEREC_EMAIL", ""),
			Password:       getenv("LIBEREC_PASSWORD", ""),
			WebhookBaseURL: getenv("WEBHOOK_BASE_URL", ""),
		},
		BankRail: BankRailConfig{
			BaseURL: getenv("BANK_RAIL_BASE_URL", ""),
			APIKey:  getenv("BANK_RAIL_API_KEY", ""),
		},
		Booking: BookingConfig{
			BaseURL:      getenv("BOOKING_BASE_URL", "http://localhost:8088"),
			ServiceToken: getenv("BOOKING_SERVICE_TOKEN", ""),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
