package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port    string
	GinMode string

	MySQLUser     string
	MySQLPassword string
	MySQLHost     string
	MySQLPort     string
	MySQLDatabase string

	RedisAddr     string
	RabbitMQURL   string
	OrderExchange string

	CatalogURL       string
	CatalogTimeout   time.Duration
	CatalogWarmupIDs []uint64

	JWTSecret      string
	CommissionRate decimal.Decimal
	FlatShipping   decimal.Decimal
	CORSOrigins    []string
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	timeout, err := time.ParseDuration(getEnv("CATALOG_TIMEOUT", "2s"))
	if err != nil {
		return nil, fmt.Errorf("CATALOG_TIMEOUT: %w", err)
	}
	rate, err := decimal.NewFromString(getEnv("COMMISSION_RATE", "0.10"))
	if err != nil {
		return nil, fmt.Errorf("COMMISSION_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("COMMISSION_RATE must be between 0 and 1, got %s", rate)
	}
	flat, err := decimal.NewFromString(getEnv("FLAT_SHIPPING", "0"))
	if err != nil {
		return nil, fmt.Errorf("FLAT_SHIPPING: %w", err)
	}
	var warmup []uint64
	for _, raw := range splitCSV(os.Getenv("CATALOG_WARMUP_IDS")) {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("CATALOG_WARMUP_IDS: %w", err)
		}
		warmup = append(warmup, id)
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		GinMode:          getEnv("GIN_MODE", "release"),
		MySQLUser:        os.Getenv("MYSQL_USER"),
		MySQLPassword:    os.Getenv("MYSQL_PASSWORD"),
		MySQLHost:        getEnv("MYSQL_HOST", "localhost"),
		MySQLPort:        getEnv("MYSQL_PORT", "3306"),
		MySQLDatabase:    getEnv("MYSQL_DATABASE", "marketplace"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		OrderExchange:    getEnv("ORDER_EXCHANGE", "marketplace.exchange"),
		CatalogURL:       strings.TrimRight(os.Getenv("CATALOG_SERVICE_URL"), "/"),
		CatalogTimeout:   timeout,
		CatalogWarmupIDs: warmup,
		JWTSecret:        getEnv("JWT_SECRET", "changeme"),
		CommissionRate:   rate,
		FlatShipping:     flat,
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "*")),
	}, nil
}

func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.MySQLUser, c.MySQLPassword, c.MySQLHost, c.MySQLPort, c.MySQLDatabase)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
