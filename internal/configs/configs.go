package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	RedisAddr              string
	RateLimit              int
	ShutdownTimeoutSeconds int

	PlatformFeePercent  float64
	MinimumBudget       float64
	Currency            string
	MaxRevisionRequests int
	PayoutGraceHours    int
	SweepBatchSize      int
	SweepCronSpec       string
	ExpiryCronSpec      string

	GatewayBaseURL        string
	GatewayKeyID          string
	GatewayKeySecret      string
	GatewayWebhookSecret  string
	GatewayAccountNumber  string
	GatewayTimeoutSeconds int
}

func Load() Config {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "taskmarket.db"),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20),

		PlatformFeePercent:  getEnvAsFloat("PLATFORM_FEE_PERCENT", 10),
		MinimumBudget:       getEnvAsFloat("MINIMUM_BUDGET", 10),
		Currency:            getEnv("CURRENCY", "INR"),
		MaxRevisionRequests: getEnvAsInt("MAX_REVISION_REQUESTS", 3),
		PayoutGraceHours:    getEnvAsInt("PAYOUT_GRACE_HOURS", 72),
		SweepBatchSize:      getEnvAsInt("SWEEP_BATCH_SIZE", 50),
		SweepCronSpec:       getEnv("SWEEP_CRON_SPEC", "@hourly"),
		ExpiryCronSpec:      getEnv("EXPIRY_CRON_SPEC", "@daily"),

		GatewayBaseURL:        getEnv("GATEWAY_BASE_URL", "https://api.razorpay.com/v1"),
		GatewayKeyID:          getEnv("GATEWAY_KEY_ID", ""),
		GatewayKeySecret:      getEnv("GATEWAY_KEY_SECRET", ""),
		GatewayWebhookSecret:  getEnv("GATEWAY_WEBHOOK_SECRET", ""),
		GatewayAccountNumber:  getEnv("GATEWAY_ACCOUNT_NUMBER", ""),
		GatewayTimeoutSeconds: getEnvAsInt("GATEWAY_TIMEOUT_SECONDS", 30),
	}

	validate(cfg)
	return cfg
}

func validate(cfg Config) {
	if cfg.DatabaseDSN == "" {
		log.Fatal().Msg("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		log.Fatal().Msg("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.PlatformFeePercent < 0 || cfg.PlatformFeePercent >= 100 {
		log.Fatal().Msg("PLATFORM_FEE_PERCENT must be in [0, 100)")
	}
	if cfg.MaxRevisionRequests <= 0 {
		log.Fatal().Msg("MAX_REVISION_REQUESTS must be greater than 0")
	}
	if cfg.PayoutGraceHours <= 0 {
		log.Fatal().Msg("PAYOUT_GRACE_HOURS must be greater than 0")
	}
	if cfg.SweepBatchSize <= 0 {
		log.Fatal().Msg("SWEEP_BATCH_SIZE must be greater than 0")
	}
	if cfg.GatewayKeyID == "" || cfg.GatewayKeySecret == "" {
		log.Fatal().Msg("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET must be set")
	}
	if cfg.GatewayWebhookSecret == "" {
		log.Fatal().Msg("GATEWAY_WEBHOOK_SECRET must be set")
	}
	if cfg.GatewayAccountNumber == "" {
		log.Fatal().Msg("GATEWAY_ACCOUNT_NUMBER must be set")
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatal().Str("key", key).Msg("invalid integer value")
		}
		return i
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatal().Str("key", key).Msg("invalid numeric value")
		}
		return f
	}
	return defaultVal
}
