package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	AllowedOrigins []string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAIOrg     string
	ImageModel    string

	ProviderCallTimeout time.Duration

	TokenFeedBaseURL  string
	TokenFeedDecimals int
	TokenCreditRate   decimal.Decimal
	ChainFeedBaseURL  string
	ChainFeedDecimals int
	ChainCreditRate   decimal.Decimal
	FeedLimit         int
	ScanInterval      time.Duration

	WalletServiceURL string
	WalletSealKey    string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:     os.Getenv("OPENAI_ORG"),
		ImageModel:    getEnv("IMAGE_MODEL", "dall-e-3"),

		ProviderCallTimeout: time.Second * time.Duration(getEnvInt("PROVIDER_CALL_TIMEOUT_SECONDS", 90)),

		TokenFeedBaseURL:  os.Getenv("TOKEN_FEED_BASE_URL"),
		TokenFeedDecimals: getEnvInt("TOKEN_FEED_DECIMALS", 8),
		ChainFeedBaseURL:  os.Getenv("CHAIN_FEED_BASE_URL"),
		ChainFeedDecimals: getEnvInt("CHAIN_FEED_DECIMALS", 8),
		FeedLimit:         getEnvInt("FEED_LIMIT", 50),
		ScanInterval:      time.Second * time.Duration(getEnvInt("SCAN_INTERVAL_SECONDS", 60)),

		WalletServiceURL: os.Getenv("WALLET_SERVICE_URL"),
		WalletSealKey:    os.Getenv("WALLET_SEAL_KEY"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	var err error
	if cfg.TokenCreditRate, err = getEnvDecimal("TOKEN_CREDIT_RATE", "1"); err != nil {
		return nil, err
	}
	if cfg.ChainCreditRate, err = getEnvDecimal("CHAIN_CREDIT_RATE", "1"); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.WalletSealKey == "" {
		return nil, fmt.Errorf("WALLET_SEAL_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q", key, raw)
	}
	return d, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
