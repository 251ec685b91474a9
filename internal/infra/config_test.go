package infra

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/coinforge")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("WALLET_SEAL_KEY", "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.TokenFeedDecimals != 8 || cfg.ChainFeedDecimals != 8 {
		t.Fatalf("unexpected feed decimals: %d %d", cfg.TokenFeedDecimals, cfg.ChainFeedDecimals)
	}
	if !cfg.TokenCreditRate.Equal(cfg.ChainCreditRate) || cfg.TokenCreditRate.String() != "1" {
		t.Fatalf("unexpected default rates: %s %s", cfg.TokenCreditRate, cfg.ChainCreditRate)
	}
	if cfg.ScanInterval != time.Minute {
		t.Fatalf("ScanInterval = %s, want 1m", cfg.ScanInterval)
	}
}

func TestLoadConfigRequiredFields(t *testing.T) {
	cases := []string{"DATABASE_URL", "OPENAI_API_KEY", "WALLET_SEAL_KEY"}
	for _, missing := range cases {
		t.Run(missing, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(missing, "")
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error when %s missing", missing)
			}
		})
	}
}

func TestLoadConfigRates(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TOKEN_CREDIT_RATE", "0.5")
	t.Setenv("CHAIN_CREDIT_RATE", "120")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TokenCreditRate.String() != "0.5" {
		t.Fatalf("TokenCreditRate = %s, want 0.5", cfg.TokenCreditRate)
	}
	if cfg.ChainCreditRate.String() != "120" {
		t.Fatalf("ChainCreditRate = %s, want 120", cfg.ChainCreditRate)
	}
}

func TestLoadConfigRejectsBadRate(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TOKEN_CREDIT_RATE", "not-a-number")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for invalid rate")
	}
}

func TestLoadConfigScanIntervalDisabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SCAN_INTERVAL_SECONDS", "0")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ScanInterval != 0 {
		t.Fatalf("ScanInterval = %s, want 0", cfg.ScanInterval)
	}
}
