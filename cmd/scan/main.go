// Command scan runs one deposit reconciliation sweep over every account and
// exits. Useful for ops and for deployments that disable the in-process timer.
package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"coinforge/internal/adapter/repo"
	"coinforge/internal/deposits"
	"coinforge/internal/domain"
	"coinforge/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("scan: db connection failed")
	}
	defer pool.Close()

	accounts := repo.NewAccountRepository(pool)

	var sources []deposits.Source
	if cfg.TokenFeedBaseURL != "" {
		feed, err := deposits.NewTokenFeed(deposits.TokenFeedOptions{
			BaseURL:  cfg.TokenFeedBaseURL,
			Limit:    cfg.FeedLimit,
			Decimals: int32(cfg.TokenFeedDecimals),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("scan: token feed setup failed")
		}
		sources = append(sources, feed)
	}
	if cfg.ChainFeedBaseURL != "" {
		feed, err := deposits.NewUTXOFeed(deposits.UTXOFeedOptions{
			BaseURL:  cfg.ChainFeedBaseURL,
			Limit:    cfg.FeedLimit,
			Decimals: int32(cfg.ChainFeedDecimals),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("scan: chain feed setup failed")
		}
		sources = append(sources, feed)
	}

	reconciler := deposits.NewReconciler(accounts, sources, map[string]decimal.Decimal{
		domain.DepositSourceToken: cfg.TokenCreditRate,
		domain.DepositSourceChain: cfg.ChainCreditRate,
	}, logger)

	if err := reconciler.ReconcileAll(ctx); err != nil {
		logger.Fatal().Err(err).Msg("scan: sweep failed")
	}
	logger.Info().Msg("scan: sweep complete")
}
