package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"coinforge/internal/adapter/repo"
	"coinforge/internal/deposits"
	"coinforge/internal/domain"
	"coinforge/internal/http/handlers"
	"coinforge/internal/http/httpapi"
	"coinforge/internal/infra"
	"coinforge/internal/pipeline"
	imageprovider "coinforge/internal/providers/image"
	textprovider "coinforge/internal/providers/text"
	"coinforge/internal/tracker"
	"coinforge/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	accounts := repo.NewAccountRepository(pool)
	jobs := tracker.New()

	texts, err := textprovider.NewOpenAIGenerator(textprovider.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Organization: cfg.OpenAIOrg,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: text provider setup failed")
	}
	images, err := imageprovider.NewOpenAIGenerator(imageprovider.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.ImageModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: image provider setup failed")
	}

	pipe := pipeline.New(pipeline.Options{
		Texts:       texts,
		Images:      images,
		Jobs:        jobs,
		Accounts:    accounts,
		Logger:      logger,
		CallTimeout: cfg.ProviderCallTimeout,
	})

	reconciler := deposits.NewReconciler(accounts, buildSources(cfg, logger), map[string]decimal.Decimal{
		domain.DepositSourceToken: cfg.TokenCreditRate,
		domain.DepositSourceChain: cfg.ChainCreditRate,
	}, logger)

	scheduler, err := deposits.NewScheduler(reconciler, cfg.ScanInterval, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: scheduler setup failed")
	}
	scheduler.Start()
	defer scheduler.Stop()

	sealer, err := wallet.NewSealer(cfg.WalletSealKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: wallet sealer setup failed")
	}
	var wallets wallet.Creator
	if cfg.WalletServiceURL != "" {
		wallets, err = wallet.NewClient(wallet.ClientOptions{BaseURL: cfg.WalletServiceURL})
		if err != nil {
			logger.Fatal().Err(err).Msg("api: wallet client setup failed")
		}
	} else {
		logger.Warn().Msg("api: WALLET_SERVICE_URL not set, registration disabled")
		wallets = wallet.Disabled{}
	}

	app := &handlers.App{
		Config:     cfg,
		Logger:     logger,
		Accounts:   accounts,
		Jobs:       jobs,
		Pipeline:   pipe,
		Reconciler: reconciler,
		Wallets:    wallets,
		Sealer:     sealer,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildSources(cfg *infra.Config, logger infra.Logger) []deposits.Source {
	var sources []deposits.Source
	if cfg.TokenFeedBaseURL != "" {
		feed, err := deposits.NewTokenFeed(deposits.TokenFeedOptions{
			BaseURL:  cfg.TokenFeedBaseURL,
			Limit:    cfg.FeedLimit,
			Decimals: int32(cfg.TokenFeedDecimals),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("api: token feed setup failed")
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
			logger.Fatal().Err(err).Msg("api: chain feed setup failed")
		}
		sources = append(sources, feed)
	}
	if len(sources) == 0 {
		logger.Warn().Msg("api: no deposit feeds configured, scans will credit nothing")
	}
	return sources
}
