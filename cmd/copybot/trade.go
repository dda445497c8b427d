package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/copybot/config"
	"github.com/alejandrodnm/copybot/internal/adapters/llm"
	"github.com/alejandrodnm/copybot/internal/adapters/news"
	"github.com/alejandrodnm/copybot/internal/adapters/notify"
	"github.com/alejandrodnm/copybot/internal/adapters/onchain"
	"github.com/alejandrodnm/copybot/internal/adapters/paper"
	"github.com/alejandrodnm/copybot/internal/adapters/playbook"
	"github.com/alejandrodnm/copybot/internal/adapters/polymarket"
	"github.com/alejandrodnm/copybot/internal/adapters/storage"
	"github.com/alejandrodnm/copybot/internal/application/reasoning"
	"github.com/alejandrodnm/copybot/internal/application/risk"
	"github.com/alejandrodnm/copybot/internal/application/scoring"
	"github.com/alejandrodnm/copybot/internal/application/session"
	"github.com/alejandrodnm/copybot/internal/application/signal"
	"github.com/alejandrodnm/copybot/internal/ports"
)

const liveAbortWindow = 5 * time.Second

func runTrade(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("trade", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	live := fs.Bool("live", false, "place real orders (default is dry-run)")
	maxIterations := fs.Int("max-iterations", 0, "iterations per session (default from config, 20)")
	maxBetPct := fs.Float64("max-bet-pct", -1, "max fraction of available balance per bet, clamped to [0,1]")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	format := fs.String("format", notify.FormatText, "report format: text|json")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, err := loadConfig(*configPath, *verbose)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		return exitSetup
	}
	if *maxIterations > 0 {
		cfg.Trading.MaxIterations = *maxIterations
	}
	if *maxBetPct >= 0 {
		cfg.Trading.MaxBetPct = min(*maxBetPct, 1)
	}
	if err := cfg.Validate(*live); err != nil {
		slog.Error("invalid configuration", "err", err)
		return exitSetup
	}

	slog.Info("copybot starting",
		"mode", modeName(*live),
		"config", *configPath,
		"max_iterations", cfg.Trading.MaxIterations,
		"max_bet_pct", cfg.Trading.MaxBetPct,
		"ai_provider", cfg.AI.Provider,
	)

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.DataBase)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		return exitSetup
	}
	defer store.Close()

	pb, err := playbook.Load(cfg.Playbook.Path)
	if err != nil {
		slog.Error("failed to load playbook", "err", err, "path", cfg.Playbook.Path)
		return exitSetup
	}

	provider, err := llm.New(llm.Config{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AIKey(),
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
		Timeout:  cfg.AITimeout(),
	})
	if err != nil {
		slog.Error("failed to create AI provider", "err", err)
		return exitSetup
	}

	var executor ports.OrderExecutor
	if *live {
		executor, err = setupLive(ctx, cfg, client)
		if err != nil {
			slog.Error("live setup failed", "err", err)
			return exitSetup
		}
	} else {
		executor = paper.NewExecutor(cfg.Trading.DryRunBalance)
	}

	scoreCfg := scoringConfig(cfg)
	minStake := decimal.NewFromFloat(cfg.Trading.MinStake)
	loop := session.New(session.Config{
		Live:          *live,
		MaxIterations: cfg.Trading.MaxIterations,
		SampleSize:    cfg.Trading.SampleSize,
		TopK:          cfg.Trading.TopK,
		MinStake:      minStake,
		OrderTTL:      cfg.OrderTTL(),
		Delay:         cfg.IterationDelay(),
		MaxRejections: cfg.Trading.MaxRejections,
	}, session.Deps{
		Loader:     scoring.NewLoader(client, client, scoreCfg),
		Scorer:     scoring.New(scoreCfg),
		Aggregator: signal.NewAggregator(client, cfg.Trading.Workers),
		Detector:   signal.NewDetector(cfg.Trading.MinTraders),
		Enricher: signal.NewEnricher(client, client, news.NewGoogleNews(cfg.API.NewsBase), signal.EnricherConfig{
			NewsLimit: cfg.Trading.NewsLimit,
			Workers:   cfg.Trading.Workers,
		}),
		Reasoner: reasoning.New(provider, pb, cfg.Trading.MinConfidence),
		Sizer: risk.NewSizer(risk.Config{
			MaxBetPct:         cfg.Trading.MaxBetPct,
			MaxMarketExposure: cfg.Trading.MaxMarketExposure,
			MinStake:          minStake,
			SlippageBps:       cfg.Trading.SlippageBps,
			TickSize:          0.01,
		}),
		Executor: executor,
		Store:    store,
		Notifier: notify.NewConsole(*format),
	})

	report, err := loop.Run(ctx)
	if errors.Is(err, session.ErrSetup) {
		slog.Error("session setup failed", "err", err)
		return exitSetup
	}
	if err != nil {
		slog.Error("session aborted", "err", err, "orders_placed", report.OrdersPlaced)
		return exitSetup
	}

	slog.Info("copybot stopped cleanly",
		"iterations", report.Iterations,
		"orders_placed", report.OrdersPlaced,
		"final_balance", report.FinalBalance.StringFixed(2),
	)
	return exitOK
}

// setupLive autentica contra el CLOB, comprueba el saldo y el allowance
// de USDC.e, y da unos segundos para abortar antes de operar.
func setupLive(ctx context.Context, cfg *config.Config, client *polymarket.Client) (ports.OrderExecutor, error) {
	auth, err := polymarket.NewAuthClient(client, cfg.Wallet.PrivateKey, polymarket.Credentials{
		APIKey:     cfg.Wallet.APIKey,
		Secret:     cfg.Wallet.APISecret,
		Passphrase: cfg.Wallet.APIPassphrase,
	})
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureCreds(ctx); err != nil {
		return nil, fmt.Errorf("derive API credentials (check POLYMARKET_PRIVATE_KEY): %w", err)
	}
	slog.Info("live: authenticated with Polymarket CLOB", "address", auth.Address())

	trading, err := polymarket.NewTradingClient(auth, cfg.Wallet.RPCURL)
	if err != nil {
		return nil, err
	}
	balance, err := trading.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	if balance <= 0 {
		return nil, fmt.Errorf("wallet %s has no USDC.e", auth.Address())
	}

	chain, err := onchain.Dial(cfg.Wallet.RPCURL, cfg.Wallet.PrivateKey)
	if err != nil {
		return nil, err
	}
	if _, err := chain.EnsureAllowance(ctx, balance); err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "\n⚠️  LIVE TRADING MODE: REAL MONEY WILL BE SPENT\n")
	fmt.Fprintf(os.Stderr, "   Balance: $%.2f | Max bet: %.0f%% | Iterations: %d\n",
		balance, cfg.Trading.MaxBetPct*100, cfg.Trading.MaxIterations)
	fmt.Fprintf(os.Stderr, "   Press Ctrl+C within %s to abort...\n\n", liveAbortWindow)

	abort := time.NewTimer(liveAbortWindow)
	defer abort.Stop()
	select {
	case <-abort.C:
	case <-ctx.Done():
		return nil, fmt.Errorf("aborted by user")
	}
	return trading, nil
}

func scoringConfig(cfg *config.Config) scoring.Config {
	sc := scoring.DefaultConfig()
	sc.MinSamples = cfg.Trading.MinSamples
	sc.TradeLimit = cfg.Trading.TradeLimit
	sc.Workers = cfg.Trading.Workers
	return sc
}

func modeName(live bool) string {
	if live {
		return "live"
	}
	return "dry-run"
}
