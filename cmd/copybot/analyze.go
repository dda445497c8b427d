package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/copybot/internal/adapters/notify"
	"github.com/alejandrodnm/copybot/internal/adapters/polymarket"
	"github.com/alejandrodnm/copybot/internal/application/scoring"
)

const (
	defaultSampleSize = 50
	deepSampleSize    = 500
	maxSampleSize     = 1000
	defaultTop        = 10
)

func runAnalyze(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	plot := fs.Bool("plot", false, "write "+notify.DefaultPlotFile+" with the ranking")
	deep := fs.Bool("deep-analysis", false, "analyze at least 500 leaderboard traders")
	sampleSize := fs.Int("sample-size", defaultSampleSize, "leaderboard traders to analyze (max 1000)")
	top := fs.Int("top", defaultTop, "traders shown, best Sharpe first")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	format := fs.String("format", notify.FormatText, "output format: text|json")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, err := loadConfig(*configPath, *verbose)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		return exitSetup
	}

	n := effectiveSampleSize(*sampleSize, *deep)
	if *top <= 0 {
		*top = defaultTop
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.API.DataBase)
	scoreCfg := scoringConfig(cfg)
	loader := scoring.NewLoader(client, client, scoreCfg)
	scorer := scoring.New(scoreCfg)

	slog.Info("analyze: scoring leaderboard", "sample_size", n, "top", *top)
	a, err := scoring.Analyze(ctx, loader, scorer, n, *top)
	if err != nil {
		slog.Error("analysis failed", "err", err)
		return exitSetup
	}

	notifier := notify.NewConsole(*format)
	if err := notifier.NotifyAnalysis(ctx, a.Top, a.Excluded); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if *plot {
		if err := notify.WriteTraderCSVFile(notify.DefaultPlotFile, a.Ranked); err != nil {
			slog.Error("failed to write plot data", "err", err)
			return exitSetup
		}
		slog.Info("analyze: plot data written", "path", notify.DefaultPlotFile, "traders", len(a.Ranked))
	}
	return exitOK
}

// effectiveSampleSize aplica --deep-analysis y el máximo de 1000.
func effectiveSampleSize(n int, deep bool) int {
	if n <= 0 {
		n = defaultSampleSize
	}
	if deep {
		n = max(n, deepSampleSize)
	}
	return min(n, maxSampleSize)
}
