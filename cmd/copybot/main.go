package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alejandrodnm/copybot/config"
)

// Códigos de salida.
const (
	exitOK    = 0
	exitSetup = 1
	exitUsage = 2
)

const usageText = `copybot: follow consensus bets of top Polymarket traders.

Usage:
  copybot trade   [--live] [--max-iterations N] [--max-bet-pct F] [--config path] [--verbose] [--format text|json]
  copybot analyze [--plot] [--deep-analysis] [--sample-size N] [--top N] [--config path] [--verbose] [--format text|json]

Trading is dry-run unless --live is given.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run despacha el subcomando y devuelve el código de salida.
func run(args []string, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}
	switch args[0] {
	case "trade":
		return runTrade(args[1:], stderr)
	case "analyze":
		return runAnalyze(args[1:], stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stderr, usageText)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usageText)
		return exitUsage
	}
}

// parseFlags parsea fs y traduce el error al código de salida.
// ok=false significa que el proceso debe terminar con code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitUsage, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %v\n", fs.Args())
		return exitUsage, false
	}
	return exitOK, true
}

// loadConfig carga la configuración y prepara el logger.
func loadConfig(path string, verbose bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	setupLogger(cfg.Log)
	return cfg, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// los logs van a stderr: stdout queda para el informe (--format json)
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
