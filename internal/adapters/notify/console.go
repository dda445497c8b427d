package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// Formatos de salida soportados.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Console implementa ports.Notifier.
type Console struct {
	out    io.Writer
	format string
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(format string) *Console {
	return NewConsoleWriter(os.Stdout, format)
}

// NewConsoleWriter crea un notificador sobre w (usado en tests).
func NewConsoleWriter(w io.Writer, format string) *Console {
	if format != FormatJSON {
		format = FormatText
	}
	return &Console{out: w, format: format}
}

// NotifySession imprime el resumen de la sesión.
func (c *Console) NotifySession(_ context.Context, r domain.SessionReport) error {
	if c.format == FormatJSON {
		return c.writeJSON(sessionJSON(r))
	}

	fmt.Fprintf(c.out, "\n=== Session %s (%s) ===\n", shortID(r.SessionID), r.Mode())
	fmt.Fprintf(c.out, "Duration:        %s\n", r.FinishedAt.Sub(r.StartedAt).Round(1e9))
	fmt.Fprintf(c.out, "Iterations:      %d\n", r.Iterations)
	fmt.Fprintf(c.out, "Starting:        $%s\n", r.StartingBalance.StringFixed(2))
	fmt.Fprintf(c.out, "Final balance:   $%s\n", r.FinalBalance.StringFixed(2))
	fmt.Fprintf(c.out, "Total invested:  $%s\n", r.TotalInvested.StringFixed(2))
	fmt.Fprintf(c.out, "Candidates:      %d\n", r.CandidatesConsidered)
	fmt.Fprintf(c.out, "Bets placed:     %d\n", r.OrdersPlaced)
	fmt.Fprintf(c.out, "Duplicates:      %d prevented\n", r.DuplicatesPrevented)

	if len(r.Positions) == 0 {
		fmt.Fprintln(c.out, "\nNo positions taken.")
	} else {
		fmt.Fprintln(c.out, "\nPositions:")
		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Market", "Outcome", "Stake", "Price", "Conf", "Status", "Rationale")
		for i, p := range r.Positions {
			title := p.Title
			if title == "" {
				title = p.MarketID
			}
			table.Append(
				fmt.Sprintf("%d", i+1),
				domain.TruncateQuestion(title, p.MarketID, 40),
				p.Outcome,
				"$"+p.Stake.StringFixed(2),
				fmt.Sprintf("%.3f", p.Price),
				fmt.Sprintf("%.2f", p.Confidence),
				string(p.Status),
				compact(p.Rationale, 60),
			)
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("notify.NotifySession: render: %w", err)
		}
	}

	if len(r.Skips) > 0 {
		fmt.Fprintf(c.out, "\nSkipped (%d):\n", len(r.Skips))
		for _, s := range r.Skips {
			fmt.Fprintf(c.out, "  [it %d] %s / %s (%s): %s\n", s.Iteration, s.MarketID, s.Outcome, s.Stage, s.Reason)
		}
	}
	return nil
}

// NotifyAnalysis imprime el ranking de traders y las exclusiones.
func (c *Console) NotifyAnalysis(_ context.Context, ranked []domain.TraderScore, excluded []domain.Exclusion) error {
	if c.format == FormatJSON {
		return c.writeJSON(analysisJSON(ranked, excluded))
	}

	if len(ranked) == 0 {
		fmt.Fprintln(c.out, "No traders qualified.")
	} else {
		fmt.Fprintf(c.out, "\nTop %d traders by Sharpe\n", len(ranked))
		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Trader", "Samples", "Sharpe", "Win %", "Max DD", "Volume", "PnL")
		for i, s := range ranked {
			table.Append(
				fmt.Sprintf("%d", i+1),
				s.Trader.DisplayName(),
				fmt.Sprintf("%d", s.Samples),
				fmt.Sprintf("%.3f", s.Sharpe),
				fmt.Sprintf("%.1f", s.WinRate),
				fmt.Sprintf("$%.2f", s.MaxDrawdown),
				fmt.Sprintf("$%.0f", s.Trader.LeaderboardVolume),
				fmt.Sprintf("$%.0f", s.Trader.LeaderboardPnL),
			)
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("notify.NotifyAnalysis: render: %w", err)
		}
	}

	if len(excluded) > 0 {
		fmt.Fprintf(c.out, "\nExcluded (%d):\n", len(excluded))
		for _, e := range excluded {
			fmt.Fprintf(c.out, "  %s: %s\n", domain.TruncateQuestion("", e.Wallet, 14), e.Reason)
		}
	}
	return nil
}

func (c *Console) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("notify: encode json: %w", err)
	}
	return nil
}

// shortID abrevia un UUID para la cabecera.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// compact colapsa espacios y trunca a max runas.
func compact(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
