package notify

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// DefaultPlotFile es el CSV que escribe `analyze --plot`.
const DefaultPlotFile = "traders.csv"

var csvHeader = []string{"rank", "wallet", "name", "samples", "sharpe", "win_rate", "max_drawdown", "volume", "pnl"}

// WriteTraderCSV escribe el ranking en formato CSV para graficarlo fuera.
func WriteTraderCSV(w io.Writer, ranked []domain.TraderScore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("notify.WriteTraderCSV: header: %w", err)
	}
	for i, s := range ranked {
		row := []string{
			strconv.Itoa(i + 1),
			s.Trader.Wallet,
			s.Trader.Name,
			strconv.Itoa(s.Samples),
			strconv.FormatFloat(s.Sharpe, 'f', 6, 64),
			strconv.FormatFloat(s.WinRate, 'f', 2, 64),
			strconv.FormatFloat(s.MaxDrawdown, 'f', 2, 64),
			strconv.FormatFloat(s.Trader.LeaderboardVolume, 'f', 2, 64),
			strconv.FormatFloat(s.Trader.LeaderboardPnL, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("notify.WriteTraderCSV: row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTraderCSVFile crea (o sobrescribe) path con el ranking.
func WriteTraderCSVFile(path string, ranked []domain.TraderScore) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("notify.WriteTraderCSVFile: %w", err)
	}
	if err := WriteTraderCSV(f, ranked); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
