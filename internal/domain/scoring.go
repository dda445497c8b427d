package domain

import "math"

// DefaultSharpeEpsilon se suma a la desviación típica para que un trader con
// retornos constantes no divida por cero.
const DefaultSharpeEpsilon = 1e-9

// Mean devuelve la media aritmética. 0 si no hay datos.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev devuelve la desviación típica poblacional.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// SharpeRatio calcula mean / (stdev + eps).
//
// Sin tasa libre de riesgo ni anualización: solo se usa para ordenar traders
// entre sí con la misma escala.
func SharpeRatio(xs []float64, eps float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	if eps <= 0 {
		eps = DefaultSharpeEpsilon
	}
	return Mean(xs) / (StdDev(xs) + eps)
}

// WinRate devuelve el porcentaje (0-100) de observaciones con P&L positivo.
func WinRate(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	wins := 0
	for _, x := range xs {
		if x > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(xs)) * 100
}

// MaxDrawdown devuelve la mayor caída pico-valle del P&L acumulado.
// El pico inicial es 0 (antes del primer trade), así que una racha de pérdidas
// desde el inicio también cuenta. Resultado >= 0 en USDC.
func MaxDrawdown(xs []float64) float64 {
	var cum, peak, worst float64
	for _, x := range xs {
		cum += x
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > worst {
			worst = dd
		}
	}
	return worst
}

// ScoreTrader calcula todas las métricas de un trader.
func ScoreTrader(t Trader, eps float64) TraderScore {
	xs := t.Returns()
	return TraderScore{
		Trader:      t,
		Samples:     len(xs),
		MeanReturn:  Mean(xs),
		Volatility:  StdDev(xs),
		Sharpe:      SharpeRatio(xs, eps),
		WinRate:     WinRate(xs),
		MaxDrawdown: MaxDrawdown(xs),
	}
}
