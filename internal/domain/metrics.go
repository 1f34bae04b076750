package domain

import "math"

// HoursPerYear es el factor de anualización para retornos horarios.
const HoursPerYear = 365 * 24

// Cutoffs mínimos de aceptación de una estrategia.
const (
	MinTotalReturnPct = 5.0
	MinSharpeRatio    = 0.5
	MaxDrawdownPct    = 50.0
)

// Performance son las métricas finales de un backtest, derivadas
// exclusivamente del portfolio history y del trade log. Es una reducción
// determinista: mismos inputs → mismos bits.
type Performance struct {
	InitialCapital float64
	FinalValue     float64
	TotalReturnPct float64
	SharpeRatio    float64
	MaxDrawdownPct float64
	Trades         int
	Sells          int
	Wins           int
	WinRatePct     float64

	// Cutoff checks (pass/fail, nunca un error duro)
	PassReturn   bool
	PassSharpe   bool
	PassDrawdown bool
}

// Passed devuelve true si la estrategia supera los tres cutoffs.
func (p Performance) Passed() bool {
	return p.PassReturn && p.PassSharpe && p.PassDrawdown
}

// ComputePerformance calcula las métricas sobre el history completo.
// initialCapital se reporta tal cual; el retorno total se mide contra el
// primer valor del history.
func ComputePerformance(initialCapital float64, history []float64, log []TradeLogEntry) Performance {
	perf := Performance{InitialCapital: initialCapital}
	if len(history) == 0 {
		return perf
	}

	returns := Returns(history)

	perf.FinalValue = history[len(history)-1]
	if history[0] != 0 {
		perf.TotalReturnPct = (perf.FinalValue/history[0] - 1) * 100
	}
	perf.SharpeRatio = SharpeRatio(returns)
	perf.MaxDrawdownPct = MaxDrawdown(returns) * 100

	perf.Trades = len(log)
	for _, entry := range log {
		if entry.Type != SignalSell {
			continue
		}
		perf.Sells++
		if entry.PnL > 0 {
			perf.Wins++
		}
	}
	if perf.Sells > 0 {
		perf.WinRatePct = 100 * float64(perf.Wins) / float64(perf.Sells)
	}

	perf.PassReturn = perf.TotalReturnPct >= MinTotalReturnPct
	perf.PassSharpe = perf.SharpeRatio >= MinSharpeRatio
	perf.PassDrawdown = perf.MaxDrawdownPct <= MaxDrawdownPct

	return perf
}

// Returns deriva la serie de retornos simples del history:
// returns[t] = value[t]/value[t-1] − 1, con returns[0] = 0 por convención.
func Returns(history []float64) []float64 {
	returns := make([]float64, len(history))
	for t := 1; t < len(history); t++ {
		if history[t-1] != 0 {
			returns[t] = history[t]/history[t-1] - 1
		}
	}
	return returns
}

// SharpeRatio anualiza mean/stdev de los retornos horarios.
// Devuelve 0 si la desviación es 0 (serie plana o de un solo punto):
// evita la división por cero en vez de señalar comportamiento indefinido.
func SharpeRatio(returns []float64) float64 {
	std := stdev(returns)
	if std == 0 {
		return 0
	}
	return mean(returns) / std * math.Sqrt(HoursPerYear)
}

// MaxDrawdown devuelve la magnitud de la máxima caída peak-to-trough de
// los retornos acumulados, como fracción en [0, 1].
func MaxDrawdown(returns []float64) float64 {
	cumulative := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		dd := cumulative/peak - 1 // siempre ≤ 0
		if dd < maxDD {
			maxDD = dd
		}
	}
	return math.Abs(maxDD)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev es la desviación estándar muestral (divisor n−1).
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	variance := 0.0
	for _, x := range xs {
		diff := x - m
		variance += diff * diff
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}
