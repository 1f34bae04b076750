package strategy

// series.go — helpers para preparar series antes de pasarlas a los
// indicadores. Los indicadores de cinar/indicator no toleran NaN en el
// input, así que las series por par se compactan a las filas donde hay
// dato en ambos lados (el equivalente al dropna del proveedor de datos).

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
)

// forwardFill rellena NaNs con la última observación válida.
// Los NaN iniciales (sin observación previa) se mantienen.
func forwardFill(xs []float64) []float64 {
	out := make([]float64, len(xs))
	last := math.NaN()
	for i, x := range xs {
		if !math.IsNaN(x) {
			last = x
		}
		out[i] = last
	}
	return out
}

// jointRows devuelve los índices de fila donde ambas series tienen dato,
// junto con las dos series compactadas a esas filas.
func jointRows(a, b []float64) (rows []int, av, bv []float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		rows = append(rows, i)
		av = append(av, a[i])
		bv = append(bv, b[i])
	}
	return rows, av, bv
}

// rollingBollinger calcula las bandas de Bollinger (2σ) sobre la serie y
// las devuelve alineadas con el input: NaN durante el periodo de warmup.
func rollingBollinger(xs []float64, period int) (middle, lower []float64) {
	middle = nanSlice(len(xs))
	lower = nanSlice(len(xs))
	if len(xs) < period {
		return middle, lower
	}

	bb := volatility.NewBollingerBandsWithPeriod[float64](period)
	uppers, middles, lowers := bb.Compute(helper.SliceToChan(xs))

	// Los tres canales avanzan en lockstep: hay que drenarlos juntos.
	i := bb.IdlePeriod()
	for range uppers {
		m := <-middles
		l := <-lowers
		if i < len(xs) {
			middle[i] = m
			lower[i] = l
		}
		i++
	}
	return middle, lower
}

// rollingSMA calcula la media móvil simple alineada con el input.
func rollingSMA(xs []float64, period int) []float64 {
	out := nanSlice(len(xs))
	if len(xs) < period {
		return out
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(xs)))

	offset := sma.IdlePeriod()
	for j, v := range values {
		if offset+j < len(xs) {
			out[offset+j] = v
		}
	}
	return out
}

// rollingRSI calcula el RSI alineado con el input.
func rollingRSI(xs []float64, period int) []float64 {
	out := nanSlice(len(xs))
	if len(xs) < period+1 {
		return out
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	values := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(xs)))

	offset := rsi.IdlePeriod()
	for j, v := range values {
		if offset+j < len(xs) {
			out[offset+j] = v
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
