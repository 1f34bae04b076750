package binance

import (
	"fmt"
	"strconv"
	"time"

	api "github.com/adshao/go-binance/v2"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// quoteAsset es la quote contra la que cotizan todos los instrumentos.
const quoteAsset = "USDT"

// intervals mapea el timeframe del dominio al intervalo de la API.
var intervals = map[string]string{
	"15M": "15m",
	"30M": "30m",
	"1H":  "1h",
	"4H":  "4h",
	"1D":  "1d",
}

// durations mapea el timeframe a su duración de vela.
var durations = map[string]time.Duration{
	"15M": 15 * time.Minute,
	"30M": 30 * time.Minute,
	"1H":  time.Hour,
	"4H":  4 * time.Hour,
	"1D":  24 * time.Hour,
}

// binanceInterval traduce un timeframe del dominio ("1H") al formato de
// la API ("1h").
func binanceInterval(timeframe string) (string, error) {
	interval, ok := intervals[timeframe]
	if !ok {
		return "", fmt.Errorf("binance: unsupported timeframe %q", timeframe)
	}
	return interval, nil
}

// timeframeDuration devuelve la duración de una vela del timeframe.
func timeframeDuration(timeframe string) (time.Duration, error) {
	d, ok := durations[timeframe]
	if !ok {
		return 0, fmt.Errorf("binance: unsupported timeframe %q", timeframe)
	}
	return d, nil
}

// tradingPair construye el símbolo de mercado: MATIC → MATICUSDT.
func tradingPair(symbol string) string {
	return symbol + quoteAsset
}

// parseKline convierte una kline cruda (precios como strings) en una
// vela del dominio.
func parseKline(k *api.Kline, inst domain.Instrument) (domain.Candle, error) {
	candle := domain.Candle{
		Instrument: inst,
		OpenTime:   time.UnixMilli(k.OpenTime).UTC(),
	}

	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", k.Open, &candle.Open},
		{"high", k.High, &candle.High},
		{"low", k.Low, &candle.Low},
		{"close", k.Close, &candle.Close},
		{"volume", k.Volume, &candle.Volume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("binance: parse %s %q for %s: %w", f.name, f.raw, inst, err)
		}
		*f.dst = v
	}

	return candle, nil
}
