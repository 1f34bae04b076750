package binance

// client.go — data provider contra la API de klines de Binance, con rate
// limiting, retries con backoff exponencial y cache local de velas.
// La API de klines es pública: las keys solo son necesarias para subir
// los límites de peso.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	api "github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/pairtrader/internal/domain"
	"github.com/alejandrodnm/pairtrader/internal/ports"
)

const (
	// Límite de la API: 1200 weight/min. Nos quedamos muy por debajo.
	klinesRatePerSec = 5
	klinesBurst      = 10

	klineLimit    = 1000
	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client implementa ports.MarketDataProvider contra Binance con una
// cache de velas opcional por debajo.
type Client struct {
	api     *api.Client
	limiter *rate.Limiter
	store   ports.CandleStore
	offline bool
}

// NewClient crea el provider. Si store no es nil, las velas se cachean;
// con offline=true solo se sirve desde la cache y nunca se llama a la API.
func NewClient(apiKey, secretKey string, store ports.CandleStore, offline bool) *Client {
	return &Client{
		api:     api.NewClient(apiKey, secretKey),
		limiter: rate.NewLimiter(klinesRatePerSec, klinesBurst),
		store:   store,
		offline: offline,
	}
}

// FetchMarketData implementa ports.MarketDataProvider: descarga (o lee de
// cache) las velas de cada instrumento y las ensambla en la tabla merged.
func (c *Client) FetchMarketData(ctx context.Context, instruments []domain.Instrument, from, to time.Time) (*domain.PriceTable, error) {
	if len(instruments) == 0 {
		return nil, fmt.Errorf("binance.FetchMarketData: no instruments requested")
	}

	builder := domain.NewPriceTableBuilder()
	for _, inst := range instruments {
		candles, err := c.instrumentCandles(ctx, inst, from, to)
		if err != nil {
			return nil, fmt.Errorf("binance.FetchMarketData: %s: %w", inst, err)
		}
		for _, candle := range candles {
			builder.AddCandle(candle)
		}
		slog.Debug("instrument data ready", "instrument", inst.String(), "candles", len(candles))
	}

	table, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("binance.FetchMarketData: %w", err)
	}
	return table, nil
}

// instrumentCandles resuelve las velas de un instrumento: cache si cubre
// el rango, API en caso contrario.
func (c *Client) instrumentCandles(ctx context.Context, inst domain.Instrument, from, to time.Time) ([]domain.Candle, error) {
	if c.store != nil {
		cached, err := c.store.LoadCandles(ctx, inst, from, to)
		if err != nil {
			slog.Warn("candle cache read failed", "instrument", inst.String(), "err", err)
		} else if c.covers(cached, inst, from, to) {
			slog.Debug("cache hit", "instrument", inst.String(), "candles", len(cached))
			return cached, nil
		}
	}

	if c.offline {
		return nil, fmt.Errorf("offline mode: cache does not cover %s to %s",
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	candles, err := c.fetchKlines(ctx, inst, from, to)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.SaveCandles(ctx, candles); err != nil {
			slog.Warn("candle cache write failed", "instrument", inst.String(), "err", err)
		}
	}
	return candles, nil
}

// covers decide si las velas cacheadas cubren el rango pedido. Basta con
// que los extremos estén a menos de una vela de distancia: la API puede
// tener huecos legítimos en medio y eso no invalida la cache.
func (c *Client) covers(cached []domain.Candle, inst domain.Instrument, from, to time.Time) bool {
	if len(cached) == 0 {
		return false
	}
	step, err := timeframeDuration(inst.Timeframe)
	if err != nil {
		return false
	}
	first := cached[0].OpenTime
	last := cached[len(cached)-1].OpenTime
	return !first.After(from.Add(step)) && !last.Before(to.Add(-step))
}

// fetchKlines descarga el rango completo paginando de a klineLimit velas.
func (c *Client) fetchKlines(ctx context.Context, inst domain.Instrument, from, to time.Time) ([]domain.Candle, error) {
	interval, err := binanceInterval(inst.Timeframe)
	if err != nil {
		return nil, err
	}
	pair := tradingPair(inst.Symbol)

	var candles []domain.Candle
	cursor := from.UnixMilli()
	end := to.UnixMilli()

	for cursor <= end {
		klines, err := c.klinesPage(ctx, pair, interval, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			candle, err := parseKline(k, inst)
			if err != nil {
				return nil, err
			}
			candles = append(candles, candle)
		}

		next := klines[len(klines)-1].CloseTime + 1
		if next <= cursor {
			break
		}
		cursor = next

		if len(klines) < klineLimit {
			break
		}
	}

	slog.Debug("klines fetched", "pair", pair, "interval", interval, "candles", len(candles))
	return candles, nil
}

// klinesPage pide una página con rate limiting y retries.
func (c *Client) klinesPage(ctx context.Context, pair, interval string, start, end int64) ([]*api.Kline, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		klines, err := c.api.NewKlinesService().
			Symbol(pair).
			Interval(interval).
			StartTime(start).
			EndTime(end).
			Limit(klineLimit).
			Do(ctx)
		if err == nil {
			return klines, nil
		}
		if attempt == maxRetries {
			return nil, fmt.Errorf("klines %s %s after %d retries: %w", pair, interval, maxRetries, err)
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
		slog.Warn("klines request failed, retrying",
			"pair", pair, "attempt", attempt+1, "wait", wait, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
