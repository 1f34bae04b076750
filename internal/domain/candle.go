package domain

import "time"

// Candle es una vela OHLCV de un instrumento.
type Candle struct {
	Instrument Instrument
	OpenTime   time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
}
