package domain

import "time"

// BacktestRun es el resultado persistible de un backtest completo.
type BacktestRun struct {
	ID             string // uuid
	Strategy       string
	From           time.Time
	To             time.Time
	InitialCapital float64
	FeeRate        float64
	Performance    Performance
	CreatedAt      time.Time
}
