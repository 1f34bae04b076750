package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func hour(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Hour)
}

// buildTable crea una tabla con una columna close_<SYM>_1H por símbolo.
// NaN en la serie = observación ausente.
func buildTable(t *testing.T, hours int, closes map[string][]float64) *domain.PriceTable {
	t.Helper()
	b := domain.NewPriceTableBuilder()
	for symbol, series := range closes {
		require.Len(t, series, hours)
		for i, price := range series {
			if math.IsNaN(price) {
				// Celda sin registrar: el builder rellena NaN.
				continue
			}
			b.Set(hour(i), domain.CloseColumn(symbol, "1H"), price)
		}
	}
	table, err := b.Build()
	require.NoError(t, err)
	return table
}

func targetsUniverse(symbols ...string) domain.Universe {
	u := domain.Universe{
		Anchors: []domain.Instrument{{Symbol: "BTC", Timeframe: "1H"}},
	}
	for _, s := range symbols {
		u.Targets = append(u.Targets, domain.Instrument{Symbol: s, Timeframe: "1H"})
	}
	return u
}

func TestRun_NoTrades_ConservesCapital(t *testing.T) {
	table := buildTable(t, 5, map[string][]float64{"MATIC": {1, 2, 3, 4, 5}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	result, err := sim.Run(table, targetsUniverse("MATIC"), nil)
	require.NoError(t, err)

	require.Len(t, result.History, 5)
	for _, v := range result.History {
		assert.Equal(t, 10000.0, v)
	}
	assert.Empty(t, result.Trades)
	assert.Equal(t, 10000.0, result.FinalState.Cash)
}

func TestRun_ContestScenario(t *testing.T) {
	// Capital 10000, fee 0.1%: BUY MATIC a 1.00 con size 0.2 →
	// inversión 2000, fee 2, shares 1998, cash 8000. SELL total a 1.10 →
	// venta 2197.8, fee 2.1978, cash 10195.6022.
	table := buildTable(t, 2, map[string][]float64{"MATIC": {1.00, 1.10}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.2},
		{Timestamp: hour(1), Symbol: "MATIC", Signal: domain.SignalSell, PositionSize: 1.0},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	buy := result.Trades[0]
	assert.Equal(t, domain.SignalBuy, buy.Type)
	assert.InDelta(t, 1998.0, buy.Shares, 1e-9)
	assert.InDelta(t, 2.0, buy.Fee, 1e-9)
	assert.Equal(t, 0.0, buy.PnL)

	sell := result.Trades[1]
	assert.Equal(t, domain.SignalSell, sell.Type)
	assert.InDelta(t, 2.1978, sell.Fee, 1e-9)
	// pnl = (exit − avg_cost) × shares = (1.10 − 1.00) × 1998
	assert.InDelta(t, 199.8, sell.PnL, 1e-9)

	assert.InDelta(t, 10195.6022, result.FinalState.Cash, 1e-6)

	// El history valora ANTES de los trades de cada hora:
	// hora 0 → 10000 (todo cash), hora 1 → 8000 + 1998×1.10 = 10197.8
	require.Len(t, result.History, 2)
	assert.InDelta(t, 10000.0, result.History[0], 1e-9)
	assert.InDelta(t, 10197.8, result.History[1], 1e-9)
}

func TestRun_RoundTripAtFlatPrice_LosesFees(t *testing.T) {
	table := buildTable(t, 2, map[string][]float64{"MATIC": {2.0, 2.0}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.5},
		{Timestamp: hour(1), Symbol: "MATIC", Signal: domain.SignalSell, PositionSize: 1.0},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)

	// Ida y vuelta a precio plano con fee > 0: pérdida estricta.
	assert.Less(t, result.FinalState.Cash, 10000.0)
}

func TestRun_AverageCost_WeightedAcrossLots(t *testing.T) {
	table := buildTable(t, 2, map[string][]float64{"MATIC": {1.0, 2.0}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.2},
		{Timestamp: hour(1), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.25},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)

	// Lote 1: 2000 @ 1.0 → 2000 shares. Lote 2: 8000×0.25=2000 @ 2.0 →
	// 1000 shares. avg = (2000×1 + 1000×2) / 3000 = 4/3.
	pos := result.FinalState.Positions["MATIC"]
	assert.InDelta(t, 3000.0, pos.Shares, 1e-9)
	assert.InDelta(t, 4.0/3.0, pos.AvgCost, 1e-12)
}

func TestRun_PartialSell_KeepsAvgCost(t *testing.T) {
	table := buildTable(t, 2, map[string][]float64{"MATIC": {1.0, 1.5}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.1},
		{Timestamp: hour(1), Symbol: "MATIC", Signal: domain.SignalSell, PositionSize: 0.5},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)

	pos := result.FinalState.Positions["MATIC"]
	assert.InDelta(t, 500.0, pos.Shares, 1e-9)
	assert.InDelta(t, 1.0, pos.AvgCost, 1e-12) // sin cambio en venta parcial
}

func TestRun_FullSell_ResetsPosition(t *testing.T) {
	table := buildTable(t, 2, map[string][]float64{"MATIC": {1.0, 1.5}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.3},
		{Timestamp: hour(1), Symbol: "MATIC", Signal: domain.SignalSell, PositionSize: 1.0},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)

	// avg_cost no debe filtrarse a un lote futuro.
	pos := result.FinalState.Positions["MATIC"]
	assert.Equal(t, domain.Position{}, pos)
}

func TestRun_MissingPrice_SkipsEventWithoutStateChange(t *testing.T) {
	table := buildTable(t, 3, map[string][]float64{
		"MATIC": {math.NaN(), math.NaN(), 2.0},
		"AVAX":  {1.0, 1.0, 1.0}, // mantiene vivas las tres filas
	})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.2},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC", "AVAX"), events)
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 10000.0, result.FinalState.Cash)
	for _, v := range result.History {
		assert.Equal(t, 10000.0, v)
	}
}

func TestRun_SellWithoutPosition_IsNoOp(t *testing.T) {
	table := buildTable(t, 2, map[string][]float64{"MATIC": {1.0, 1.0}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalSell, PositionSize: 1.0},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Equal(t, 10000.0, result.FinalState.Cash)
}

func TestRun_BuyWithZeroSize_IsNoOp(t *testing.T) {
	table := buildTable(t, 1, map[string][]float64{"MATIC": {1.0}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
}

func TestRun_SameTimestamp_BuysShareCashPool(t *testing.T) {
	// Dos BUYs a la misma hora: el segundo (orden lexicográfico) se
	// dimensiona sobre el cash que dejó el primero.
	table := buildTable(t, 1, map[string][]float64{"AVAX": {1.0}, "MATIC": {1.0}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0})

	events := []domain.SignalEvent{
		// Desordenados a propósito: el simulador fija AVAX antes que MATIC.
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.5},
		{Timestamp: hour(0), Symbol: "AVAX", Signal: domain.SignalBuy, PositionSize: 0.5},
	}

	result, err := sim.Run(table, targetsUniverse("AVAX", "MATIC"), events)
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	assert.Equal(t, "AVAX", result.Trades[0].Symbol)
	assert.InDelta(t, 5000.0, result.Trades[0].Shares, 1e-9)
	assert.Equal(t, "MATIC", result.Trades[1].Symbol)
	assert.InDelta(t, 2500.0, result.Trades[1].Shares, 1e-9)
	assert.InDelta(t, 2500.0, result.FinalState.Cash, 1e-9)
}

func TestRun_AnchorSignal_NeverExecutes(t *testing.T) {
	table := buildTable(t, 1, map[string][]float64{"MATIC": {1.0}, "BTC": {50000.0}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "BTC", Signal: domain.SignalBuy, PositionSize: 0.5},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Equal(t, 1, result.Skipped)
}

func TestRun_HoldSignal_IsNoOp(t *testing.T) {
	table := buildTable(t, 1, map[string][]float64{"MATIC": {1.0}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalHold, PositionSize: 0.2},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC"), events)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
}

func TestRun_MarkToMarket_SkipsMissingPriceSymbols(t *testing.T) {
	// MATIC desaparece en la hora 1: su posición contribuye 0 esa hora.
	table := buildTable(t, 3, map[string][]float64{
		"MATIC": {1.0, math.NaN(), 1.0},
		"AVAX":  {1.0, 1.0, 1.0},
	})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0})

	events := []domain.SignalEvent{
		{Timestamp: hour(0), Symbol: "MATIC", Signal: domain.SignalBuy, PositionSize: 0.5},
	}

	result, err := sim.Run(table, targetsUniverse("MATIC", "AVAX"), events)
	require.NoError(t, err)
	require.Len(t, result.History, 3)

	assert.Equal(t, 10000.0, result.History[0])          // antes del BUY
	assert.InDelta(t, 5000.0, result.History[1], 1e-9)   // cash solo, sin precio
	assert.InDelta(t, 10000.0, result.History[2], 1e-9)  // precio de vuelta
}

func TestRun_EmptyTable_Errors(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{InitialCapital: 10000, FeeRate: 0.001})
	_, err := sim.Run(nil, targetsUniverse("MATIC"), nil)
	assert.Error(t, err)
}

func TestRun_NonPositiveCapital_Errors(t *testing.T) {
	table := buildTable(t, 1, map[string][]float64{"MATIC": {1.0}})
	sim := NewSimulator(SimulatorConfig{InitialCapital: 0, FeeRate: 0.001})
	_, err := sim.Run(table, targetsUniverse("MATIC"), nil)
	assert.Error(t, err)
}
