package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/pairtrader/internal/domain"
	"github.com/alejandrodnm/pairtrader/internal/ports"
	"github.com/alejandrodnm/pairtrader/internal/strategy"
)

// Config contiene la configuración de un run completo.
type Config struct {
	InitialCapital float64
	FeeRate        float64
	From           time.Time
	To             time.Time
	Strict         bool // validar el stream de señales antes de simular
}

// DefaultConfig devuelve la configuración del simulador del concurso:
// 10k de capital y 0.1% de fee, sobre los últimos 180 días.
func DefaultConfig() Config {
	now := time.Now().UTC().Truncate(time.Hour)
	return Config{
		InitialCapital: 10000,
		FeeRate:        0.001,
		From:           now.Add(-180 * 24 * time.Hour),
		To:             now,
	}
}

// Runner orquesta el pipeline completo: datos → señales → simulación →
// métricas → presentación. Todo o nada: cualquier error fatal aborta sin
// métricas parciales.
type Runner struct {
	cfg       Config
	provider  ports.MarketDataProvider
	runs      ports.RunStore
	presenter ports.Presenter
	simulator *Simulator
}

// NewRunner crea un Runner con todas las dependencias inyectadas.
// runs y presenter pueden ser nil (p.ej. en tests).
func NewRunner(cfg Config, provider ports.MarketDataProvider, runs ports.RunStore, presenter ports.Presenter) *Runner {
	return &Runner{
		cfg:       cfg,
		provider:  provider,
		runs:      runs,
		presenter: presenter,
		simulator: NewSimulator(SimulatorConfig{
			InitialCapital: cfg.InitialCapital,
			FeeRate:        cfg.FeeRate,
		}),
	}
}

// Run ejecuta el backtest de una estrategia de principio a fin.
func (r *Runner) Run(ctx context.Context, strat strategy.Strategy) (domain.BacktestRun, error) {
	start := time.Now()
	universe := strat.Universe()

	if err := universe.Validate(); err != nil {
		return domain.BacktestRun{}, fmt.Errorf("backtest.Run: strategy %q: %w", strat.Name(), err)
	}

	slog.Info("fetching market data",
		"strategy", strat.Name(),
		"instruments", len(universe.All()),
		"from", r.cfg.From.Format(time.DateOnly),
		"to", r.cfg.To.Format(time.DateOnly),
	)
	table, err := r.provider.FetchMarketData(ctx, universe.All(), r.cfg.From, r.cfg.To)
	if err != nil {
		return domain.BacktestRun{}, fmt.Errorf("backtest.Run: %w: %w", domain.ErrDataFetch, err)
	}

	anchors, targets := splitUniverse(table, universe)

	slog.Info("generating signals", "strategy", strat.Name(), "rows", table.Len())
	events, err := strat.GenerateSignals(anchors, targets)
	if err != nil {
		return domain.BacktestRun{}, fmt.Errorf("backtest.Run: %w: %w", domain.ErrSignalGeneration, err)
	}

	if r.cfg.Strict {
		if err := domain.ValidateEvents(events); err != nil {
			return domain.BacktestRun{}, fmt.Errorf("backtest.Run: %w", err)
		}
	}

	slog.Info("simulating trades hour by hour", "events", len(events))
	result, err := r.simulator.Run(table, universe, events)
	if err != nil {
		return domain.BacktestRun{}, err
	}
	if result.Skipped > 0 {
		slog.Warn("signals skipped for missing prices", "skipped", result.Skipped)
	}

	perf := domain.ComputePerformance(r.cfg.InitialCapital, result.History, result.Trades)

	run := domain.BacktestRun{
		ID:             uuid.New().String(),
		Strategy:       strat.Name(),
		From:           r.cfg.From,
		To:             r.cfg.To,
		InitialCapital: r.cfg.InitialCapital,
		FeeRate:        r.cfg.FeeRate,
		Performance:    perf,
		CreatedAt:      time.Now().UTC(),
	}

	if r.presenter != nil {
		if err := r.presenter.PresentRun(ctx, run, result.Trades); err != nil {
			slog.Warn("presenter error", "err", err)
		}
	}
	if r.runs != nil {
		if err := r.runs.SaveRun(ctx, run); err != nil {
			slog.Warn("storage error", "err", err)
		}
	}

	slog.Info("backtest complete",
		"strategy", strat.Name(),
		"trades", perf.Trades,
		"return_pct", fmt.Sprintf("%.2f", perf.TotalReturnPct),
		"passed", perf.Passed(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return run, nil
}

// splitUniverse separa la tabla merged en las vistas de anchors y
// targets que espera la estrategia. Cada vista comparte las filas de la
// tabla completa.
func splitUniverse(table *domain.PriceTable, universe domain.Universe) (anchors, targets *domain.PriceTable) {
	return table.Select(instrumentColumns(universe.Anchors)...),
		table.Select(instrumentColumns(universe.Targets)...)
}

func instrumentColumns(instruments []domain.Instrument) []string {
	cols := make([]string, 0, len(instruments)*4)
	for _, inst := range instruments {
		sym, tf := inst.Symbol, inst.Timeframe
		cols = append(cols,
			domain.CloseColumn(sym, tf),
			domain.HighColumn(sym, tf),
			domain.LowColumn(sym, tf),
			domain.VolumeColumn(sym, tf),
		)
	}
	return cols
}
