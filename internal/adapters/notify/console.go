package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/pairtrader/internal/domain"
)

// maxTradeRows limita cuántas filas del trade log se imprimen.
const maxTradeRows = 20

// Console implementa ports.Presenter escribiendo a un io.Writer.
type Console struct {
	out        io.Writer
	showTrades bool
}

// NewConsole crea un presenter que escribe a stdout.
func NewConsole(showTrades bool) *Console {
	return &Console{out: os.Stdout, showTrades: showTrades}
}

// NewConsoleWriter crea un presenter para tests.
func NewConsoleWriter(w io.Writer, showTrades bool) *Console {
	return &Console{out: w, showTrades: showTrades}
}

// PresentRun imprime el bloque de resultados del backtest: métricas
// finales, cutoffs mínimos y (opcionalmente) el trade log.
func (c *Console) PresentRun(_ context.Context, run domain.BacktestRun, trades []domain.TradeLogEntry) error {
	perf := run.Performance

	fmt.Fprintf(c.out, "\n========================================\n")
	fmt.Fprintf(c.out, "---        BACKTEST RESULTS          ---\n")
	fmt.Fprintf(c.out, "========================================\n")
	fmt.Fprintf(c.out, "  Strategy:              %s\n", run.Strategy)
	fmt.Fprintf(c.out, "  Period:                %s to %s\n",
		run.From.Format(time.DateOnly), run.To.Format(time.DateOnly))
	fmt.Fprintf(c.out, "  Initial Capital:       $%.2f\n", perf.InitialCapital)
	fmt.Fprintf(c.out, "  Final Portfolio Value: $%.2f\n", perf.FinalValue)
	fmt.Fprintf(c.out, "  Trades executed:       %d (%d sells, %d winners)\n",
		perf.Trades, perf.Sells, perf.Wins)
	fmt.Fprintf(c.out, "  Win rate:              %.1f%%\n", perf.WinRatePct)

	fmt.Fprintf(c.out, "\n--- Minimum Cutoff Requirements ---\n")

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value", "Cutoff", "Check")
	table.Append(
		"Profitability",
		fmt.Sprintf("%.2f%%", perf.TotalReturnPct),
		fmt.Sprintf(">= %.0f%%", domain.MinTotalReturnPct),
		checkMark(perf.PassReturn),
	)
	table.Append(
		"Sharpe Ratio",
		fmt.Sprintf("%.2f", perf.SharpeRatio),
		fmt.Sprintf(">= %.1f", domain.MinSharpeRatio),
		checkMark(perf.PassSharpe),
	)
	table.Append(
		"Max Drawdown",
		fmt.Sprintf("%.2f%%", perf.MaxDrawdownPct),
		fmt.Sprintf("<= %.0f%%", domain.MaxDrawdownPct),
		checkMark(perf.PassDrawdown),
	)
	table.Render()

	if perf.Passed() {
		fmt.Fprintf(c.out, "\n  >>> STRATEGY PASSES all minimum cutoffs\n\n")
	} else {
		fmt.Fprintf(c.out, "\n  >>> STRATEGY DOES NOT PASS the minimum cutoffs\n\n")
	}

	if c.showTrades {
		c.printTrades(trades)
	}
	return nil
}

// printTrades imprime las primeras filas del trade log.
func (c *Console) printTrades(trades []domain.TradeLogEntry) {
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "  No trades executed.")
		return
	}

	shown := trades
	if len(shown) > maxTradeRows {
		shown = trades[:maxTradeRows]
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Type", "Symbol", "Price", "Shares", "Fee", "PnL")
	for _, t := range shown {
		pnl := "-"
		if t.Type == domain.SignalSell {
			pnl = fmt.Sprintf("$%.2f", t.PnL)
		}
		table.Append(
			t.Timestamp.Format("2006-01-02 15:04"),
			string(t.Type),
			t.Symbol,
			fmt.Sprintf("%.4f", t.Price),
			fmt.Sprintf("%.4f", t.Shares),
			fmt.Sprintf("$%.4f", t.Fee),
			pnl,
		)
	}
	table.Render()

	if len(trades) > maxTradeRows {
		fmt.Fprintf(c.out, "  ... and %d more trades\n", len(trades)-maxTradeRows)
	}
	fmt.Fprintln(c.out)
}

// PresentHistory imprime la tabla de runs pasados.
func (c *Console) PresentHistory(_ context.Context, runs []domain.BacktestRun) error {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "  No backtest history yet. Run a backtest first.")
		return nil
	}

	fmt.Fprintf(c.out, "\n--- BACKTEST HISTORY (%d runs) ---\n", len(runs))

	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Strategy", "Return", "Sharpe", "MaxDD", "Trades", "WinRate", "Pass")
	for _, run := range runs {
		perf := run.Performance
		table.Append(
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.Strategy,
			fmt.Sprintf("%.2f%%", perf.TotalReturnPct),
			fmt.Sprintf("%.2f", perf.SharpeRatio),
			fmt.Sprintf("%.2f%%", perf.MaxDrawdownPct),
			fmt.Sprintf("%d", perf.Trades),
			fmt.Sprintf("%.1f%%", perf.WinRatePct),
			checkMark(perf.Passed()),
		)
	}
	table.Render()
	fmt.Fprintln(c.out)
	return nil
}

func checkMark(ok bool) string {
	if ok {
		return "OK"
	}
	return "x"
}
