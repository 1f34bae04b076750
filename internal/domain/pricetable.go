package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PriceTable es la tabla de precios indexada por tiempo que produce el
// data provider: una fila por timestamp distinto (orden ascendente) y una
// columna por campo/instrumento (`close_MATIC_1H`, `volume_BTC_1H`, ...).
// Las observaciones ausentes se representan con NaN, nunca con cero.
// Inmutable una vez construida.
type PriceTable struct {
	timestamps []time.Time
	columns    map[string][]float64
}

// Len devuelve el número de filas.
func (t *PriceTable) Len() int {
	return len(t.timestamps)
}

// Timestamp devuelve el timestamp de la fila i.
func (t *PriceTable) Timestamp(i int) time.Time {
	return t.timestamps[i]
}

// Timestamps devuelve todas las filas en orden ascendente.
// El slice devuelto no debe mutarse.
func (t *PriceTable) Timestamps() []time.Time {
	return t.timestamps
}

// HasColumn devuelve true si la columna existe.
func (t *PriceTable) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column devuelve la serie completa de una columna (NaN = sin dato).
// El slice devuelto no debe mutarse.
func (t *PriceTable) Column(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// Value devuelve el valor de la columna en la fila i.
// ok=false si la columna no existe o la observación está ausente.
func (t *PriceTable) Value(i int, name string) (float64, bool) {
	col, ok := t.columns[name]
	if !ok || i < 0 || i >= len(col) {
		return 0, false
	}
	if math.IsNaN(col[i]) {
		return 0, false
	}
	return col[i], true
}

// ColumnNames devuelve los nombres de columna en orden alfabético.
func (t *PriceTable) ColumnNames() []string {
	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select devuelve una vista con el subconjunto de columnas indicado,
// compartiendo las mismas filas. Columnas inexistentes se ignoran —
// el mismo comportamiento que el split anchor/target sobre la tabla
// completa, donde un instrumento puede no tener datos.
func (t *PriceTable) Select(names ...string) *PriceTable {
	cols := make(map[string][]float64, len(names))
	for _, name := range names {
		if col, ok := t.columns[name]; ok {
			cols[name] = col
		}
	}
	return &PriceTable{timestamps: t.timestamps, columns: cols}
}

// PriceTableBuilder acumula celdas sueltas (por candle o por valor) y
// produce la tabla merged: unión de timestamps, NaN donde falta dato.
type PriceTableBuilder struct {
	cells map[int64]map[string]float64
}

// NewPriceTableBuilder crea un builder vacío.
func NewPriceTableBuilder() *PriceTableBuilder {
	return &PriceTableBuilder{cells: make(map[int64]map[string]float64)}
}

// Set registra un valor para (timestamp, columna).
func (b *PriceTableBuilder) Set(ts time.Time, column string, value float64) {
	key := ts.UTC().Unix()
	row, ok := b.cells[key]
	if !ok {
		row = make(map[string]float64)
		b.cells[key] = row
	}
	row[column] = value
}

// AddCandle registra las cuatro columnas OHLCV de una vela.
func (b *PriceTableBuilder) AddCandle(c Candle) {
	sym, tf := c.Instrument.Symbol, c.Instrument.Timeframe
	b.Set(c.OpenTime, CloseColumn(sym, tf), c.Close)
	b.Set(c.OpenTime, HighColumn(sym, tf), c.High)
	b.Set(c.OpenTime, LowColumn(sym, tf), c.Low)
	b.Set(c.OpenTime, VolumeColumn(sym, tf), c.Volume)
}

// Build materializa la PriceTable. Devuelve error si no hay ninguna celda.
func (b *PriceTableBuilder) Build() (*PriceTable, error) {
	if len(b.cells) == 0 {
		return nil, fmt.Errorf("domain.PriceTableBuilder: no data")
	}

	keys := make([]int64, 0, len(b.cells))
	columnSet := make(map[string]bool)
	for key, row := range b.cells {
		keys = append(keys, key)
		for name := range row {
			columnSet[name] = true
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	timestamps := make([]time.Time, len(keys))
	for i, key := range keys {
		timestamps[i] = time.Unix(key, 0).UTC()
	}

	columns := make(map[string][]float64, len(columnSet))
	for name := range columnSet {
		col := make([]float64, len(keys))
		for i, key := range keys {
			if v, ok := b.cells[key][name]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		columns[name] = col
	}

	return &PriceTable{timestamps: timestamps, columns: columns}, nil
}
