package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func TestForwardFill(t *testing.T) {
	out := forwardFill([]float64{nan, 1.0, nan, nan, 2.0, nan})

	// Los NaN iniciales no tienen observación previa que propagar.
	assert.True(t, math.IsNaN(out[0]))
	assert.Equal(t, []float64{1.0, 1.0, 1.0, 2.0, 2.0}, out[1:])
}

func TestJointRows(t *testing.T) {
	a := []float64{1.0, nan, 3.0, 4.0}
	b := []float64{10.0, 20.0, nan, 40.0}

	rows, av, bv := jointRows(a, b)
	assert.Equal(t, []int{0, 3}, rows)
	assert.Equal(t, []float64{1.0, 4.0}, av)
	assert.Equal(t, []float64{10.0, 40.0}, bv)
}

func TestCompactRows(t *testing.T) {
	rows, values := compactRows([]float64{nan, 5.0, nan, 7.0})
	assert.Equal(t, []int{1, 3}, rows)
	assert.Equal(t, []float64{5.0, 7.0}, values)
}

func TestRollingSMA_Alignment(t *testing.T) {
	out := rollingSMA([]float64{2, 4, 6, 8, 10}, 3)
	require.Len(t, out, 5)

	// Warmup: las primeras period−1 posiciones quedan en NaN.
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 4.0, out[2], 1e-12)
	assert.InDelta(t, 6.0, out[3], 1e-12)
	assert.InDelta(t, 8.0, out[4], 1e-12)
}

func TestRollingSMA_ShortInput_AllNaN(t *testing.T) {
	out := rollingSMA([]float64{1, 2}, 5)
	require.Len(t, out, 2)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRollingBollinger_ConstantSeries(t *testing.T) {
	xs := []float64{3, 3, 3, 3, 3, 3}
	middle, lower := rollingBollinger(xs, 4)
	require.Len(t, middle, 6)
	require.Len(t, lower, 6)

	assert.True(t, math.IsNaN(middle[0]))
	assert.True(t, math.IsNaN(lower[2]))

	// σ = 0 en una serie constante: las tres bandas colapsan en la media.
	for i := 3; i < 6; i++ {
		assert.InDelta(t, 3.0, middle[i], 1e-12)
		assert.InDelta(t, 3.0, lower[i], 1e-12)
	}
}

func TestRollingBollinger_ShortInput_AllNaN(t *testing.T) {
	middle, lower := rollingBollinger([]float64{1, 2}, 10)
	for i := range middle {
		assert.True(t, math.IsNaN(middle[i]))
		assert.True(t, math.IsNaN(lower[i]))
	}
}

func TestRollingRSI_ShortInput_AllNaN(t *testing.T) {
	out := rollingRSI([]float64{1, 2, 3}, 14)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}
