package frazil

import (
	"errors"
	"math"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frazil/freezing_point"
	"frazil/grid"
)

func TestDeficit(t *testing.T) {
	assert.InDelta(t, 0.4, Deficit(-2.3, -1.9), 1e-12)
	assert.Equal(t, 0.0, Deficit(-1.9, -1.9))
	assert.Equal(t, 0.0, Deficit(-0.5, -1.9))
	assert.Equal(t, 0.0, Deficit(math.NaN(), -1.9))
}

func TestDetector_Detect(t *testing.T) {
	g, s := newColumnState([]float64{-0.5, -1.0, -1.5, -2.0, -2.3})
	fp := freezing_point.NewFreezingPoint(freezing_point.Surface, freezing_point.Linear, constantTf, 0)

	out, err := NewDetector(g, fp).Detect(s)
	require.NoError(t, err)
	want := []float64{0, 0, 0, 0.1, 0.4}
	for k, w := range want {
		assert.InDelta(t, w, out.Elements[k], 1e-12, "level %d", k)
	}
	for _, v := range out.Elements {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

// 深层 -2.3℃ 的水按海表冰点是过冷，按实际压强的冰点不是
func TestDetector_Reference(t *testing.T) {
	g := grid.NewGrid(1, 1, 2)
	require.NoError(t, g.SetThickness([]float64{10, 2000}))
	s := State{
		Temperature: sparse.ZerosDense(g.Shape()...),
		Salinity:    sparse.ZerosDense(g.Shape()...),
		Pressure:    g.PressureField(),
	}
	s.Temperature.Elements[0], s.Temperature.Elements[1] = -1.0, -2.3
	s.Salinity.Elements[0], s.Salinity.Elements[1] = 34.5, 34.5

	sfc := freezing_point.NewFreezingPoint(freezing_point.Surface, freezing_point.Linear, freezing_point.DefaultCoefficients, 0)
	deep := freezing_point.NewFreezingPoint(freezing_point.InSitu, freezing_point.Linear, freezing_point.DefaultCoefficients, 0)

	out, err := NewDetector(g, sfc).Detect(s)
	require.NoError(t, err)
	assert.Greater(t, out.Elements[1], 0.0)

	out, err = NewDetector(g, deep).Detect(s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Elements[1])
}

// 冰点场与逐个网格计算的结果一致
func TestDetector_Field(t *testing.T) {
	g, s := newRandomState(3, 5, 4, 6, 2, 2)
	fp := freezing_point.NewFreezingPoint(freezing_point.InSitu, freezing_point.UNESCO, freezing_point.DefaultCoefficients, 0)
	d := NewDetector(g, fp)

	out, err := d.Detect(s)
	require.NoError(t, err)
	for col := 0; col < g.Columns(); col++ {
		for k := 0; k < g.Nz; k++ {
			idx := g.Index(k, col)
			if !g.IsWet(k, col) {
				assert.Equal(t, 0.0, out.Elements[idx])
				continue
			}
			assert.Equal(t, Deficit(s.Temperature.Elements[idx], d.FreezingPoint(s, idx)), out.Elements[idx])
		}
	}
}

func TestDetector_DryCells(t *testing.T) {
	g, s := newColumnState([]float64{-3, -3, -3})
	require.NoError(t, g.ApplyIceShelf([]int{1}))
	fp := freezing_point.NewFreezingPoint(freezing_point.Surface, freezing_point.Linear, constantTf, 0)

	out, err := NewDetector(g, fp).Detect(s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Elements[0])
	assert.InDelta(t, 1.1, out.Elements[1], 1e-12)
}

func TestDetector_Shape(t *testing.T) {
	g, s := newColumnState([]float64{-1, -2})
	fp := freezing_point.NewFreezingPoint(freezing_point.InSitu, freezing_point.Linear, constantTf, 0)

	// 实际压强参考必须有压强场
	_, err := NewDetector(g, fp).Detect(s)
	assert.True(t, errors.Is(err, grid.ErrShape))

	s.Pressure = sparse.ZerosDense(3, 1, 1)
	_, err = NewDetector(g, fp).Detect(s)
	assert.True(t, errors.Is(err, grid.ErrShape))
}
