package frazil

import (
	"math/rand"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/require"

	"frazil/freezing_point"
	"frazil/grid"
)

// 冰点恒为 -1.9℃ 的参数
var constantTf = freezing_point.Coefficients{A0: -1.9}

func newTestOptions(strategy Strategy) Options {
	o := NewOptions(strategy, freezing_point.Surface)
	o.Coefficients = constantTf
	o.Workers = 2
	return o
}

func newTestCorrector(t testing.TB, g *grid.Grid, o Options) *Corrector {
	c, err := NewCorrector(g, o)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// 单列，temps 从表层到底层
func newColumnState(temps []float64) (*grid.Grid, State) {
	g := grid.NewGrid(1, 1, len(temps))
	s := State{
		Temperature: sparse.ZerosDense(g.Shape()...),
		Salinity:    sparse.ZerosDense(g.Shape()...),
	}
	copy(s.Temperature.Elements, temps)
	for i := range s.Salinity.Elements {
		s.Salinity.Elements[i] = 34.5
	}
	return g, s
}

// 西侧 cavityColumns 列为冰架空腔，冰架吃水 draft 层
func newRandomState(seed int64, nx, ny, nz, cavityColumns, draft int) (*grid.Grid, State) {
	g := grid.NewGrid(nx, ny, nz)
	d := make([]int, g.Columns())
	for j := 0; j < ny; j++ {
		for i := 0; i < cavityColumns && i < nx; i++ {
			d[g.Column(i, j)] = draft
		}
	}
	if err := g.ApplyIceShelf(d); err != nil {
		panic(err)
	}

	r := rand.New(rand.NewSource(seed))
	s := State{
		Temperature: sparse.ZerosDense(g.Shape()...),
		Salinity:    sparse.ZerosDense(g.Shape()...),
		Pressure:    g.PressureField(),
	}
	for i := range s.Temperature.Elements {
		s.Temperature.Elements[i] = -2.6 + 2*r.Float64()
		s.Salinity.Elements[i] = 34 + r.Float64()
	}
	return g, s
}

func copyState(s State) State {
	c := State{
		Temperature: s.Temperature.Copy(),
		Salinity:    s.Salinity,
		Pressure:    s.Pressure,
	}
	return c
}
