package frazil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frazil/freezing_point"
	"frazil/grid"
)

// 冰点 -1.9℃，自底向上 [-2.3, -2.0, -1.5, -1.0, -0.5]
var exampleColumn = []float64{-0.5, -1.0, -1.5, -2.0, -2.3}

func TestRedistributeToSurface_Example(t *testing.T) {
	g, s := newColumnState(exampleColumn)
	c := newTestCorrector(t, g, newTestOptions(RedistributeToSurface))

	diag, err := c.Correct(s)
	require.NoError(t, err)

	want := []float64{-1.0, -1.0, -1.5, -1.9, -1.9}
	for k, w := range want {
		assert.InDelta(t, w, s.Temperature.Elements[k], 1e-12, "level %d", k)
	}
	assert.Equal(t, 2, diag.Supercooled)
	assert.Equal(t, 2, diag.Corrected)
	assert.InDelta(t, 0.5, diag.Redistributed, 1e-12)
	assert.InDelta(t, 0.5, diag.Column.Elements[0], 1e-12)
	assert.Equal(t, 0.0, diag.Discarded)
	assert.Equal(t, 0.0, diag.SurfaceFrazil)
}

func TestZap_Example(t *testing.T) {
	g, s := newColumnState(exampleColumn)
	c := newTestCorrector(t, g, newTestOptions(Zap))

	diag, err := c.Correct(s)
	require.NoError(t, err)

	want := []float64{-0.5, -1.0, -1.5, -1.9, -1.9}
	for k, w := range want {
		assert.InDelta(t, w, s.Temperature.Elements[k], 1e-12, "level %d", k)
	}
	// 表层不变
	assert.Equal(t, -0.5, s.Temperature.Elements[0])
	assert.InDelta(t, 0.5, diag.Discarded, 1e-12)
	assert.Equal(t, 0.0, diag.Redistributed)
	assert.Equal(t, 0.0, diag.Residual)
}

func TestRedistributeToSurface_SurfaceFrazil(t *testing.T) {
	// 表层亏损超过其自身余量时，表层保持过冷，交给海冰
	g, s := newColumnState([]float64{-1.8, -2.5, -2.6})
	c := newTestCorrector(t, g, newTestOptions(RedistributeToSurface))

	diag, err := c.Correct(s)
	require.NoError(t, err)
	assert.InDelta(t, -1.8-0.6-0.7, s.Temperature.Elements[0], 1e-12)
	assert.InDelta(t, 1.2, diag.SurfaceFrazil, 1e-12)
	assert.InDelta(t, 1.2, diag.Frazil.Elements[0], 1e-12)
	assert.InDelta(t, 1.2, diag.Residual, 1e-12)
}

func TestRedistributeToSurface_SingleCell(t *testing.T) {
	g, s := newColumnState([]float64{-2.5})
	c := newTestCorrector(t, g, newTestOptions(RedistributeToSurface))

	diag, err := c.Correct(s)
	require.NoError(t, err)
	assert.Equal(t, -2.5, s.Temperature.Elements[0])
	assert.Equal(t, 0, diag.Corrected)
	assert.InDelta(t, 0.6, diag.SurfaceFrazil, 1e-12)
}

// 空腔列的表层是冰架下第一个湿网格
func TestRedistributeToSurface_CavityColumn(t *testing.T) {
	g, s := newColumnState([]float64{5, 5, -1.0, -2.0, -2.3})
	require.NoError(t, g.ApplyIceShelf([]int{2}))
	c := newTestCorrector(t, g, newTestOptions(RedistributeToSurface))

	_, err := c.Correct(s)
	require.NoError(t, err)
	// 干网格不动
	assert.Equal(t, 5.0, s.Temperature.Elements[0])
	assert.Equal(t, 5.0, s.Temperature.Elements[1])
	assert.InDelta(t, -1.5, s.Temperature.Elements[2], 1e-12)
	assert.InDelta(t, -1.9, s.Temperature.Elements[3], 1e-12)
	assert.InDelta(t, -1.9, s.Temperature.Elements[4], 1e-12)
}

func TestRedistributeToSurface_ThicknessWeighted(t *testing.T) {
	g, s := newColumnState([]float64{-0.5, -2.0, -2.3})
	require.NoError(t, g.SetThickness([]float64{10, 20, 40}))
	o := newTestOptions(RedistributeToSurface)
	o.ThicknessWeighted = true
	c := newTestCorrector(t, g, o)

	before := append([]float64(nil), s.Temperature.Elements...)
	diag, err := c.Correct(s)
	require.NoError(t, err)

	// 0.1*20 + 0.4*40 = 18 ℃·m，表层 10 m
	assert.InDelta(t, -0.5-1.8, s.Temperature.Elements[0], 1e-12)
	heat := 0.0
	for k := range before {
		heat += (s.Temperature.Elements[k] - before[k]) * g.Thickness(k)
	}
	assert.InDelta(t, 0, heat, 1e-12)
	assert.InDelta(t, 18, diag.RemovedVolume, 1e-12)
}

func TestIgnoreCavities_NoOp(t *testing.T) {
	g, s := newRandomState(1, 6, 4, 8, 3, 2)
	c := newTestCorrector(t, g, newTestOptions(IgnoreCavities))
	before := s.Temperature.Copy()

	diag, err := c.Correct(s)
	require.NoError(t, err)
	// 逐位相同
	assert.Equal(t, before.Elements, s.Temperature.Elements)
	assert.Equal(t, 0, diag.Corrected)
	assert.Equal(t, 0.0, diag.Removed)
	assert.Greater(t, diag.Ignored, 0.0)
	assert.GreaterOrEqual(t, diag.Residual, diag.Ignored)

	for col := 0; col < g.Columns(); col++ {
		if !g.IsCavity(col) {
			assert.Equal(t, 0.0, diag.Column.Elements[col])
		}
	}
}

func TestZap_Discarded(t *testing.T) {
	g, s := newRandomState(2, 5, 5, 10, 2, 3)
	c := newTestCorrector(t, g, newTestOptions(Zap))

	want := 0.0
	deficits, err := c.Detector().Detect(s)
	require.NoError(t, err)
	for _, d := range deficits.Elements {
		want += d
	}
	before := s.Temperature.Copy()

	diag, err := c.Correct(s)
	require.NoError(t, err)
	assert.InDelta(t, want, diag.Discarded, 1e-9)
	assert.InDelta(t, diag.Discarded, diag.ColumnSum(), 1e-9)

	for i, v := range s.Temperature.Elements {
		if deficits.Elements[i] == 0 {
			assert.Equal(t, before.Elements[i], v, "cell %d", i)
		} else {
			assert.GreaterOrEqual(t, v, before.Elements[i])
		}
	}

	after, err := c.Detector().Detect(s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, after.Sum())
}

func TestRedistributeToSurface_Properties(t *testing.T) {
	g, s := newRandomState(3, 7, 3, 12, 3, 4)
	c := newTestCorrector(t, g, newTestOptions(RedistributeToSurface))
	before := s.Temperature.Copy()

	_, err := c.Correct(s)
	require.NoError(t, err)

	after, err := c.Detector().Detect(s)
	require.NoError(t, err)
	for col := 0; col < g.Columns(); col++ {
		ks := g.KSurf(col)
		change := 0.0
		for k := 0; k < g.Nz; k++ {
			idx := g.Index(k, col)
			change += before.Elements[idx] - s.Temperature.Elements[idx]
			if k > ks {
				// 表层以下不再过冷
				assert.Equal(t, 0.0, after.Elements[idx])
			}
			if !g.IsWet(k, col) {
				assert.Equal(t, before.Elements[idx], s.Temperature.Elements[idx])
			}
		}
		// 每列热量守恒
		assert.InDelta(t, 0, change, 1e-9, "column %d", col)
	}
}

// 连续两次修正与一次修正结果相同
func TestIdempotence(t *testing.T) {
	for _, strategy := range []Strategy{RedistributeToSurface, Zap, IgnoreCavities} {
		t.Run(strategy.String(), func(t *testing.T) {
			g, s := newRandomState(4, 6, 6, 9, 2, 3)
			// 按实际压强的冰点，每个网格冰点不同
			o := NewOptions(strategy, freezing_point.InSitu)
			o.Workers = 3
			c := newTestCorrector(t, g, o)

			_, err := c.Correct(s)
			require.NoError(t, err)
			once := s.Temperature.Copy()

			diag, err := c.Correct(s)
			require.NoError(t, err)
			assert.Equal(t, once.Elements, s.Temperature.Elements)
			if strategy != IgnoreCavities {
				assert.Equal(t, 0, diag.Corrected)
				assert.Equal(t, 0.0, diag.Removed)
			}
		})
	}
}

// 并行与单线程结果一致
func TestCorrector_Workers(t *testing.T) {
	g, s1 := newRandomState(5, 13, 7, 6, 4, 2)
	s2 := copyState(s1)

	o1 := newTestOptions(RedistributeToSurface)
	o1.Workers = 1
	o8 := newTestOptions(RedistributeToSurface)
	o8.Workers = 8

	d1, err := newTestCorrector(t, g, o1).Correct(s1)
	require.NoError(t, err)
	d8, err := newTestCorrector(t, g, o8).Correct(s2)
	require.NoError(t, err)

	assert.Equal(t, s1.Temperature.Elements, s2.Temperature.Elements)
	opts := []cmp.Option{
		cmpopts.IgnoreFields(Diagnostic{}, "Column", "Frazil", "Supercooling", "Duration"),
		cmpopts.EquateApprox(0, 1e-9),
	}
	if diff := cmp.Diff(d1, d8, opts...); diff != "" {
		t.Errorf("diagnostic mismatch (-1 worker +8 workers):\n%s", diff)
	}
	assert.Equal(t, d1.Column.Elements, d8.Column.Elements)
}

func TestDryColumn(t *testing.T) {
	g, s := newColumnState([]float64{-3, -3})
	require.NoError(t, g.ApplyIceShelf([]int{2}))
	require.Equal(t, grid.NoSurface, g.KSurf(0))

	for _, strategy := range []Strategy{RedistributeToSurface, Zap, IgnoreCavities} {
		c := newTestCorrector(t, g, newTestOptions(strategy))
		diag, err := c.Correct(s)
		require.NoError(t, err)
		assert.Equal(t, []float64{-3, -3}, s.Temperature.Elements)
		assert.Equal(t, 0, diag.Supercooled)
	}
}

func BenchmarkCorrector_Redistribute(b *testing.B) {
	g, s := newRandomState(6, 200, 100, 30, 50, 5)
	c := newTestCorrector(b, g, newTestOptions(RedistributeToSurface))
	raw := s.Temperature.Copy()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(s.Temperature.Elements, raw.Elements)
		if _, err := c.Correct(s); err != nil {
			b.Fatal(err)
		}
	}
}

// 修正时记录的过冷场与单独检测的结果一致
func TestCorrector_RecordSupercooling(t *testing.T) {
	for _, strategy := range []Strategy{RedistributeToSurface, Zap, IgnoreCavities} {
		t.Run(strategy.String(), func(t *testing.T) {
			g, s := newRandomState(6, 8, 5, 7, 3, 2)
			o := NewOptions(strategy, freezing_point.InSitu)
			o.Workers = 3
			o.RecordSupercooling = true
			c := newTestCorrector(t, g, o)

			want, err := c.Detector().Detect(s)
			require.NoError(t, err)
			diag, err := c.Correct(s)
			require.NoError(t, err)
			require.NotNil(t, diag.Supercooling)
			assert.Equal(t, want.Shape, diag.Supercooling.Shape)
			assert.Equal(t, want.Elements, diag.Supercooling.Elements)
			assert.Greater(t, diag.Supercooling.Sum(), 0.0)
		})
	}

	g, s := newColumnState(exampleColumn)
	diag, err := newTestCorrector(t, g, newTestOptions(Zap)).Correct(s)
	require.NoError(t, err)
	assert.Nil(t, diag.Supercooling)
}
