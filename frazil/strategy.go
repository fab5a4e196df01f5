package frazil

import "frazil/grid"

// 单列修正所需的缓冲，每个任务一份
type columnBuffer struct {
	tf      []float64
	deficit []float64
}

func newColumnBuffer(nz int) *columnBuffer {
	return &columnBuffer{
		tf:      make([]float64, nz),
		deficit: make([]float64, nz),
	}
}

type columnFunc func(c *Corrector, s State, col int, buf *columnBuffer, diag *Diagnostic)

func (s Strategy) columnFunc() columnFunc {
	switch s {
	case RedistributeToSurface:
		return redistributeColumn
	case Zap:
		return zapColumn
	case IgnoreCavities:
		return ignoreCavitiesColumn
	}
	return nil
}

// 1. 先算出整列每个网格的亏损
// 2. 表层以下的过冷网格抬升到冰点，亏损之和一次性加到表层
// 表层自身的过冷保留，供宿主模型形成海冰
func redistributeColumn(c *Corrector, s State, col int, buf *columnBuffer, diag *Diagnostic) {
	g := c.grid
	ks := g.KSurf(col)
	if ks == grid.NoSurface {
		return
	}
	diag.Supercooled += c.detector.column(s, col, buf.tf, buf.deficit)
	diag.record(g, col, buf.deficit)

	t := s.Temperature.Elements
	area := g.CellArea(col)
	var total, weighted float64
	for k := ks + 1; k < g.Nz; k++ {
		d := buf.deficit[k]
		if d <= 0 {
			continue
		}
		t[g.Index(k, col)] = buf.tf[k]
		total += d
		weighted += d * g.Thickness(k)
		diag.Corrected++
		diag.RemovedVolume += d * g.Thickness(k) * area
	}

	surf := g.Index(ks, col)
	if total > 0 {
		if c.options.ThicknessWeighted {
			t[surf] -= weighted / g.Thickness(ks)
		} else {
			t[surf] -= total
		}
		diag.Removed += total
		diag.Redistributed += total
		diag.Column.Elements[col] = total
	}

	frazil := Deficit(t[surf], buf.tf[ks])
	diag.Frazil.Elements[col] = frazil
	diag.SurfaceFrazil += frazil
	diag.Residual += frazil
}

// 过冷网格抬升到冰点，亏损直接丢弃
func zapColumn(c *Corrector, s State, col int, buf *columnBuffer, diag *Diagnostic) {
	g := c.grid
	if g.KSurf(col) == grid.NoSurface {
		return
	}
	diag.Supercooled += c.detector.column(s, col, buf.tf, buf.deficit)
	diag.record(g, col, buf.deficit)

	t := s.Temperature.Elements
	area := g.CellArea(col)
	var total float64
	for k := g.KSurf(col); k < g.Nz; k++ {
		d := buf.deficit[k]
		if d <= 0 {
			continue
		}
		t[g.Index(k, col)] = buf.tf[k]
		total += d
		diag.Corrected++
		diag.RemovedVolume += d * g.Thickness(k) * area
	}
	if total > 0 {
		diag.Removed += total
		diag.Discarded += total
		diag.Column.Elements[col] = total
	}
}

// 温度场不做任何改动，只统计空腔内保留的过冷
func ignoreCavitiesColumn(c *Corrector, s State, col int, buf *columnBuffer, diag *Diagnostic) {
	g := c.grid
	if g.KSurf(col) == grid.NoSurface {
		return
	}
	diag.Supercooled += c.detector.column(s, col, buf.tf, buf.deficit)
	diag.record(g, col, buf.deficit)

	var total float64
	for k := g.KSurf(col); k < g.Nz; k++ {
		total += buf.deficit[k]
	}
	diag.Residual += total
	if g.IsCavity(col) && total > 0 {
		diag.Ignored += total
		diag.Column.Elements[col] = total
	}
}
