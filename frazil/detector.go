package frazil

import (
	"github.com/ctessum/sparse"

	"frazil/freezing_point"
	"frazil/grid"
)

// 宿主模型每个时间步提供的场，形状均为 [Nz][Ny][Nx]
// Surface 参考下 Pressure 可以为 nil
type State struct {
	Temperature *sparse.DenseArray // ℃
	Salinity    *sparse.DenseArray // psu
	Pressure    *sparse.DenseArray // dbar
}

func (s State) check(g *grid.Grid, reference freezing_point.Reference) error {
	if err := g.CheckShape("temperature", s.Temperature); err != nil {
		return err
	}
	if err := g.CheckShape("salinity", s.Salinity); err != nil {
		return err
	}
	if s.Pressure != nil || reference == freezing_point.InSitu {
		return g.CheckShape("pressure", s.Pressure)
	}
	return nil
}

func (s State) pressure(idx int) float64 {
	if s.Pressure == nil {
		return 0
	}
	return s.Pressure.Elements[idx]
}

// 过冷量，温度低于冰点的部分，非负
func Deficit(temperature, freezingPoint float64) float64 {
	if d := freezingPoint - temperature; d > 0 {
		return d
	}
	return 0
}

// 过冷检测，无状态
type Detector struct {
	grid *grid.Grid
	fp   *freezing_point.FreezingPoint
}

func NewDetector(g *grid.Grid, fp *freezing_point.FreezingPoint) *Detector {
	return &Detector{grid: g, fp: fp}
}

func (d *Detector) FreezingPoint(s State, idx int) float64 {
	return d.fp.At(s.Salinity.Elements[idx], s.pressure(idx))
}

// 计算一列的冰点和过冷量，结果按层号写入 tf 和 deficit，干网格为 0
// 返回过冷的网格数
func (d *Detector) column(s State, col int, tf, deficit []float64) int {
	n := 0
	for k := 0; k < d.grid.Nz; k++ {
		tf[k], deficit[k] = 0, 0
		if !d.grid.IsWet(k, col) {
			continue
		}
		idx := d.grid.Index(k, col)
		tf[k] = d.FreezingPoint(s, idx)
		deficit[k] = Deficit(s.Temperature.Elements[idx], tf[k])
		if deficit[k] > 0 {
			n++
		}
	}
	return n
}

// 整个场的过冷量，先求冰点场，再就地换成过冷量
func (d *Detector) Detect(s State) (*sparse.DenseArray, error) {
	if err := s.check(d.grid, d.fp.Reference); err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(d.grid.Shape()...)
	if err := d.fp.Field(s.Salinity, s.Pressure, out); err != nil {
		return nil, err
	}
	t := s.Temperature.Elements
	n := d.grid.Columns()
	for k := 0; k < d.grid.Nz; k++ {
		for col := 0; col < n; col++ {
			idx := d.grid.Index(k, col)
			if !d.grid.IsWet(k, col) {
				out.Elements[idx] = 0
				continue
			}
			out.Elements[idx] = Deficit(t[idx], out.Elements[idx])
		}
	}
	return out, nil
}
