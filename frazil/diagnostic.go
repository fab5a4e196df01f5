package frazil

import (
	"time"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"

	"frazil/grid"
)

// 一个时间步的修正诊断量，供宿主模型做能量收支
// 温度亏损单位为 ℃，Volume 结尾的量为 ℃·m^3
type Diagnostic struct {
	Strategy Strategy

	Supercooled int // 修正前的过冷网格数
	Corrected   int // 温度被抬升到冰点的网格数

	Removed       float64 // 从被修正网格移除的亏损之和
	Redistributed float64 // 转移到表层的亏损
	Discarded     float64 // 直接丢弃的亏损
	Ignored       float64 // 冰架空腔中保留的过冷
	Residual      float64 // 修正后仍然存在的过冷
	SurfaceFrazil float64 // 修正后表层的过冷，交给宿主形成海冰

	RemovedVolume float64

	// 每列的处理量 [Ny][Nx]
	Column *sparse.DenseArray
	// 每列表层修正后的过冷 [Ny][Nx]
	Frazil *sparse.DenseArray
	// 修正前的过冷场 [Nz][Ny][Nx]，仅在 RecordSupercooling 时记录
	Supercooling *sparse.DenseArray

	Duration time.Duration
}

func newDiagnostic(strategy Strategy, nx, ny int) *Diagnostic {
	return &Diagnostic{
		Strategy: strategy,
		Column:   sparse.ZerosDense(ny, nx),
		Frazil:   sparse.ZerosDense(ny, nx),
	}
}

// 任务局部的诊断量，与总诊断量共享列场
func (d *Diagnostic) partial() *Diagnostic {
	return &Diagnostic{
		Strategy: d.Strategy,
		Column:   d.Column,
		Frazil:   d.Frazil,

		Supercooling: d.Supercooling,
	}
}

// 记录一列修正前的过冷量
func (d *Diagnostic) record(g *grid.Grid, col int, deficit []float64) {
	if d.Supercooling == nil {
		return
	}
	for k, v := range deficit {
		if v > 0 {
			d.Supercooling.Elements[g.Index(k, col)] = v
		}
	}
}

func (d *Diagnostic) merge(p *Diagnostic) {
	d.Supercooled += p.Supercooled
	d.Corrected += p.Corrected
	d.Removed += p.Removed
	d.Redistributed += p.Redistributed
	d.Discarded += p.Discarded
	d.Ignored += p.Ignored
	d.Residual += p.Residual
	d.SurfaceFrazil += p.SurfaceFrazil
	d.RemovedVolume += p.RemovedVolume
}

// 移除的热量 J
func (d *Diagnostic) Heat(rho0, cp float64) float64 {
	return rho0 * cp * d.RemovedVolume
}

// 处理量最大的列
func (d *Diagnostic) MaxColumn() (col int, value float64) {
	if len(d.Column.Elements) == 0 {
		return -1, 0
	}
	col = floats.MaxIdx(d.Column.Elements)
	return col, d.Column.Elements[col]
}

func (d *Diagnostic) ColumnSum() float64 {
	return floats.Sum(d.Column.Elements)
}
