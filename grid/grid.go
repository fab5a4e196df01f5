package grid

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
	log "github.com/sirupsen/logrus"

	"frazil/model"
)

// 宿主模型网格
// 1. 三维场的形状为 [Nz][Ny][Nx]，k = 0 为海表层
// 2. 水平位置 (i, j) 对应的列号 col = j*Nx + i
// 3. 陆地、冰架所占据的网格为干网格，核心计算不读也不写

const (
	Gravity = 9.81

	// 干列
	NoSurface = -1
)

var ErrShape = errors.New("shape mismatch")

type Grid struct {
	Nx int
	Ny int
	Nz int

	wet    []bool    // 湿网格掩码 Nz*Ny*Nx
	cavity []bool    // 冰架空腔掩码 Ny*Nx
	drF    []float64 // 层厚 m
	area   []float64 // 水平面积 m^2
	kSurf  []int     // 每列最上层湿网格
}

func NewGrid(nx, ny, nz int) *Grid {
	g := &Grid{
		Nx:     nx,
		Ny:     ny,
		Nz:     nz,
		wet:    make([]bool, nx*ny*nz),
		cavity: make([]bool, nx*ny),
		drF:    make([]float64, nz),
		area:   make([]float64, nx*ny),
		kSurf:  make([]int, nx*ny),
	}
	for i := range g.wet {
		g.wet[i] = true
	}
	for k := range g.drF {
		g.drF[k] = 1
	}
	for col := range g.area {
		g.area[col] = 1
	}
	log.WithFields(log.Fields{
		"nx": nx,
		"ny": ny,
		"nz": nz,
	}).Debug("初始化网格")
	return g
}

func (g *Grid) Columns() int {
	return g.Nx * g.Ny
}

func (g *Grid) Cells() int {
	return g.Nx * g.Ny * g.Nz
}

func (g *Grid) Shape() []int {
	return []int{g.Nz, g.Ny, g.Nx}
}

func (g *Grid) Column(i, j int) int {
	return j*g.Nx + i
}

// 一维下标
func (g *Grid) Index(k, col int) int {
	return k*g.Nx*g.Ny + col
}

func (g *Grid) IsWet(k, col int) bool {
	return g.wet[g.Index(k, col)]
}

func (g *Grid) IsCavity(col int) bool {
	return g.cavity[col]
}

// 列的表层，即最上层湿网格；冰架空腔列为冰架底下的第一个湿网格
func (g *Grid) KSurf(col int) int {
	return g.kSurf[col]
}

func (g *Grid) Thickness(k int) float64 {
	return g.drF[k]
}

func (g *Grid) CellArea(col int) float64 {
	return g.area[col]
}

func (g *Grid) SetWetMask(wet []bool) error {
	if len(wet) != g.Cells() {
		return fmt.Errorf("wet mask has %d cells, grid has %d: %w", len(wet), g.Cells(), ErrShape)
	}
	copy(g.wet, wet)
	g.updateKSurf()
	return nil
}

func (g *Grid) SetCavityMask(cavity []bool) error {
	if len(cavity) != g.Columns() {
		return fmt.Errorf("cavity mask has %d columns, grid has %d: %w", len(cavity), g.Columns(), ErrShape)
	}
	copy(g.cavity, cavity)
	return nil
}

func (g *Grid) SetThickness(drF []float64) error {
	if len(drF) != g.Nz {
		return fmt.Errorf("got %d layer thicknesses for %d levels: %w", len(drF), g.Nz, ErrShape)
	}
	for k, dz := range drF {
		if dz <= 0 {
			return fmt.Errorf("layer %d has non-positive thickness %g", k, dz)
		}
	}
	copy(g.drF, drF)
	return nil
}

func (g *Grid) SetArea(area []float64) error {
	if len(area) != g.Columns() {
		return fmt.Errorf("got %d cell areas for %d columns: %w", len(area), g.Columns(), ErrShape)
	}
	copy(g.area, area)
	return nil
}

// 按冰架吃水层数设置干网格和空腔掩码
// draft[col] 为冰架占据的层数，> 0 的列视为空腔列
func (g *Grid) ApplyIceShelf(draft []int) error {
	if len(draft) != g.Columns() {
		return fmt.Errorf("ice draft has %d columns, grid has %d: %w", len(draft), g.Columns(), ErrShape)
	}
	for col, d := range draft {
		if d <= 0 {
			continue
		}
		g.cavity[col] = true
		for k := 0; k < d && k < g.Nz; k++ {
			g.wet[g.Index(k, col)] = false
		}
	}
	g.updateKSurf()
	log.WithFields(log.Fields{
		"cavityColumns": g.CavityColumns(),
	}).Info("设置冰架空腔")
	return nil
}

func (g *Grid) CavityColumns() int {
	n := 0
	for _, c := range g.cavity {
		if c {
			n++
		}
	}
	return n
}

func (g *Grid) updateKSurf() {
	for col := range g.kSurf {
		g.kSurf[col] = NoSurface
		for k := 0; k < g.Nz; k++ {
			if g.wet[g.Index(k, col)] {
				g.kSurf[col] = k
				break
			}
		}
	}
}

// 网格中心深度 m
func (g *Grid) Depth(k int) float64 {
	z := 0.0
	for kk := 0; kk < k; kk++ {
		z += g.drF[kk]
	}
	return z + g.drF[k]/2
}

// 静水压强场 dbar，宿主没有提供压强时使用
func (g *Grid) PressureField() *sparse.DenseArray {
	p := sparse.ZerosDense(g.Shape()...)
	n := g.Columns()
	for k := 0; k < g.Nz; k++ {
		pk := model.Rho0 * Gravity * g.Depth(k) / 1e4
		for col := 0; col < n; col++ {
			p.Elements[g.Index(k, col)] = pk
		}
	}
	return p
}

// 检查场的形状与网格一致
func (g *Grid) CheckShape(name string, a *sparse.DenseArray) error {
	if a == nil {
		return fmt.Errorf("%s field is nil: %w", name, ErrShape)
	}
	if len(a.Shape) != 3 || a.Shape[0] != g.Nz || a.Shape[1] != g.Ny || a.Shape[2] != g.Nx {
		return fmt.Errorf("%s field has shape %v, grid is %v: %w", name, a.Shape, g.Shape(), ErrShape)
	}
	return nil
}
