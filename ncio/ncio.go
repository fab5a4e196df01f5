// Package ncio 读写宿主模型的 NetCDF 场
// 三维变量的维度顺序为 (nz, ny, nx)，k = 0 为最上层
package ncio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"frazil/frazil"
	"frazil/grid"
)

// 变量名
const (
	Temperature  = "temperature"
	Salinity     = "salinity"
	Pressure     = "pressure"
	IceDraft     = "ice_draft" // (ny, nx) 冰架占据的层数
	Cavity       = "cavity"    // (ny, nx) 1 为空腔列
	Wet          = "wet"       // (nz, ny, nx) 1 为海水
	Thickness    = "dz"        // (nz) 层厚 m
	Area         = "area"      // (ny, nx) m^2
	Supercooling = "supercooling"
	Correction   = "correction"
	Frazil       = "frazil"
)

var ErrInvalidDraft = errors.New("invalid ice draft")

// 一个时间步的输入
type Dataset struct {
	Grid  *grid.Grid
	State frazil.State
}

func ReadFile(path string) (*Dataset, error) {
	ff, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ncio: %w", err)
	}
	defer ff.Close()
	return Read(ff)
}

// 读取温度盐度压强和网格信息，三维场并发读取
func Read(r cdf.ReaderWriterAt) (*Dataset, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("ncio: opening file: %w", err)
	}
	if !has(f, Temperature) || !has(f, Salinity) {
		return nil, fmt.Errorf("ncio: file needs %q and %q variables", Temperature, Salinity)
	}
	shape := f.Header.Lengths(Temperature)
	if len(shape) != 3 {
		return nil, fmt.Errorf("ncio: %s has %d dimensions, want 3", Temperature, len(shape))
	}
	nz, ny, nx := shape[0], shape[1], shape[2]
	g := grid.NewGrid(nx, ny, nz)

	ds := &Dataset{Grid: g}
	var eg errgroup.Group
	eg.Go(func() (err error) {
		ds.State.Temperature, err = readVar(f, Temperature, g.Shape())
		return
	})
	eg.Go(func() (err error) {
		ds.State.Salinity, err = readVar(f, Salinity, g.Shape())
		return
	})
	if has(f, Pressure) {
		eg.Go(func() (err error) {
			ds.State.Pressure, err = readVar(f, Pressure, g.Shape())
			return
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := readGrid(f, g); err != nil {
		return nil, err
	}
	if ds.State.Pressure == nil {
		ds.State.Pressure = g.PressureField()
	}
	log.WithFields(log.Fields{
		"nx":            nx,
		"ny":            ny,
		"nz":            nz,
		"cavityColumns": g.CavityColumns(),
		"pressure":      has(f, Pressure),
	}).Info("读取 NetCDF 场")
	return ds, nil
}

func readGrid(f *cdf.File, g *grid.Grid) error {
	if has(f, Thickness) {
		dz, err := readVar(f, Thickness, []int{g.Nz})
		if err != nil {
			return err
		}
		if err := g.SetThickness(dz.Elements); err != nil {
			return fmt.Errorf("ncio: %w", err)
		}
	}
	if has(f, Area) {
		area, err := readVar(f, Area, []int{g.Ny, g.Nx})
		if err != nil {
			return err
		}
		if err := g.SetArea(area.Elements); err != nil {
			return fmt.Errorf("ncio: %w", err)
		}
	}
	if has(f, Wet) {
		wet, err := readVar(f, Wet, g.Shape())
		if err != nil {
			return err
		}
		if err := g.SetWetMask(mask(wet)); err != nil {
			return fmt.Errorf("ncio: %w", err)
		}
	}
	switch {
	case has(f, IceDraft):
		d, err := readVar(f, IceDraft, []int{g.Ny, g.Nx})
		if err != nil {
			return err
		}
		draft, err := layers(d.Elements)
		if err != nil {
			return err
		}
		if err := g.ApplyIceShelf(draft); err != nil {
			return fmt.Errorf("ncio: %w", err)
		}
	case has(f, Cavity):
		c, err := readVar(f, Cavity, []int{g.Ny, g.Nx})
		if err != nil {
			return err
		}
		if err := g.SetCavityMask(mask(c)); err != nil {
			return fmt.Errorf("ncio: %w", err)
		}
	}
	return nil
}

// 冰架吃水必须是非负整数层数，NaN、填充值和小数都不接受
func layers(values []float64) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
			return nil, fmt.Errorf("ncio: %s[%d] = %g is not a layer count: %w", IceDraft, i, v, ErrInvalidDraft)
		}
		out[i] = int(v)
	}
	return out, nil
}

func has(f *cdf.File, name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mask(a *sparse.DenseArray) []bool {
	m := make([]bool, len(a.Elements))
	for i, v := range a.Elements {
		m[i] = v != 0
	}
	return m
}

// 按浮点数读取一个变量，支持 float32 float64 int32
func readVar(f *cdf.File, name string, shape []int) (*sparse.DenseArray, error) {
	dims := f.Header.Lengths(name)
	if !sameShape(dims, shape) {
		return nil, fmt.Errorf("ncio: %s has shape %v, want %v: %w", name, dims, shape, grid.ErrShape)
	}
	out := sparse.ZerosDense(shape...)
	r := f.Reader(name, nil, nil)
	buf := r.Zero(len(out.Elements))
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("ncio: reading %s: %w", name, err)
	}
	switch data := buf.(type) {
	case []float64:
		copy(out.Elements, data)
	case []float32:
		for i, v := range data {
			out.Elements[i] = float64(v)
		}
	case []int32:
		for i, v := range data {
			out.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("ncio: %s has unsupported type %T", name, buf)
	}
	return out, nil
}

func WriteFile(path string, ds *Dataset, supercooling *sparse.DenseArray, diag *frazil.Diagnostic) error {
	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ncio: %w", err)
	}
	if err := Write(ff, ds, supercooling, diag); err != nil {
		ff.Close()
		return err
	}
	return ff.Close()
}

type variable struct {
	name, description, units string
	dims                     []string
	data                     *sparse.DenseArray
}

// 写出修正后的温度场，修正前的过冷场和每列的诊断量
func Write(w cdf.ReaderWriterAt, ds *Dataset, supercooling *sparse.DenseArray, diag *frazil.Diagnostic) error {
	g := ds.Grid
	h := cdf.NewHeader([]string{"nx", "ny", "nz"}, []int{g.Nx, g.Ny, g.Nz})
	h.AddAttribute("", "comment", "supercooling correction output")

	vars := []variable{
		{Temperature, "corrected temperature", "degC", []string{"nz", "ny", "nx"}, ds.State.Temperature},
		{Salinity, "salinity", "psu", []string{"nz", "ny", "nx"}, ds.State.Salinity},
		{Supercooling, "supercooling before correction", "degC", []string{"nz", "ny", "nx"}, supercooling},
	}
	if diag != nil {
		h.AddAttribute("", "strategy", diag.Strategy.String())
		h.AddAttribute("", "removed", []float64{diag.Removed})
		h.AddAttribute("", "discarded", []float64{diag.Discarded})
		h.AddAttribute("", "ignored", []float64{diag.Ignored})
		vars = append(vars,
			variable{Correction, "deficit handled per column", "degC", []string{"ny", "nx"}, diag.Column},
			variable{Frazil, "supercooling left in the surface cell", "degC", []string{"ny", "nx"}, diag.Frazil},
		)
	}
	cavity := sparse.ZerosDense(g.Ny, g.Nx)
	for col := range cavity.Elements {
		if g.IsCavity(col) {
			cavity.Elements[col] = 1
		}
	}
	vars = append(vars, variable{Cavity, "ice shelf cavity mask", "1", []string{"ny", "nx"}, cavity})

	for _, v := range vars {
		if v.data == nil {
			continue
		}
		h.AddVariable(v.name, v.dims, []float64{0})
		h.AddAttribute(v.name, "description", v.description)
		h.AddAttribute(v.name, "units", v.units)
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("ncio: creating header: %w", err)
	}

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("ncio: creating file: %w", err)
	}
	for _, v := range vars {
		if v.data == nil {
			continue
		}
		if err := writeVar(f, v.name, v.data); err != nil {
			return err
		}
	}
	log.WithField("variables", len(vars)).Debug("写出 NetCDF 场")
	return nil
}

func writeVar(f *cdf.File, name string, data *sparse.DenseArray) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data.Elements); err != nil {
		return fmt.Errorf("ncio: writing %s: %w", name, err)
	}
	return nil
}
