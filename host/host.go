package host

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ctessum/sparse"
	log "github.com/sirupsen/logrus"

	"frazil/deque"
	"frazil/frazil"
	"frazil/grid"
	"frazil/model"
)

// 演示用的宿主模型
// 西侧为冰架空腔，空腔内的水向过冷的冰架水羽流松弛，再向东输送到开阔海域，
// 每个时间步的示踪物更新之后调用过冷修正
type Host struct {
	cfg       Config
	grid      *grid.Grid
	state     frazil.State
	corrector *frazil.Corrector
	history   *deque.ArrDeque
	hub       *Hub

	step int
	last *frazil.Diagnostic

	mu sync.Mutex // 保护推送数据时对温度场的并发访问
}

func NewHost(cfg Config, options frazil.Options) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := grid.NewGrid(cfg.Nx, cfg.Ny, cfg.Nz)
	drF := make([]float64, cfg.Nz)
	for k := range drF {
		drF[k] = cfg.Dz
	}
	if err := g.SetThickness(drF); err != nil {
		return nil, err
	}
	draft := make([]int, g.Columns())
	for j := 0; j < cfg.Ny; j++ {
		for i := 0; i < cfg.CavityColumns && i < cfg.Nx; i++ {
			draft[g.Column(i, j)] = cfg.IceDraft
		}
	}
	if err := g.ApplyIceShelf(draft); err != nil {
		return nil, err
	}

	corrector, err := frazil.NewCorrector(g, options)
	if err != nil {
		return nil, fmt.Errorf("host: %w", err)
	}

	start := time.Now()
	h := &Host{
		cfg:       cfg,
		grid:      g,
		corrector: corrector,
		history:   deque.NewArrDeque(cfg.History),
		hub:       NewHub(),
	}
	h.state = frazil.State{
		Temperature: sparse.ZerosDense(g.Shape()...),
		Salinity:    sparse.ZerosDense(g.Shape()...),
		Pressure:    g.PressureField(),
	}
	for idx := range h.state.Temperature.Elements {
		h.state.Temperature.Elements[idx] = cfg.InitialTemperature
		h.state.Salinity.Elements[idx] = cfg.Salinity
	}
	log.WithFields(log.Fields{
		"strategy": corrector.Strategy(),
		"cost":     time.Since(start),
	}).Info("初始化宿主模型")
	return h, nil
}

func (h *Host) Grid() *grid.Grid {
	return h.grid
}

func (h *Host) Hub() *Hub {
	return h.hub
}

func (h *Host) Corrector() *frazil.Corrector {
	return h.corrector
}

// 温度场的快照
func (h *Host) Temperature() *sparse.DenseArray {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Temperature.Copy()
}

// 当前时间步的状态，调用方不得在 Run 期间修改
func (h *Host) State() frazil.State {
	return h.state
}

// 一个时间步：示踪物更新，过冷修正，记录收支
func (h *Host) Step() (model.Budget, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.relaxCavity()
	h.advect()
	diag, err := h.corrector.Correct(h.state)
	if err != nil {
		return model.Budget{}, err
	}
	h.step++
	h.last = diag

	b := model.Budget{
		Step:          h.step,
		Strategy:      diag.Strategy.String(),
		Supercooled:   diag.Supercooled,
		Corrected:     diag.Corrected,
		Removed:       diag.Removed,
		Redistributed: diag.Redistributed,
		Discarded:     diag.Discarded,
		Ignored:       diag.Ignored,
		SurfaceFrazil: diag.SurfaceFrazil,
		Heat:          diag.Heat(model.Rho0, model.Cp),
		Duration:      diag.Duration,
	}
	h.history.AddLast(b)
	return b, nil
}

// 空腔内的湿网格向羽流温度松弛
func (h *Host) relaxCavity() {
	t := h.state.Temperature.Elements
	for col := 0; col < h.grid.Columns(); col++ {
		if !h.grid.IsCavity(col) {
			continue
		}
		for k := h.grid.KSurf(col); k >= 0 && k < h.grid.Nz; k++ {
			idx := h.grid.Index(k, col)
			t[idx] += h.cfg.Relaxation * (h.cfg.PlumeTemperature - t[idx])
		}
	}
}

// 开阔海域按迎风格式向东输送，冰架前缘的列在冰架吃水深度以上接收空腔顶部的水
func (h *Host) advect() {
	t := h.state.Temperature.Elements
	a := h.cfg.Advection
	for j := 0; j < h.grid.Ny; j++ {
		// 自东向西更新，西侧邻居仍是上一步的值
		for i := h.grid.Nx - 1; i > 0; i-- {
			col, west := h.grid.Column(i, j), h.grid.Column(i-1, j)
			if h.grid.IsCavity(col) {
				continue
			}
			ks := h.grid.KSurf(west)
			if ks == grid.NoSurface {
				continue
			}
			for k := 0; k < h.grid.Nz; k++ {
				if !h.grid.IsWet(k, col) {
					continue
				}
				src := k
				if !h.grid.IsWet(k, west) {
					if k > ks {
						continue
					}
					src = ks
				}
				idx := h.grid.Index(k, col)
				t[idx] += a * (t[h.grid.Index(src, west)] - t[idx])
			}
		}
	}
}

// 循环计算，直到步数用完或者收到停止信号
func (h *Host) Run() error {
	start := time.Now()
	interval := h.cfg.PushInterval
	if interval <= 0 {
		interval = 1
	}
	steps := 0
LOOP:
	for h.cfg.Steps <= 0 || steps < h.cfg.Steps {
		select {
		case <-h.hub.Stop:
			log.Info("收到停止信号")
			break LOOP
		default:
			b, err := h.Step()
			if errors.Is(err, frazil.ErrClosed) {
				break LOOP
			}
			if err != nil {
				log.WithError(err).Error("时间步计算失败")
				return err
			}
			steps++
			if steps%interval == 0 {
				log.WithFields(log.Fields{
					"step":        b.Step,
					"supercooled": b.Supercooled,
					"removed":     b.Removed,
					"heat":        b.Heat,
				}).Info("过冷收支")
				h.hub.PushSignal()
			}
		}
	}
	log.WithFields(log.Fields{
		"steps": steps,
		"cost":  time.Since(start),
	}).Info("计算结束")
	return nil
}

// 最近的收支记录，按时间先后
func (h *Host) History() []model.Budget {
	return h.Recent(h.history.Capacity())
}

// 最近 n 步的收支记录，按时间先后
func (h *Host) Recent(n int) []model.Budget {
	h.mu.Lock()
	defer h.mu.Unlock()
	size := h.history.Size()
	if n > size {
		n = size
	}
	if n <= 0 {
		return nil
	}
	out := make([]model.Budget, 0, n)
	h.history.TraverseRange(size-n, size, func(i int, b *model.Budget) {
		out = append(out, *b)
	})
	return out
}

// 最近一步的收支，还没有推进时返回 false
func (h *Host) LastBudget() (model.Budget, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.history.IsEmpty() {
		return model.Budget{}, false
	}
	return h.history.Get(h.history.Size() - 1), true
}

// 收支累计
func (h *Host) Total() model.Budget {
	h.mu.Lock()
	defer h.mu.Unlock()
	var total model.Budget
	h.history.Traverse(func(i int, b *model.Budget) {
		total.Step = b.Step
		total.Strategy = b.Strategy
		total.Supercooled += b.Supercooled
		total.Corrected += b.Corrected
		total.Removed += b.Removed
		total.Redistributed += b.Redistributed
		total.Discarded += b.Discarded
		total.Ignored += b.Ignored
		total.SurfaceFrazil += b.SurfaceFrazil
		total.Heat += b.Heat
		total.Duration += b.Duration
	})
	return total
}

// 每列最上层湿网格的温度和过冷量
func (h *Host) SurfaceSlice() *model.SurfaceSlice {
	h.mu.Lock()
	defer h.mu.Unlock()
	g := h.grid
	detector := h.corrector.Detector()
	slice := &model.SurfaceSlice{
		Step:         h.step,
		Temperature:  make([][]float64, g.Ny),
		Supercooling: make([][]float64, g.Ny),
		Cavity:       make([][]bool, g.Ny),
	}
	for j := 0; j < g.Ny; j++ {
		slice.Temperature[j] = make([]float64, g.Nx)
		slice.Supercooling[j] = make([]float64, g.Nx)
		slice.Cavity[j] = make([]bool, g.Nx)
		for i := 0; i < g.Nx; i++ {
			col := g.Column(i, j)
			slice.Cavity[j][i] = g.IsCavity(col)
			ks := g.KSurf(col)
			if ks == grid.NoSurface {
				continue
			}
			idx := g.Index(ks, col)
			temperature := h.state.Temperature.Elements[idx]
			slice.Temperature[j][i] = temperature
			slice.Supercooling[j][i] = frazil.Deficit(temperature, detector.FreezingPoint(h.state, idx))
		}
	}
	return slice
}

// 最近一个时间步的诊断量
func (h *Host) LastDiagnostic() *frazil.Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func (h *Host) Close() {
	h.hub.StopSignal()
	h.corrector.Close()
}
