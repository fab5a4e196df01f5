package frazil

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
	log "github.com/sirupsen/logrus"

	"frazil/freezing_point"
	"frazil/grid"
)

var ErrClosed = errors.New("frazil: corrector is closed")

// 过冷修正器
// 处理方式和冰点参考在初始化时确定，运行期间不可修改
type Corrector struct {
	options  Options
	strategy Strategy
	grid     *grid.Grid
	fp       *freezing_point.FreezingPoint
	detector *Detector
	f        columnFunc
	e        executor

	mu     sync.Mutex // 同一时刻只允许一次修正
	closed bool
}

func NewCorrector(g *grid.Grid, options Options) (*Corrector, error) {
	if !options.Enabled {
		return nil, ErrDisabled
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	strategy, _ := options.Strategy()

	fp := freezing_point.NewFreezingPoint(options.Reference(), options.Formula,
		options.Coefficients, options.SurfacePressure)
	c := &Corrector{
		options:  options,
		strategy: strategy,
		grid:     g,
		fp:       fp,
		detector: NewDetector(g, fp),
		f:        strategy.columnFunc(),
	}

	workers := options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	buffers := sync.Pool{New: func() interface{} { return newColumnBuffer(g.Nz) }}
	c.e = newExecutorBaseOnColumn(workers, func(t task) {
		buf := buffers.Get().(*columnBuffer)
		for col := t.start; col < t.end; col++ {
			c.f(c, t.state, col, buf, t.diag)
		}
		buffers.Put(buf)
	})
	c.e.run()

	log.WithFields(log.Fields{
		"strategy":          strategy,
		"reference":         fp.Reference,
		"formula":           fp.Formula,
		"thicknessWeighted": options.ThicknessWeighted,
		"workers":           workers,
		"columns":           g.Columns(),
	}).Info("初始化过冷修正")
	return c, nil
}

func (c *Corrector) Strategy() Strategy {
	return c.strategy
}

func (c *Corrector) Options() Options {
	return c.options
}

func (c *Corrector) Grid() *grid.Grid {
	return c.grid
}

func (c *Corrector) FreezingPoint() *freezing_point.FreezingPoint {
	return c.fp
}

func (c *Corrector) Detector() *Detector {
	return c.detector
}

// 就地修正温度场，返回本时间步的诊断量
// 未被处理的网格保持原值
func (c *Corrector) Correct(s State) (*Diagnostic, error) {
	if err := s.check(c.grid, c.fp.Reference); err != nil {
		return nil, fmt.Errorf("frazil: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	diag := newDiagnostic(c.strategy, c.grid.Nx, c.grid.Ny)
	if c.options.RecordSupercooling {
		diag.Supercooling = sparse.ZerosDense(c.grid.Shape()...)
	}
	diag.Duration = c.e.dispatchTask(s, diag, 0, c.grid.Columns())

	log.WithFields(log.Fields{
		"strategy":      c.strategy,
		"supercooled":   diag.Supercooled,
		"corrected":     diag.Corrected,
		"removed":       diag.Removed,
		"ignored":       diag.Ignored,
		"surfaceFrazil": diag.SurfaceFrazil,
		"duration":      diag.Duration,
	}).Debug("修正过冷")
	return diag, nil
}

// 停止所有 worker
func (c *Corrector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.e.close()
}
