package frazil

import (
	"errors"
	"fmt"

	"frazil/freezing_point"
)

// 三种互斥的过冷处理方式，目的是防止流出冰架空腔的冰架水直接形成海冰
// 这一过程虽然真实，但会产生几十米厚的孤立海冰，数值上不稳定

type Strategy int

const (
	// 把过冷转移到同一列的表层
	RedistributeToSurface Strategy = iota + 1
	// 直接移除过冷，能量不守恒
	Zap
	// 冰架空腔内的过冷不做处理
	IgnoreCavities
)

func (s Strategy) String() string {
	switch s {
	case RedistributeToSurface:
		return "redistribute_to_surface"
	case Zap:
		return "zap"
	case IgnoreCavities:
		return "ignore_cavities"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

var (
	ErrDisabled              = errors.New("frazil: ALLOW_FRAZIL is not set")
	ErrNoStrategy            = errors.New("frazil: no correction strategy selected")
	ErrConflictingStrategies = errors.New("frazil: more than one correction strategy selected")
	ErrMisplacedOption       = errors.New("frazil: option outside the [frazil] section")
)

// 与 FRAZIL_OPTIONS 一一对应的开关
type Options struct {
	Enabled        bool // ALLOW_FRAZIL
	TFreezeSfc     bool // FRAZIL_TFREEZE_SFC
	Redistribute   bool // FRAZIL_REDISTRIBUTE
	Zap            bool // FRAZIL_ZAP
	IgnoreCavities bool // FRAZIL_IGNORE_CAVITIES

	Formula         freezing_point.Formula
	Coefficients    freezing_point.Coefficients
	SurfacePressure float64 // dbar

	// 表层接收的亏损按层厚加权，默认不加权
	ThicknessWeighted bool

	// 在诊断量中保留修正前的过冷场
	RecordSupercooling bool

	// <= 0 时取 GOMAXPROCS
	Workers int
}

// 打开模块并只选中一种处理方式
func NewOptions(strategy Strategy, reference freezing_point.Reference) Options {
	o := Options{
		Enabled:      true,
		TFreezeSfc:   reference == freezing_point.Surface,
		Formula:      freezing_point.Linear,
		Coefficients: freezing_point.DefaultCoefficients,
	}
	switch strategy {
	case RedistributeToSurface:
		o.Redistribute = true
	case Zap:
		o.Zap = true
	case IgnoreCavities:
		o.IgnoreCavities = true
	}
	return o
}

func (o Options) Reference() freezing_point.Reference {
	if o.TFreezeSfc {
		return freezing_point.Surface
	}
	return freezing_point.InSitu
}

func (o Options) Strategy() (Strategy, error) {
	var selected []Strategy
	if o.Redistribute {
		selected = append(selected, RedistributeToSurface)
	}
	if o.Zap {
		selected = append(selected, Zap)
	}
	if o.IgnoreCavities {
		selected = append(selected, IgnoreCavities)
	}
	switch len(selected) {
	case 0:
		return 0, ErrNoStrategy
	case 1:
		return selected[0], nil
	}
	return 0, fmt.Errorf("%w: %v", ErrConflictingStrategies, selected)
}

// 模块关闭时不检查处理方式
func (o Options) Validate() error {
	if !o.Enabled {
		return nil
	}
	if _, err := o.Strategy(); err != nil {
		return err
	}
	if o.Formula != freezing_point.Linear && o.Formula != freezing_point.UNESCO {
		return fmt.Errorf("frazil: unknown freezing point formula %v", o.Formula)
	}
	return nil
}
