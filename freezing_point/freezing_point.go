package freezing_point

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/sparse"
	log "github.com/sirupsen/logrus"
)

// 冰点参考
// 1. Surface：所有网格都按海表压强计算冰点，即把水体当作在海表
// 2. InSitu：按网格所在深度的压强计算冰点，深层的正常过冷也会被判定为过冷

type Reference int

const (
	Surface Reference = iota
	InSitu
)

func (r Reference) String() string {
	switch r {
	case Surface:
		return "surface"
	case InSitu:
		return "in_situ"
	}
	return fmt.Sprintf("Reference(%d)", int(r))
}

func ParseReference(s string) (Reference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "surface", "sfc":
		return Surface, nil
	case "in_situ", "insitu", "depth":
		return InSitu, nil
	}
	return 0, fmt.Errorf("unknown freezing point reference %q", s)
}

// 冰点公式
type Formula int

const (
	Linear Formula = iota // Tf = a0 + a1*S + c*p
	UNESCO                // UNESCO 1983, Millero
)

func (f Formula) String() string {
	switch f {
	case Linear:
		return "linear"
	case UNESCO:
		return "unesco"
	}
	return fmt.Sprintf("Formula(%d)", int(f))
}

func ParseFormula(s string) (Formula, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear", "":
		return Linear, nil
	case "unesco", "millero":
		return UNESCO, nil
	}
	return 0, fmt.Errorf("unknown freezing point formula %q", s)
}

// 线性冰点公式系数
type Coefficients struct {
	A0 float64 // ℃
	A1 float64 // ℃/psu
	C  float64 // ℃/dbar
}

// 冰架模块的默认系数
var DefaultCoefficients = Coefficients{
	A0: 0.0901,
	A1: -0.0575,
	C:  -7.61e-4,
}

type FreezingPoint struct {
	Reference       Reference
	Formula         Formula
	Coefficients    Coefficients
	SurfacePressure float64 // dbar

	tf func(s, p float64) float64
}

func NewFreezingPoint(reference Reference, formula Formula, coefficients Coefficients, surfacePressure float64) *FreezingPoint {
	f := &FreezingPoint{
		Reference:       reference,
		Formula:         formula,
		Coefficients:    coefficients,
		SurfacePressure: surfacePressure,
	}
	switch formula {
	case UNESCO:
		f.tf = unesco
	default:
		f.tf = f.linear
	}
	log.WithFields(log.Fields{
		"reference":       reference,
		"formula":         formula,
		"a0":              coefficients.A0,
		"a1":              coefficients.A1,
		"c":               coefficients.C,
		"surfacePressure": surfacePressure,
	}).Debug("设置冰点参考")
	return f
}

func (f *FreezingPoint) linear(s, p float64) float64 {
	return f.Coefficients.A0 + f.Coefficients.A1*s + f.Coefficients.C*p
}

func unesco(s, p float64) float64 {
	return -0.0575*s + 1.710523e-3*s*math.Sqrt(s) - 2.154996e-4*s*s - 7.53e-4*p
}

// 冰点计算实际使用的压强
func (f *FreezingPoint) Pressure(p float64) float64 {
	if f.Reference == Surface {
		return f.SurfacePressure
	}
	return p
}

// 单个网格的冰点
func (f *FreezingPoint) At(s, p float64) float64 {
	return f.tf(s, f.Pressure(p))
}

// 整个场的冰点，out 与 salinity 形状一致
// Surface 参考下 pressure 可以为 nil
func (f *FreezingPoint) Field(salinity, pressure, out *sparse.DenseArray) error {
	if len(out.Elements) != len(salinity.Elements) {
		return fmt.Errorf("freezing point: output has %d elements, salinity has %d",
			len(out.Elements), len(salinity.Elements))
	}
	if pressure == nil {
		if f.Reference == InSitu {
			return fmt.Errorf("freezing point: in-situ reference needs a pressure field")
		}
		for i, s := range salinity.Elements {
			out.Elements[i] = f.tf(s, f.SurfacePressure)
		}
		return nil
	}
	if len(pressure.Elements) != len(salinity.Elements) {
		return fmt.Errorf("freezing point: pressure has %d elements, salinity has %d",
			len(pressure.Elements), len(salinity.Elements))
	}
	for i, s := range salinity.Elements {
		out.Elements[i] = f.At(s, pressure.Elements[i])
	}
	return nil
}
