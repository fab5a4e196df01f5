package frazil

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"frazil/freezing_point"
	"frazil/model"
)

// 配置文件格式见 conf/frazil.ini
//
// [frazil]
// ALLOW_FRAZIL = true
// FRAZIL_TFREEZE_SFC = true
// FRAZIL_ZAP = true
//
// [freezing_point]
// reference = surface

func LoadOptions(path string) (Options, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Options{}, fmt.Errorf("读取配置文件 %s: %w", path, err)
	}
	return loadOptions(file)
}

func LoadOptionsFromBytes(data []byte) (Options, error) {
	file, err := ini.Load(data)
	if err != nil {
		return Options{}, fmt.Errorf("解析配置: %w", err)
	}
	return loadOptions(file)
}

// 开关只能写在 [frazil] 中，写在其他节里会被当作未设置
func checkSections(file *ini.File) error {
	for _, section := range file.Sections() {
		if section.Name() == "frazil" {
			continue
		}
		for _, key := range section.KeyStrings() {
			if key == "ALLOW_FRAZIL" || strings.HasPrefix(key, "FRAZIL_") {
				return fmt.Errorf("%w: %s in [%s]", ErrMisplacedOption, key, section.Name())
			}
		}
	}
	return nil
}

func loadOptions(file *ini.File) (Options, error) {
	if err := checkSections(file); err != nil {
		return Options{}, err
	}
	section := file.Section("frazil")
	fp := file.Section("freezing_point")

	formula, err := freezing_point.ParseFormula(fp.Key("formula").String())
	if err != nil {
		return Options{}, err
	}

	o := Options{
		Enabled:        section.Key("ALLOW_FRAZIL").MustBool(false),
		TFreezeSfc:     section.Key("FRAZIL_TFREEZE_SFC").MustBool(false),
		Redistribute:   section.Key("FRAZIL_REDISTRIBUTE").MustBool(false),
		Zap:            section.Key("FRAZIL_ZAP").MustBool(false),
		IgnoreCavities: section.Key("FRAZIL_IGNORE_CAVITIES").MustBool(false),

		ThicknessWeighted: section.Key("thickness_weighted").MustBool(false),
		Workers:           section.Key("workers").MustInt(0),

		RecordSupercooling: section.Key("record_supercooling").MustBool(false),

		Formula: formula,
		Coefficients: freezing_point.Coefficients{
			A0: fp.Key("a0").MustFloat64(freezing_point.DefaultCoefficients.A0),
			A1: fp.Key("a1").MustFloat64(freezing_point.DefaultCoefficients.A1),
			C:  fp.Key("c").MustFloat64(freezing_point.DefaultCoefficients.C),
		},
		SurfacePressure: fp.Key("surface_pressure").MustFloat64(model.SurfacePressure),
	}
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	// reference 可选，写了就必须与 FRAZIL_TFREEZE_SFC 一致
	if name := fp.Key("reference").String(); name != "" {
		reference, err := freezing_point.ParseReference(name)
		if err != nil {
			return Options{}, err
		}
		if o.Enabled && reference != o.Reference() {
			return Options{}, fmt.Errorf("frazil: reference %s contradicts FRAZIL_TFREEZE_SFC = %t",
				reference, o.TFreezeSfc)
		}
	}

	fields := log.Fields{
		"ALLOW_FRAZIL":       o.Enabled,
		"FRAZIL_TFREEZE_SFC": o.TFreezeSfc,
		"formula":            o.Formula,
		"thicknessWeighted":  o.ThicknessWeighted,
	}
	if o.Enabled {
		strategy, _ := o.Strategy()
		fields["strategy"] = strategy
	}
	log.WithFields(fields).Info("读取 frazil 配置")
	return o, nil
}
