package host

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"frazil/model"
)

// 演示用宿主模型的参数
type Config struct {
	Nx int
	Ny int
	Nz int
	Dz float64 // 层厚 m

	CavityColumns int // 西侧冰架空腔的列数
	IceDraft      int // 冰架吃水层数

	Salinity           float64 // psu
	InitialTemperature float64 // ℃
	PlumeTemperature   float64 // 冰架水羽流温度 ℃
	Relaxation         float64 // 空腔内每步向羽流温度的松弛系数
	Advection          float64 // 每步向东输送的比例

	Steps        int // <= 0 时一直运行直到停止
	History      int // 保留的收支记录条数
	PushInterval int // 每隔多少步推送一次
}

func DefaultConfig() Config {
	return Config{
		Nx:                 40,
		Ny:                 20,
		Nz:                 30,
		Dz:                 20,
		CavityColumns:      12,
		IceDraft:           10,
		Salinity:           34.5,
		InitialTemperature: -1.5,
		PlumeTemperature:   -2.2,
		Relaxation:         0.1,
		Advection:          0.2,
		Steps:              200,
		History:            model.HistoryLength,
		PushInterval:       10,
	}
}

func LoadConfig(path string) (Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("读取配置文件 %s: %w", path, err)
	}
	return loadCfg(file), nil
}

func loadCfg(file *ini.File) Config {
	d := DefaultConfig()
	section := file.Section("host")
	cfg := Config{
		Nx:                 section.Key("nx").MustInt(d.Nx),
		Ny:                 section.Key("ny").MustInt(d.Ny),
		Nz:                 section.Key("nz").MustInt(d.Nz),
		Dz:                 section.Key("dz").MustFloat64(d.Dz),
		CavityColumns:      section.Key("cavity_columns").MustInt(d.CavityColumns),
		IceDraft:           section.Key("ice_draft").MustInt(d.IceDraft),
		Salinity:           section.Key("salinity").MustFloat64(d.Salinity),
		InitialTemperature: section.Key("initial_temperature").MustFloat64(d.InitialTemperature),
		PlumeTemperature:   section.Key("plume_temperature").MustFloat64(d.PlumeTemperature),
		Relaxation:         section.Key("relaxation").MustFloat64(d.Relaxation),
		Advection:          section.Key("advection").MustFloat64(d.Advection),
		Steps:              section.Key("steps").MustInt(d.Steps),
		History:            section.Key("history").MustInt(d.History),
		PushInterval:       section.Key("push_interval").MustInt(d.PushInterval),
	}
	log.WithFields(log.Fields{
		"nx":            cfg.Nx,
		"ny":            cfg.Ny,
		"nz":            cfg.Nz,
		"cavityColumns": cfg.CavityColumns,
		"iceDraft":      cfg.IceDraft,
		"plume":         cfg.PlumeTemperature,
	}).Info("读取宿主模型配置")
	return cfg
}

// 用前端下发的参数覆盖，零值不覆盖
func (c Config) WithEnv(env model.Env) Config {
	if env.Nx > 0 {
		c.Nx = env.Nx
	}
	if env.Ny > 0 {
		c.Ny = env.Ny
	}
	if env.Nz > 0 {
		c.Nz = env.Nz
	}
	if env.CavityColumns > 0 {
		c.CavityColumns = env.CavityColumns
	}
	if env.IceDraft > 0 {
		c.IceDraft = env.IceDraft
	}
	if env.PlumeTemperature != 0 {
		c.PlumeTemperature = env.PlumeTemperature
	}
	if env.Relaxation > 0 {
		c.Relaxation = env.Relaxation
	}
	if env.Steps != 0 {
		c.Steps = env.Steps
	}
	return c
}

func (c Config) Validate() error {
	if c.Nx < 1 || c.Ny < 1 || c.Nz < 1 {
		return fmt.Errorf("host: grid %dx%dx%d is empty", c.Nx, c.Ny, c.Nz)
	}
	if c.Dz <= 0 {
		return fmt.Errorf("host: layer thickness %g must be positive", c.Dz)
	}
	if c.Relaxation < 0 || c.Relaxation > 1 || c.Advection < 0 || c.Advection > 1 {
		return fmt.Errorf("host: relaxation %g and advection %g must be within [0, 1]", c.Relaxation, c.Advection)
	}
	return nil
}
