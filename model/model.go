package model

import "time"

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// 前端下发的宿主模型参数
type Env struct {
	Nx               int     `json:"nx"`
	Ny               int     `json:"ny"`
	Nz               int     `json:"nz"`
	CavityColumns    int     `json:"cavity_columns"`    // 西侧冰架空腔的列数
	IceDraft         int     `json:"ice_draft"`         // 冰架吃水层数
	PlumeTemperature float64 `json:"plume_temperature"` // 冰架水羽流温度
	Relaxation       float64 `json:"relaxation"`        // 每步向羽流温度的松弛系数
	Steps            int     `json:"steps"`
}

// 每个时间步的热量收支，宿主模型用于守恒记账
type Budget struct {
	Step          int           `json:"step"`
	Strategy      string        `json:"strategy"`
	Supercooled   int           `json:"supercooled"`    // 过冷网格数
	Corrected     int           `json:"corrected"`      // 被修正的网格数
	Removed       float64       `json:"removed"`        // 从过冷网格移除的温度亏损之和
	Redistributed float64       `json:"redistributed"`  // 转移到表层的部分
	Discarded     float64       `json:"discarded"`      // 直接丢弃的部分
	Ignored       float64       `json:"ignored"`        // 冰架空腔内保留的过冷
	SurfaceFrazil float64       `json:"surface_frazil"` // 表层留给海冰的过冷
	Heat          float64       `json:"heat"`           // J
	Duration      time.Duration `json:"duration"`
}

// 表层切片推送结构
type SurfaceSlice struct {
	Step         int         `json:"step"`
	Temperature  [][]float64 `json:"temperature"`
	Supercooling [][]float64 `json:"supercooling"`
	Cavity       [][]bool    `json:"cavity"`
}
