package model

// 全局常量
// 1. 温度单位 ℃，盐度单位 psu，压强单位 dbar
// 2. 网格下标顺序为 [k][j][i]，k = 0 为最上层

const (
	Rho0 = 1027.0 // 参考密度 kg/m^3
	Cp   = 3974.0 // 海水比热容 J/(kg·K)

	SurfacePressure = 0.0 // 海表压强 dbar

	// 预留给 budget 历史队列的默认长度
	HistoryLength = 240
)
