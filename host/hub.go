package host

import (
	"sync"
)

type Hub struct {
	// 停止计算
	Stop     chan struct{}
	stopOnce sync.Once
	// 周期性推送信号
	PeriodCalcResult chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		Stop:             make(chan struct{}),
		PeriodCalcResult: make(chan struct{}, 1),
	}
}

// 没有消费者时丢弃信号，不阻塞计算
func (h *Hub) PushSignal() {
	select {
	case h.PeriodCalcResult <- struct{}{}:
	default:
	}
}

func (h *Hub) StopSignal() {
	h.stopOnce.Do(func() {
		close(h.Stop)
	})
}

func (h *Hub) Stopped() bool {
	select {
	case <-h.Stop:
		return true
	default:
		return false
	}
}
