package server

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"frazil/frazil"
	"frazil/host"
	"frazil/model"
)

// 消息类型
const (
	TypeEnv   = "env"
	TypeStart = "start"
	TypeStop  = "stop"

	TypeEnvSet  = "envSet"
	TypeStarted = "started"
	TypeStopped = "stopped"
	TypeBudget  = "budget"
	TypeError   = "error"
)

// 每次推送附带的最近步数
const RecentSteps = 10

// 推送给前端的计算结果
type PushData struct {
	Budget  model.Budget        `json:"budget"`
	Recent  []model.Budget      `json:"recent"`
	Total   model.Budget        `json:"total"`
	Surface *model.SurfaceSlice `json:"surface"`
}

// Hub 对应一个 websocket 连接，管理该连接上的宿主模型
type Hub struct {
	id      uuid.UUID
	conn    *websocket.Conn
	cfg     host.Config
	options frazil.Options

	// request
	msg chan model.Msg
	// response，只有 handleResponse 写连接
	reply chan model.Msg
	done  chan struct{}
	wg    sync.WaitGroup

	host     *host.Host
	finished chan struct{} // 当前计算结束后关闭
}

func NewHub(conn *websocket.Conn, cfg host.Config, options frazil.Options) *Hub {
	return &Hub{
		id:      uuid.New(),
		conn:    conn,
		cfg:     cfg,
		options: options,
		msg:     make(chan model.Msg, 10),
		reply:   make(chan model.Msg, 10),
		done:    make(chan struct{}),
	}
}

func (h *Hub) start() {
	log.WithField("session", h.id).Info("新连接")
	h.wg.Add(2)
	go h.handleRequest()
	go h.handleResponse()
}

// 断开连接，等待所有 goroutine 退出
func (h *Hub) close() {
	close(h.done)
	h.wg.Wait()
	log.WithField("session", h.id).Info("连接关闭")
}

func (h *Hub) send(msg model.Msg) {
	select {
	case h.reply <- msg:
	case <-h.done:
	}
}

func (h *Hub) handleResponse() {
	defer h.wg.Done()
	for {
		select {
		case reply := <-h.reply:
			if err := h.conn.WriteJSON(&reply); err != nil {
				log.WithField("session", h.id).WithError(err).Error("发送消息失败")
			}
		case <-h.done:
			return
		}
	}
}

func (h *Hub) handleRequest() {
	defer h.wg.Done()
	for {
		select {
		case msg := <-h.msg:
			h.dispatch(msg)
		case <-h.done:
			h.stopHost()
			return
		}
	}
}

func (h *Hub) dispatch(msg model.Msg) {
	logger := log.WithFields(log.Fields{
		"session": h.id,
		"type":    msg.Type,
	})
	logger.Debug("收到消息")
	switch msg.Type {
	case TypeEnv:
		var env model.Env
		if err := json.Unmarshal([]byte(msg.Content), &env); err != nil {
			h.send(model.Msg{Type: TypeError, Content: err.Error()})
			return
		}
		cfg := h.cfg.WithEnv(env)
		if err := cfg.Validate(); err != nil {
			h.send(model.Msg{Type: TypeError, Content: err.Error()})
			return
		}
		h.cfg = cfg
		h.send(model.Msg{Type: TypeEnvSet, Content: "env is set"})
	case TypeStart:
		if h.running() {
			h.send(model.Msg{Type: TypeError, Content: "already running"})
			return
		}
		hst, err := host.NewHost(h.cfg, h.options)
		if err != nil {
			logger.WithError(err).Error("创建宿主模型失败")
			h.send(model.Msg{Type: TypeError, Content: err.Error()})
			return
		}
		h.host = hst
		h.finished = make(chan struct{})
		h.wg.Add(1)
		go h.run(hst, h.finished)
		h.send(model.Msg{Type: TypeStarted, Content: hst.Corrector().Strategy().String()})
	case TypeStop:
		if h.host == nil {
			h.send(model.Msg{Type: TypeStopped, Content: "not running"})
			return
		}
		h.stopHost()
		h.send(model.Msg{Type: TypeStopped, Content: "stopped"})
	default:
		logger.Warn("no such type")
	}
}

// 计算自然结束时顺便释放宿主模型
func (h *Hub) running() bool {
	if h.host == nil {
		return false
	}
	select {
	case <-h.finished:
		h.stopHost()
		return false
	default:
		return true
	}
}

func (h *Hub) stopHost() {
	if h.host == nil {
		return
	}
	h.host.Hub().StopSignal()
	<-h.finished
	h.host.Close()
	h.host = nil
}

// 计算并在每个推送信号到来时发送收支
func (h *Hub) run(hst *host.Host, finished chan struct{}) {
	defer h.wg.Done()

	errc := make(chan error, 1)
	go func() {
		errc <- hst.Run()
	}()
	for {
		select {
		case <-hst.Hub().PeriodCalcResult:
			h.push(hst)
		case err := <-errc:
			close(finished)
			if err != nil {
				h.send(model.Msg{Type: TypeError, Content: err.Error()})
				return
			}
			h.push(hst)
			return
		}
	}
}

func (h *Hub) push(hst *host.Host) {
	last, ok := hst.LastBudget()
	if !ok {
		return
	}
	data, err := json.Marshal(PushData{
		Budget:  last,
		Recent:  hst.Recent(RecentSteps),
		Total:   hst.Total(),
		Surface: hst.SurfaceSlice(),
	})
	if err != nil {
		log.WithField("session", h.id).WithError(err).Error("序列化失败")
		return
	}
	h.send(model.Msg{Type: TypeBudget, Content: string(data)})
}
