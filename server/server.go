package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"frazil/frazil"
	"frazil/host"
	"frazil/model"
)

type Config struct {
	Addr string
	Path string
}

func LoadConfig(path string) (Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("读取配置文件 %s: %w", path, err)
	}
	section := file.Section("server")
	return Config{
		Addr: section.Key("addr").MustString(":9000"),
		Path: section.Key("path").MustString("/ws"),
	}, nil
}

type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
	host     host.Config
	options  frazil.Options
}

func NewServer(cfg Config, upgrader websocket.Upgrader, hostCfg host.Config, options frazil.Options) *Server {
	return &Server{
		cfg:      cfg,
		upgrader: upgrader,
		host:     hostCfg,
		options:  options,
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Error("upgrade")
		return
	}
	defer conn.Close()

	hub := NewHub(conn, s.host, s.options)
	hub.start()
	defer hub.close()
	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("session", hub.id).WithError(err).Warn("读取消息失败")
			}
			return
		}
		hub.msg <- msg
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.serveWs)
	return mux
}

func (s *Server) Serve() error {
	log.WithFields(log.Fields{
		"addr": s.cfg.Addr,
		"path": s.cfg.Path,
	}).Info("启动 websocket 服务")
	return http.ListenAndServe(s.cfg.Addr, s.Handler())
}
