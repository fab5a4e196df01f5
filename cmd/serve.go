package cmd

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"frazil/host"
	"frazil/server"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the host model over websocket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := server.LoadConfig(configFile)
		if err != nil {
			return err
		}
		hostCfg, err := host.LoadConfig(configFile)
		if err != nil {
			return err
		}
		return server.NewServer(cfg, upgrader, hostCfg, Options).Serve()
	},
}
