package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"frazil/frazil"
)

var (
	configFile string
	logLevel   string

	// 启动时读取的过冷修正配置
	Options frazil.Options
)

// RootCmd is the main command.
var RootCmd = &cobra.Command{
	Use:   "frazil",
	Short: "Supercooling correction for ocean models with ice shelf cavities.",
	Long: `Removes or redistributes spurious supercooling before the host model
forms sea ice from it. The correction strategy is chosen in the configuration file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return Startup(configFile, logLevel)
	},
}

// Startup 设置日志级别并读取配置，配置错误时不运行任何时间步
func Startup(configFile, logLevel string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	Options, err = frazil.LoadOptions(configFile)
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	return nil
}

func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "./conf/frazil.ini", "configuration file location")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}
