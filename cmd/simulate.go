package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"frazil/host"
)

var steps int

func init() {
	RootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVar(&steps, "steps", 0, "number of host timesteps, overrides the configuration file when > 0")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the demonstration host model with the configured correction",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := host.LoadConfig(configFile)
		if err != nil {
			return err
		}
		if steps > 0 {
			cfg.Steps = steps
		}
		_, err = Simulate(cfg)
		return err
	},
}

// 跑完所有时间步，返回累计收支
func Simulate(cfg host.Config) (*host.Host, error) {
	h, err := host.NewHost(cfg, Options)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	if err := h.Run(); err != nil {
		return nil, err
	}
	total := h.Total()
	log.WithFields(log.Fields{
		"steps":         total.Step,
		"strategy":      total.Strategy,
		"removed":       total.Removed,
		"redistributed": total.Redistributed,
		"discarded":     total.Discarded,
		"ignored":       total.Ignored,
		"surfaceFrazil": total.SurfaceFrazil,
		"heat":          total.Heat,
	}).Info("累计过冷收支")
	return h, nil
}
