package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"frazil/frazil"
	"frazil/model"
	"frazil/ncio"
)

func init() {
	RootCmd.AddCommand(correctCmd)
}

var correctCmd = &cobra.Command{
	Use:   "correct <input.nc> <output.nc>",
	Short: "Correct the supercooling of one NetCDF timestep",
	Long: "Reads temperature, salinity, optional pressure and the ice shelf mask from the input file, " +
		"applies the configured strategy and writes the corrected field, the supercooling before " +
		"correction and the per column diagnostics to the output file.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Correct(args[0], args[1])
	},
}

func Correct(input, output string) error {
	start := time.Now()
	ds, err := ncio.ReadFile(input)
	if err != nil {
		return err
	}
	// 修正前的过冷场在同一遍计算中记录
	o := Options
	o.RecordSupercooling = true
	c, err := frazil.NewCorrector(ds.Grid, o)
	if err != nil {
		return err
	}
	defer c.Close()

	diag, err := c.Correct(ds.State)
	if err != nil {
		return err
	}
	if err := ncio.WriteFile(output, ds, diag.Supercooling, diag); err != nil {
		return err
	}

	col, max := diag.MaxColumn()
	log.WithFields(log.Fields{
		"strategy":      diag.Strategy,
		"supercooled":   diag.Supercooled,
		"corrected":     diag.Corrected,
		"removed":       diag.Removed,
		"ignored":       diag.Ignored,
		"surfaceFrazil": diag.SurfaceFrazil,
		"heat":          diag.Heat(model.Rho0, model.Cp),
		"maxColumn":     col,
		"maxColumnSum":  max,
		"cost":          time.Since(start),
	}).Info("修正完成")
	return nil
}
