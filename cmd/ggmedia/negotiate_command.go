package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gogpu/ggmedia/resolution"
)

func newNegotiateCommand(ctx *commandContext) *cobra.Command {
	var in resolution.Input

	cmd := &cobra.Command{
		Use:   "negotiate",
		Short: "Compute the decode resolution of a source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max") {
				in.MaxDecodeResolution = decodeCap(cfg.Device.MaxDecodeResolution, cfg.Device.WindowHeight, cfg.Device.PixelRatio)
			}

			plan, err := resolution.Negotiate(in)
			if err != nil {
				return err
			}

			display := "-"
			if plan.DisplayScale > 0 {
				display = strconv.FormatFloat(plan.DisplayScale, 'g', 4, 64)
			}
			rows := [][]string{
				{"Source", fmt.Sprintf("%dx%d", in.SourceWidth, in.SourceHeight)},
				{"Cap", strconv.Itoa(in.MaxDecodeResolution)},
				{"Target", fmt.Sprintf("%dx%d", plan.TargetWidth, plan.TargetHeight)},
				{"Rotation", strconv.Itoa(plan.Rotation)},
				{"Video scale", strconv.FormatFloat(plan.VideoScale, 'g', 4, 64)},
				{"Display scale", display},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&in.SourceWidth, "width", 0, "Source width")
	fl.IntVar(&in.SourceHeight, "height", 0, "Source height")
	fl.Float64Var(&in.Rotation, "rotation", 0, "Source rotation in degrees")
	fl.IntVar(&in.MaxDecodeResolution, "max", 0, "Decode cap, defaults to the device configuration")
	fl.IntVar(&in.DisplayWidth, "display-width", 0, "Display width in physical pixels")
	fl.IntVar(&in.DisplayHeight, "display-height", 0, "Display height in physical pixels")
	return cmd
}

// decodeCap mirrors the preview's cap selection for a configured device.
func decodeCap(explicit, windowHeight int, pixelRatio float64) int {
	if explicit > 0 {
		return explicit
	}
	if windowHeight > 0 {
		return resolution.DisplayDecoderCap(float64(windowHeight), pixelRatio)
	}
	return resolution.ExportDecoderCap
}
