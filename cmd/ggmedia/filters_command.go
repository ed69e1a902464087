package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/ggmedia/lut"
)

func newFiltersCommand(ctx *commandContext) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "List the colour grading filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			headers := []string{"#", "ID", "Label", "Asset"}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}
			var luts *lut.Cache
			if check {
				luts = newRuntime(cfg).luts
				luts.Preload(cmd.Context())
				headers = append(headers, "Status", "Program")
				aligns = append(aligns, alignLeft, alignLeft)
			}

			rows := make([][]string, 0, len(lut.Filters()))
			for i, f := range lut.Filters() {
				row := []string{strconv.Itoa(i + 1), string(f), f.Label(), f.AssetPath()}
				if luts != nil {
					status, program := color.RedString("missing"), "-"
					if s, ok := luts.Lookup(f); ok {
						status, program = color.GreenString("ok"), programSummary(s.Program())
					}
					row = append(row, status, program)
				}
				rows = append(rows, row)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Load every lookup table from the assets directory")
	return cmd
}

// programSummary describes the GPU program a filter grades with.
func programSummary(p *lut.Program) string {
	if p == nil {
		return "cpu only"
	}
	return fmt.Sprintf("spirv %d words, %d bindings, lut %dx%d",
		len(p.SPIRV), len(p.Layout), p.Texture.Width, p.Texture.Height)
}
