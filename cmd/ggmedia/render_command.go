package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gogpu/ggmedia"
	"github.com/gogpu/ggmedia/clock"
	"github.com/gogpu/ggmedia/picture"
	"github.com/gogpu/ggmedia/picture/gpuplan"
	"github.com/gogpu/ggmedia/picture/raster"
	"github.com/gogpu/ggmedia/readiness"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		flags   propFlags
		output  string
		frames  int
		timeout time.Duration
		backend string
	)

	cmd := &cobra.Command{
		Use:   "render URI",
		Short: "Render one preview frame to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rt := newRuntime(cfg)
			props, err := flags.props(cfg, rt.gifs.FS, args[0])
			if err != nil {
				return err
			}

			clk := clock.NewManual(time.Duration(float64(time.Second) / cfg.Preview.FPS))
			pv := ggmedia.New(rt.options(clk)...)
			if err := pv.Mount(props); err != nil {
				return err
			}
			defer pv.Unmount()

			runCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := settle(runCtx, pv, clk); err != nil {
				return err
			}
			clk.Advance(frames)

			ib, err := playback(pv.Picture(), backend)
			if err != nil {
				return err
			}
			img := ib.Image()
			if output == "-" {
				return png.Encode(cmd.OutOrStdout(), img)
			}
			if err := writePNG(output, img); err != nil {
				return err
			}
			info, err := os.Stat(output)
			if err != nil {
				return err
			}
			b := img.Bounds()
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d, %s)\n", output, b.Dx(), b.Dy(), humanize.Bytes(uint64(info.Size())))
			if gp, ok := ib.(*gpuplan.Backend); ok {
				fmt.Fprintln(cmd.OutOrStdout(), planTable(gp.Plan()))
			}
			return nil
		},
	}

	flags.register(cmd, "image")
	cmd.Flags().StringVarP(&output, "output", "o", "preview.png", "Output file, - for stdout")
	cmd.Flags().IntVar(&frames, "frames", 0, "Extra frames to step after the preview is ready")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the preview")
	cmd.Flags().StringVar(&backend, "backend", raster.Name, "Playback backend: "+strings.Join(picture.Backends(), ", "))
	return cmd
}

// settle steps clk until the preview has a picture and no pending loads.
func settle(ctx context.Context, pv *ggmedia.Preview, clk *clock.Manual) error {
	poll := time.NewTicker(2 * time.Millisecond)
	defer poll.Stop()
	for {
		clk.Step()
		st := pv.State()
		switch st.Phase {
		case readiness.Error:
			return st.Err
		case readiness.Ready:
			if pv.Picture() != nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("preview not ready (%v): %w", st.Phase, ctx.Err())
		case <-poll.C:
		}
	}
}

// rasterize plays pic back on the named backend and returns the image.
func rasterize(pic *picture.Picture, backend string) (*image.RGBA, error) {
	ib, err := playback(pic, backend)
	if err != nil {
		return nil, err
	}
	return ib.Image(), nil
}

// playback plays pic back on the named backend.
func playback(pic *picture.Picture, backend string) (picture.ImageBackend, error) {
	if pic == nil {
		return nil, errors.New("no picture composed")
	}
	b, err := picture.NewBackend(backend)
	if err != nil {
		return nil, err
	}
	ib, ok := b.(picture.ImageBackend)
	if !ok {
		return nil, fmt.Errorf("backend %q does not produce images", backend)
	}
	if err := pic.Playback(ib); err != nil {
		return nil, err
	}
	return ib, nil
}

// planTable lists the GPU passes of a frame.
func planTable(plan gpuplan.Plan) string {
	rows := make([][]string, 0, len(plan.Passes)+1)
	for i, pass := range plan.Passes {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(pass.Filter),
			pass.Blend.String(),
			strconv.Itoa(len(pass.Bindings)),
			humanize.Bytes(pass.UploadBytes()),
		})
	}
	rows = append(rows, []string{
		"", "total",
		fmt.Sprintf("%d fills, %d CPU draws", plan.Fills, plan.CPUDraws),
		fmt.Sprintf("%d words", plan.Words()),
		humanize.Bytes(plan.UploadBytes()),
	})
	return renderTable(
		[]string{"Pass", "Filter", "Blend", "Bindings", "Upload"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func writePNG(path string, img image.Image) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(file, img)
}
