package main

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/gogpu/ggmedia"
	"github.com/gogpu/ggmedia/clock"
	"github.com/gogpu/ggmedia/metrics"
	"github.com/gogpu/ggmedia/picture/raster"
)

// playStats counts loop activity for the summary and forwards it to the
// process metrics.
type playStats struct {
	next     *metrics.Metrics
	composed atomic.Int64
	reused   atomic.Int64
	failed   atomic.Int64
}

func (s *playStats) FrameComposed(d time.Duration) {
	s.composed.Add(1)
	s.next.FrameComposed(d)
}

func (s *playStats) FrameReused() {
	s.reused.Add(1)
	s.next.FrameReused()
}

func (s *playStats) DecodeFailed(err error) {
	s.failed.Add(1)
	s.next.DecodeFailed(err)
}

func (s *playStats) SessionStarted() { s.next.SessionStarted() }
func (s *playStats) SessionEnded()   { s.next.SessionEnded() }

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  propFlags
		frames int
		dump   string
	)

	cmd := &cobra.Command{
		Use:   "play URI",
		Short: "Play a preview in real time and print frame statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if frames <= 0 {
				return fmt.Errorf("--frames must be positive, got %d", frames)
			}
			rt := newRuntime(cfg)
			props, err := flags.props(cfg, rt.gifs.FS, args[0])
			if err != nil {
				return err
			}

			var position, duration atomic.Int64
			failed := make(chan error, 1)
			props.OnProgress = func(current, total time.Duration) {
				position.Store(int64(current))
				duration.Store(int64(total))
			}
			props.OnLoadingError = func(err error) {
				select {
				case failed <- err:
				default:
				}
			}

			stats := &playStats{next: rt.metrics}
			clk := clock.NewTicker(cfg.Preview.FPS)
			pv := ggmedia.New(rt.options(clk, ggmedia.WithObserver(stats))...)

			var bar *progressbar.ProgressBar
			if isTerminal(cmd.ErrOrStderr()) {
				bar = progressbar.NewOptions(frames,
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription(args[0]),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}

			var ticks atomic.Int64
			done := make(chan struct{})
			unsubscribe := clk.Subscribe(func(time.Duration) {
				n := ticks.Add(1)
				if n > int64(frames) {
					return
				}
				if bar != nil {
					_ = bar.Add(1)
				}
				if n == int64(frames) {
					close(done)
				}
			})
			defer unsubscribe()

			started := time.Now()
			if err := pv.Mount(props); err != nil {
				return err
			}
			defer pv.Unmount()

			select {
			case <-done:
			case err := <-failed:
				return err
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
			elapsed := time.Since(started)
			if bar != nil {
				_ = bar.Finish()
			}

			if dump != "" {
				if pic := pv.Picture(); pic != nil {
					img, err := rasterize(pic, raster.Name)
					if err != nil {
						return err
					}
					if err := writePNG(dump, img); err != nil {
						return err
					}
				}
			}

			cache := rt.assets.Stats()
			rows := [][]string{
				{"Ticks", strconv.FormatInt(min(ticks.Load(), int64(frames)), 10)},
				{"Composed", strconv.FormatInt(stats.composed.Load(), 10)},
				{"Reused", strconv.FormatInt(stats.reused.Load(), 10)},
				{"Decode failures", strconv.FormatInt(stats.failed.Load(), 10)},
				{"Position", time.Duration(position.Load()).String()},
				{"Duration", time.Duration(duration.Load()).String()},
				{"Playback", pv.Playback().String()},
				{"Readiness", pv.State().Phase.String()},
				{"Asset cache", fmt.Sprintf("%d/%d hits (%.0f%%), %d evicted", cache.Hits, cache.Hits+cache.Misses, cache.HitRate()*100, cache.Evictions)},
				{"Elapsed", elapsed.Round(time.Millisecond).String()},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Stat", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	flags.register(cmd, "video")
	cmd.Flags().IntVar(&frames, "frames", 120, "Clock ticks to play")
	cmd.Flags().StringVar(&dump, "dump", "", "Write the last frame to this PNG file")
	return cmd
}
