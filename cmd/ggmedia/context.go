package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/gogpu/ggmedia"
	"github.com/gogpu/ggmedia/asset"
	"github.com/gogpu/ggmedia/clock"
	"github.com/gogpu/ggmedia/extractor/gifsource"
	"github.com/gogpu/ggmedia/internal/config"
	"github.com/gogpu/ggmedia/lut"
	"github.com/gogpu/ggmedia/metrics"
)

type commandContext struct {
	configFlag *string
	levelFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, levelFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		levelFlag:  levelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := config.LoadDotEnv(); err != nil {
			c.configErr = err
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.levelFlag != nil && *c.levelFlag != "" {
			cfg.Logging.Level = *c.levelFlag
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) setupLogging(w io.Writer) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(w, cfg.Logging)
	if err != nil {
		return err
	}
	ggmedia.SetLogger(logger)
	return nil
}

// newLogger builds the process logger. The auto format is text on a
// terminal and JSON otherwise.
func newLogger(w io.Writer, cfg config.Logging) (*slog.Logger, error) {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	format := cfg.Format
	if format == "auto" {
		format = "json"
		if isTerminal(w) {
			format = "text"
		}
	}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// runtime holds the collaborators shared by the previews of a command.
type runtime struct {
	cfg     *config.Config
	assets  *asset.Cache
	luts    *lut.Cache
	gifs    *gifsource.Source
	metrics *metrics.Metrics
}

func newRuntime(cfg *config.Config) *runtime {
	m := metrics.New()
	assets := asset.Cached(asset.Dir(cfg.Assets.Dir), cfg.Assets.CacheEntries)
	return &runtime{
		cfg:     cfg,
		assets:  assets,
		luts:    lut.NewCache(lut.FromImages(assets), lut.WithObserver(m.LUTObserver())),
		gifs:    &gifsource.Source{FS: os.DirFS(cfg.Assets.Dir)},
		metrics: m,
	}
}

func (r *runtime) options(clk clock.FrameClock, extra ...ggmedia.Option) []ggmedia.Option {
	d := r.cfg.Device
	opts := []ggmedia.Option{
		ggmedia.WithClock(clk),
		ggmedia.WithAssets(r.assets),
		ggmedia.WithLUTCache(r.luts),
		ggmedia.WithExtractorFactory(r.gifs),
		ggmedia.WithFrameGrabber(r.gifs),
		ggmedia.WithDisplay(float64(d.WindowHeight)),
		ggmedia.WithPixelRatio(d.PixelRatio),
		ggmedia.WithLoopPolicy(r.cfg.Preview.Loop),
		ggmedia.WithStallTicks(r.cfg.Preview.StallTicks),
		ggmedia.WithObserver(r.metrics),
	}
	if d.MaxDecodeResolution > 0 {
		opts = append(opts, ggmedia.WithMaxDecodeResolution(d.MaxDecodeResolution))
	}
	return append(opts, extra...)
}
