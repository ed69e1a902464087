package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gogpu/ggmedia"
	"github.com/gogpu/ggmedia/edition"
	"github.com/gogpu/ggmedia/extractor"
	"github.com/gogpu/ggmedia/internal/config"
	"github.com/gogpu/ggmedia/lut"
	"github.com/gogpu/ggmedia/resolution"
)

// propFlags are the preview props shared by render, play and serve.
type propFlags struct {
	kind         string
	at           time.Duration
	start        time.Duration
	duration     time.Duration
	sourceWidth  int
	sourceHeight int
	rotation     float64

	width  float64
	height float64

	background string
	bgImage    string
	bgTint     string
	fgImage    string
	fgTint     string
	mask       string
	multiply   bool
	filter     string

	paramsFile string
	set        []string

	placeholder bool
}

func (f *propFlags) register(cmd *cobra.Command, defaultKind string) {
	fl := cmd.Flags()
	fl.StringVar(&f.kind, "kind", defaultKind, "Source kind: image, video or frame")
	fl.DurationVar(&f.at, "at", 0, "Frame position for --kind frame")
	fl.DurationVar(&f.start, "start", 0, "Video trim start")
	fl.DurationVar(&f.duration, "duration", 0, "Video trim duration, 0 for the whole clip")
	fl.IntVar(&f.sourceWidth, "source-width", 0, "Natural video width, read from the file when 0")
	fl.IntVar(&f.sourceHeight, "source-height", 0, "Natural video height, read from the file when 0")
	fl.Float64Var(&f.rotation, "rotation", 0, "Source rotation in degrees")
	fl.Float64Var(&f.width, "width", 0, "Preview width, 0 for the negotiated size")
	fl.Float64Var(&f.height, "height", 0, "Preview height, 0 for the negotiated size")
	fl.StringVar(&f.background, "background", "", "Background colour, defaults to the configured colour")
	fl.StringVar(&f.bgImage, "background-image", "", "Background overlay image")
	fl.StringVar(&f.bgTint, "background-tint", "", "Background overlay tint colour")
	fl.StringVar(&f.fgImage, "foreground-image", "", "Foreground overlay image")
	fl.StringVar(&f.fgTint, "foreground-tint", "", "Foreground overlay tint colour")
	fl.StringVar(&f.mask, "mask", "", "Mask image")
	fl.BoolVar(&f.multiply, "multiply", false, "Multiply the primary onto the background")
	fl.StringVar(&f.filter, "filter", "", "Colour grading filter id")
	fl.StringVar(&f.paramsFile, "params", "", "JSON file with edition parameters")
	fl.StringArrayVar(&f.set, "set", nil, "Edition parameter as name=value, repeatable")
	fl.BoolVar(&f.placeholder, "placeholder", false, "Show a still frame while the video loads")
}

// props builds the preview props for uri. Video sizes are read from
// fsys when not given.
func (f *propFlags) props(cfg *config.Config, fsys fs.FS, uri string) (ggmedia.Props, error) {
	var p ggmedia.Props

	src, err := f.source(fsys, uri)
	if err != nil {
		return p, err
	}
	p.Source = src

	bg := f.background
	if bg == "" {
		bg = cfg.Preview.BackgroundColor
	}
	colors := []struct {
		name  string
		value string
		dst   *color.Color
	}{
		{"background", bg, &p.BackgroundColor},
		{"background-tint", f.bgTint, &p.BackgroundImageTintColor},
		{"foreground-tint", f.fgTint, &p.ForegroundImageTintColor},
	}
	for _, c := range colors {
		if c.value == "" {
			continue
		}
		parsed, err := config.ParseColor(c.value)
		if err != nil {
			return p, fmt.Errorf("--%s: %w", c.name, err)
		}
		*c.dst = parsed
	}

	p.BackgroundImageURI = f.bgImage
	p.ForegroundImageURI = f.fgImage
	p.MaskURI = f.mask
	p.BackgroundMultiply = f.multiply
	p.Width, p.Height = f.width, f.height
	if p.Width <= 0 || p.Height <= 0 {
		p.Width, p.Height, err = naturalSize(cfg, fsys, src)
		if err != nil {
			return p, err
		}
	}
	p.VideoPreview = f.placeholder

	if f.filter != "" {
		filter, err := lut.Parse(f.filter)
		if err != nil {
			return p, fmt.Errorf("--filter: %w", err)
		}
		p.Filter = filter
	}

	params, err := f.parameters()
	if err != nil {
		return p, err
	}
	p.EditionParameters = params
	return p, nil
}

func (f *propFlags) source(fsys fs.FS, uri string) (ggmedia.Source, error) {
	switch f.kind {
	case "image":
		return ggmedia.Image(uri), nil
	case "video", "frame":
	default:
		return ggmedia.Source{}, fmt.Errorf("--kind: unknown source kind %q", f.kind)
	}

	w, h := f.sourceWidth, f.sourceHeight
	if w <= 0 || h <= 0 {
		var err error
		w, h, err = sourceSize(fsys, uri)
		if err != nil {
			return ggmedia.Source{}, err
		}
	}
	if f.kind == "frame" {
		return ggmedia.VideoFrame(uri, w, h, f.rotation, f.at), nil
	}
	return ggmedia.Video(uri, w, h, f.rotation).Trim(f.start, f.duration), nil
}

func (f *propFlags) parameters() (*edition.Parameters, error) {
	if f.paramsFile == "" && len(f.set) == 0 {
		return nil, nil
	}
	params := &edition.Parameters{}
	if f.paramsFile != "" {
		data, err := os.ReadFile(f.paramsFile)
		if err != nil {
			return nil, fmt.Errorf("read params: %w", err)
		}
		if err := json.Unmarshal(data, params); err != nil {
			return nil, fmt.Errorf("parse params %s: %w", f.paramsFile, err)
		}
	}
	for _, kv := range f.set {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("--set %q: want name=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("--set %q: %w", kv, err)
		}
		if !params.Set(edition.Name(strings.TrimSpace(name)), v) {
			return nil, fmt.Errorf("--set %q: unknown parameter", kv)
		}
	}
	return params, nil
}

// naturalSize returns the preview size, in points, that shows src at its
// negotiated decode resolution.
func naturalSize(cfg *config.Config, fsys fs.FS, src ggmedia.Source) (float64, float64, error) {
	w, h := src.Width, src.Height
	if w <= 0 || h <= 0 {
		var err error
		if w, h, err = sourceSize(fsys, src.URI); err != nil {
			return 0, 0, err
		}
	}
	d := cfg.Device
	plan, err := resolution.Negotiate(resolution.Input{
		SourceWidth:         w,
		SourceHeight:        h,
		Rotation:            src.Rotation,
		MaxDecodeResolution: decodeCap(d.MaxDecodeResolution, d.WindowHeight, d.PixelRatio),
	})
	if err != nil {
		return 0, 0, err
	}
	ratio := d.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	return float64(plan.TargetWidth) / ratio, float64(plan.TargetHeight) / ratio, nil
}

// sourceSize reads the dimensions of the file at uri without decoding it.
func sourceSize(fsys fs.FS, uri string) (int, int, error) {
	path, err := extractor.LocalPath(uri)
	if err != nil {
		return 0, 0, err
	}
	file, err := fsys.Open(strings.TrimPrefix(filepath.ToSlash(path), "/"))
	if err != nil {
		return 0, 0, fmt.Errorf("read size of %s: %w", uri, err)
	}
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("read size of %s: %w", uri, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return 0, 0, fmt.Errorf("read size of %s: empty frame", uri)
	}
	return cfg.Width, cfg.Height, nil
}
