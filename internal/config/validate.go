package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"strconv"
	"strings"
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Device.MaxDecodeResolution < 0:
		return errors.New("device.max_decode_resolution must not be negative")
	case c.Device.WindowHeight <= 0:
		return errors.New("device.window_height must be positive")
	case c.Device.PixelRatio <= 0:
		return errors.New("device.pixel_ratio must be positive")
	case c.Preview.FPS <= 0 || c.Preview.FPS > 240:
		return fmt.Errorf("preview.fps %v out of range (0, 240]", c.Preview.FPS)
	case c.Preview.StallTicks <= 0:
		return errors.New("preview.stall_ticks must be positive")
	case c.Assets.CacheEntries < 0:
		return errors.New("assets.cache_entries must not be negative")
	}
	if _, err := ParseColor(c.Preview.BackgroundColor); err != nil {
		return fmt.Errorf("preview.background_color: %w", err)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be auto, text or json", c.Logging.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (l Logging) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}

// ParseColor parses #rgb, #rrggbb and #rrggbbaa colours.
// The empty string and "transparent" are fully transparent.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "transparent" {
		return color.NRGBA{}, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("colour %q must start with #", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("colour %q has %d digits", s, len(hex))
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
