// Package config loads the ggmedia command configuration.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML
// file, a .env file and GGMEDIA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Device describes the display the preview is composed for.
type Device struct {
	// MaxDecodeResolution caps the larger decoded video dimension.
	// 0 derives the cap from WindowHeight and PixelRatio.
	MaxDecodeResolution int     `toml:"max_decode_resolution"`
	WindowHeight        int     `toml:"window_height"`
	PixelRatio          float64 `toml:"pixel_ratio"`
}

// Preview configures the render loop.
type Preview struct {
	FPS             float64 `toml:"fps"`
	Loop            bool    `toml:"loop"`
	StallTicks      int     `toml:"stall_ticks"`
	BackgroundColor string  `toml:"background_color"`
}

// Assets locates images and lookup tables.
type Assets struct {
	Dir          string `toml:"dir"`
	CacheEntries int    `toml:"cache_entries"`
}

// Logging selects the log handler.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Server configures the serve command.
type Server struct {
	Bind string `toml:"bind"`
}

// Config is the complete configuration.
type Config struct {
	Device  Device  `toml:"device"`
	Preview Preview `toml:"preview"`
	Assets  Assets  `toml:"assets"`
	Logging Logging `toml:"logging"`
	Server  Server  `toml:"server"`
}

// Load reads the TOML file at path over the defaults, then applies the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Encode renders cfg as TOML, for the sample written by the CLI.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
