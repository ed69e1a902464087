package config

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device: Device{
			WindowHeight: 1920,
			PixelRatio:   1,
		},
		Preview: Preview{
			FPS:             60,
			Loop:            true,
			StallTicks:      30,
			BackgroundColor: "#ffffff",
		},
		Assets: Assets{
			Dir:          ".",
			CacheEntries: 64,
		},
		Logging: Logging{
			Level:  "info",
			Format: "auto",
		},
		Server: Server{
			Bind: "127.0.0.1:8088",
		},
	}
}
