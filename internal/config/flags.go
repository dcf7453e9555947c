package config

import (
	"flag"
	"strings"
)

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagWidth   = flag.Int("width", 0, "Thumbnail width")
	flagHeight  = flag.Int("height", 0, "Thumbnail height")
	flagOut     = flag.String("out", "", "Output directory")
	flagGRF     = flag.String("grf", "", "Comma-separated GRF archives, replacing data.grf_paths")
	flagDir     = flag.String("dir", "", "Comma-separated data directories, replacing data.dirs")
	flagOrder   = flag.String("order", "", "Queue order: lifo or fifo")
	flagMetrics = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	flagSave    = flag.Bool("save-config", false, "Write the effective config to the user config directory and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Thumbnail.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Thumbnail.Height = *flagHeight
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagGRF != "" {
		cfg.Data.GRFPaths = splitList(*flagGRF)
	}
	if *flagDir != "" {
		cfg.Data.Dirs = splitList(*flagDir)
	}
	if *flagOrder != "" {
		cfg.Thumbnail.QueueOrder = *flagOrder
	}
	if *flagMetrics != "" {
		cfg.Metrics.Addr = *flagMetrics
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
