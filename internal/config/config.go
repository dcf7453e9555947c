// Package config handles thumbnail generator configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/midgard-thumbnails/internal/thumbnail"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Thumbnail ThumbnailConfig `yaml:"thumbnail"`
	Render    RenderConfig    `yaml:"render"`
	Data      DataConfig      `yaml:"data"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ThumbnailConfig holds request queue settings.
type ThumbnailConfig struct {
	Width             int           `yaml:"width"`
	Height            int           `yaml:"height"`
	SettleFrames      int           `yaml:"settle_frames"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	QueueOrder        string        `yaml:"queue_order"` // lifo or fifo
	InitialTargetSize int           `yaml:"initial_target_size"`
}

// RenderConfig holds preview scene settings.
type RenderConfig struct {
	FOV           float32    `yaml:"fov"`
	TickRate      int        `yaml:"tick_rate"` // Ticks per second
	ClearColor    [4]float32 `yaml:"clear_color"`
	SunIntensity  float32    `yaml:"sun_intensity"`
	SkyIntensity  float32    `yaml:"sky_intensity"`
	ForceTwoSided bool       `yaml:"force_two_sided"`
}

// DataConfig holds asset source paths, searched in order.
type DataConfig struct {
	GRFPaths []string `yaml:"grf_paths"` // Paths to GRF archives
	Dirs     []string `yaml:"dirs"`      // Extracted data directories
}

// OutputConfig holds where thumbnails are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MetricsConfig holds the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Thumbnail: ThumbnailConfig{
			Width:             thumbnail.DefaultWidth,
			Height:            thumbnail.DefaultHeight,
			SettleFrames:      thumbnail.DefaultSettleFrames,
			IdleTimeout:       4 * time.Second,
			QueueOrder:        "lifo",
			InitialTargetSize: 128,
		},
		Render: RenderConfig{
			FOV:          70,
			TickRate:     60,
			SunIntensity: 5,
			SkyIntensity: 2,
		},
		Data: DataConfig{
			GRFPaths: []string{"data.grf"},
		},
		Output: OutputConfig{
			Dir: "thumbnails",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// IdleTimeoutSeconds returns the idle timeout in tick units.
func (c *Config) IdleTimeoutSeconds() float64 {
	return c.Thumbnail.IdleTimeout.Seconds()
}

// MaxTickRate is the highest accepted render.tick_rate.
const MaxTickRate = 1000

// TickInterval returns the time between ticks.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.Render.TickRate)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	t := c.Thumbnail
	if t.Width <= 0 || t.Height <= 0 {
		bad("thumbnail size %dx%d must be positive", t.Width, t.Height)
	}
	if t.SettleFrames <= 0 {
		bad("thumbnail.settle_frames %d must be positive", t.SettleFrames)
	}
	if t.IdleTimeout <= 0 {
		bad("thumbnail.idle_timeout %v must be positive", t.IdleTimeout)
	}
	if _, err := thumbnail.ParseOrder(t.QueueOrder); err != nil {
		bad("thumbnail.queue_order: %v", err)
	}
	if t.InitialTargetSize <= 0 {
		bad("thumbnail.initial_target_size %d must be positive", t.InitialTargetSize)
	}

	r := c.Render
	if r.FOV <= 0 || r.FOV >= 180 {
		bad("render.fov %v must be between 0 and 180", r.FOV)
	}
	if r.TickRate <= 0 || r.TickRate > MaxTickRate {
		bad("render.tick_rate %d must be between 1 and %d", r.TickRate, MaxTickRate)
	}
	for i, v := range r.ClearColor {
		if v < 0 || v > 1 {
			bad("render.clear_color[%d] %v must be in [0,1]", i, v)
		}
	}
	if r.SunIntensity < 0 || r.SkyIntensity < 0 {
		bad("render light intensities must not be negative")
	}

	if len(c.Data.GRFPaths) == 0 && len(c.Data.Dirs) == 0 {
		bad("data needs at least one grf_paths or dirs entry")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		bad("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}

	return errors.Join(errs...)
}
