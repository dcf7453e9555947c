package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Thumbnail.Width != 256 || cfg.Thumbnail.Height != 256 {
		t.Errorf("expected 256x256, got %dx%d", cfg.Thumbnail.Width, cfg.Thumbnail.Height)
	}
	if cfg.Thumbnail.SettleFrames != 12 {
		t.Errorf("expected 12 settle frames, got %d", cfg.Thumbnail.SettleFrames)
	}
	if cfg.Thumbnail.IdleTimeout != 4*time.Second {
		t.Errorf("expected idle timeout 4s, got %v", cfg.Thumbnail.IdleTimeout)
	}
	if cfg.Thumbnail.QueueOrder != "lifo" {
		t.Errorf("expected lifo queue order, got %s", cfg.Thumbnail.QueueOrder)
	}
	if cfg.Render.TickRate != 60 {
		t.Errorf("expected tick rate 60, got %d", cfg.Render.TickRate)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("expected metrics disabled, got %s", cfg.Metrics.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
thumbnail:
  width: 512
  height: 384
  settle_frames: 20
  idle_timeout: 10s
  queue_order: fifo

render:
  fov: 45
  clear_color: [0.1, 0.2, 0.3, 1]
  force_two_sided: true

data:
  grf_paths: ["a.grf", "b.grf"]
  dirs: ["extracted"]

output:
  dir: "out"

logging:
  level: "debug"
  log_file: "thumbgen.log"

metrics:
  addr: ":9100"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Thumbnail.Width != 512 || cfg.Thumbnail.Height != 384 {
		t.Errorf("expected 512x384, got %dx%d", cfg.Thumbnail.Width, cfg.Thumbnail.Height)
	}
	if cfg.Thumbnail.IdleTimeout != 10*time.Second {
		t.Errorf("expected idle timeout 10s, got %v", cfg.Thumbnail.IdleTimeout)
	}
	if cfg.IdleTimeoutSeconds() != 10 {
		t.Errorf("expected 10 idle seconds, got %v", cfg.IdleTimeoutSeconds())
	}
	if cfg.Thumbnail.QueueOrder != "fifo" {
		t.Errorf("expected fifo, got %s", cfg.Thumbnail.QueueOrder)
	}
	// Unset keys keep their defaults.
	if cfg.Thumbnail.InitialTargetSize != 128 {
		t.Errorf("expected default initial target size 128, got %d", cfg.Thumbnail.InitialTargetSize)
	}
	if cfg.Render.TickRate != 60 {
		t.Errorf("expected default tick rate 60, got %d", cfg.Render.TickRate)
	}
	if cfg.Render.ClearColor != [4]float32{0.1, 0.2, 0.3, 1} {
		t.Errorf("unexpected clear color %v", cfg.Render.ClearColor)
	}
	if !cfg.Render.ForceTwoSided {
		t.Error("expected force_two_sided to be true")
	}
	if len(cfg.Data.GRFPaths) != 2 || cfg.Data.Dirs[0] != "extracted" {
		t.Errorf("unexpected data config %+v", cfg.Data)
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("expected output dir 'out', got %s", cfg.Output.Dir)
	}
	if cfg.Logging.LogFile != "thumbgen.log" {
		t.Errorf("expected log file 'thumbgen.log', got %s", cfg.Logging.LogFile)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("expected metrics addr ':9100', got %s", cfg.Metrics.Addr)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	tests := map[string]string{
		"syntax":      "thumbnail:\n  width: not a number\n  invalid syntax here\n",
		"unknown key": "thumbnail:\n  widht: 64\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, strings.ReplaceAll(name, " ", "_")+".yaml")
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Errorf("empty file error = %v", err)
	}
	if cfg.Thumbnail.Width != 256 {
		t.Errorf("empty file changed defaults: width %d", cfg.Thumbnail.Width)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/thumbnails.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Thumbnail.Width = 0 }, "thumbnail size"},
		{"settle frames", func(c *Config) { c.Thumbnail.SettleFrames = -1 }, "settle_frames"},
		{"idle timeout", func(c *Config) { c.Thumbnail.IdleTimeout = 0 }, "idle_timeout"},
		{"queue order", func(c *Config) { c.Thumbnail.QueueOrder = "random" }, "queue_order"},
		{"target size", func(c *Config) { c.Thumbnail.InitialTargetSize = 0 }, "initial_target_size"},
		{"fov", func(c *Config) { c.Render.FOV = 180 }, "render.fov"},
		{"tick rate", func(c *Config) { c.Render.TickRate = 0 }, "tick_rate"},
		{"tick rate too high", func(c *Config) { c.Render.TickRate = 2_000_000_000 }, "tick_rate"},
		{"clear color", func(c *Config) { c.Render.ClearColor[3] = 2 }, "clear_color[3]"},
		{"light", func(c *Config) { c.Render.SkyIntensity = -1 }, "intensities"},
		{"no sources", func(c *Config) { c.Data.GRFPaths = nil }, "data needs"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Validate() error = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Thumbnail.Width = 0
	cfg.Render.TickRate = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "thumbnail size") || !strings.Contains(err.Error(), "tick_rate") {
		t.Errorf("Validate() = %q, want both problems", err)
	}
}

func TestTickInterval(t *testing.T) {
	cfg := Default()
	cfg.Render.TickRate = 50
	if got := cfg.TickInterval(); got != 20*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 20ms", got)
	}
}

func TestTickInterval_MaxRate(t *testing.T) {
	cfg := Default()
	cfg.Render.TickRate = MaxTickRate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := cfg.TickInterval(); got <= 0 {
		t.Errorf("TickInterval() = %v, want positive", got)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("thumbnail:\n  width: 64\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 64
				*flagHeight = 48
			},
			verify: func(cfg *Config) {
				if cfg.Thumbnail.Width != 64 || cfg.Thumbnail.Height != 48 {
					t.Errorf("expected 64x48, got %dx%d", cfg.Thumbnail.Width, cfg.Thumbnail.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "grf list flag",
			setup: func() { *flagGRF = "a.grf, b.grf,," },
			verify: func(cfg *Config) {
				if len(cfg.Data.GRFPaths) != 2 || cfg.Data.GRFPaths[1] != "b.grf" {
					t.Errorf("unexpected grf paths %v", cfg.Data.GRFPaths)
				}
			},
			teardown: func() { *flagGRF = "" },
		},
		{
			name: "output, order and metrics flags",
			setup: func() {
				*flagOut = "shots"
				*flagOrder = "fifo"
				*flagMetrics = ":9000"
				*flagDir = "data"
			},
			verify: func(cfg *Config) {
				if cfg.Output.Dir != "shots" || cfg.Thumbnail.QueueOrder != "fifo" || cfg.Metrics.Addr != ":9000" {
					t.Errorf("flags not applied: %+v", cfg)
				}
				if len(cfg.Data.Dirs) != 1 || cfg.Data.Dirs[0] != "data" {
					t.Errorf("unexpected dirs %v", cfg.Data.Dirs)
				}
			},
			teardown: func() {
				*flagOut = ""
				*flagOrder = ""
				*flagMetrics = ""
				*flagDir = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, FileName)

	yamlContent := `
thumbnail:
  width: 300
  height: 200
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagWidth = 640
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Width should be from flag, height from file.
	if cfg.Thumbnail.Width != 640 {
		t.Errorf("expected width 640 from flag, got %d", cfg.Thumbnail.Width)
	}
	if cfg.Thumbnail.Height != 200 {
		t.Errorf("expected height 200 from file, got %d", cfg.Thumbnail.Height)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(configPath, []byte("render:\n  tick_rate: -5\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Load() error = %v, want ErrInvalid", err)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.Thumbnail.Width = 100
	cfg.Thumbnail.IdleTimeout = 1500 * time.Millisecond
	cfg.Data.Dirs = []string{"x"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Thumbnail.Width != 100 || loaded.Thumbnail.IdleTimeout != 1500*time.Millisecond {
		t.Errorf("saved values lost: %+v", loaded.Thumbnail)
	}
	if len(loaded.Data.Dirs) != 1 || loaded.Data.Dirs[0] != "x" {
		t.Errorf("saved dirs lost: %v", loaded.Data.Dirs)
	}
}

func TestSave(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg := Default()
	cfg.Thumbnail.QueueOrder = "fifo"
	path, err := cfg.Save()
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if filepath.Dir(path) != ConfigDir() {
		t.Errorf("Save() wrote %s, want a file in %s", path, ConfigDir())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != FileName {
		t.Errorf("config dir holds %v, want only %s", entries, FileName)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if loaded.Thumbnail.QueueOrder != "fifo" {
		t.Errorf("QueueOrder = %q, want fifo", loaded.Thumbnail.QueueOrder)
	}
}
