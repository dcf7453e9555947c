// thumbgen renders thumbnails of Ragnarok Online models.
//
// Usage:
//
//	thumbgen [flags] ref...
//
// A ref is static:<model>, skeletal:<model>[@ms], collection:<manifest.yaml>,
// or a bare .rsm or .yaml path. One PNG per ref is written to the output
// directory and its path printed on stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-thumbnails/internal/asset"
	"github.com/Faultbox/midgard-thumbnails/internal/config"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/lighting"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/preview"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/renderer"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/ticker"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/window"
	"github.com/Faultbox/midgard-thumbnails/internal/logger"
	"github.com/Faultbox/midgard-thumbnails/internal/output"
	"github.com/Faultbox/midgard-thumbnails/internal/thumbnail"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	if config.SaveRequested() {
		path, err := cfg.Save()
		if err != nil {
			logger.Log.Error("saving config", zap.Error(err))
			logger.Close()
			os.Exit(1)
		}
		logger.Log.Info("config saved", zap.String("path", path))
		logger.Close()
		return
	}

	refs := config.Args()
	if len(refs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: thumbgen [flags] ref...")
		logger.Close()
		os.Exit(2)
	}

	failed, err := run(cfg, refs)
	if err != nil {
		logger.Log.Error("thumbgen failed", zap.Error(err))
	}
	logger.Close()
	if err != nil || failed > 0 {
		os.Exit(1)
	}
}

type job struct {
	ref   asset.Ref
	asset asset.Asset
}

// run renders every ref and returns how many could not be produced.
func run(cfg *config.Config, refs []string) (failed int, err error) {
	log := logger.Named("thumbgen")

	src, closeSources, err := asset.OpenSources(cfg.Data.Dirs, cfg.Data.GRFPaths)
	if err != nil {
		return 0, err
	}
	defer closeSources()

	loader := asset.NewLoader(src, asset.LoaderOptions{
		ForceTwoSided: cfg.Render.ForceTwoSided,
		Logger:        logger.Log,
	})

	var jobs []job
	for _, s := range refs {
		ref, err := asset.ParseRef(s)
		if err != nil {
			log.Error("skipping ref", zap.String("ref", s), zap.Error(err))
			failed++
			continue
		}
		a, err := loader.LoadRef(ref)
		if err != nil {
			log.Error("loading asset", zap.String("ref", s), zap.Error(err))
			failed++
			continue
		}
		jobs = append(jobs, job{ref: ref, asset: a})
	}
	if len(jobs) == 0 {
		return failed, errors.New("no assets to render")
	}

	win, err := window.New(window.Config{
		Title:  "thumbgen",
		Width:  cfg.Thumbnail.Width,
		Height: cfg.Thumbnail.Height,
		Hidden: true,
		Logger: logger.Log,
	})
	if err != nil {
		return failed, fmt.Errorf("creating window: %w", err)
	}
	defer win.Close()

	if err := renderer.Init(logger.Log); err != nil {
		return failed, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := thumbnail.NewMetrics(reg)
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg, log)
		defer srv.Close()
	}

	order, err := thumbnail.ParseOrder(cfg.Thumbnail.QueueOrder)
	if err != nil {
		return failed, err
	}
	svc := thumbnail.New(sceneFactory(cfg), thumbnail.Options{
		SettleFrames: cfg.Thumbnail.SettleFrames,
		IdleTimeout:  cfg.IdleTimeoutSeconds(),
		Order:        order,
		Logger:       logger.Log,
		Metrics:      metrics,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tk := ticker.New()
	tk.Add(func(float64) bool {
		if win.PumpEvents() {
			cancel()
		}
		return true
	})
	if err := svc.Start(tk); err != nil {
		return failed, err
	}
	defer svc.Stop()

	out := output.NewWriter(cfg.Output.Dir)
	remaining, rendered := 0, 0
	for _, j := range jobs {
		name := j.ref.OutputName()
		_, err := svc.Submit(j.asset, func(img *image.RGBA) {
			remaining--
			path, err := out.Write(name, img)
			if err != nil {
				log.Error("writing thumbnail", zap.String("ref", j.ref.String()), zap.Error(err))
				failed++
				return
			}
			rendered++
			fmt.Println(path)
		}, thumbnail.WithSize(cfg.Thumbnail.Width, cfg.Thumbnail.Height))
		if err != nil {
			log.Error("submitting", zap.String("ref", j.ref.String()), zap.Error(err))
			failed++
			continue
		}
		remaining++
	}

	start := time.Now()
	err = tk.Run(ctx, cfg.TickInterval(), func() bool { return remaining == 0 })
	if err != nil {
		failed += remaining
		return failed, fmt.Errorf("interrupted with %d thumbnails pending: %w", remaining, err)
	}

	log.Info("done",
		zap.Int("rendered", rendered),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return failed, nil
}

// sceneFactory builds preview scenes backed by an offscreen GL target.
func sceneFactory(cfg *config.Config) thumbnail.SceneFactory {
	rig := lighting.DefaultRig()
	rig.Sun.Intensity = cfg.Render.SunIntensity
	rig.Sky.Intensity = cfg.Render.SkyIntensity
	size := cfg.Thumbnail.InitialTargetSize

	return func() (thumbnail.Scene, error) {
		backend, err := renderer.NewOffscreen(renderer.OffscreenOptions{
			Width:      size,
			Height:     size,
			ClearColor: cfg.Render.ClearColor,
			Logger:     logger.Log,
		})
		if err != nil {
			return nil, err
		}
		return preview.New(backend, preview.Options{
			Width:  size,
			Height: size,
			FOV:    cfg.Render.FOV,
			Rig:    rig,
			Logger: logger.Log,
		}), nil
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return srv
}
