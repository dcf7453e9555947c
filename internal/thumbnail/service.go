// Package thumbnail renders assets to images one at a time through a
// shared offscreen preview scene.
//
// Requests wait in a queue. On each tick the Service advances the current
// request by one step of its state machine (Init, Processing, Completed)
// and the scene by one frame. The scene is created on demand and torn down
// after an idle period.
package thumbnail

import (
	"errors"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-thumbnails/internal/asset"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/camera"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/preview"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/ticker"
)

const (
	DefaultWidth        = 256
	DefaultHeight       = 256
	DefaultSettleFrames = 12
	// DefaultIdleTimeout is in the same unit as the tick delta (seconds).
	DefaultIdleTimeout = 4.0
)

var (
	ErrNilAsset       = errors.New("thumbnail: nil asset")
	ErrInvalidSize    = errors.New("thumbnail: width and height must be positive")
	ErrNotStarted     = errors.New("thumbnail: service not started")
	ErrAlreadyStarted = errors.New("thumbnail: service already started")
)

// Scene is the preview scene the Service renders into. *preview.Scene
// implements it.
type Scene interface {
	Bind(a asset.Asset)
	Resize(width, height int)
	Size() (width, height int)
	MarkRenderDirty(frames int)
	MarkLightingDirty(frames int)
	SetProjection(p camera.Projection)
	AdvanceFrame(dt float64)
	ExtractTexture() *image.RGBA
	Teardown()
}

var _ Scene = (*preview.Scene)(nil)

// SceneFactory creates a scene. It is called on the ticking goroutine.
type SceneFactory func() (Scene, error)

// Scheduler is the host's per-frame callback facility. *ticker.Ticker
// implements it.
type Scheduler interface {
	Add(fn ticker.Func) ticker.Handle
	Remove(h ticker.Handle)
}

var _ Scheduler = (*ticker.Ticker)(nil)

// Options configures a Service.
type Options struct {
	// SettleFrames is the number of ticks a request spends in Processing.
	SettleFrames int
	// IdleTimeout is how much tick time may pass with nothing to do before
	// the scene is torn down.
	IdleTimeout float64
	Order       Order
	// DirtyFrames is passed to the scene's dirty counters on Init.
	DirtyFrames int

	Logger  *zap.Logger
	Metrics *Metrics
	// Now is used for latency metrics. Defaults to time.Now.
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.SettleFrames <= 0 {
		o.SettleFrames = DefaultSettleFrames
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.DirtyFrames <= 0 {
		o.DirtyFrames = preview.DefaultDirtyFrames
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics(nil)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Service owns the request queue and the preview scene. It is not safe for
// concurrent use: Submit, Tick and Stop must be called from the goroutine
// that owns the graphics context.
type Service struct {
	opts    Options
	log     *zap.Logger
	metrics *Metrics
	factory SceneFactory

	sched   Scheduler
	handle  ticker.Handle
	started bool

	queue   queue
	current *request
	scene   Scene
	running bool
	idle    float64
}

// New creates a stopped Service.
func New(factory SceneFactory, opts Options) *Service {
	opts.setDefaults()
	return &Service{
		opts:    opts,
		log:     opts.Logger.Named("thumbnail"),
		metrics: opts.Metrics,
		factory: factory,
		queue:   queue{order: opts.Order},
	}
}

// Start registers the Service with sched.
func (s *Service) Start(sched Scheduler) error {
	if s.started {
		return ErrAlreadyStarted
	}
	s.sched = sched
	s.handle = sched.Add(s.Tick)
	s.started = true

	s.log.Info("thumbnail service started",
		zap.Stringer("order", s.opts.Order),
		zap.Int("settle_frames", s.opts.SettleFrames),
		zap.Float64("idle_timeout", s.opts.IdleTimeout),
	)
	return nil
}

// Stop deregisters the Service and tears the scene down. Waiting requests
// are dropped without their callbacks being called.
func (s *Service) Stop() {
	if !s.started {
		return
	}
	s.sched.Remove(s.handle)
	s.sched = nil
	s.started = false

	dropped := len(s.queue.clear())
	if s.current != nil {
		dropped++
		s.current = nil
	}
	s.metrics.QueueDepth.Set(0)
	s.destroyScene()
	s.running = false
	s.idle = 0

	s.log.Info("thumbnail service stopped", zap.Int("dropped", dropped))
}

// Submit queues a thumbnail of a. onComplete is called once, from Tick,
// with an image of the requested size. The default size is 256x256.
func (s *Service) Submit(a asset.Asset, onComplete func(*image.RGBA), opts ...SubmitOption) (*Handle, error) {
	if asset.IsNil(a) {
		s.metrics.Rejected.WithLabelValues(reasonNilAsset).Inc()
		return nil, ErrNilAsset
	}
	if !s.started {
		s.metrics.Rejected.WithLabelValues(reasonNotStarted).Inc()
		return nil, ErrNotStarted
	}

	req := &request{
		id:         uuid.New(),
		asset:      a,
		width:      DefaultWidth,
		height:     DefaultHeight,
		onComplete: onComplete,
		state:      StateInit,
		submitted:  s.opts.Now(),
	}
	for _, opt := range opts {
		opt(req)
	}
	if req.width <= 0 || req.height <= 0 {
		s.metrics.Rejected.WithLabelValues(reasonInvalidSize).Inc()
		return nil, ErrInvalidSize
	}

	s.queue.push(req)
	s.running = true

	s.metrics.Submitted.WithLabelValues(a.Kind().String()).Inc()
	s.metrics.QueueDepth.Set(float64(s.queue.len()))
	s.log.Debug("request queued",
		zap.Stringer("id", req.id),
		zap.String("asset", a.Name()),
		zap.Stringer("kind", a.Kind()),
		zap.Int("width", req.width),
		zap.Int("height", req.height),
	)

	return &Handle{req: req}, nil
}

// Tick advances the Service by one step. dt is the time since the last
// tick. It always returns true so the Service stays registered.
func (s *Service) Tick(dt float64) bool {
	if !s.running {
		return true
	}

	if s.scene == nil {
		if !s.createScene() {
			return true
		}
	}

	if s.current == nil {
		req, ok := s.queue.pop()
		if !ok {
			s.idle += dt
			if s.idle >= s.opts.IdleTimeout {
				s.running = false
				s.destroyScene()
				s.idle = 0
			}
			return true
		}
		s.current = req
		s.metrics.QueueDepth.Set(float64(s.queue.len()))
	}

	switch s.current.state {
	case StateInit:
		s.doInit()
	case StateProcessing:
		s.doProcessing()
	case StateCompleted:
		s.current = nil
	}

	// A completion callback may have stopped the Service.
	if !s.started || s.scene == nil {
		return true
	}

	s.scene.AdvanceFrame(dt)
	s.idle = 0

	return true
}

func (s *Service) createScene() bool {
	scene, err := s.factory()
	if err != nil {
		s.log.Error("creating preview scene", zap.Error(err))
		s.running = false
		return false
	}

	scene.SetProjection(camera.Orthographic)
	s.scene = scene
	s.metrics.ScenesCreated.Inc()
	s.metrics.SceneActive.Set(1)
	s.log.Debug("preview scene created")
	return true
}

func (s *Service) destroyScene() {
	if s.scene == nil {
		return
	}
	s.scene.Teardown()
	s.scene = nil
	s.metrics.SceneActive.Set(0)
	s.log.Debug("preview scene torn down")
}

func (s *Service) doInit() {
	req := s.current

	if w, h := s.scene.Size(); w != req.width || h != req.height {
		s.scene.Resize(req.width, req.height)
	}
	s.scene.Bind(req.asset)
	s.scene.MarkRenderDirty(s.opts.DirtyFrames)
	s.scene.MarkLightingDirty(s.opts.DirtyFrames)

	req.countdown = s.opts.SettleFrames
	req.state = StateProcessing
}

func (s *Service) doProcessing() {
	req := s.current

	req.countdown--
	if req.countdown > 0 {
		return
	}

	req.state = StateCompleted
	img := s.scene.ExtractTexture()
	s.current = nil

	kind := req.asset.Kind().String()
	s.metrics.Completed.WithLabelValues(kind).Inc()
	s.metrics.RenderSeconds.Observe(s.opts.Now().Sub(req.submitted).Seconds())
	s.log.Debug("request completed",
		zap.Stringer("id", req.id),
		zap.String("asset", req.asset.Name()),
		zap.Bool("abandoned", req.onComplete == nil),
	)

	if req.onComplete != nil {
		req.onComplete(img)
	}
}

// IsRunning reports whether the Service has work or is waiting out the
// idle timeout.
func (s *Service) IsRunning() bool { return s.running }

// Pending returns the number of requests not yet completed, including the
// current one.
func (s *Service) Pending() int {
	n := s.queue.len()
	if s.current != nil {
		n++
	}
	return n
}

// HasScene reports whether a preview scene currently exists.
func (s *Service) HasScene() bool { return s.scene != nil }
