// Package window hosts the OpenGL context in an SDL2 window. Thumbnail
// rendering never presents the window; it exists only to own the context.
package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"
)

// GL state is bound to the thread that created the context.
func init() { runtime.LockOSThread() }

// ErrSDL wraps every failure reported by SDL.
var ErrSDL = errors.New("sdl")

// Config describes the window and its context.
type Config struct {
	Title  string
	Width  int
	Height int
	Hidden bool
	VSync  bool
	Logger *zap.Logger
}

// Window owns an SDL window and its current GL 4.1 core context.
type Window struct {
	log *zap.Logger
	win *sdl.Window
	ctx sdl.GLContext
}

var glAttributes = []struct {
	attr  sdl.GLattr
	value int
}{
	{sdl.GL_CONTEXT_MAJOR_VERSION, 4},
	{sdl.GL_CONTEXT_MINOR_VERSION, 1},
	{sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE},
	{sdl.GL_DOUBLEBUFFER, 1},
	{sdl.GL_DEPTH_SIZE, 24},
}

// New initializes SDL and creates the window with a current context. On
// failure everything acquired so far is released.
func New(cfg Config) (_ *Window, err error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	w := &Window{log: log.Named("window")}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("%w: init: %w", ErrSDL, err)
	}
	defer func() {
		if err != nil {
			w.Close()
		}
	}()

	for _, a := range glAttributes {
		if err := sdl.GLSetAttribute(a.attr, a.value); err != nil {
			w.log.Warn("gl attribute rejected", zap.Int("attr", int(a.attr)), zap.Error(err))
		}
	}

	flags := uint32(sdl.WINDOW_OPENGL)
	if cfg.Hidden {
		flags |= sdl.WINDOW_HIDDEN
	}
	width, height := int32(max(cfg.Width, 1)), int32(max(cfg.Height, 1))
	w.win, err = sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, width, height, flags)
	if err != nil {
		return nil, fmt.Errorf("%w: create window: %w", ErrSDL, err)
	}
	if w.ctx, err = w.win.GLCreateContext(); err != nil {
		return nil, fmt.Errorf("%w: create gl context: %w", ErrSDL, err)
	}

	swap := 0
	if cfg.VSync {
		swap = 1
	}
	if err := sdl.GLSetSwapInterval(swap); err != nil {
		w.log.Debug("swap interval not applied", zap.Error(err))
	}

	w.log.Info("gl context ready",
		zap.Int32("width", width),
		zap.Int32("height", height),
		zap.Bool("hidden", cfg.Hidden))
	return w, nil
}

// PumpEvents drains pending SDL events and reports whether a quit was
// requested.
func (w *Window) PumpEvents() (quit bool) {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev.(type) {
		case *sdl.QuitEvent:
			quit = true
		}
	}
	return quit
}

// Close releases the context, the window and SDL itself.
func (w *Window) Close() {
	if w.ctx != nil {
		sdl.GLDeleteContext(w.ctx)
		w.ctx = nil
	}
	if w.win != nil {
		_ = w.win.Destroy()
		w.win = nil
	}
	sdl.Quit()
	w.log.Debug("window closed")
}
