package thumbnail

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/midgard-thumbnails/internal/asset"
)

// State is the render state of a request.
type State int

const (
	// StateInit waits to be bound into the scene.
	StateInit State = iota
	// StateProcessing counts down settle frames.
	StateProcessing
	// StateCompleted has delivered its image. It is terminal.
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateProcessing:
		return "processing"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// request is one queued thumbnail. Only the Service mutates it.
type request struct {
	id         uuid.UUID
	asset      asset.Asset
	width      int
	height     int
	onComplete func(*image.RGBA)
	countdown  int
	state      State
	submitted  time.Time
}

// Handle refers to a submitted request.
type Handle struct {
	req *request
}

// ID returns the request's unique id.
func (h *Handle) ID() uuid.UUID { return h.req.id }

// State returns the request's current state.
func (h *Handle) State() State { return h.req.state }

// Done reports whether the request has completed.
func (h *Handle) Done() bool { return h.req.state == StateCompleted }

// Size returns the requested image size.
func (h *Handle) Size() (width, height int) { return h.req.width, h.req.height }

// Abandon drops the completion callback. The request still runs to
// completion but nothing is delivered.
func (h *Handle) Abandon() { h.req.onComplete = nil }

// SubmitOption customizes a request.
type SubmitOption func(*request)

// WithSize sets the output image size. Both dimensions must be positive.
func WithSize(width, height int) SubmitOption {
	return func(r *request) {
		r.width = width
		r.height = height
	}
}
