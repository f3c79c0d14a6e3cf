package detect

import (
	"context"
	"fmt"
	"sync"
)

// FrameSource is the platform camera collaborator: it reports readiness and
// produces encoded still frames. Acquisition and permission handling live
// behind this interface, outside the core.
type FrameSource interface {
	Ready() bool
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// CameraHandle is the scoped camera resource. The caller owns it for the
// span of possibly many detection calls and releases it deterministically;
// the detector only borrows it. Close is safe to call repeatedly and never
// blocks on a pending capture.
type CameraHandle struct {
	mu     sync.Mutex
	source FrameSource
	closed bool
}

// NewCameraHandle wraps a frame source. A nil source yields a handle that
// reports unavailable until the platform collaborator is attached.
func NewCameraHandle(source FrameSource) *CameraHandle {
	return &CameraHandle{source: source}
}

// Attach sets the frame source once the platform collaborator reports
// readiness. Attaching to a closed handle is ignored.
func (h *CameraHandle) Attach(source FrameSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.source = source
}

// Available reports truthfully whether a frame can be captured right now.
func (h *CameraHandle) Available() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed && h.source != nil && h.source.Ready()
}

// Frame captures one encoded still frame.
func (h *CameraHandle) Frame(ctx context.Context) ([]byte, error) {
	h.mu.Lock()
	source := h.source
	closed := h.closed
	h.mu.Unlock()

	if closed || source == nil {
		return nil, fmt.Errorf("camera handle closed or unattached")
	}
	return source.Capture(ctx)
}

// Close releases the underlying camera resource. Idempotent.
func (h *CameraHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if h.source == nil {
		return nil
	}
	source := h.source
	h.source = nil
	if err := source.Close(); err != nil {
		return fmt.Errorf("failed to release camera: %w", err)
	}
	return nil
}
