package capture

import (
	"context"
	"sync/atomic"

	"github.com/apex/log"
)

// FacingMode selects which camera to acquire.
type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

// Device is the platform camera. Acquire returns an exclusive handle;
// the handle must be released on every exit path.
type Device interface {
	Acquire(ctx context.Context, facing FacingMode) (Handle, error)
}

// Handle is an open camera stream.
type Handle interface {
	// Still blocks until a frame is captured or the context is done.
	Still(ctx context.Context) (*EncodedImage, error)
	Release()
}

// DeviceSource captures a still from a camera Device. At most one capture
// session may be in flight at a time.
type DeviceSource struct {
	dev      Device
	facing   FacingMode
	inFlight atomic.Bool
}

func NewDeviceSource(dev Device, facing FacingMode) *DeviceSource {
	return &DeviceSource{dev: dev, facing: facing}
}

// RequestImage acquires the camera, captures a single still and releases
// the handle. Acquisition failures surface as ErrDeviceUnavailable so the
// caller can fall back to the upload path.
func (s *DeviceSource) RequestImage(ctx context.Context) (*EncodedImage, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrConflictingOperation
	}
	defer s.inFlight.Store(false)

	h, err := s.dev.Acquire(ctx, s.facing)
	if err != nil {
		log.Errorf("Camera acquisition failed: %v", err)
		return nil, ErrDeviceUnavailable
	}
	defer h.Release()

	img, err := h.Still(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, ErrDeviceUnavailable
	}
	return img, nil
}
