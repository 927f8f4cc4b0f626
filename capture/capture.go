// Package capture produces a single still image for a report, either from
// an exclusively held camera device or from a user-selected file.
package capture

import (
	"context"
	"errors"
)

var (
	// ErrDeviceUnavailable is returned when the camera is missing or the
	// user denied access to it.
	ErrDeviceUnavailable = errors.New("capture: device unavailable")

	// ErrInvalidInput is returned when a selected file is not an image.
	ErrInvalidInput = errors.New("capture: not an image")

	// ErrConflictingOperation is returned when a capture is requested
	// while another one is still in flight. The UI is expected to prevent
	// this; hitting it is a contract violation, not a user error.
	ErrConflictingOperation = errors.New("capture: capture already in progress")

	// ErrCancelled is returned when the user dismisses the capture step.
	ErrCancelled = errors.New("capture: cancelled")
)

// EncodedImage is a captured still image as an encoded byte buffer.
type EncodedImage struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
}

// Source suspends until the user produces an image or cancels.
type Source interface {
	RequestImage(ctx context.Context) (*EncodedImage, error)
}
