// Package pipeline drives one reporting session from capture to a
// persisted report: capture an image, resolve a location (automatically,
// by hand, or not at all), classify, persist. The session is a single
// explicit state machine; invalid flag combinations are unrepresentable.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"wastemap/capture"
	"wastemap/locate"
	"wastemap/store"
)

// State is the phase of a reporting session.
type State string

const (
	StateIdle                   State = "idle"
	StateCapturing              State = "capturing"
	StateAwaitingLocationChoice State = "awaiting_location_choice"
	StateAutoLocating           State = "auto_locating"
	StatePickingLocation        State = "picking_location"
	StateClassifying            State = "classifying"
	StateComplete               State = "complete"
	StateFailed                 State = "failed"
)

// ErrBadState is returned when an operation is invoked from a state it is
// not defined for. The UI is expected to disable the triggering controls,
// so this indicates a programming error, not a user one.
var ErrBadState = errors.New("pipeline: operation not valid in current state")

// Session is one run of the report assembler. It is not safe for
// concurrent use: the interaction model is a single user on a single
// device, and at most one pipeline runs per session.
type Session struct {
	deps  Deps
	state State

	// Cached between steps so a failed classification can be retried
	// without recapturing or re-locating.
	img   *capture.EncodedImage
	coord *locate.Coordinate

	report *store.Report

	now   func() time.Time
	newID func() string
}

func NewSession(deps Deps) *Session {
	return &Session{
		deps:  deps,
		state: StateIdle,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// State reports the current phase.
func (s *Session) State() State { return s.state }

// Report returns the assembled report after the session completed.
func (s *Session) Report() *store.Report { return s.report }

// Image returns the captured image cached in the session, if any.
func (s *Session) Image() *capture.EncodedImage { return s.img }

// Capture acquires an image from the capture source. On success the image
// is retained for the remainder of the session. On failure the session
// returns to idle so the user can fall back to another source.
func (s *Session) Capture(ctx context.Context) error {
	if s.state != StateIdle {
		if s.state == StateCapturing {
			return capture.ErrConflictingOperation
		}
		return fmt.Errorf("%w: capture from %s", ErrBadState, s.state)
	}
	s.state = StateCapturing

	img, err := s.deps.Source.RequestImage(ctx)
	if err != nil {
		s.state = StateIdle
		return err
	}

	s.img = img
	s.state = StateAwaitingLocationChoice
	return nil
}

// UseAutoLocation resolves the current position on a best-effort basis and
// proceeds straight to classification. Location resolution never blocks
// progression: an unavailable position simply yields a report without one.
func (s *Session) UseAutoLocation(ctx context.Context) error {
	if s.state != StateAwaitingLocationChoice {
		return fmt.Errorf("%w: auto-locate from %s", ErrBadState, s.state)
	}
	s.state = StateAutoLocating

	if coord, ok := s.deps.Locator.ResolveCurrentLocation(ctx); ok {
		s.coord = &coord
	} else {
		log.Warn("Location unavailable, reporting without coordinates")
		s.coord = nil
	}
	return s.classifyAndPersist(ctx)
}

// PickLocation presents the manual picker centered on the last known
// coordinate. Cancellation returns to the location choice with the
// captured image intact; confirmation proceeds to classification.
func (s *Session) PickLocation(ctx context.Context) error {
	if s.state != StateAwaitingLocationChoice {
		return fmt.Errorf("%w: pick location from %s", ErrBadState, s.state)
	}
	s.state = StatePickingLocation

	coord, ok := s.deps.Picker.PresentPicker(ctx, s.coord)
	if !ok {
		s.state = StateAwaitingLocationChoice
		return nil
	}
	s.coord = &coord
	return s.classifyAndPersist(ctx)
}

// SkipLocation proceeds to classification with no coordinate at all.
func (s *Session) SkipLocation(ctx context.Context) error {
	if s.state != StateAwaitingLocationChoice {
		return fmt.Errorf("%w: skip location from %s", ErrBadState, s.state)
	}
	s.coord = nil
	return s.classifyAndPersist(ctx)
}

// RetryClassification re-invokes classification after a failure, reusing
// the cached image and coordinate. No capture or location step is repeated.
func (s *Session) RetryClassification(ctx context.Context) error {
	if s.state != StateFailed {
		return fmt.Errorf("%w: retry from %s", ErrBadState, s.state)
	}
	return s.classifyAndPersist(ctx)
}

// Cancel aborts the session before completion, discarding the cached
// image and coordinate. The session returns to idle and may be reused.
func (s *Session) Cancel() {
	if s.state == StateComplete {
		return
	}
	s.reset()
}

func (s *Session) classifyAndPersist(ctx context.Context) error {
	s.state = StateClassifying

	result, err := s.deps.Classifier.Classify(ctx, s.img)
	if err != nil {
		// The image and coordinate stay cached; the user may retry
		// without recapturing.
		s.state = StateFailed
		log.Errorf("Classification failed: %v", err)
		return err
	}

	report := &store.Report{
		ID:             s.newID(),
		CapturedAt:     s.now(),
		Image:          s.img,
		Classification: result,
		Location:       s.coord,
		Status:         store.StatusPending,
	}
	if err := s.deps.Store.Append(ctx, report); err != nil {
		s.state = StateFailed
		log.Errorf("Failed to persist report: %v", err)
		return err
	}

	s.report = report
	s.reset()
	s.state = StateComplete
	return nil
}

func (s *Session) reset() {
	s.img = nil
	s.coord = nil
	s.state = StateIdle
}
