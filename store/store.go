// Package store holds assembled reports. Append is the only mutation;
// moderation transitions happen out of band and views never write.
package store

import (
	"context"
	"time"

	"wastemap/capture"
	"wastemap/classify"
	"wastemap/locate"
)

// Status is the moderation lifecycle tag. Reports are created pending;
// verification is an out-of-band process, schema-only here.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Report is the persisted unit of work: one waste-capture event with its
// classification and optional location. All fields are immutable once the
// report is assembled.
type Report struct {
	ID             string                   `json:"id"`
	CapturedAt     time.Time                `json:"captured_at"`
	Image          *capture.EncodedImage    `json:"image"`
	Classification *classify.Classification `json:"classification"`
	Location       *locate.Coordinate       `json:"location,omitempty"`
	Status         Status                   `json:"status"`
}

// Store is an append-only collection of reports.
type Store interface {
	Append(ctx context.Context, r *Report) error
	// List returns reports newest-first by CapturedAt.
	List(ctx context.Context) ([]*Report, error)
}
