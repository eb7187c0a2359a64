// Package notify defines the notification interface and implementations
// for month-end roll reports.
package notify

import (
	"context"
	"time"
)

// ElementFailure describes one list element the roll could not update.
type ElementFailure struct {
	ElementID string
	Error     string
}

// RollReport contains the data needed to report a month-end roll outcome.
type RollReport struct {
	Value    string
	Updated  int
	Failed   int
	RanAt    time.Time
	Failures []ElementFailure
}

// Notifier defines the interface for delivering roll reports.
type Notifier interface {
	SendRollReport(ctx context.Context, report *RollReport) error
}
