// Package reconcile decides whether a deal's target date field should be
// overwritten. The policy distinguishes this system's own prior writes from
// human edits, which are respected for a grace window.
package reconcile

import (
	"strings"
	"time"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/pkg/bxval"
)

// Reasons surfaced in webhook responses.
const (
	ReasonNoDates      = "no matching dates"
	ReasonDatesInvalid = "dates invalid"
	ReasonNoChange     = "no change"
	ReasonLocked       = "locked"
	ReasonManualRecent = "manual recent override"
	ReasonNeedsUpdate  = "update required"
)

// DefaultGracePeriod is how long a human edit is respected when the policy
// does not configure its own window.
const DefaultGracePeriod = 24 * time.Hour

// Decision is the outcome of one reconciliation.
type Decision struct {
	Update bool
	Value  string
	Reason string
}

// Policy holds the write-guard configuration.
type Policy struct {
	// TargetField is the deal field the controlling date is written to.
	TargetField string
	// LockField, when set, names a deal field that suppresses all
	// automated writes while truthy. Highest-priority guard.
	LockField string
	// IntegrationUserID identifies this system's own writes; a deal last
	// modified by it is always safe to overwrite.
	IntegrationUserID int64
	// GracePeriod is how long a human edit is respected. Zero means
	// DefaultGracePeriod.
	GracePeriod time.Duration
}

func (p Policy) grace() time.Duration {
	if p.GracePeriod <= 0 {
		return DefaultGracePeriod
	}
	return p.GracePeriod
}

// Decide applies the policy to the matched dates against the deal's current
// state. Pure: all remote state arrives in deal, time arrives in now.
func (p Policy) Decide(deal *bitrix.Deal, dates []string, now time.Time) Decision {
	if len(dates) == 0 {
		return Decision{Reason: ReasonNoDates}
	}

	final := bxval.MinDate(dates)
	if final == "" {
		return Decision{Reason: ReasonDatesInvalid}
	}

	current := bxval.NormalizeDate(deal.FieldString(p.TargetField))
	if current == final {
		return Decision{Value: final, Reason: ReasonNoChange}
	}

	if p.LockField != "" && isTruthy(deal.FieldString(p.LockField)) {
		return Decision{Value: final, Reason: ReasonLocked}
	}

	if p.IntegrationUserID != 0 && deal.ModifiedByID == p.IntegrationUserID {
		return Decision{Update: true, Value: final, Reason: ReasonNeedsUpdate}
	}

	// A recent edit by anyone else looks like a deliberate manual
	// override; leave it alone until the grace window passes. An empty
	// current value carries nothing to protect, so first-time population
	// skips the window. A zero ModifiedAt means the deal carried no usable
	// timestamp, which is treated as long past.
	if current != "" && !deal.ModifiedAt.IsZero() && now.Sub(deal.ModifiedAt) <= p.grace() {
		return Decision{Value: final, Reason: ReasonManualRecent}
	}

	return Decision{Update: true, Value: final, Reason: ReasonNeedsUpdate}
}

// isTruthy interprets the flag encodings Bitrix checkbox and string fields
// produce.
func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "n", "no", "false":
		return false
	}
	return true
}
