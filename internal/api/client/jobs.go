package client

import (
	"context"
	"time"

	"github.com/pkravchenko/b24-dealsync/internal/engine"
)

// JobEntry is one scheduled job as reported by the server.
type JobEntry struct {
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev,omitzero"`
}

// JobsStatus is the scheduler state plus the most recent roll outcome.
type JobsStatus struct {
	Entries  []JobEntry         `json:"entries"`
	LastRoll *engine.RollResult `json:"last_roll,omitempty"`
}

// Jobs returns the registered schedule entries and the last roll result.
func (c *Client) Jobs(ctx context.Context) (*JobsStatus, error) {
	var status JobsStatus
	if err := c.get(ctx, "/api/v1/jobs", &status); err != nil {
		return nil, err
	}
	return &status, nil
}
