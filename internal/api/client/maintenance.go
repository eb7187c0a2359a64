package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkravchenko/b24-dealsync/internal/engine"
)

// RollDates runs the month-end date roll on the server and returns its result.
func (c *Client) RollDates(ctx context.Context) (*engine.RollResult, error) {
	var res engine.RollResult
	if err := c.post(ctx, "/api/v1/roll-dates", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReconcileDeal runs one deal synchronization on the server.
func (c *Client) ReconcileDeal(ctx context.Context, dealID int64, dryRun, debug bool) (*engine.SyncResult, error) {
	q := url.Values{}
	if dryRun {
		q.Set("dry_run", "true")
	}
	if debug {
		q.Set("debug", "true")
	}
	path := fmt.Sprintf("/api/v1/deals/%d/reconcile", dealID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res engine.SyncResult
	if err := c.post(ctx, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
