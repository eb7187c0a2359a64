package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pkravchenko/b24-dealsync/internal/bitrix"
	"github.com/pkravchenko/b24-dealsync/internal/engine"
	"github.com/pkravchenko/b24-dealsync/pkg/bxval"
)

// DealSyncer runs one deal synchronization.
type DealSyncer interface {
	SyncDeal(ctx context.Context, dealID int64, opts engine.SyncOptions) (*engine.SyncResult, error)
}

// WebhookHandler handles Bitrix outgoing webhook deliveries for deal events.
type WebhookHandler struct {
	syncer DealSyncer
	secret string
	log    *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler. An empty secret disables
// the shared-secret check.
func NewWebhookHandler(syncer DealSyncer, secret string, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{syncer: syncer, secret: secret, log: log}
}

// jsonDealIDPaths are the body locations a deal id may arrive under when the
// event is delivered as JSON, in priority order.
var jsonDealIDPaths = [][]string{
	{"data", "FIELDS", "ID"},
	{"FIELDS", "ID"},
	{"deal_id"},
	{"ID"},
}

// formDealIDKeys are the form-encoded spellings of the same locations, in
// priority order.
var formDealIDKeys = []string{
	"data[FIELDS][ID]",
	"FIELDS[ID]",
	"data[ID]",
	"ID",
	"deal_id",
}

// DealUpdate processes one deal event. Business outcomes are always
// reported with HTTP 200 so Bitrix does not retry them; retry_later is the
// one deliberate exception surface (also 200, the portal retries on its own
// schedule when the handler asks).
func (h *WebhookHandler) DealUpdate(c echo.Context) error {
	if h.secret != "" && c.QueryParam("secret") != h.secret {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}

	opts := engine.SyncOptions{
		DryRun: truthyFlag(c.QueryParam("dry_run")),
		Debug:  truthyFlag(c.QueryParam("debug")),
	}

	dealID := extractDealID(c)
	if dealID == 0 {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "skip",
			"reason": "no deal id",
		})
	}

	res, err := h.syncer.SyncDeal(c.Request().Context(), dealID, opts)
	if err != nil {
		if bitrix.IsTimeout(err) {
			h.log.Warn("deal sync timed out, asking for retry",
				"deal_id", dealID,
				"error", err,
			)
			return c.JSON(http.StatusOK, map[string]string{"status": "retry_later"})
		}
		h.log.Error("deal sync failed on remote error",
			"deal_id", dealID,
			"error", err,
		)
		return c.JSON(http.StatusOK, map[string]string{"status": "error_remote"})
	}

	return c.JSON(http.StatusOK, res)
}

// truthyFlag interprets the query-flag spellings Bitrix admins actually
// type.
func truthyFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// extractDealID pulls the deal id out of the event body. Bitrix delivers
// events form-encoded by default but JSON when configured through a
// middleware proxy, and nests the id differently per event source.
func extractDealID(c echo.Context) int64 {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.Contains(ct, echo.MIMEApplicationJSON) {
		return dealIDFromJSON(c)
	}
	return dealIDFromForm(c)
}

func dealIDFromJSON(c echo.Context) int64 {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return 0
	}

	for _, path := range jsonDealIDPaths {
		if id := parseDealID(lookupPath(body, path)); id != 0 {
			return id
		}
	}
	return 0
}

func dealIDFromForm(c echo.Context) int64 {
	for _, key := range formDealIDKeys {
		if id := parseDealID(c.FormValue(key)); id != 0 {
			return id
		}
	}
	return 0
}

func lookupPath(m map[string]any, path []string) any {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func parseDealID(v any) int64 {
	s := strings.TrimSpace(bxval.Flatten(v))
	if s == "" {
		return 0
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
