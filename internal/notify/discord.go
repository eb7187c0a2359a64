package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkravchenko/b24-dealsync/internal/metrics"
)

const (
	colorGreen  = 0x2ECC71 // all elements updated
	colorYellow = 0xF1C40F // partial failures
	colorRed    = 0xE74C3C // nothing updated
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// discordWebhookPayload is the Discord webhook JSON structure.
type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendRollReport sends a roll outcome as a Discord embed.
func (d *DiscordNotifier) SendRollReport(ctx context.Context, report *RollReport) error {
	payload := discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(report)},
	}
	return d.post(ctx, payload)
}

func buildEmbed(report *RollReport) discordEmbed {
	embed := discordEmbed{
		Title: fmt.Sprintf("Month-end roll: %s", report.Value),
		Color: reportColor(report),
		Fields: []discordEmbedField{
			{Name: "Updated", Value: fmt.Sprintf("%d", report.Updated), Inline: true},
			{Name: "Failed", Value: fmt.Sprintf("%d", report.Failed), Inline: true},
			{Name: "Ran at", Value: report.RanAt.Format("2006-01-02 15:04:05"), Inline: true},
		},
	}

	if len(report.Failures) > 0 {
		embed.Description = failureSummary(report.Failures)
	}

	return embed
}

// failureSummary lists failed elements, capped at 10 lines.
func failureSummary(failures []ElementFailure) string {
	var b strings.Builder
	limit := min(len(failures), 10)
	for i := range limit {
		fmt.Fprintf(&b, "element %s: %s\n", failures[i].ElementID, failures[i].Error)
	}
	if len(failures) > 10 {
		fmt.Fprintf(&b, "... and %d more\n", len(failures)-10)
	}
	return strings.TrimRight(b.String(), "\n")
}

func reportColor(report *RollReport) int {
	switch {
	case report.Failed == 0:
		return colorGreen
	case report.Updated > 0:
		return colorYellow
	default:
		return colorRed
	}
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) error {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.webhookURL,
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
