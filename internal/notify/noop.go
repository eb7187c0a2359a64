package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded reports. It is used
// when Discord (or another notification backend) is not configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards reports with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendRollReport logs and discards a roll report.
func (n *NoOpNotifier) SendRollReport(_ context.Context, report *RollReport) error {
	n.log.Debug("roll report discarded (no backend configured)",
		"value", report.Value,
		"updated", report.Updated,
		"failed", report.Failed,
	)
	return nil
}
