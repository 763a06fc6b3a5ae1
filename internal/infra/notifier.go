package infra

import (
	"log/slog"

	"tradedesk_go/internal/domain"
)

// LogNotifier delivers toast-style messages to the structured log.
// Headless counterpart of the dashboard's transient notification surface.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("module", "toast")}
}

// Notify logs the message at a level matching its severity.
func (n *LogNotifier) Notify(level domain.NotifyLevel, message string) {
	switch level {
	case domain.NotifyError:
		n.logger.Warn(message)
	default:
		n.logger.Info(message)
	}
}
