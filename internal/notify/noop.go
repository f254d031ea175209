package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded alerts. It is used
// when no Telegram token is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards alerts with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendPriceAlert logs and discards the alert.
func (n *NoOpNotifier) SendPriceAlert(_ context.Context, alert PriceAlert) error {
	n.log.Debug("notification discarded (no backend configured)",
		"chat_id", alert.ChatID,
		"product", alert.ProductName,
		"old_price", alert.OldPrice,
		"new_price", alert.NewPrice,
		"type", alert.AlertType,
	)
	return nil
}
