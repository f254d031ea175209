// Package notify defines the notification interface and implementations
// for price alert delivery.
package notify

import (
	"context"

	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// PriceAlert contains the data needed to send a price drop notification.
type PriceAlert struct {
	ChatID      int64
	ProductName string
	ProductURL  string
	OldPrice    float64
	NewPrice    float64
	AlertType   types.AlertType
}

// Notifier defines the interface for dispatching price alerts. Delivery
// is fire-and-forget from the engine's perspective: failures are logged
// by the caller, never retried.
type Notifier interface {
	SendPriceAlert(ctx context.Context, alert PriceAlert) error
}
