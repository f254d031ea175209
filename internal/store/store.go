// Package store defines the datastore abstraction for price-drop-tracker.
// All business logic depends on the Store interface, never on concrete
// implementations. This enables mock-based testing without a running database.
package store

import (
	"context"
	"errors"

	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines all data access operations for price-drop-tracker.
type Store interface {
	// Products
	CreateProduct(ctx context.Context, p *types.TrackedProduct) error
	GetProduct(ctx context.Context, id string) (*types.TrackedProduct, error)
	GetProductByURL(ctx context.Context, url string) (*types.TrackedProduct, error)
	ListActiveProducts(ctx context.Context) ([]types.TrackedProduct, error)
	SetProductActive(ctx context.Context, id string, active bool) error

	// UpdatePrice stores the new price and appends a PriceObservation in
	// the same transaction iff the price actually changed. An unchanged
	// price only touches the last-check timestamp.
	UpdatePrice(ctx context.Context, id string, price float64) (changed bool, err error)

	// LowestObservedPrice returns the all-time minimum from the price
	// history, or nil when no observation exists yet.
	LowestObservedPrice(ctx context.Context, id string) (*float64, error)

	// Alerts
	CreateAlert(ctx context.Context, a *types.Alert) error
	ListActiveAlerts(ctx context.Context, productID string) ([]types.Alert, error)
	MarkAlertTriggered(ctx context.Context, id string) error

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
