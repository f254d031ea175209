// Package types defines the core business types for the price drop tracker.
package types

import (
	"time"
)

// PriceTag classifies where a price candidate came from on the page.
type PriceTag string

// Price tag constants.
const (
	TagPix     PriceTag = "pix"
	TagCard    PriceTag = "card"
	TagCurrent PriceTag = "current"
	TagOther   PriceTag = "other"
)

// Candidate is a single price found on a product page, with its tag.
type Candidate struct {
	Value float64  `json:"value"`
	Tag   PriceTag `json:"tag"`
}

// Availability values for a product record. Unknown means the page gave
// no usable stock signal either way.
const (
	AvailabilityInStock    = "InStock"
	AvailabilityOutOfStock = "OutOfStock"
	AvailabilityUnknown    = "Unknown"
)

// ProductRecord is the normalized result of one successful scrape.
// Price, when set, is always one of the RawCandidates values.
type ProductRecord struct {
	Name            string      `json:"name"`
	Price           *float64    `json:"price,omitempty"`
	PriceTag        PriceTag    `json:"price_tag,omitempty"`
	OriginalPrice   *float64    `json:"original_price,omitempty"`
	DiscountPercent *int        `json:"discount_percent,omitempty"`
	Currency        string      `json:"currency,omitempty"`
	Availability    string      `json:"availability"`
	URL             string      `json:"url"`
	ImageURL        string      `json:"image_url,omitempty"`
	RawCandidates   []Candidate `json:"raw_candidates,omitempty"`
}

// TrackedProduct is a product the engine polls on a schedule.
type TrackedProduct struct {
	ID           string     `json:"id"                      db:"id"`
	URL          string     `json:"url"                     db:"url"`
	Name         string     `json:"name"                    db:"name"`
	CurrentPrice *float64   `json:"current_price,omitempty" db:"current_price"`
	Active       bool       `json:"active"                  db:"active"`
	CreatedAt    time.Time  `json:"created_at"              db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"              db:"updated_at"`
	LastCheckAt  *time.Time `json:"last_check_at,omitempty" db:"last_check_at"`
}

// PriceObservation is one append-only price history row.
type PriceObservation struct {
	ID         int64     `json:"id"          db:"id"`
	ProductID  string    `json:"product_id"  db:"product_id"`
	Price      float64   `json:"price"       db:"price"`
	ObservedAt time.Time `json:"observed_at" db:"observed_at"`
}

// AlertType selects the predicate an alert is evaluated with.
type AlertType string

// Alert type constants.
const (
	AlertStatic     AlertType = "static"
	AlertPercentage AlertType = "percentage"
	AlertLowestEver AlertType = "lowest_ever"
)

// Alert is a subscriber's alert condition on a tracked product.
type Alert struct {
	ID                  string     `json:"id"                             db:"id"`
	ProductID           string     `json:"product_id"                     db:"product_id"`
	ChatID              int64      `json:"chat_id"                        db:"chat_id"`
	Type                AlertType  `json:"alert_type"                     db:"alert_type"`
	ThresholdPrice      *float64   `json:"threshold_price,omitempty"      db:"threshold_price"`
	PercentageThreshold *float64   `json:"percentage_threshold,omitempty" db:"percentage_threshold"`
	Active              bool       `json:"active"                         db:"active"`
	LastTriggeredAt     *time.Time `json:"last_triggered_at,omitempty"    db:"last_triggered_at"`
	CreatedAt           time.Time  `json:"created_at"                     db:"created_at"`
}

// ThrottleKey identifies an alert in the cooldown table. The type suffix
// keeps keys stable if an alert's type is edited in place.
func (a *Alert) ThrottleKey() string {
	return a.ID + "_" + string(a.Type)
}
