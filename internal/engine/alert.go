package engine

import (
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// defaultEpsilon is the margin for lowest-ever comparisons, one cent, so
// float rounding noise does not read as a new historical low.
const defaultEpsilon = 0.01

// shouldTrigger evaluates an alert's predicate against the old and
// current price and the product's all-time low. A nil all-time low means
// lowest_ever cannot fire; a missing threshold field disables the alert.
func shouldTrigger(a *types.Alert, oldPrice, currentPrice float64, allTimeLow *float64, epsilon float64) bool {
	switch a.Type {
	case types.AlertStatic:
		return a.ThresholdPrice != nil && currentPrice <= *a.ThresholdPrice

	case types.AlertPercentage:
		if a.PercentageThreshold == nil || oldPrice <= 0 {
			return false
		}
		drop := (oldPrice - currentPrice) / oldPrice * 100
		return drop >= *a.PercentageThreshold

	case types.AlertLowestEver:
		return allTimeLow != nil && currentPrice < *allTimeLow-epsilon

	default:
		return false
	}
}
