package balances

import "time"

// Balance is the current-quantity row for one material. Exactly one row per
// material; created when the material is registered, removed with it.
type Balance struct {
	ID              int64     `json:"id"`
	MaterialID      int64     `json:"material_id"`
	CurrentQuantity int64     `json:"current_quantity"`
	MinStockLevel   int64     `json:"min_stock_level"`
	MaxStockLevel   int64     `json:"max_stock_level"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`
}

// BelowMin reports whether the balance is in alert state. A zero min level
// means alerting is disabled for the material.
func (b *Balance) BelowMin() bool {
	return b.MinStockLevel > 0 && b.CurrentQuantity < b.MinStockLevel
}
