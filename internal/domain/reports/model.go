package reports

// Summary is the dashboard rollup. AlertCount counts balances below their
// configured minimum; a zero minimum disables alerting for that material.
type Summary struct {
	MaterialCount      int64 `json:"material_count"`
	TotalStockQuantity int64 `json:"total_stock_quantity"`
	AlertCount         int64 `json:"alert_count"`
}
