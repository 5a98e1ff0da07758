package movements

import "time"

// Movements are append-only: once recorded they are never updated or deleted.
// Corrections are modeled as new movements.

type Inbound struct {
	ID          int64     `json:"id"`
	OrderNumber *string   `json:"order_number,omitempty"`
	MaterialID  int64     `json:"material_id"`
	Quantity    int64     `json:"quantity"`
	OccurredAt  time.Time `json:"occurred_at"`
	Remarks     string    `json:"remarks,omitempty"`
}

type Outbound struct {
	ID          int64     `json:"id"`
	OrderNumber *string   `json:"order_number,omitempty"`
	MaterialID  int64     `json:"material_id"`
	Quantity    int64     `json:"quantity"`
	Recipient   string    `json:"recipient,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Remarks     string    `json:"remarks,omitempty"`
}
