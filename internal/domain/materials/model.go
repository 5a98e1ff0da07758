package materials

import "time"

// Material is a trackable item type with a unique business code.
type Material struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Model     string    `json:"model,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Supplier  string    `json:"supplier,omitempty"`
	Remarks   string    `json:"remarks,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
