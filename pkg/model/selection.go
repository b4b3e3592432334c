package model

import "time"

// SelectedProduct is a product the traveler committed to for one day.
type SelectedProduct struct {
	Product    CatalogProduct `json:"product"`
	DayNumber  int            `json:"day_number"`
	AnchorID   string         `json:"anchor_place_id,omitempty"`
	SelectedAt time.Time      `json:"selected_at"`
}

// DismissedProduct records a product the traveler turned down for one day.
type DismissedProduct struct {
	ProductID   string    `json:"product_id"`
	DayNumber   int       `json:"day_number"`
	DismissedAt time.Time `json:"dismissed_at"`
}

// CartDay groups the selections of one day.
type CartDay struct {
	DayNumber int               `json:"day_number"`
	Items     []SelectedProduct `json:"items"`
	Subtotal  int64             `json:"subtotal"`
}

// Cart is the checkout view of a ledger.
type Cart struct {
	Days      []CartDay  `json:"days"`
	Total     int64      `json:"total"`
	Confirmed bool       `json:"confirmed"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}
