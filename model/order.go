package models

import "time"

// LatLng is a coordinate pair picked on a map or read from the device.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeliveryDetails is entered at checkout and never persisted with the cart.
type DeliveryDetails struct {
	Mobile   string  `json:"mobile"`
	Address  string  `json:"address"`
	Location *LatLng `json:"location,omitempty"`
}

// OrderRecord is the receipt kept after an order was handed off.
type OrderRecord struct {
	Reference string     `json:"reference"`
	Mobile    string     `json:"mobile"`
	Address   string     `json:"address"`
	Lines     []CartLine `json:"lines"`
	Total     int        `json:"total"`
	Text      string     `json:"text"`
	URI       string     `json:"uri"`
	CreatedAt time.Time  `json:"created_at"`
}
