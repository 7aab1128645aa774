package models

// CartLine is one named, priced entry in the cart. Name is the merge key.
type CartLine struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() int {
	return l.Price * l.Quantity
}
