package model

// CartEntry is one line of the cart. Quantity is always >= 1; an entry whose
// quantity would drop to zero is removed instead.
type CartEntry struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Subtotal is price times quantity.
func (e CartEntry) Subtotal() float64 {
	return e.Price * float64(e.Quantity)
}
