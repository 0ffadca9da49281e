package entities

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CartMode says which store owns the cart for a session.
type CartMode string

const (
	// CartModeLocal: no authenticated user, lines live in the gateway mirror only.
	CartModeLocal CartMode = "local"
	// CartModeSynced: the clinic backend owns the cart, the mirror is a fallback cache.
	CartModeSynced CartMode = "synced"
)

// Price is a unit price as it arrives from the clinic backend, which encodes
// prices inconsistently (number or numeric string). Valid reports whether the
// value parsed as a number; invalid prices count as zero in totals.
type Price struct {
	Amount float64
	Valid  bool
}

func NewPrice(amount float64) Price {
	return Price{Amount: amount, Valid: true}
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		p.Amount = n
		p.Valid = true
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, perr := strconv.ParseFloat(strings.TrimSpace(s), 64); perr == nil {
			p.Amount = n
			p.Valid = true
			return nil
		}
	}
	p.Amount = 0
	p.Valid = false
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Amount)
}

// CartLine is the canonical line item. At most one line exists per ProductID
// within a cart; ProductID is already string-normalized at the boundary.
type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice Price  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"image_ref,omitempty"`
}

type CartSummary struct {
	Total float64 `json:"total"`
	Count int     `json:"count"`
}
