package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"vetclinic/internal/entities"
	"vetclinic/internal/utils"
)

// FlexID tolerates upstream identifiers arriving as strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexID(n.String())
		return nil
	}
	return fmt.Errorf("identifier is neither string nor number: %s", data)
}

// ProductPayload is the loose product/cart-line shape the backend returns.
// Field naming upstream is inconsistent (id vs productId, image vs imgUrl vs
// imageUrl, numeric vs string prices); CartLine is the single point where it
// all collapses into the canonical type.
type ProductPayload struct {
	ID        FlexID         `json:"id"`
	ProductID FlexID         `json:"productId"`
	Name      string         `json:"name"`
	Title     string         `json:"title"`
	Price     entities.Price `json:"price"`
	UnitPrice entities.Price `json:"unitPrice"`
	Quantity  int            `json:"quantity"`
	Image     string         `json:"image"`
	ImgURL    string         `json:"imgUrl"`
	ImageURL  string         `json:"imageUrl"`
}

func (p ProductPayload) CartLine() entities.CartLine {
	id := string(p.ProductID)
	if id == "" {
		id = string(p.ID)
	}
	name := p.Name
	if name == "" {
		name = p.Title
	}
	price := p.Price
	if !price.Valid && p.UnitPrice.Valid {
		price = p.UnitPrice
	}
	quantity := p.Quantity
	if quantity < 1 {
		quantity = 1
	}
	return entities.CartLine{
		ProductID: utils.NormalizeID(id),
		Name:      name,
		UnitPrice: price,
		Quantity:  quantity,
		ImageRef:  firstNonEmpty(p.Image, p.ImgURL, p.ImageURL),
	}
}

type veterinarianPayload struct {
	ID          FlexID `json:"id"`
	Name        string `json:"name"`
	StartHour   *int   `json:"startHour"`
	EndHour     *int   `json:"endHour"`
	Description string `json:"description"`
}

func (p veterinarianPayload) Veterinarian() entities.Veterinarian {
	v := entities.Veterinarian{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		StartHour:   entities.DefaultStartHour,
		EndHour:     entities.DefaultEndHour,
	}
	if p.StartHour != nil {
		v.StartHour = *p.StartHour
	}
	if p.EndHour != nil {
		v.EndHour = *p.EndHour
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
