// Package collection implements the durable, ordered product collections the
// UI components share: the cart mirror and the wishlist. Components never
// hold a central copy; they mutate through a Store and re-read on the change
// events it publishes.
package collection

import (
	"encoding/json"

	"github.com/bilguunDash/online-shopping-sub000/internal/utils"
)

// Fallback defaults applied on insert so every persisted entry is render-safe
// even when the caller supplied a partial item.
const (
	defaultName     = "Unknown Product"
	defaultImageURL = "/images/placeholder.png"
)

// Entry is one product in a collection, unique by ProductID.
type Entry struct {
	ProductID   int64   `json:"productId"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Quantity    int     `json:"quantity,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
}

// UnmarshalJSON canonicalizes product identity: incoming items may carry the
// key as "productId" or as "id", and the store must collapse both onto one
// unambiguous identifier before anything is persisted.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	aux := struct {
		*alias
		ID *int64 `json:"id"`
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.ProductID == 0 {
		e.ProductID = utils.Value(aux.ID)
	}
	return nil
}

// normalize fills render-safe defaults for a fresh insert.
func (e Entry) normalize() Entry {
	if e.Name == "" {
		e.Name = defaultName
	}
	if e.ImageURL == "" {
		e.ImageURL = defaultImageURL
	}
	if e.Quantity <= 0 {
		e.Quantity = 1
	}
	return e
}
