package inventory

import (
	"encoding/json"
	"fmt"

	"github.com/kbukum/invstream/validation"
)

// State is the inventory of one product. TotalAvailable and TotalReserved are
// each non-negative; no relation between them is enforced here.
type State struct {
	ProductID      string    `json:"productId"`
	TotalAvailable int64     `json:"totalAvailable"`
	TotalReserved  int64     `json:"totalReserved"`
	Lots           []LotInfo `json:"lots"`
}

// LotInfo describes one stock lot. ExpiresAt is kept verbatim.
type LotInfo struct {
	LotID     string `json:"lotId"`
	Quantity  int64  `json:"quantity"`
	Reserved  int64  `json:"reserved"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// wireState mirrors the JSON payload. Pointers distinguish a missing
// field from an explicit zero.
type wireState struct {
	ProductID      *string   `json:"productId" validate:"required,min=1"`
	TotalAvailable *int64    `json:"totalAvailable" validate:"required,gte=0"`
	TotalReserved  *int64    `json:"totalReserved" validate:"required,gte=0"`
	Lots           []wireLot `json:"lots" validate:"required,dive"`
}

type wireLot struct {
	LotID     *string `json:"lotId" validate:"required,min=1"`
	Quantity  *int64  `json:"quantity" validate:"required,gte=0"`
	Reserved  *int64  `json:"reserved" validate:"omitempty,gte=0"`
	ExpiresAt *string `json:"expiresAt"`
}

// DecodeState parses and validates an inventory payload. Numbers must be
// exact integers in int64 range.
func DecodeState(data string) (State, error) {
	var w wireState
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return State{}, fmt.Errorf("invalid payload: %w", err)
	}
	if err := validation.Validate(w); err != nil {
		return State{}, err
	}
	return w.state(), nil
}

func (w wireState) state() State {
	s := State{
		ProductID:      *w.ProductID,
		TotalAvailable: *w.TotalAvailable,
		TotalReserved:  *w.TotalReserved,
		Lots:           make([]LotInfo, 0, len(w.Lots)),
	}
	for _, l := range w.Lots {
		lot := LotInfo{LotID: *l.LotID, Quantity: *l.Quantity}
		if l.Reserved != nil {
			lot.Reserved = *l.Reserved
		}
		if l.ExpiresAt != nil {
			lot.ExpiresAt = *l.ExpiresAt
		}
		s.Lots = append(s.Lots, lot)
	}
	return s
}

// Validate checks s against the same rules applied when decoding.
func (s State) Validate() error {
	v := validation.New().
		Required("productId", s.ProductID).
		NonNegative("totalAvailable", s.TotalAvailable).
		NonNegative("totalReserved", s.TotalReserved).
		Custom(s.Lots != nil, "lots", "is required")
	for i, l := range s.Lots {
		field := fmt.Sprintf("lots[%d]", i)
		v.Required(field+".lotId", l.LotID).
			NonNegative(field+".quantity", l.Quantity).
			NonNegative(field+".reserved", l.Reserved)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
