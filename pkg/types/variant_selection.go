package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VariantSelection snapshots one chosen option on a cart or order line.
// Names and modifiers are copied at selection time so later catalog edits
// do not rewrite history.
type VariantSelection struct {
	VariantID     uuid.UUID       `json:"variant_id"`
	OptionID      uuid.UUID       `json:"option_id"`
	VariantName   string          `json:"variant_name"`
	OptionValue   string          `json:"option_value"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
}

// VariantSelections is a slice marshaled as JSONB.
type VariantSelections []VariantSelection

// Value serializes the selections to JSON.
func (v VariantSelections) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// Scan decodes JSONB into the selections slice.
func (v *VariantSelections) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded VariantSelections
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*v = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
