package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// LineItem is one purchasable ingredient in a shopping basket.
//
// Fields the bot does not know about are kept in Extra and written back
// unchanged, so baskets written by other clients survive a round trip.
type LineItem struct {
	ID            string
	Name          string
	Unit          string
	Quantity      string
	RecipeTitle   string
	RecipeSources []string
	OriginalName  string
	IsChecked     bool
	Extra         map[string]json.RawMessage
}

// Clone returns a deep copy of the item
func (li LineItem) Clone() LineItem {
	li.RecipeSources = slices.Clone(li.RecipeSources)
	li.Extra = maps.Clone(li.Extra)
	return li
}

// MarshalJSON writes the known fields over the passthrough ones
func (li LineItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(li.Extra)+8)
	for key, raw := range li.Extra {
		out[key] = raw
	}

	sources := li.RecipeSources
	if sources == nil {
		sources = []string{}
	}

	out["id"] = li.ID
	out["name"] = li.Name
	out["unit"] = li.Unit
	out["quantity"] = li.Quantity
	out["recipeTitle"] = li.RecipeTitle
	out["recipeSources"] = sources
	out["isChecked"] = li.IsChecked
	if li.OriginalName != "" {
		out["originalName"] = li.OriginalName
	}

	return json.Marshal(out)
}

// UnmarshalJSON reads the known fields and keeps every other key in Extra.
// Numeric ids and quantities are accepted and stored as their decimal text.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	item := LineItem{}
	for key, raw := range fields {
		var err error
		switch key {
		case "id":
			err = decodeText(raw, &item.ID)
		case "name":
			err = decodeText(raw, &item.Name)
		case "unit":
			err = decodeText(raw, &item.Unit)
		case "quantity":
			err = decodeText(raw, &item.Quantity)
		case "recipeTitle":
			err = decodeText(raw, &item.RecipeTitle)
		case "originalName":
			err = decodeText(raw, &item.OriginalName)
		case "recipeSources":
			if !isNull(raw) {
				err = json.Unmarshal(raw, &item.RecipeSources)
			}
		case "isChecked":
			if !isNull(raw) {
				err = json.Unmarshal(raw, &item.IsChecked)
			}
		default:
			if item.Extra == nil {
				item.Extra = make(map[string]json.RawMessage)
			}
			item.Extra[key] = slices.Clone(raw)
		}
		if err != nil {
			return fmt.Errorf("line item field %q: %w", key, err)
		}
	}

	*li = item
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeText accepts a JSON string, number or null
func decodeText(raw json.RawMessage, dst *string) error {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case isNull(trimmed):
		*dst = ""
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		return json.Unmarshal(trimmed, dst)
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*dst = n.String()
		return nil
	}
}
