package basket

import (
	"math/big"
	"slices"
	"strings"

	"github.com/korjavin/basketbot/pkg/ident"
	"github.com/korjavin/basketbot/pkg/models"
	"github.com/korjavin/basketbot/pkg/quantity"
)

// Key returns the grouping key of an item. Items sharing a key are the same
// purchasable thing and end up on one line.
func Key(item models.LineItem) string {
	return strings.ToLower(item.Name) + "_" + strings.ToLower(item.Unit)
}

type entry struct {
	item   models.LineItem
	amount *big.Rat
	merged bool
}

// Consolidate merges incoming into existing and returns a fresh slice with
// one line per Key, in the order each key was first seen.
//
// Quantities of merged lines are summed exactly and formatted once. Recipe
// titles accumulate in RecipeSources without duplicates. Lines first seen in
// existing keep their ID; lines first seen in incoming get a new one. The
// first item seen for a key decides its name, unit casing and any
// passthrough fields. Neither input is modified.
func Consolidate(existing, incoming []models.LineItem) []models.LineItem {
	c := consolidation{
		index: make(map[string]int, len(existing)+len(incoming)),
	}
	for _, item := range existing {
		c.fold(item, false)
	}
	for _, item := range incoming {
		c.fold(item, true)
	}
	return c.items()
}

type consolidation struct {
	index   map[string]int
	entries []*entry
}

func (c *consolidation) fold(item models.LineItem, fresh bool) {
	key := Key(item)
	amount := quantity.Parse(item.Quantity)

	if i, ok := c.index[key]; ok {
		e := c.entries[i]
		e.amount.Add(e.amount, amount)
		e.merged = true
		e.item.RecipeSources = appendSources(e.item.RecipeSources, sourcesOf(item))
		e.item.RecipeTitle = titleOf(e.item)
		return
	}

	line := item.Clone()
	line.RecipeSources = appendSources([]string{}, sourcesOf(item))
	line.RecipeTitle = titleOf(line)
	if fresh || line.ID == "" {
		line.ID = ident.New()
	}
	if _, ok := quantity.Lookup(line.Quantity); !ok || strings.TrimSpace(line.Quantity) == "" {
		line.Quantity = quantity.Format(amount)
	}

	c.index[key] = len(c.entries)
	c.entries = append(c.entries, &entry{item: line, amount: amount})
}

func (c *consolidation) items() []models.LineItem {
	out := make([]models.LineItem, len(c.entries))
	for i, e := range c.entries {
		if e.merged {
			e.item.Quantity = quantity.Format(e.amount)
		}
		out[i] = e.item
	}
	return out
}

// sourcesOf returns the recipes an item already credits, falling back to its title
func sourcesOf(item models.LineItem) []string {
	if len(item.RecipeSources) > 0 {
		return item.RecipeSources
	}
	if item.RecipeTitle != "" {
		return []string{item.RecipeTitle}
	}
	return nil
}

func appendSources(sources []string, more []string) []string {
	for _, title := range more {
		if !slices.Contains(sources, title) {
			sources = append(sources, title)
		}
	}
	return sources
}

func titleOf(item models.LineItem) string {
	switch len(item.RecipeSources) {
	case 0:
		return item.RecipeTitle
	case 1:
		return item.RecipeSources[0]
	default:
		return strings.Join(item.RecipeSources, ", ")
	}
}

// UnreadableQuantities returns the items whose quantity will be counted as one
// because it could not be read
func UnreadableQuantities(items []models.LineItem) []models.LineItem {
	var bad []models.LineItem
	for _, item := range items {
		if _, ok := quantity.Lookup(item.Quantity); !ok {
			bad = append(bad, item)
		}
	}
	return bad
}
