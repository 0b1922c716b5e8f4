package basket

import (
	"regexp"
	"strings"

	"github.com/korjavin/basketbot/pkg/models"
)

// ManualSource is the recipe title credited for items typed in by hand
const ManualSource = "Manual"

var entryPattern = regexp.MustCompile(`^(\d+\s+\d+/\d+|\d+/\d+|\d+(?:\.\d+)?|\.\d+)(\s*)(.*)$`)

// unitAliases maps the spellings people type to one canonical unit so that
// "2 cups flour" and "1 cup flour" land on the same line
var unitAliases = map[string]string{
	"cup": "cup", "cups": "cup",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"g": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"clove": "clove", "cloves": "clove",
	"can": "can", "cans": "can",
	"pinch": "pinch", "pinches": "pinch",
	"bunch": "bunch", "bunches": "bunch",
	"pack": "pack", "packs": "pack",
}

// NormalizeUnit returns the canonical spelling of a unit, or the trimmed
// lower-cased input when it is not a known unit
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(unit, ".")))
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

func isUnit(word string) bool {
	_, ok := unitAliases[strings.ToLower(strings.TrimSuffix(word, "."))]
	return ok
}

// ParseEntry reads a hand-typed basket line such as "1 1/2 cups flour",
// "200ml milk" or "eggs". It reports false when there is no name.
func ParseEntry(text string) (models.LineItem, bool) {
	text = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(text), "-•*"))
	if text == "" {
		return models.LineItem{}, false
	}

	item := models.LineItem{RecipeTitle: ManualSource}
	rest := text

	if m := entryPattern.FindStringSubmatch(text); m != nil {
		fields := strings.Fields(m[3])
		hasUnit := len(fields) > 0 && isUnit(fields[0])

		// "7up" is a name, "200ml milk" is an amount
		if m[2] != "" || hasUnit {
			item.Quantity = strings.Join(strings.Fields(m[1]), " ")
			if hasUnit {
				item.Unit = NormalizeUnit(fields[0])
				fields = fields[1:]
			}
			if len(fields) > 0 && strings.EqualFold(fields[0], "of") {
				fields = fields[1:]
			}
			rest = strings.Join(fields, " ")
		}
	}

	item.Name = strings.TrimSpace(rest)
	if item.Name == "" {
		return models.LineItem{}, false
	}
	return item, true
}

// ParseEntries reads one entry per line and skips lines without a name
func ParseEntries(text string) []models.LineItem {
	var items []models.LineItem
	for _, line := range strings.Split(text, "\n") {
		if item, ok := ParseEntry(line); ok {
			items = append(items, item)
		}
	}
	return items
}
