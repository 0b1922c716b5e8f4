package messages

import (
	"fmt"
	"strings"

	"github.com/korjavin/basketbot/pkg/models"
	"github.com/samber/lo"
)

// Fallback texts used when the language model is unavailable
const (
	WelcomeText = "👋 Welcome to BasketBot! I keep one shopping basket for this chat.\n\n" +
		"/add 2 cups flour adds a line, /add_items adds several, /add_recipe Pancakes adds a whole recipe.\n" +
		"/basket shows the list, /check 3 ticks an item, /clear_checked tidies up.\n" +
		"/plan friday Lasagna plans a meal, /week shows the plan and /shop_week puts it all in the basket."
	EmptyBasketText = "🧺 The basket is empty. Add something with /add or /add_recipe."
	ErrorText       = "😢 Sorry, something went wrong. Please try again later."
)

// ReminderText is the fallback headline of the daily reminder
func ReminderText(pending int) string {
	if pending == 1 {
		return "🛒 Shopping reminder: 1 item is still in the basket."
	}
	return fmt.Sprintf("🛒 Shopping reminder: %d items are still in the basket.", pending)
}

// FormatItem renders one basket line without its number
func FormatItem(item models.LineItem) string {
	var sb strings.Builder
	sb.WriteString(lo.Ternary(item.IsChecked, "☑ ", "☐ "))
	sb.WriteString(item.Name)

	amount := strings.TrimSpace(item.Quantity + " " + item.Unit)
	if amount != "" {
		sb.WriteString(" - ")
		sb.WriteString(amount)
	}
	if item.RecipeTitle != "" {
		sb.WriteString(" (")
		sb.WriteString(item.RecipeTitle)
		sb.WriteString(")")
	}
	return sb.String()
}

// FormatBasket renders a numbered basket; numbers are the positions /check and /remove take
func FormatBasket(items []models.LineItem) string {
	if len(items) == 0 {
		return EmptyBasketText
	}

	checked := lo.CountBy(items, func(item models.LineItem) bool { return item.IsChecked })

	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 Basket (%d items, %d checked)\n\n", len(items), checked)
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, FormatItem(item))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatWeek renders a meal plan week. Meals are numbered across the whole
// week in the order /unplan takes.
func FormatWeek(week []models.DayPlan) string {
	var sb strings.Builder
	sb.WriteString("📅 Meal plan\n")

	n := 0
	for _, day := range week {
		fmt.Fprintf(&sb, "\n%s\n", day.Day.Format("Mon 2 Jan"))
		if len(day.Meals) == 0 {
			sb.WriteString("   nothing planned\n")
			continue
		}
		for _, meal := range day.Meals {
			n++
			fmt.Fprintf(&sb, "%d. %s", n, meal.Title)
			if meal.AddedBy != "" {
				fmt.Fprintf(&sb, " (by %s)", meal.AddedBy)
			}
			sb.WriteString("\n")
		}
	}

	if n == 0 {
		sb.WriteString("\nPlan a meal with /plan <day> <recipe>.")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatShoppingList renders items as a plain bullet list
func FormatShoppingList(items []models.LineItem) string {
	lines := lo.Map(items, func(item models.LineItem, _ int) string {
		line := "• " + item.Name
		if amount := strings.TrimSpace(item.Quantity + " " + item.Unit); amount != "" {
			line += " - " + amount
		}
		return line
	})
	return strings.Join(lines, "\n")
}
