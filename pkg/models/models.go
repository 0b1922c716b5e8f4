package models

import (
	"time"
)

// Basket is the shared shopping basket of a Telegram chat
type Basket struct {
	ID          string     `json:"id"`
	ChannelID   int64      `json:"channel_id"`
	Items       []LineItem `json:"items"`
	LastUpdated time.Time  `json:"last_updated"`
}

// Recipe is a dish expanded into the ingredients needed to cook it
type Recipe struct {
	Title        string             `json:"title"`
	Cuisine      string             `json:"cuisine,omitempty"`
	Servings     int                `json:"servings,omitempty"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions,omitempty"`
	FetchedAt    time.Time          `json:"fetched_at"`
}

// RecipeIngredient is one ingredient line of a recipe
type RecipeIngredient struct {
	Name     string `json:"name" validate:"required,max=80"`
	Quantity string `json:"quantity" validate:"max=20"`
	Unit     string `json:"unit" validate:"max=20"`
}

// MealPlan holds the meals a chat has planned, keyed by day (YYYY-MM-DD)
type MealPlan struct {
	ID          string                   `json:"id"`
	ChannelID   int64                    `json:"channel_id"`
	Days        map[string][]PlannedMeal `json:"days"`
	LastUpdated time.Time                `json:"last_updated"`
}

// PlannedMeal is a recipe scheduled for a day
type PlannedMeal struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	AddedBy string    `json:"added_by,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// DayPlan is one day of a meal plan in calendar order
type DayPlan struct {
	Day   time.Time
	Meals []PlannedMeal
}
