// Package scheduler runs the bot's background jobs: the daily shopping
// reminder for chats with unchecked basket items and the daily pruning of
// past meal plan days.
package scheduler
