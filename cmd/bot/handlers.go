package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/basketbot/pkg/basket"
	"github.com/korjavin/basketbot/pkg/logger"
	"github.com/korjavin/basketbot/pkg/mealplan"
	"github.com/korjavin/basketbot/pkg/messages"
	"github.com/korjavin/basketbot/pkg/models"
	"github.com/korjavin/basketbot/pkg/recipes"
	"github.com/korjavin/basketbot/pkg/state"
	"github.com/korjavin/basketbot/pkg/telegram"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	expandTimeout = 2 * time.Minute

	// keyboardItems is the number of basket lines that get a toggle button
	keyboardItems = 40
	keyboardRow   = 5
)

// sender is the part of the Telegram bot the handlers talk to
type sender interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string) (tgbotapi.Message, error)
	EditMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallbackQuery(callbackID string, text string) error
}

// app holds the services the chat handlers work with
type app struct {
	ctx      context.Context
	bot      sender
	baskets  *basket.Service
	recipes  *recipes.Service
	plans    *mealplan.Service
	messages *messages.Service
	states   *state.Manager
	log      *logger.Logger
	now      func() time.Time
}

// commandMenu is published to Telegram so clients can offer completion
var commandMenu = []tgbotapi.BotCommand{
	{Command: "basket", Description: "Show the shopping basket"},
	{Command: "add", Description: "Add an item, e.g. /add 2 cups flour"},
	{Command: "add_items", Description: "Add several items, one per message line"},
	{Command: "add_recipe", Description: "Add all ingredients of a recipe"},
	{Command: "check", Description: "Tick or untick item number n"},
	{Command: "remove", Description: "Remove item number n"},
	{Command: "clear_checked", Description: "Remove ticked items"},
	{Command: "clear_basket", Description: "Empty the basket"},
	{Command: "plan", Description: "Plan a meal, e.g. /plan friday Lasagna"},
	{Command: "unplan", Description: "Remove meal number n from the plan"},
	{Command: "week", Description: "Show this week's meal plan"},
	{Command: "shop_week", Description: "Add ingredients of the week's meals"},
}

func (a *app) routes() *telegram.Router {
	r := telegram.NewRouter()
	r.Command("start", a.handleStart)
	r.Command("help", a.handleStart)
	r.Command("basket", a.handleBasket)
	r.Command("add", a.handleAdd)
	r.Command("add_items", a.handleAddItems)
	r.Command("add_recipe", a.handleAddRecipe)
	r.Command("check", a.handleCheck)
	r.Command("remove", a.handleRemove)
	r.Command("clear_checked", a.handleClearChecked)
	r.Command("clear_basket", a.handleClearBasket)
	r.Command("plan", a.handlePlan)
	r.Command("unplan", a.handleUnplan)
	r.Command("week", a.handleWeek)
	r.Command("shop_week", a.handleShopWeek)

	r.Callback("check:", a.callbackCheck)
	r.Callback("basket:refresh", a.callbackRefresh)
	r.Callback("basket:clear", a.callbackClear)
	r.Callback("basket:clear_checked", a.callbackClearChecked)
	r.Callback("adding:done", a.callbackDoneAdding)

	r.Fallback(a.handleText)
	return r
}

func (a *app) reply(chatID int64, text string) {
	if _, err := a.bot.SendMessage(chatID, text); err != nil {
		a.log.Error("Failed to send message to %d: %v", chatID, err)
	}
}

func (a *app) replyError(chatID int64, action string, err error) {
	a.log.Error("Failed to %s in chat %d: %v", action, chatID, err)
	a.reply(chatID, a.messages.GenerateErrorMessage(action))
}

// showBasket sends the rendered basket with its toggle keyboard
func (a *app) showBasket(chatID int64, prefix string, items []models.LineItem) {
	text := messages.FormatBasket(items)
	if prefix != "" {
		text = prefix + "\n\n" + text
	}
	if len(items) == 0 {
		a.reply(chatID, text)
		return
	}
	if _, err := a.bot.SendMessageWithKeyboard(chatID, text, basketKeyboard(items)); err != nil {
		a.log.Error("Failed to send basket to %d: %v", chatID, err)
	}
}

// editBasket redraws a basket message in place after a button press
func (a *app) editBasket(chatID int64, messageID int, items []models.LineItem) {
	var err error
	if len(items) == 0 {
		_, err = a.bot.EditMessage(chatID, messageID, messages.EmptyBasketText)
	} else {
		_, err = a.bot.EditMessageWithKeyboard(chatID, messageID, messages.FormatBasket(items), basketKeyboard(items))
	}
	if err != nil {
		a.log.Error("Failed to edit basket message in %d: %v", chatID, err)
	}
}

func basketKeyboard(items []models.LineItem) tgbotapi.InlineKeyboardMarkup {
	shown := items
	if len(shown) > keyboardItems {
		shown = shown[:keyboardItems]
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, chunk := range lo.Chunk(lo.Range(len(shown)), keyboardRow) {
		row := lo.Map(chunk, func(i int, _ int) tgbotapi.InlineKeyboardButton {
			label := lo.Ternary(items[i].IsChecked, "☑ ", "☐ ") + strconv.Itoa(i+1)
			return tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("check:%d", i+1))
		})
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🧹 Clear checked", "basket:clear_checked"),
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", "basket:refresh"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func doneAddingKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Done adding", "adding:done"),
	))
}

func (a *app) handleStart(message *tgbotapi.Message) {
	a.reply(message.Chat.ID, a.messages.GenerateWelcomeMessage())
}

func (a *app) handleBasket(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	b, err := a.baskets.GetBasket(chatID)
	if err != nil {
		a.replyError(chatID, "load the basket", err)
		return
	}
	if len(b.Items) == 0 {
		a.reply(chatID, a.messages.GenerateEmptyBasketMessage())
		return
	}
	a.showBasket(chatID, "", b.Items)
}

func (a *app) addLines(chatID int64, text string) (int, []models.LineItem, error) {
	entries := basket.ParseEntries(text)
	if len(entries) == 0 {
		return 0, nil, nil
	}
	items, err := a.baskets.AddItems(chatID, entries)
	return len(entries), items, err
}

func (a *app) handleAdd(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	args := telegram.CommandArgs(message)
	if args == "" {
		a.reply(chatID, "Tell me what to add, e.g. /add 2 cups flour")
		return
	}

	added, items, err := a.addLines(chatID, args)
	if err != nil {
		a.replyError(chatID, "add items", err)
		return
	}
	if added == 0 {
		a.reply(chatID, "😕 I couldn't find an item in that. Try /add 2 cups flour")
		return
	}
	a.showBasket(chatID, fmt.Sprintf("✅ Added %d item(s).", added), items)
}

func (a *app) handleAddItems(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	a.states.SetState(chatID, state.StateAddingItems)
	if _, err := a.bot.SendMessageWithKeyboard(chatID,
		"📝 Send me the items, one per line (e.g. \"2 cups flour\"). Press Done when you're finished.",
		doneAddingKeyboard()); err != nil {
		a.log.Error("Failed to send message to %d: %v", chatID, err)
	}
}

func (a *app) handleText(update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Text == "" || message.IsCommand() || message.Chat == nil {
		return
	}
	chatID := message.Chat.ID
	if a.states.GetState(chatID) != state.StateAddingItems {
		return
	}
	a.states.Touch(chatID)

	added, _, err := a.addLines(chatID, message.Text)
	if err != nil {
		a.replyError(chatID, "add items", err)
		return
	}
	if added == 0 {
		a.reply(chatID, "😕 I couldn't find any items in that message.")
		return
	}
	if _, err := a.bot.SendMessageWithKeyboard(chatID,
		fmt.Sprintf("✅ Added %d item(s). Send more or press Done.", added),
		doneAddingKeyboard()); err != nil {
		a.log.Error("Failed to send message to %d: %v", chatID, err)
	}
}

// addRecipes expands titles and puts their ingredients into the basket
func (a *app) addRecipes(chatID int64, titles []string) ([]models.LineItem, error) {
	ctx, cancel := context.WithTimeout(a.ctx, expandTimeout)
	defer cancel()

	entries, err := a.recipes.LineItems(ctx, titles...)
	if err != nil {
		return nil, err
	}
	return a.baskets.AddItems(chatID, entries)
}

func (a *app) handleAddRecipe(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	title := telegram.CommandArgs(message)
	if title == "" {
		a.reply(chatID, "Which recipe? e.g. /add_recipe Pancakes")
		return
	}

	a.reply(chatID, fmt.Sprintf("🧑‍🍳 Looking up the ingredients for %s...", title))
	items, err := a.addRecipes(chatID, []string{title})
	if err != nil {
		a.replyError(chatID, "add recipe "+title, err)
		return
	}
	a.showBasket(chatID, fmt.Sprintf("✅ Added the ingredients for %s.", title), items)
}

// position reads the 1-based item number argument of a command
func position(message *tgbotapi.Message) (int, bool) {
	n, err := strconv.Atoi(telegram.CommandArgs(message))
	return n, err == nil && n > 0
}

func (a *app) handleCheck(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	n, ok := position(message)
	if !ok {
		a.reply(chatID, "Which item? e.g. /check 3")
		return
	}

	item, err := a.baskets.ToggleItem(chatID, n)
	if errors.Is(err, basket.ErrNoSuchItem) {
		a.reply(chatID, fmt.Sprintf("There is no item %d in the basket.", n))
		return
	}
	if err != nil {
		a.replyError(chatID, "check an item", err)
		return
	}
	a.reply(chatID, messages.FormatItem(item))
}

func (a *app) handleRemove(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	n, ok := position(message)
	if !ok {
		a.reply(chatID, "Which item? e.g. /remove 3")
		return
	}

	item, err := a.baskets.RemoveItem(chatID, n)
	if errors.Is(err, basket.ErrNoSuchItem) {
		a.reply(chatID, fmt.Sprintf("There is no item %d in the basket.", n))
		return
	}
	if err != nil {
		a.replyError(chatID, "remove an item", err)
		return
	}
	a.reply(chatID, "🗑 Removed "+item.Name)
}

func (a *app) handleClearChecked(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	dropped, err := a.baskets.ClearChecked(chatID)
	if err != nil {
		a.replyError(chatID, "clear checked items", err)
		return
	}
	a.reply(chatID, fmt.Sprintf("🧹 Removed %d checked item(s).", dropped))
}

func (a *app) handleClearBasket(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	keyboard := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Yes, empty it", "basket:clear"),
		tgbotapi.NewInlineKeyboardButtonData("Cancel", "basket:refresh"),
	))
	if _, err := a.bot.SendMessageWithKeyboard(chatID, "Empty the whole basket?", keyboard); err != nil {
		a.log.Error("Failed to send message to %d: %v", chatID, err)
	}
}

func (a *app) handlePlan(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	word, title, _ := strings.Cut(telegram.CommandArgs(message), " ")
	title = strings.TrimSpace(title)
	if word == "" || title == "" {
		a.reply(chatID, "Usage: /plan <day> <recipe>, e.g. /plan friday Lasagna")
		return
	}

	day, err := mealplan.ParseDay(word, a.now())
	if err != nil {
		a.reply(chatID, "📅 "+err.Error())
		return
	}

	if _, err := a.plans.Plan(chatID, day, title, planner(message.From)); err != nil {
		a.replyError(chatID, "plan a meal", err)
		return
	}
	a.reply(chatID, fmt.Sprintf("📅 Planned %s for %s.", title, day.Format("Mon 2 Jan")))
}

func planner(user *tgbotapi.User) string {
	if user == nil {
		return ""
	}
	return lo.Ternary(user.UserName != "", user.UserName, user.FirstName)
}

func (a *app) handleUnplan(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	n, ok := position(message)
	if !ok {
		a.reply(chatID, "Which meal? Use the number shown by /week, e.g. /unplan 2")
		return
	}

	week, err := a.plans.Week(chatID, a.now())
	if err != nil {
		a.replyError(chatID, "load the meal plan", err)
		return
	}
	meals := mealplan.Meals(week)
	if n > len(meals) {
		a.reply(chatID, fmt.Sprintf("There is no meal %d this week.", n))
		return
	}

	removed, err := a.plans.Unplan(chatID, meals[n-1].ID)
	if err != nil {
		a.replyError(chatID, "remove a meal", err)
		return
	}
	a.reply(chatID, "🗑 Removed "+removed.Title+" from the plan.")
}

func (a *app) handleWeek(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	week, err := a.plans.Week(chatID, a.now())
	if err != nil {
		a.replyError(chatID, "load the meal plan", err)
		return
	}
	a.reply(chatID, messages.FormatWeek(week))
}

func (a *app) handleShopWeek(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	titles, err := a.plans.Titles(chatID, a.now(), mealplan.WeekDays)
	if err != nil {
		a.replyError(chatID, "load the meal plan", err)
		return
	}
	if len(titles) == 0 {
		a.reply(chatID, "📅 Nothing is planned this week. Plan a meal with /plan <day> <recipe>.")
		return
	}

	a.reply(chatID, fmt.Sprintf("🧑‍🍳 Gathering ingredients for %s...", strings.Join(titles, ", ")))
	items, err := a.addRecipes(chatID, titles)
	if err != nil {
		a.replyError(chatID, "shop for the week", err)
		return
	}
	a.showBasket(chatID, fmt.Sprintf("✅ Added the ingredients for %d meal(s).", len(titles)), items)
}

func (a *app) answer(callback *tgbotapi.CallbackQuery, text string) {
	if err := a.bot.AnswerCallbackQuery(callback.ID, text); err != nil {
		a.log.Error("Failed to answer callback %s: %v", callback.ID, err)
	}
}

func (a *app) callbackCheck(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	n, err := strconv.Atoi(strings.TrimPrefix(callback.Data, "check:"))
	if err != nil {
		a.answer(callback, "Unknown item")
		return
	}

	item, err := a.baskets.ToggleItem(chatID, n)
	if err != nil {
		a.log.Error("Failed to toggle item %d in chat %d: %v", n, chatID, err)
		a.answer(callback, "That item is gone, refreshing")
	} else {
		a.answer(callback, messages.FormatItem(item))
	}
	a.refresh(callback)
}

func (a *app) refresh(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	b, err := a.baskets.GetBasket(chatID)
	if err != nil {
		a.log.Error("Failed to load basket of chat %d: %v", chatID, err)
		return
	}
	a.editBasket(chatID, callback.Message.MessageID, b.Items)
}

func (a *app) callbackRefresh(callback *tgbotapi.CallbackQuery) {
	a.answer(callback, "")
	a.refresh(callback)
}

func (a *app) callbackClear(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	if err := a.baskets.Clear(chatID); err != nil {
		a.log.Error("Failed to clear basket of chat %d: %v", chatID, err)
		a.answer(callback, messages.ErrorText)
		return
	}
	a.answer(callback, "Basket emptied")
	a.refresh(callback)
}

func (a *app) callbackClearChecked(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	dropped, err := a.baskets.ClearChecked(chatID)
	if err != nil {
		a.log.Error("Failed to clear checked items of chat %d: %v", chatID, err)
		a.answer(callback, messages.ErrorText)
		return
	}
	a.answer(callback, fmt.Sprintf("Removed %d checked item(s)", dropped))
	a.refresh(callback)
}

func (a *app) callbackDoneAdding(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	a.states.ClearState(chatID)
	a.answer(callback, "Thanks!")
	if _, err := a.bot.EditMessage(chatID, callback.Message.MessageID, "✅ Done adding. Use /basket to see the list."); err != nil {
		a.log.Error("Failed to edit message in %d: %v", chatID, err)
	}
}
