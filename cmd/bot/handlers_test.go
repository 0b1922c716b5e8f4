package main

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/basketbot/pkg/basket"
	"github.com/korjavin/basketbot/pkg/logger"
	"github.com/korjavin/basketbot/pkg/mealplan"
	"github.com/korjavin/basketbot/pkg/messages"
	"github.com/korjavin/basketbot/pkg/models"
	"github.com/korjavin/basketbot/pkg/recipes"
	"github.com/korjavin/basketbot/pkg/state"
	"github.com/korjavin/basketbot/pkg/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID = int64(100)

type sent struct {
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
	edit     bool
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sent
	answers []string
}

func (f *fakeSender) record(s sent) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) SendMessage(_ int64, text string) (tgbotapi.Message, error) {
	return f.record(sent{text: text})
}

func (f *fakeSender) SendMessageWithKeyboard(_ int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return f.record(sent{text: text, keyboard: &keyboard})
}

func (f *fakeSender) EditMessage(_ int64, _ int, text string) (tgbotapi.Message, error) {
	return f.record(sent{text: text, edit: true})
}

func (f *fakeSender) EditMessageWithKeyboard(_ int64, _ int, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return f.record(sent{text: text, keyboard: &keyboard, edit: true})
}

func (f *fakeSender) AnswerCallbackQuery(_ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeSender) last() sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type cookbook map[string][]models.RecipeIngredient

func (c cookbook) ExpandRecipe(_ context.Context, title string) (*models.Recipe, error) {
	ings, ok := c[recipes.Normalize(title)]
	if !ok {
		return nil, errors.New("unknown dish")
	}
	return &models.Recipe{Title: title, Ingredients: ings}, nil
}

type offline struct{}

func (offline) GenerateChatMessage(string, map[string]interface{}) (string, error) {
	return "", errors.New("offline")
}

// Wednesday
var testNow = time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*app, *fakeSender) {
	t.Helper()
	store, err := storage.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	book := cookbook{
		"omelette": {{Name: "Eggs", Quantity: "2"}, {Name: "Butter", Quantity: "10", Unit: "g"}},
		"pancakes": {{Name: "eggs", Quantity: "1"}, {Name: "Flour", Quantity: "1 1/2", Unit: "cup"}},
	}
	bot := &fakeSender{}
	return &app{
		ctx:      context.Background(),
		bot:      bot,
		baskets:  basket.New(store),
		recipes:  recipes.New(store, book),
		plans:    mealplan.New(store),
		messages: messages.New(offline{}),
		states:   state.New(),
		log:      logger.New("test"),
		now:      func() time.Time { return testNow },
	}, bot
}

func command(text string) tgbotapi.Update {
	name, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{UserName: "alice"},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func text(body string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: body, Chat: &tgbotapi.Chat{ID: chatID}}}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func basketItems(t *testing.T, a *app) []models.LineItem {
	t.Helper()
	b, err := a.baskets.GetBasket(chatID)
	require.NoError(t, err)
	return b.Items
}

func TestStartAndEmptyBasket(t *testing.T) {
	a, bot := newTestApp(t)
	r := a.routes()

	r.Dispatch(command("/start"))
	assert.Equal(t, messages.WelcomeText, bot.last().text)

	r.Dispatch(command("/basket"))
	assert.Equal(t, messages.EmptyBasketText, bot.last().text)
}

func TestAddMergesLines(t *testing.T) {
	a, bot := newTestApp(t)
	r := a.routes()

	r.Dispatch(command("/add 1/2 cup flour"))
	r.Dispatch(command("/add 1/2 cups Flour"))

	items := basketItems(t, a)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].Quantity)
	assert.Contains(t, bot.last().text, "1. ☐ flour - 1 cup (Manual)")
	require.NotNil(t, bot.last().keyboard)

	r.Dispatch(command("/add"))
	assert.Contains(t, bot.last().text, "Tell me what to add")
}

func TestAddItemsMode(t *testing.T) {
	a, bot := newTestApp(t)
	r := a.routes()

	r.Dispatch(text("milk"))
	assert.Empty(t, basketItems(t, a), "plain text is ignored outside adding mode")

	r.Dispatch(command("/add_items"))
	r.Dispatch(text("2 eggs\n200 ml milk"))
	assert.Contains(t, bot.last().text, "Added 2 item(s)")
	r.Dispatch(text("1 egg"))
	r.Dispatch(text("2 eggs"))

	r.Dispatch(callback("adding:done"))
	assert.True(t, bot.last().edit)
	r.Dispatch(text("3 eggs"))

	items := basketItems(t, a)
	require.Len(t, items, 3)
	assert.Equal(t, "eggs", items[0].Name)
	assert.Equal(t, "4", items[0].Quantity)
	assert.Equal(t, "milk", items[1].Name)
	assert.Equal(t, "egg", items[2].Name)
}

func TestAddRecipe(t *testing.T) {
	a, bot := newTestApp(t)
	r := a.routes()

	r.Dispatch(command("/add_recipe Omelette"))
	r.Dispatch(command("/add_recipe Pancakes"))

	items := basketItems(t, a)
	require.Len(t, items, 3)
	assert.Equal(t, "3", items[0].Quantity)
	assert.Equal(t, []string{"Omelette", "Pancakes"}, items[0].RecipeSources)
	assert.Equal(t, "1 1/2", items[2].Quantity)

	r.Dispatch(command("/add_recipe Mystery stew"))
	assert.Equal(t, messages.ErrorText, bot.last().text)
	assert.Len(t, basketItems(t, a), 3)
}

func TestCheckRemoveAndClear(t *testing.T) {
	a, bot := newTestApp(t)
	r := a.routes()
	r.Dispatch(command("/add bread\n1 kg apples\n2 lemons"))

	r.Dispatch(command("/check 2"))
	assert.Equal(t, "☑ apples - 1 kg (Manual)", bot.last().text)

	r.Dispatch(command("/check 9"))
	assert.Equal(t, "There is no item 9 in the basket.", bot.last().text)
	r.Dispatch(command("/check two"))
	assert.Contains(t, bot.last().text, "Which item?")

	r.Dispatch(callback("check:3"))
	assert.True(t, bot.last().edit)
	assert.Contains(t, bot.last().text, "3. ☑ lemons")

	r.Dispatch(command("/clear_checked"))
	assert.Equal(t, "🧹 Removed 2 checked item(s).", bot.last().text)

	r.Dispatch(command("/remove 1"))
	assert.Equal(t, "🗑 Removed bread", bot.last().text)
	assert.Empty(t, basketItems(t, a))
}

func TestClearBasketCallbacks(t *testing.T) {
	a, bot := newTestApp(t)
	r := a.routes()
	r.Dispatch(command("/add bread\n2 lemons"))
	r.Dispatch(callback("check:1"))

	r.Dispatch(callback("basket:clear_checked"))
	assert.Len(t, basketItems(t, a), 1, "clear_checked must not be taken for clear")

	r.Dispatch(command("/clear_basket"))
	require.NotNil(t, bot.last().keyboard)

	r.Dispatch(callback("basket:clear"))
	assert.Empty(t, basketItems(t, a))
	assert.Equal(t, messages.EmptyBasketText, bot.last().text)
	assert.Contains(t, bot.answers, "Basket emptied")
}

func TestPlanWeekAndShop(t *testing.T) {
	a, bot := newTestApp(t)
	r := a.routes()

	r.Dispatch(command("/plan today Omelette"))
	assert.Equal(t, "📅 Planned Omelette for Wed 12 Mar.", bot.last().text)
	r.Dispatch(command("/plan friday Pancakes"))
	r.Dispatch(command("/plan friday omelette"))
	r.Dispatch(command("/plan someday Soup"))
	assert.Contains(t, bot.last().text, "unknown day")
	r.Dispatch(command("/plan friday"))
	assert.Contains(t, bot.last().text, "Usage")

	r.Dispatch(command("/week"))
	assert.Contains(t, bot.last().text, "1. Omelette (by alice)")
	assert.Contains(t, bot.last().text, "Fri 14 Mar\n2. Pancakes (by alice)\n3. omelette")

	r.Dispatch(command("/unplan 3"))
	assert.Equal(t, "🗑 Removed omelette from the plan.", bot.last().text)
	r.Dispatch(command("/unplan 3"))
	assert.Equal(t, "There is no meal 3 this week.", bot.last().text)

	r.Dispatch(command("/shop_week"))
	items := basketItems(t, a)
	require.Len(t, items, 3)
	assert.Equal(t, "Eggs", items[0].Name)
	assert.Equal(t, "3", items[0].Quantity)
	assert.Equal(t, "Omelette, Pancakes", items[0].RecipeTitle)
}

func TestShopWeekWithNothingPlanned(t *testing.T) {
	a, bot := newTestApp(t)
	a.routes().Dispatch(command("/shop_week"))
	assert.Contains(t, bot.last().text, "Nothing is planned")
}

func TestBasketKeyboard(t *testing.T) {
	items := make([]models.LineItem, 12)
	items[6].IsChecked = true

	kb := basketKeyboard(items)
	require.Len(t, kb.InlineKeyboard, 4)
	assert.Len(t, kb.InlineKeyboard[0], keyboardRow)
	assert.Len(t, kb.InlineKeyboard[2], 2)
	assert.Equal(t, "☑ 7", kb.InlineKeyboard[1][1].Text)
	require.NotNil(t, kb.InlineKeyboard[1][1].CallbackData)
	assert.Equal(t, "check:7", *kb.InlineKeyboard[1][1].CallbackData)

	many := basketKeyboard(make([]models.LineItem, 100))
	assert.Len(t, many.InlineKeyboard, keyboardItems/keyboardRow+1)
}
