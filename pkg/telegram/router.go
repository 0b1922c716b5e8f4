package telegram

import (
	"fmt"
	"runtime/debug"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/basketbot/pkg/logger"
)

// HandlerFunc is a function that handles a Telegram update
type HandlerFunc func(update tgbotapi.Update)

// CommandHandler is a function that handles a Telegram command
type CommandHandler func(message *tgbotapi.Message)

// CallbackHandler is a function that handles a Telegram callback query
type CallbackHandler func(callback *tgbotapi.CallbackQuery)

// Router dispatches updates to command handlers, callback handlers and a fallback
type Router struct {
	commands  map[string]CommandHandler
	callbacks map[string]CallbackHandler
	fallback  HandlerFunc
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{
		commands:  make(map[string]CommandHandler),
		callbacks: make(map[string]CallbackHandler),
	}
}

// Command registers a handler for /name
func (r *Router) Command(name string, handler CommandHandler) {
	r.commands[strings.TrimPrefix(name, "/")] = handler
}

// Callback registers a handler for callback data starting with prefix.
// When several prefixes match, the longest wins.
func (r *Router) Callback(prefix string, handler CallbackHandler) {
	r.callbacks[prefix] = handler
}

// Fallback registers the handler for updates nothing else claims
func (r *Router) Fallback(handler HandlerFunc) {
	r.fallback = handler
}

// Commands lists the registered command names
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}

func (r *Router) callbackFor(data string) (CallbackHandler, bool) {
	var (
		best    CallbackHandler
		bestLen = -1
	)
	for prefix, handler := range r.callbacks {
		if strings.HasPrefix(data, prefix) && len(prefix) > bestLen {
			best, bestLen = handler, len(prefix)
		}
	}
	return best, bestLen >= 0
}

// Dispatch routes one update. A panicking handler is logged and does not
// stop the update loop.
func (r *Router) Dispatch(update tgbotapi.Update) {
	log := updateLogger(update)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Handler panic: %v\n%s", rec, debug.Stack())
		}
	}()

	if update.Message != nil && update.Message.IsCommand() {
		command := update.Message.Command()
		if handler, ok := r.commands[command]; ok {
			log.Info("Handling command: %s from user %s", command, userName(update.Message.From))
			handler(update.Message)
			return
		}
	}

	if update.CallbackQuery != nil {
		data := update.CallbackQuery.Data
		if handler, ok := r.callbackFor(data); ok {
			log.Info("Handling callback: %s from user %s", data, userName(update.CallbackQuery.From))
			handler(update.CallbackQuery)
		} else {
			log.Warn("No handler for callback %s", data)
		}
		return
	}

	if r.fallback != nil {
		r.fallback(update)
	}
}

// CommandArgs returns the trimmed text after the command
func CommandArgs(message *tgbotapi.Message) string {
	return strings.TrimSpace(message.CommandArguments())
}

// ChatID returns the chat an update belongs to, or 0
func ChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func updateLogger(update tgbotapi.Update) *logger.Logger {
	if chatID := ChatID(update); chatID != 0 {
		return logger.New(fmt.Sprintf("%d", chatID))
	}
	return logger.New("")
}

func userName(user *tgbotapi.User) string {
	if user == nil {
		return "unknown"
	}
	if user.UserName != "" {
		return user.UserName
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}
