package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/korjavin/basketbot/pkg/basket"
	"github.com/korjavin/basketbot/pkg/config"
	"github.com/korjavin/basketbot/pkg/logger"
	"github.com/korjavin/basketbot/pkg/mealplan"
	"github.com/korjavin/basketbot/pkg/messages"
	"github.com/korjavin/basketbot/pkg/openai"
	"github.com/korjavin/basketbot/pkg/recipes"
	"github.com/korjavin/basketbot/pkg/scheduler"
	"github.com/korjavin/basketbot/pkg/state"
	"github.com/korjavin/basketbot/pkg/storage"
	"github.com/korjavin/basketbot/pkg/telegram"
)

func main() {
	log := logger.Global
	log.Info("Starting BasketBot...")

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Warn("Invalid log settings, keeping defaults: %v", err)
	}
	log.Info("Configuration: %+v", cfg.Redacted())

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// Start BadgerDB garbage collection
	store.StartGCRoutine(10 * time.Minute)

	openaiClient := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.OpenAIModel)

	bot, err := telegram.New(cfg.BotToken)
	if err != nil {
		log.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &app{
		ctx:      ctx,
		bot:      bot,
		baskets:  basket.New(store),
		recipes:  recipes.New(store, openaiClient),
		plans:    mealplan.New(store),
		messages: messages.New(openaiClient),
		states:   state.New(),
		log:      log,
		now:      time.Now,
	}

	if err := bot.SetCommands(commandMenu); err != nil {
		log.Warn("Could not publish the command menu: %v", err)
	}

	sched := scheduler.New(a.baskets, a.plans, a.messages, bot, cfg.ReminderHour)
	sched.Start()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
		sched.Stop()
		bot.Stop()
	}()

	log.Info("Bot is now running. Press CTRL-C to exit.")
	if err := bot.Start(a.routes()); err != nil {
		log.Error("Error running bot: %v", err)
		os.Exit(1)
	}
}
