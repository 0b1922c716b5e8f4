package messages

import (
	"github.com/korjavin/basketbot/pkg/logger"
)

// ChatGenerator writes a short chat message for an intent
type ChatGenerator interface {
	GenerateChatMessage(intent string, contextData map[string]interface{}) (string, error)
}

// Service provides message generation functionality
type Service struct {
	generator ChatGenerator
	logger    *logger.Logger
}

// New creates a new message service
func New(generator ChatGenerator) *Service {
	return &Service{
		generator: generator,
		logger:    logger.New("").With("component", "messages"),
	}
}

func (s *Service) generate(intent string, contextData map[string]interface{}, fallback string) string {
	msg, err := s.generator.GenerateChatMessage(intent, contextData)
	if err != nil || msg == "" {
		s.logger.Error("Failed to generate %s message: %v", intent, err)
		return fallback
	}
	return msg
}

// GenerateWelcomeMessage generates a welcome message
func (s *Service) GenerateWelcomeMessage() string {
	return s.generate("welcome", map[string]interface{}{
		"purpose":  "Keep one shared shopping basket for the chat, merging ingredients from recipes",
		"commands": []string{"/basket", "/add", "/add_recipe", "/plan", "/week", "/shop_week"},
	}, WelcomeText)
}

// GenerateEmptyBasketMessage generates a message for an empty basket
func (s *Service) GenerateEmptyBasketMessage() string {
	return s.generate("empty_basket", map[string]interface{}{}, EmptyBasketText)
}

// GenerateReminderMessage generates the headline of the daily shopping reminder
func (s *Service) GenerateReminderMessage(pending int) string {
	return s.generate("shopping_reminder", map[string]interface{}{
		"pending_items": pending,
	}, ReminderText(pending))
}

// GenerateErrorMessage generates an error message
func (s *Service) GenerateErrorMessage(context string) string {
	return s.generate("error", map[string]interface{}{
		"context": context,
	}, ErrorText)
}
