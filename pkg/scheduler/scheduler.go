package scheduler

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/basketbot/pkg/basket"
	"github.com/korjavin/basketbot/pkg/logger"
	"github.com/korjavin/basketbot/pkg/mealplan"
	"github.com/korjavin/basketbot/pkg/messages"
)

// planRetention is how far back meal plan days are kept
const planRetention = 7 * 24 * time.Hour

// Notifier delivers a text message to a chat
type Notifier interface {
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
}

// Service provides scheduling functionality for reminders and housekeeping
type Service struct {
	baskets      *basket.Service
	plans        *mealplan.Service
	messages     *messages.Service
	notifier     Notifier
	reminderHour int
	logger       *logger.Logger

	mu        sync.Mutex
	reminded  map[int64]string
	lastPrune string

	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a new scheduler service
func New(
	baskets *basket.Service,
	plans *mealplan.Service,
	msgs *messages.Service,
	notifier Notifier,
	reminderHour int,
) *Service {
	return &Service{
		baskets:      baskets,
		plans:        plans,
		messages:     msgs,
		notifier:     notifier,
		reminderHour: reminderHour,
		logger:       logger.New("scheduler"),
		reminded:     make(map[int64]string),
		now:          time.Now,
		stopChan:     make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Service) Start() {
	s.logger.Info("Starting scheduler, reminders at %02d:00", s.reminderHour)
	go s.run()
}

// Stop stops the scheduler
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping scheduler")
		close(s.stopChan)
	})
}

func (s *Service) run() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(s.now())
		case <-s.stopChan:
			return
		}
	}
}

// tick runs whatever is due at now
func (s *Service) tick(now time.Time) {
	if now.Hour() == s.reminderHour {
		s.RunReminders(now)
	}

	s.mu.Lock()
	due := s.lastPrune != mealplan.DayKey(now)
	s.mu.Unlock()
	if due {
		s.PruneMealPlans(now)
	}
}

// RunReminders sends every chat with unchecked items a reminder, at most
// once per chat per day. It returns how many reminders were sent.
func (s *Service) RunReminders(now time.Time) int {
	channels, err := s.baskets.Channels()
	if err != nil {
		s.logger.Error("Failed to list baskets: %v", err)
		return 0
	}

	today := mealplan.DayKey(now)
	sent := 0
	for _, channelID := range channels {
		s.mu.Lock()
		done := s.reminded[channelID] == today
		s.mu.Unlock()
		if done {
			continue
		}

		pending, err := s.baskets.Pending(channelID)
		if err != nil {
			s.logger.Error("Failed to load basket of channel %d: %v", channelID, err)
			continue
		}
		if len(pending) == 0 {
			continue
		}

		text := s.messages.GenerateReminderMessage(len(pending)) + "\n\n" + messages.FormatShoppingList(pending)
		if _, err := s.notifier.SendMessage(channelID, text); err != nil {
			s.logger.Error("Failed to send reminder to channel %d: %v", channelID, err)
			continue
		}

		s.mu.Lock()
		s.reminded[channelID] = today
		s.mu.Unlock()
		sent++
		s.logger.Info("Sent shopping reminder with %d items to channel %d", len(pending), channelID)
	}
	return sent
}

// PruneMealPlans drops meal plan days older than a week from every chat
func (s *Service) PruneMealPlans(now time.Time) int {
	channels, err := s.plans.Channels()
	if err != nil {
		s.logger.Error("Failed to list meal plans: %v", err)
		return 0
	}

	cutoff := now.Add(-planRetention)
	total := 0
	for _, channelID := range channels {
		pruned, err := s.plans.Prune(channelID, cutoff)
		if err != nil {
			s.logger.Error("Failed to prune meal plan of channel %d: %v", channelID, err)
			continue
		}
		total += pruned
	}

	s.mu.Lock()
	s.lastPrune = mealplan.DayKey(now)
	s.mu.Unlock()
	return total
}
