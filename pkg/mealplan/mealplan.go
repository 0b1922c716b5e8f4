package mealplan

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/korjavin/basketbot/pkg/ident"
	"github.com/korjavin/basketbot/pkg/logger"
	"github.com/korjavin/basketbot/pkg/models"
	"github.com/korjavin/basketbot/pkg/storage"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	keyPrefix = "mealplan:"
	dayLayout = "2006-01-02"

	// WeekDays is the length of the window shown by Week
	WeekDays = 7
)

// ErrNoSuchMeal is returned when a meal id is not in the plan
var ErrNoSuchMeal = errors.New("no such meal in the plan")

// Service provides meal planning functionality
type Service struct {
	store  *storage.Store
	logger *logger.Logger
	locks  storage.Locks
}

// New creates a new meal plan service
func New(store *storage.Store) *Service {
	return &Service{
		store:  store,
		logger: logger.New("").With("component", "mealplan"),
	}
}

func planKey(channelID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, channelID)
}

// DayKey is the storage key of the calendar day t falls on
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// startOfDay truncates t to midnight in its own location
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GetPlan retrieves the meal plan for a channel
func (s *Service) GetPlan(channelID int64) (*models.MealPlan, error) {
	key := planKey(channelID)

	var plan models.MealPlan
	err := s.store.Get(key, &plan)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.MealPlan{
			ID:          key,
			ChannelID:   channelID,
			Days:        make(map[string][]models.PlannedMeal),
			LastUpdated: time.Now(),
		}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load meal plan for channel %d", channelID)
	}
	if plan.Days == nil {
		plan.Days = make(map[string][]models.PlannedMeal)
	}
	return &plan, nil
}

func (s *Service) update(channelID int64, fn func(*models.MealPlan) error) error {
	unlock := s.locks.Lock(planKey(channelID))
	defer unlock()

	plan, err := s.GetPlan(channelID)
	if err != nil {
		return err
	}
	if err := fn(plan); err != nil {
		return err
	}

	plan.LastUpdated = time.Now()
	if err := s.store.Set(plan.ID, plan); err != nil {
		return errors.Wrapf(err, "failed to save meal plan for channel %d", channelID)
	}
	return nil
}

// Plan schedules a recipe on a day
func (s *Service) Plan(channelID int64, day time.Time, title, addedBy string) (models.PlannedMeal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.PlannedMeal{}, errors.New("empty recipe title")
	}

	meal := models.PlannedMeal{
		ID:      ident.New(),
		Title:   title,
		AddedBy: addedBy,
		AddedAt: time.Now(),
	}
	err := s.update(channelID, func(p *models.MealPlan) error {
		key := DayKey(day)
		p.Days[key] = append(p.Days[key], meal)
		return nil
	})
	if err != nil {
		return models.PlannedMeal{}, err
	}

	s.logger.Info("Planned %s on %s for channel %d", title, DayKey(day), channelID)
	return meal, nil
}

// Unplan removes a planned meal by id
func (s *Service) Unplan(channelID int64, mealID string) (models.PlannedMeal, error) {
	var removed models.PlannedMeal
	err := s.update(channelID, func(p *models.MealPlan) error {
		for day, meals := range p.Days {
			_, idx, found := lo.FindIndexOf(meals, func(m models.PlannedMeal) bool {
				return m.ID == mealID
			})
			if !found {
				continue
			}
			removed = meals[idx]
			meals = append(meals[:idx:idx], meals[idx+1:]...)
			if len(meals) == 0 {
				delete(p.Days, day)
			} else {
				p.Days[day] = meals
			}
			return nil
		}
		return errors.Wrapf(ErrNoSuchMeal, "meal %s", mealID)
	})
	return removed, err
}

// Week returns the seven days starting at from, including empty days
func (s *Service) Week(channelID int64, from time.Time) ([]models.DayPlan, error) {
	plan, err := s.GetPlan(channelID)
	if err != nil {
		return nil, err
	}

	start := startOfDay(from)
	week := make([]models.DayPlan, WeekDays)
	for i := range week {
		day := start.AddDate(0, 0, i)
		week[i] = models.DayPlan{Day: day, Meals: plan.Days[DayKey(day)]}
	}
	return week, nil
}

// Meals flattens a week into the numbered list shown to users
func Meals(week []models.DayPlan) []models.PlannedMeal {
	return lo.FlatMap(week, func(d models.DayPlan, _ int) []models.PlannedMeal {
		return d.Meals
	})
}

// Titles returns the distinct recipe titles planned in the given window, in day order
func (s *Service) Titles(channelID int64, from time.Time, days int) ([]string, error) {
	plan, err := s.GetPlan(channelID)
	if err != nil {
		return nil, err
	}

	var titles []string
	start := startOfDay(from)
	for i := 0; i < days; i++ {
		for _, meal := range plan.Days[DayKey(start.AddDate(0, 0, i))] {
			titles = append(titles, meal.Title)
		}
	}
	return lo.UniqBy(titles, strings.ToLower), nil
}

// Prune drops every day before the given day and returns how many were dropped
func (s *Service) Prune(channelID int64, before time.Time) (int, error) {
	cutoff := DayKey(before)
	var pruned int
	err := s.update(channelID, func(p *models.MealPlan) error {
		for day := range p.Days {
			// YYYY-MM-DD keys order like the dates they name
			if day < cutoff {
				delete(p.Days, day)
				pruned++
			}
		}
		return nil
	})
	if err == nil && pruned > 0 {
		s.logger.Info("Pruned %d old days from the meal plan of channel %d", pruned, channelID)
	}
	return pruned, err
}

// Channels lists the chats that have a stored meal plan
func (s *Service) Channels() ([]int64, error) {
	keys, err := s.store.List(keyPrefix)
	if err != nil {
		return nil, err
	}

	channels := make([]int64, 0, len(keys))
	for _, key := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(key, keyPrefix), 10, 64)
		if err != nil {
			s.logger.Error("Skipping malformed meal plan key %s: %v", key, err)
			continue
		}
		channels = append(channels, id)
	}
	slices.Sort(channels)
	return channels, nil
}
