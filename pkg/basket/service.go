package basket

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/korjavin/basketbot/pkg/logger"
	"github.com/korjavin/basketbot/pkg/models"
	"github.com/korjavin/basketbot/pkg/storage"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const keyPrefix = "basket:"

// ErrNoSuchItem is returned when a position does not point at a basket line
var ErrNoSuchItem = errors.New("no such item in the basket")

// Service provides shopping basket management functionality.
//
// Every change is a read-consolidate-write of the stored basket; changes to
// the same chat are serialised so concurrent updates are not lost.
type Service struct {
	store  *storage.Store
	logger *logger.Logger
	locks  storage.Locks
}

// New creates a new basket service
func New(store *storage.Store) *Service {
	return &Service{
		store:  store,
		logger: logger.New("").With("component", "basket"),
	}
}

func basketKey(channelID int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, channelID)
}

// GetBasket retrieves the basket for a channel. A chat without a stored
// basket gets an empty one.
func (s *Service) GetBasket(channelID int64) (*models.Basket, error) {
	key := basketKey(channelID)

	var basket models.Basket
	err := s.store.Get(key, &basket)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.Basket{
			ID:          key,
			ChannelID:   channelID,
			Items:       []models.LineItem{},
			LastUpdated: time.Now(),
		}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load basket for channel %d", channelID)
	}
	return &basket, nil
}

// update runs fn on the stored basket and saves the result
func (s *Service) update(channelID int64, fn func(*models.Basket) error) (*models.Basket, error) {
	unlock := s.locks.Lock(basketKey(channelID))
	defer unlock()

	basket, err := s.GetBasket(channelID)
	if err != nil {
		return nil, err
	}

	if err := fn(basket); err != nil {
		return nil, err
	}

	basket.LastUpdated = time.Now()
	if err := s.store.Set(basket.ID, basket); err != nil {
		return nil, errors.Wrapf(err, "failed to save basket for channel %d", channelID)
	}
	return basket, nil
}

// AddItems consolidates items into the channel's basket and returns the new contents
func (s *Service) AddItems(channelID int64, items []models.LineItem) ([]models.LineItem, error) {
	for _, item := range UnreadableQuantities(items) {
		s.logger.Warn("Quantity %q of %s in channel %d is not a number, counting it as 1", item.Quantity, item.Name, channelID)
	}

	basket, err := s.update(channelID, func(b *models.Basket) error {
		b.Items = Consolidate(b.Items, items)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Added %d items to basket of channel %d, now %d lines", len(items), channelID, len(basket.Items))
	return basket.Items, nil
}

// ToggleItem flips the checked mark of the item at a 1-based position
func (s *Service) ToggleItem(channelID int64, position int) (models.LineItem, error) {
	var toggled models.LineItem
	_, err := s.update(channelID, func(b *models.Basket) error {
		if position < 1 || position > len(b.Items) {
			return errors.Wrapf(ErrNoSuchItem, "position %d", position)
		}
		b.Items[position-1].IsChecked = !b.Items[position-1].IsChecked
		toggled = b.Items[position-1]
		return nil
	})
	return toggled, err
}

// RemoveItem deletes the item at a 1-based position
func (s *Service) RemoveItem(channelID int64, position int) (models.LineItem, error) {
	var removed models.LineItem
	_, err := s.update(channelID, func(b *models.Basket) error {
		if position < 1 || position > len(b.Items) {
			return errors.Wrapf(ErrNoSuchItem, "position %d", position)
		}
		removed = b.Items[position-1]
		b.Items = append(b.Items[:position-1:position-1], b.Items[position:]...)
		return nil
	})
	return removed, err
}

// ClearChecked drops every checked item and returns how many were dropped
func (s *Service) ClearChecked(channelID int64) (int, error) {
	var dropped int
	_, err := s.update(channelID, func(b *models.Basket) error {
		kept := lo.Reject(b.Items, func(item models.LineItem, _ int) bool {
			return item.IsChecked
		})
		dropped = len(b.Items) - len(kept)
		b.Items = kept
		return nil
	})
	return dropped, err
}

// Clear empties the basket
func (s *Service) Clear(channelID int64) error {
	_, err := s.update(channelID, func(b *models.Basket) error {
		b.Items = []models.LineItem{}
		return nil
	})
	return err
}

// Pending returns the items that are not checked yet
func (s *Service) Pending(channelID int64) ([]models.LineItem, error) {
	basket, err := s.GetBasket(channelID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(basket.Items, func(item models.LineItem, _ int) bool {
		return !item.IsChecked
	}), nil
}

// Channels lists the chats that have a stored basket
func (s *Service) Channels() ([]int64, error) {
	keys, err := s.store.List(keyPrefix)
	if err != nil {
		return nil, err
	}

	channels := make([]int64, 0, len(keys))
	for _, key := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(key, keyPrefix), 10, 64)
		if err != nil {
			s.logger.Error("Skipping malformed basket key %s: %v", key, err)
			continue
		}
		channels = append(channels, id)
	}
	return channels, nil
}
