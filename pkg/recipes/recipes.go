package recipes

import (
	"context"
	"strings"

	"github.com/korjavin/basketbot/pkg/logger"
	"github.com/korjavin/basketbot/pkg/models"
	"github.com/korjavin/basketbot/pkg/storage"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix = "recipe:"

	// maxParallel caps concurrent LLM requests for one LineItems call
	maxParallel = 4
)

// Expander turns a dish title into its ingredients
type Expander interface {
	ExpandRecipe(ctx context.Context, title string) (*models.Recipe, error)
}

// Service provides recipe lookup with a storage-backed cache
type Service struct {
	store    *storage.Store
	expander Expander
	logger   *logger.Logger
	inflight singleflight.Group
}

// New creates a new recipe service
func New(store *storage.Store, expander Expander) *Service {
	return &Service{
		store:    store,
		expander: expander,
		logger:   logger.New("").With("component", "recipes"),
	}
}

// Normalize folds a title for cache lookups: lower case, single spaces
func Normalize(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// Recipe returns the cached recipe for title, expanding it on a miss
func (s *Service) Recipe(ctx context.Context, title string) (*models.Recipe, error) {
	norm := Normalize(title)
	if norm == "" {
		return nil, errors.New("empty recipe title")
	}
	key := keyPrefix + norm

	var cached models.Recipe
	err := s.store.Get(key, &cached)
	if err == nil {
		s.logger.Debug("Recipe cache hit for %s", norm)
		return &cached, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, errors.Wrapf(err, "failed to load recipe %s", norm)
	}

	v, err, _ := s.inflight.Do(norm, func() (interface{}, error) {
		recipe, err := s.expander.ExpandRecipe(ctx, strings.TrimSpace(title))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to expand recipe %s", title)
		}
		if err := s.store.Set(key, recipe); err != nil {
			s.logger.Error("Failed to cache recipe %s: %v", norm, err)
		}
		return recipe, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Recipe), nil
}

// Forget drops a cached recipe so the next lookup expands it again
func (s *Service) Forget(title string) error {
	return s.store.Delete(keyPrefix + Normalize(title))
}

// LineItems expands every title and returns their ingredients in title order.
// Titles that fold to the same name are expanded once.
func (s *Service) LineItems(ctx context.Context, titles ...string) ([]models.LineItem, error) {
	titles = lo.UniqBy(lo.Compact(titles), Normalize)

	recipes := make([]*models.Recipe, len(titles))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, title := range titles {
		i, title := i, title
		g.Go(func() error {
			recipe, err := s.Recipe(ctx, title)
			if err != nil {
				return err
			}
			recipes[i] = recipe
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []models.LineItem
	for _, recipe := range recipes {
		items = append(items, ToLineItems(recipe)...)
	}
	return items, nil
}

// ToLineItems converts a recipe into basket lines attributed to it
func ToLineItems(recipe *models.Recipe) []models.LineItem {
	if recipe == nil {
		return nil
	}
	return lo.Map(recipe.Ingredients, func(ing models.RecipeIngredient, _ int) models.LineItem {
		return models.LineItem{
			Name:        ing.Name,
			Unit:        ing.Unit,
			Quantity:    ing.Quantity,
			RecipeTitle: recipe.Title,
		}
	})
}
