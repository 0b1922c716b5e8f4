package recipes

import (
	"context"
	"sync"
	"testing"

	"github.com/korjavin/basketbot/pkg/basket"
	"github.com/korjavin/basketbot/pkg/models"
	"github.com/korjavin/basketbot/pkg/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpander struct {
	mu      sync.Mutex
	calls   map[string]int
	recipes map[string][]models.RecipeIngredient
}

func newFakeExpander() *fakeExpander {
	return &fakeExpander{
		calls: make(map[string]int),
		recipes: map[string][]models.RecipeIngredient{
			"omelette": {{Name: "Eggs", Quantity: "2"}, {Name: "Butter", Quantity: "10", Unit: "g"}},
			"pancakes": {{Name: "eggs", Quantity: "1"}, {Name: "Flour", Quantity: "1 1/2", Unit: "cup"}},
		},
	}
}

func (f *fakeExpander) ExpandRecipe(_ context.Context, title string) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[Normalize(title)]++
	ings, ok := f.recipes[Normalize(title)]
	if !ok {
		return nil, errors.New("unknown dish")
	}
	return &models.Recipe{Title: title, Ingredients: ings}, nil
}

func (f *fakeExpander) count(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[Normalize(title)]
}

func newTestService(t *testing.T) (*Service, *fakeExpander) {
	t.Helper()
	store, err := storage.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	fake := newFakeExpander()
	return New(store, fake), fake
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "beef stroganoff", Normalize("  Beef   Stroganoff "))
	assert.Equal(t, "", Normalize("   "))
}

func TestRecipeIsCached(t *testing.T) {
	s, fake := newTestService(t)
	ctx := context.Background()

	first, err := s.Recipe(ctx, "Omelette")
	require.NoError(t, err)
	second, err := s.Recipe(ctx, "omelette ")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.count("omelette"))
	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, first.Ingredients, second.Ingredients)

	require.NoError(t, s.Forget("OMELETTE"))
	_, err = s.Recipe(ctx, "Omelette")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.count("omelette"))
}

func TestRecipeErrors(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Recipe(context.Background(), "  ")
	assert.Error(t, err)

	_, err = s.Recipe(context.Background(), "Mystery stew")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mystery stew")
}

func TestLineItemsKeepsTitleOrder(t *testing.T) {
	s, fake := newTestService(t)

	items, err := s.LineItems(context.Background(), "Omelette", "", "Pancakes", "omelette")
	require.NoError(t, err)

	require.Len(t, items, 4)
	assert.Equal(t, "Eggs", items[0].Name)
	assert.Equal(t, "Omelette", items[0].RecipeTitle)
	assert.Equal(t, "Butter", items[1].Name)
	assert.Equal(t, "eggs", items[2].Name)
	assert.Equal(t, "Pancakes", items[2].RecipeTitle)
	assert.Equal(t, "Flour", items[3].Name)
	assert.Equal(t, 1, fake.count("omelette"))
}

func TestLineItemsFailsOnUnknownRecipe(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.LineItems(context.Background(), "Omelette", "Mystery stew")
	assert.Error(t, err)
}

func TestLineItemsConsolidate(t *testing.T) {
	s, _ := newTestService(t)

	items, err := s.LineItems(context.Background(), "Omelette", "Pancakes")
	require.NoError(t, err)

	got := basket.Consolidate(nil, items)
	require.Len(t, got, 3)
	assert.Equal(t, "Eggs", got[0].Name)
	assert.Equal(t, "3", got[0].Quantity)
	assert.Equal(t, "Omelette, Pancakes", got[0].RecipeTitle)
}

func TestToLineItems(t *testing.T) {
	assert.Nil(t, ToLineItems(nil))

	items := ToLineItems(&models.Recipe{
		Title:       "Tea",
		Ingredients: []models.RecipeIngredient{{Name: "Tea bags", Quantity: "2"}},
	})
	require.Len(t, items, 1)
	assert.Equal(t, models.LineItem{Name: "Tea bags", Quantity: "2", RecipeTitle: "Tea"}, items[0])
}
