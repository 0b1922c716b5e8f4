package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/korjavin/basketbot/pkg/basket"
	"github.com/korjavin/basketbot/pkg/logger"
	"github.com/korjavin/basketbot/pkg/models"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// chatCompleter is the part of the OpenAI API the bot uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client represents an OpenAI API client
type Client struct {
	client   chatCompleter
	model    string
	logger   *logger.Logger
	validate *validator.Validate
}

// New creates a new OpenAI client
func New(apiKey, apiBase, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	if apiBase != "" {
		config.BaseURL = apiBase
	}

	return newWithCompleter(openai.NewClientWithConfig(config), model)
}

func newWithCompleter(client chatCompleter, model string) *Client {
	return &Client{
		client:   client,
		model:    model,
		logger:   logger.New("").With("component", "openai"),
		validate: validator.New(),
	}
}

const recipePrompt = `
You are a cooking expert. List the ingredients needed to cook "%s" for four people.
Return the information in the following JSON format:
{
  "name": "Full dish name",
  "cuisine": "Cuisine type",
  "servings": 4,
  "ingredients": [{"name": "flour", "quantity": "1 1/2", "unit": "cup"}, ...],
  "instructions": ["step1", "step2", ...]
}
Use plain numbers or fractions like "1/2" or "1 1/2" for quantities, leave the unit
empty for countable items (e.g. eggs), and use short lower-case ingredient names.
Only return the JSON, no other text.
`

// ExpandRecipe asks the model for the ingredients of a dish
func (c *Client) ExpandRecipe(ctx context.Context, title string) (*models.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c.logger.Info("Requesting ingredients for %s", title)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a cooking expert who provides accurate ingredient lists for dishes and recipes.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf(recipePrompt, title),
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "OpenAI API error")
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI API")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI response (first 100 chars): %s", truncateString(content, 100))

	recipe, err := c.decodeRecipe(title, content)
	if err != nil {
		c.logger.Error("Failed to parse response: %v, Content: %s", err, truncateString(content, 500))
		return nil, err
	}

	c.logger.Info("Got %d ingredients for %s", len(recipe.Ingredients), title)
	return recipe, nil
}

type recipePayload struct {
	Name         string            `json:"name"`
	Cuisine      string            `json:"cuisine"`
	Servings     int               `json:"servings"`
	Ingredients  []json.RawMessage `json:"ingredients"`
	Instructions []string          `json:"instructions"`
}

// decodeRecipe reads the model's JSON answer. Ingredients may come back as
// objects or as plain "2 cups flour" strings; rows that fail validation are dropped.
func (c *Client) decodeRecipe(title, content string) (*models.Recipe, error) {
	var payload recipePayload
	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &payload); err != nil {
		return nil, errors.Wrap(err, "failed to parse OpenAI response")
	}

	recipe := &models.Recipe{
		Title:        title,
		Cuisine:      payload.Cuisine,
		Servings:     payload.Servings,
		Instructions: payload.Instructions,
		FetchedAt:    time.Now(),
	}

	for _, raw := range payload.Ingredients {
		ingredient, ok := decodeIngredient(raw)
		if !ok {
			c.logger.Warn("Skipping unreadable ingredient %s for %s", truncateString(string(raw), 80), title)
			continue
		}
		if err := c.validate.Struct(ingredient); err != nil {
			c.logger.Warn("Skipping invalid ingredient %+v for %s: %v", ingredient, title, err)
			continue
		}
		recipe.Ingredients = append(recipe.Ingredients, ingredient)
	}

	if len(recipe.Ingredients) == 0 {
		return nil, errors.Errorf("no usable ingredients for %s", title)
	}
	return recipe, nil
}

func decodeIngredient(raw json.RawMessage) (models.RecipeIngredient, bool) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		item, ok := basket.ParseEntry(text)
		if !ok {
			return models.RecipeIngredient{}, false
		}
		return models.RecipeIngredient{Name: item.Name, Quantity: item.Quantity, Unit: item.Unit}, true
	}

	var row struct {
		Name     string          `json:"name"`
		Quantity json.RawMessage `json:"quantity"`
		Unit     string          `json:"unit"`
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return models.RecipeIngredient{}, false
	}
	return models.RecipeIngredient{
		Name:     strings.TrimSpace(row.Name),
		Quantity: quantityText(row.Quantity),
		Unit:     basket.NormalizeUnit(row.Unit),
	}, true
}

// quantityText accepts "1 1/2" as well as bare JSON numbers like 2 or 0.5
func quantityText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	return ""
}

// GenerateChatMessage generates a chat message for a specific intent
func (c *Client) GenerateChatMessage(intent string, contextData map[string]interface{}) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	contextJSON, err := json.Marshal(contextData)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal context")
	}

	prompt := fmt.Sprintf(`
You are a friendly shopping assistant bot for a Telegram group. Generate a short, engaging message for the following intent: "%s".
Use the context provided below to personalize the message. Keep it concise and mobile-friendly.
Add appropriate emojis for fun and readability.

Context:
%s

Return only the message text, no explanations or other text.
`, intent, string(contextJSON))

	c.logger.Info("Generating chat message for intent: %s", intent)

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.7,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "OpenAI API error")
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI API")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// cleanJSONResponse strips the markdown code fence models like to wrap JSON in
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		// The first line might be "```json"
		if firstLineEnd := strings.Index(s, "\n"); firstLineEnd != -1 {
			s = s[firstLineEnd+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	return s
}
