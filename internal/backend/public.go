package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"polykitchen/internal/domain"
)

// Categories lists every category known to the backend.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.getJSON(ctx, "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Dishes lists every dish known to the backend.
func (c *Client) Dishes(ctx context.Context) ([]domain.Dish, error) {
	var out []domain.Dish
	if err := c.getJSON(ctx, "/api/dishes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DishReviews lists the published reviews of a dish.
func (c *Client) DishReviews(ctx context.Context, dishID int64) ([]domain.Review, error) {
	var out []domain.Review
	if err := c.getJSON(ctx, fmt.Sprintf("/api/dishes/%d/reviews", dishID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmitReview posts a customer review; it stays pending until moderated.
func (c *Client) SubmitReview(ctx context.Context, r domain.ReviewSubmission) error {
	return c.doJSON(ctx, http.MethodPost, "/api/reviews", nil, r, nil)
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// Chat forwards a message to the chat proxy and extracts the reply text.
func (c *Client) Chat(ctx context.Context, message, userID string) (string, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/api/ai-chat", nil, chatRequest{Message: message, UserID: userID}, &raw); err != nil {
		return "", err
	}
	return chatReply(raw), nil
}

func chatReply(raw json.RawMessage) string {
	var body struct {
		Output  string `json:"output"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if s := strings.TrimSpace(body.Output); s != "" {
			return s
		}
		if s := strings.TrimSpace(body.Message); s != "" {
			return s
		}
	}
	return string(raw)
}
