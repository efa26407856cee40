package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"polykitchen/internal/domain"
)

//go:embed mockdata.json
var mockJSON []byte

// Mock serves the bundled demo catalog.
type Mock struct {
	categories []domain.Category
	dishes     []domain.Dish
}

// NewMock decodes the embedded catalog.
func NewMock() (*Mock, error) {
	var data struct {
		Categories []domain.Category `json:"categories"`
		Dishes     []domain.Dish     `json:"dishes"`
	}
	if err := json.Unmarshal(mockJSON, &data); err != nil {
		return nil, fmt.Errorf("decode mock catalog: %w", err)
	}
	return &Mock{categories: data.Categories, dishes: data.Dishes}, nil
}

// Categories returns a copy of the mock categories.
func (m *Mock) Categories(context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), m.categories...), nil
}

// Dishes returns a copy of the mock dishes.
func (m *Mock) Dishes(context.Context) ([]domain.Dish, error) {
	return append([]domain.Dish(nil), m.dishes...), nil
}
