// Package catalog selects where menu data comes from: the live backend or
// the bundled mock catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"polykitchen/internal/domain"
)

// Source yields the full category and dish lists.
type Source interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Dishes(ctx context.Context) ([]domain.Dish, error)
}

// Load fetches categories and dishes concurrently. A failure of either
// fails the whole load.
func Load(ctx context.Context, src Source) ([]domain.Category, []domain.Dish, error) {
	var (
		categories []domain.Category
		dishes     []domain.Dish
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if categories, err = src.Categories(gctx); err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if dishes, err = src.Dishes(gctx); err != nil {
			return fmt.Errorf("dishes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return categories, dishes, nil
}

// LoadWithFallback loads from primary and serves both lists from fallback
// when any part of the primary load fails, so live categories are never
// paired with mock dishes.
func LoadWithFallback(ctx context.Context, primary, fallback Source, logger logrus.FieldLogger) ([]domain.Category, []domain.Dish, error) {
	categories, dishes, err := Load(ctx, primary)
	if err == nil || fallback == nil {
		return categories, dishes, err
	}
	logger.WithError(err).Warn("catalog fetch failed, serving mock catalog")
	return Load(ctx, fallback)
}

// FilterPage keeps the categories shown on page.
func FilterPage(categories []domain.Category, page domain.Page) []domain.Category {
	out := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if c.EffectivePage() == page {
			out = append(out, c)
		}
	}
	return out
}

var legacyBarNames = []string{"прохладительные напитки", "лимонады", "чаи"}

// IsBarCategory reports whether c belongs on the bar menu. Categories
// created before the page column existed are matched when a localized name
// contains one of the legacy drink names. Hidden and pizza categories stay
// off the bar.
func IsBarCategory(c domain.Category) bool {
	if c.Page == domain.PageBar {
		return true
	}
	if c.Page != "" && c.Page != domain.PageKitchen {
		return false
	}
	for _, name := range []string{c.NameRU, c.NameEN, c.NameKK} {
		n := strings.ToLower(name)
		if n == "" {
			continue
		}
		for _, legacy := range legacyBarNames {
			if strings.Contains(n, legacy) {
				return true
			}
		}
	}
	return false
}

// BarCategories keeps the categories shown on the bar menu.
func BarCategories(categories []domain.Category) []domain.Category {
	out := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		if IsBarCategory(c) {
			out = append(out, c)
		}
	}
	return out
}

// DishesIn keeps the dishes belonging to one of categories.
func DishesIn(categories []domain.Category, dishes []domain.Dish) []domain.Dish {
	ids := make(map[int64]struct{}, len(categories))
	for _, c := range categories {
		ids[c.ID] = struct{}{}
	}
	out := make([]domain.Dish, 0, len(dishes))
	for _, d := range dishes {
		if _, ok := ids[d.CategoryID]; ok {
			out = append(out, d)
		}
	}
	return out
}
