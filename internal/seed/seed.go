// Package seed pushes the bundled demo catalog into a live backend through
// the admin API.
package seed

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"polykitchen/internal/backend"
	"polykitchen/internal/catalog"
	"polykitchen/internal/domain"
	"polykitchen/internal/service/admin"
)

type categoryWriter interface {
	Save(ctx context.Context, cred backend.Credentials, id int64, form admin.CategoryForm) (*domain.Category, error)
}

type dishWriter interface {
	Save(ctx context.Context, cred backend.Credentials, id int64, form admin.DishForm, upload *admin.ImageUpload) (*domain.Dish, error)
}

// Result counts what was created.
type Result struct {
	Categories int
	Dishes     int
}

// Apply creates every category of source, then its dishes with category ids
// remapped to the ids the backend assigned. Dishes whose category is not in
// source are skipped.
func Apply(ctx context.Context, source catalog.Source, categories categoryWriter, dishes dishWriter, cred backend.Credentials, logger logrus.FieldLogger) (Result, error) {
	var res Result

	cats, err := source.Categories(ctx)
	if err != nil {
		return res, fmt.Errorf("load categories: %w", err)
	}
	items, err := source.Dishes(ctx)
	if err != nil {
		return res, fmt.Errorf("load dishes: %w", err)
	}

	ids := make(map[int64]int64, len(cats))
	for _, c := range cats {
		order := c.DisplayOrder
		created, err := categories.Save(ctx, cred, 0, admin.CategoryForm{
			NameRU:       c.NameRU,
			NameEN:       c.NameEN,
			NameKK:       c.NameKK,
			DisplayOrder: &order,
			Page:         c.EffectivePage(),
		})
		if err != nil {
			return res, fmt.Errorf("create category %q: %w", c.NameRU, err)
		}
		ids[c.ID] = created.ID
		res.Categories++
	}

	for _, d := range items {
		categoryID, ok := ids[d.CategoryID]
		if !ok {
			logger.WithField("dish", d.NameRU).Warn("seed: dish category not seeded, skipping")
			continue
		}
		avail := d.IsAvailable
		_, err := dishes.Save(ctx, cred, 0, admin.DishForm{
			NameRU:          d.NameRU,
			NameEN:          d.NameEN,
			NameKK:          d.NameKK,
			CategoryID:      categoryID,
			DescriptionRU:   d.DescriptionRU,
			DescriptionEN:   d.DescriptionEN,
			DescriptionKK:   d.DescriptionKK,
			Price:           float64(d.Price),
			Weight:          d.Weight,
			ImageURL:        d.ImageURL,
			IngredientsText: d.IngredientsText,
			IsAvailable:     &avail,
		}, nil)
		if err != nil {
			return res, fmt.Errorf("create dish %q: %w", d.NameRU, err)
		}
		res.Dishes++
	}
	return res, nil
}
