package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
)

// DisplayOrderStep separates consecutive categories.
const DisplayOrderStep = 10

// Direction moves a category within the display order.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

var ErrCannotMove = errors.New("category is already at the edge")

// CategoryForm is the category editor. A nil DisplayOrder keeps the
// current position, or appends for new categories.
type CategoryForm struct {
	NameRU       string      `json:"name_ru" validate:"required"`
	NameEN       string      `json:"name_en"`
	NameKK       string      `json:"name_kk"`
	DisplayOrder *int        `json:"display_order"`
	Page         domain.Page `json:"page" validate:"omitempty,oneof=kitchen bar pizza hidden"`
}

var categoryMessages = map[string]string{
	"name_ru": "Название на русском обязательно",
	"page":    "Неизвестная страница",
}

type CategoryManager struct {
	api      backendAPI
	validate *validator.Validate
	logger   logrus.FieldLogger
}

// List returns categories in display order.
func (m *CategoryManager) List(ctx context.Context, cred backend.Credentials) ([]domain.Category, error) {
	list, err := m.api.AdminCategories(ctx, cred)
	if err != nil {
		return nil, err
	}
	sortByOrder(list)
	return list, nil
}

// NextDisplayOrder places a new category after the last one.
func NextDisplayOrder(list []domain.Category) int {
	highest := 0
	for _, c := range list {
		if c.DisplayOrder > highest {
			highest = c.DisplayOrder
		}
	}
	return highest + DisplayOrderStep
}

// Save creates the category when id is 0 and replaces it otherwise.
func (m *CategoryManager) Save(ctx context.Context, cred backend.Credentials, id int64, form CategoryForm) (*domain.Category, error) {
	form.NameRU = strings.TrimSpace(form.NameRU)
	form.NameEN = strings.TrimSpace(form.NameEN)
	form.NameKK = strings.TrimSpace(form.NameKK)
	if err := check(m.validate, form, categoryMessages); err != nil {
		return nil, err
	}

	p := backend.CategoryPayload{
		NameRU: form.NameRU,
		NameEN: orDefault(form.NameEN, form.NameRU),
		NameKK: orDefault(form.NameKK, form.NameRU),
		Page:   form.Page,
	}
	if p.Page == "" {
		p.Page = domain.PageKitchen
	}

	if form.DisplayOrder != nil {
		p.DisplayOrder = *form.DisplayOrder
	} else {
		list, err := m.api.AdminCategories(ctx, cred)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			p.DisplayOrder = NextDisplayOrder(list)
		} else {
			current, ok := findCategory(list, id)
			if !ok {
				return nil, domain.ErrNotFound
			}
			p.DisplayOrder = current.DisplayOrder
		}
	}

	if id == 0 {
		created, err := m.api.CreateCategory(ctx, cred, p)
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	if err := m.api.UpdateCategory(ctx, cred, id, p); err != nil {
		return nil, err
	}
	return &domain.Category{
		ID:           id,
		Name:         p.NameRU,
		NameRU:       p.NameRU,
		NameEN:       p.NameEN,
		NameKK:       p.NameKK,
		DisplayOrder: p.DisplayOrder,
		Page:         p.Page,
	}, nil
}

func (m *CategoryManager) Delete(ctx context.Context, cred backend.Credentials, id int64, confirmed bool) error {
	if err := requireConfirmation(confirmed); err != nil {
		return err
	}
	return m.api.DeleteCategory(ctx, cred, id)
}

// Move swaps the display order of a category with its neighbour. Both
// updates are sent concurrently; if only one lands it is rolled back.
func (m *CategoryManager) Move(ctx context.Context, cred backend.Credentials, id int64, dir Direction) error {
	if dir != Up && dir != Down {
		return fieldError("direction", "Направление должно быть up или down")
	}
	list, err := m.List(ctx, cred)
	if err != nil {
		return err
	}
	idx := -1
	for i, c := range list {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ErrNotFound
	}
	n := idx - 1
	if dir == Down {
		n = idx + 1
	}
	if n < 0 || n >= len(list) {
		return ErrCannotMove
	}
	current, neighbour := list[idx], list[n]

	newCurrent, newNeighbour := neighbour.DisplayOrder, current.DisplayOrder
	if current.DisplayOrder == neighbour.DisplayOrder {
		// equal orders would swap to nothing; spread them apart instead
		if dir == Up {
			newCurrent, newNeighbour = neighbour.DisplayOrder, neighbour.DisplayOrder+1
		} else {
			newCurrent, newNeighbour = neighbour.DisplayOrder+1, neighbour.DisplayOrder
		}
	}

	updates := []orderUpdate{
		{id: current.ID, from: current.DisplayOrder, to: newCurrent},
		{id: neighbour.ID, from: neighbour.DisplayOrder, to: newNeighbour},
	}
	return m.applyOrders(ctx, cred, updates)
}

type orderUpdate struct {
	id       int64
	from, to int
	done     bool
}

func (m *CategoryManager) applyOrders(ctx context.Context, cred backend.Credentials, updates []orderUpdate) error {
	var g errgroup.Group
	for i := range updates {
		u := &updates[i]
		if u.from == u.to {
			continue
		}
		g.Go(func() error {
			if err := m.api.SetCategoryOrder(ctx, cred, u.id, u.to); err != nil {
				return fmt.Errorf("reorder category %d: %w", u.id, err)
			}
			u.done = true
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		return nil
	}

	for _, u := range updates {
		if !u.done {
			continue
		}
		if rerr := m.api.SetCategoryOrder(ctx, cred, u.id, u.from); rerr != nil {
			m.logger.WithError(rerr).WithFields(logrus.Fields{
				"category_id": u.id,
				"order":       u.from,
			}).Error("restore category order after failed move")
		}
	}
	return err
}

func findCategory(list []domain.Category, id int64) (domain.Category, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}

func sortByOrder(list []domain.Category) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].DisplayOrder != list[j].DisplayOrder {
			return list[i].DisplayOrder < list[j].DisplayOrder
		}
		return list[i].ID < list[j].ID
	})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
