package admin

import (
	"context"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
	"polykitchen/internal/imageurl"
)

// MaxImageSize caps uploaded dish pictures.
const MaxImageSize = 5 << 20

// DishForm is the dish editor. A nil IsAvailable means available.
type DishForm struct {
	NameRU          string  `json:"name_ru" validate:"required"`
	NameEN          string  `json:"name_en"`
	NameKK          string  `json:"name_kk"`
	CategoryID      int64   `json:"category_id" validate:"required,gt=0"`
	DescriptionRU   string  `json:"description_ru"`
	DescriptionEN   string  `json:"description_en"`
	DescriptionKK   string  `json:"description_kk"`
	Price           float64 `json:"price" validate:"gt=0"`
	Weight          string  `json:"weight"`
	ImageURL        string  `json:"image_url"`
	IngredientsText string  `json:"ingredients_text"`
	IsAvailable     *bool   `json:"is_available"`
}

var dishMessages = map[string]string{
	"name_ru":     "Название на русском обязательно",
	"category_id": "Выберите категорию",
	"price":       "Укажите корректную цену",
}

// ImageUpload is a picture chosen from disk instead of a URL.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DishFilter narrows the admin dish table. CategoryID 0 means all.
type DishFilter struct {
	Search     string
	CategoryID int64
}

// DishRow is a dish in the admin table.
type DishRow struct {
	domain.Dish
	Preview string `json:"preview_url"`
}

type DishManager struct {
	api      backendAPI
	validate *validator.Validate
	baseURL  string
	logger   logrus.FieldLogger
}

// List returns dishes with their category names attached.
func (m *DishManager) List(ctx context.Context, cred backend.Credentials, f DishFilter) ([]DishRow, error) {
	var (
		dishes     []domain.Dish
		categories []domain.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dishes, err = m.api.AdminDishes(gctx, cred)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = m.api.AdminCategories(gctx, cred)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.LocalizedName(domain.LangRU)
	}

	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]DishRow, 0, len(dishes))
	for _, d := range dishes {
		if f.CategoryID != 0 && d.CategoryID != f.CategoryID {
			continue
		}
		if needle != "" && !dishMatches(d, needle) {
			continue
		}
		if name, ok := names[d.CategoryID]; ok {
			d.CategoryName = name
		}
		out = append(out, DishRow{Dish: d, Preview: imageurl.Normalize(d.ImageURL, m.baseURL)})
	}
	return out, nil
}

func dishMatches(d domain.Dish, needle string) bool {
	for _, hay := range []string{d.NameRU, d.Name, d.DescriptionRU, d.Description} {
		if hay != "" && strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// Save validates the form and the optional upload, uploads the picture
// first and then creates (id 0) or replaces the dish.
func (m *DishManager) Save(ctx context.Context, cred backend.Credentials, id int64, form DishForm, upload *ImageUpload) (*domain.Dish, error) {
	form.NameRU = strings.TrimSpace(form.NameRU)
	form.NameEN = strings.TrimSpace(form.NameEN)
	form.NameKK = strings.TrimSpace(form.NameKK)
	form.ImageURL = strings.TrimSpace(form.ImageURL)
	if err := check(m.validate, form, dishMessages); err != nil {
		return nil, err
	}
	if upload != nil {
		if err := validateUpload(upload); err != nil {
			return nil, err
		}
	}

	p := backend.DishPayload{
		Name:            form.NameRU,
		NameRU:          form.NameRU,
		NameEN:          orDefault(form.NameEN, form.NameRU),
		NameKK:          orDefault(form.NameKK, form.NameRU),
		CategoryID:      form.CategoryID,
		DescriptionRU:   form.DescriptionRU,
		DescriptionEN:   orDefault(form.DescriptionEN, form.DescriptionRU),
		DescriptionKK:   orDefault(form.DescriptionKK, form.DescriptionRU),
		Price:           form.Price,
		ImageURL:        form.ImageURL,
		Weight:          form.Weight,
		IngredientsText: form.IngredientsText,
		IsAvailable:     form.IsAvailable == nil || *form.IsAvailable,
	}

	if upload != nil {
		path, err := m.api.UploadImage(ctx, cred, upload.Filename, upload.ContentType, upload.Body)
		if err != nil {
			return nil, err
		}
		m.logger.WithFields(logrus.Fields{"file": upload.Filename, "path": path}).Info("dish image uploaded")
		p.ImageURL = path
	}

	if id == 0 {
		return m.api.CreateDish(ctx, cred, p)
	}
	if err := m.api.UpdateDish(ctx, cred, id, p); err != nil {
		return nil, err
	}
	return &domain.Dish{
		ID:              id,
		CategoryID:      p.CategoryID,
		Name:            p.Name,
		NameRU:          p.NameRU,
		NameEN:          p.NameEN,
		NameKK:          p.NameKK,
		DescriptionRU:   p.DescriptionRU,
		DescriptionEN:   p.DescriptionEN,
		DescriptionKK:   p.DescriptionKK,
		Price:           domain.Price(p.Price),
		Weight:          p.Weight,
		ImageURL:        p.ImageURL,
		IngredientsText: p.IngredientsText,
		IsAvailable:     p.IsAvailable,
	}, nil
}

func validateUpload(u *ImageUpload) error {
	if !strings.HasPrefix(strings.ToLower(u.ContentType), "image/") {
		return fieldError("image", "Пожалуйста, выберите файл изображения")
	}
	if u.Size > MaxImageSize {
		return fieldError("image", "Размер файла не должен превышать 5MB")
	}
	if u.Body == nil {
		return fieldError("image", "Файл пуст")
	}
	return nil
}

func (m *DishManager) Delete(ctx context.Context, cred backend.Credentials, id int64, confirmed bool) error {
	if err := requireConfirmation(confirmed); err != nil {
		return err
	}
	return m.api.DeleteDish(ctx, cred, id)
}

func (m *DishManager) ToggleAvailability(ctx context.Context, cred backend.Credentials, id int64) error {
	return m.api.ToggleDishAvailability(ctx, cred, id)
}
