// Package menu builds the customer-facing page models.
package menu

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"polykitchen/internal/catalog"
	"polykitchen/internal/domain"
	"polykitchen/internal/imageurl"
)

const (
	BarTitle          = "НАПИТКИ"
	CarouselInterval  = 4 * time.Second
	BarRefreshPeriod  = 30 * time.Second
	defaultCategory   = "Меню"
	defaultDrinkImage = "https://images.unsplash.com/photo-1514362545857-3bc16c4c7d1b?w=400&h=400&fit=crop"
)

// Banner pictures for the stock drink categories that have no dish photos.
var categoryImages = map[int64]string{
	13: "https://images.unsplash.com/photo-1514362545857-3bc16c4c7d1b?w=400&h=400&fit=crop",
	14: "https://images.unsplash.com/photo-1470337458703-46ad1756a187?w=400&h=400&fit=crop",
	15: "https://images.unsplash.com/photo-1509669803555-fd5c0c88e8f3?w=400&h=400&fit=crop",
}

type reviewLister interface {
	DishReviews(ctx context.Context, dishID int64) ([]domain.Review, error)
}

type Service struct {
	source   catalog.Source
	fallback catalog.Source
	reviews  reviewLister
	baseURL  string
	logger   logrus.FieldLogger
}

// New builds the page service. When fallback is set, a failed kitchen menu
// load is served from it as a whole; the bar page and dish detail always
// use source.
func New(source, fallback catalog.Source, reviews reviewLister, baseURL string, logger logrus.FieldLogger) *Service {
	return &Service{source: source, fallback: fallback, reviews: reviews, baseURL: baseURL, logger: logger}
}

// MenuQuery selects what the kitchen page shows. CategoryID 0 means all.
type MenuQuery struct {
	Lang       domain.Language
	CategoryID int64
	Search     string
}

// BarQuery selects what the bar page shows. Without a category the
// carousel is built around Slide.
type BarQuery struct {
	Lang       domain.Language
	CategoryID int64
	Slide      int
}

func (s *Service) load(ctx context.Context) ([]domain.Category, []domain.Dish, error) {
	categories, dishes, err := catalog.Load(ctx, s.source)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	sortCategories(categories)
	return categories, dishes, nil
}

func (s *Service) loadKitchen(ctx context.Context) ([]domain.Category, []domain.Dish, error) {
	categories, dishes, err := catalog.LoadWithFallback(ctx, s.source, s.fallback, s.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	sortCategories(categories)
	return categories, dishes, nil
}

func (s *Service) KitchenPage(ctx context.Context, q MenuQuery) (*KitchenView, error) {
	categories, dishes, err := s.loadKitchen(ctx)
	if err != nil {
		return nil, err
	}

	kitchen := make([]domain.Category, 0, len(categories))
	for _, c := range catalog.FilterPage(categories, domain.PageKitchen) {
		if !catalog.IsBarCategory(c) {
			kitchen = append(kitchen, c)
		}
	}
	dishes = catalog.DishesIn(kitchen, dishes)

	search := strings.ToLower(strings.TrimSpace(q.Search))
	view := &KitchenView{
		Lang:       q.Lang,
		Categories: s.categoryViews(kitchen, q.Lang, q.CategoryID),
		CategoryID: q.CategoryID,
		Search:     strings.TrimSpace(q.Search),
		Dishes:     []DishView{},
	}
	for _, d := range dishes {
		if q.CategoryID != 0 && d.CategoryID != q.CategoryID {
			continue
		}
		if search != "" && !matches(d, q.Lang, search) {
			continue
		}
		view.Dishes = append(view.Dishes, s.dishView(d, q.Lang))
	}
	return view, nil
}

func (s *Service) BarPage(ctx context.Context, q BarQuery) (*BarView, error) {
	categories, dishes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	bar := catalog.BarCategories(categories)
	dishes = catalog.DishesIn(bar, dishes)

	view := &BarView{
		Lang:         q.Lang,
		Title:        BarTitle,
		Categories:   s.categoryViews(bar, q.Lang, q.CategoryID),
		CategoryID:   q.CategoryID,
		Dishes:       []DishView{},
		AdvanceAfter: int(CarouselInterval / time.Second),
		RefreshAfter: int(BarRefreshPeriod / time.Second),
	}

	if q.CategoryID != 0 {
		for _, d := range dishes {
			if d.CategoryID == q.CategoryID {
				view.Dishes = append(view.Dishes, s.dishView(d, q.Lang))
			}
		}
		return view, nil
	}

	if len(bar) == 0 {
		return view, nil
	}
	idx := q.Slide % len(bar)
	if idx < 0 {
		idx += len(bar)
	}
	current := bar[idx]
	view.Carousel = &CarouselView{
		Index:        idx,
		Count:        len(bar),
		CategoryID:   current.ID,
		CategoryName: current.LocalizedName(q.Lang),
		ImageURL:     s.carouselImage(current, dishes),
		Next:         (idx + 1) % len(bar),
	}
	return view, nil
}

func (s *Service) carouselImage(c domain.Category, dishes []domain.Dish) string {
	for _, d := range dishes {
		if d.CategoryID == c.ID && strings.TrimSpace(d.ImageURL) != "" {
			return imageurl.Normalize(d.ImageURL, s.baseURL)
		}
	}
	if img, ok := categoryImages[c.ID]; ok {
		return img
	}
	return defaultDrinkImage
}

// DishDetail builds the dish modal. A failed review fetch yields an empty
// review list.
func (s *Service) DishDetail(ctx context.Context, lang domain.Language, id int64) (*DishDetailView, error) {
	categories, dishes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var dish *domain.Dish
	for i := range dishes {
		if dishes[i].ID == id {
			dish = &dishes[i]
			break
		}
	}
	if dish == nil {
		return nil, domain.ErrNotFound
	}

	view := &DishDetailView{
		Dish:         s.dishView(*dish, lang),
		CategoryName: defaultCategory,
		Ingredients:  dish.Ingredients(),
		Reviews:      []ReviewView{},
	}
	for _, c := range categories {
		if c.ID == dish.CategoryID {
			if name := c.LocalizedName(lang); name != "" {
				view.CategoryName = name
			}
			break
		}
	}
	if view.CategoryName == defaultCategory && dish.CategoryName != "" {
		view.CategoryName = dish.CategoryName
	}

	if s.reviews != nil {
		reviews, err := s.reviews.DishReviews(ctx, id)
		if err != nil {
			s.logger.WithError(err).WithField("dish_id", id).Warn("load dish reviews")
		}
		view.Reviews = Visible(reviews)
	}
	return view, nil
}

// Visible drops rejected reviews and maps the rest to views.
func Visible(reviews []domain.Review) []ReviewView {
	out := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		if r.IsApproved == domain.ModerationRejected {
			continue
		}
		out = append(out, ReviewView{
			ID:        r.ID,
			UserName:  r.UserName,
			Rating:    r.Rating,
			Text:      r.ReviewText,
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}

func RoleSelection() []RoleOption {
	return []RoleOption{
		{Role: "client", Title: "Клиент", Path: "/menu"},
		{Role: "admin", Title: "Администратор", Path: "/admin/login"},
	}
}

func Languages(active domain.Language) []LanguageOption {
	out := make([]LanguageOption, 0, len(domain.Languages))
	for _, l := range domain.Languages {
		out = append(out, LanguageOption{Code: l, Label: l.Label(), Active: l == active})
	}
	return out
}

func (s *Service) categoryViews(categories []domain.Category, lang domain.Language, selected int64) []CategoryView {
	out := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryView{ID: c.ID, Name: c.LocalizedName(lang), Selected: c.ID == selected})
	}
	return out
}

func (s *Service) dishView(d domain.Dish, lang domain.Language) DishView {
	img := imageurl.Normalize(d.ImageURL, s.baseURL)
	return DishView{
		ID:          d.ID,
		CategoryID:  d.CategoryID,
		Name:        d.LocalizedName(lang),
		Description: d.LocalizedDescription(lang),
		Price:       d.Price.Whole(),
		PriceLabel:  fmt.Sprintf("%d ₸", d.Price.Whole()),
		Weight:      d.Weight,
		ImageURL:    img,
		Placeholder: imageurl.IsPlaceholder(img),
		Available:   d.IsAvailable,
	}
}

func matches(d domain.Dish, lang domain.Language, needle string) bool {
	for _, hay := range []string{d.LocalizedName(lang), d.LocalizedDescription(lang), d.Name, d.Description} {
		if hay != "" && strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func sortCategories(categories []domain.Category) {
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].DisplayOrder != categories[j].DisplayOrder {
			return categories[i].DisplayOrder < categories[j].DisplayOrder
		}
		return categories[i].ID < categories[j].ID
	})
}
