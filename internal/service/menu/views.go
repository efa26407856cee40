package menu

import "polykitchen/internal/domain"

// CategoryView is one entry of the category sidebar.
type CategoryView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// DishView is a dish card.
type DishView struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	PriceLabel  string `json:"price_label"`
	Weight      string `json:"weight,omitempty"`
	ImageURL    string `json:"image_url"`
	Placeholder bool   `json:"placeholder"`
	Available   bool   `json:"available"`
}

// KitchenView is the kitchen menu page.
type KitchenView struct {
	Lang       domain.Language `json:"lang"`
	Categories []CategoryView  `json:"categories"`
	CategoryID int64           `json:"category_id"`
	Search     string          `json:"search"`
	Dishes     []DishView      `json:"dishes"`
}

// CarouselView is the rotating category banner of the bar page.
type CarouselView struct {
	Index        int    `json:"index"`
	Count        int    `json:"count"`
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	ImageURL     string `json:"image_url"`
	Next         int    `json:"next"`
}

// BarView is the drinks menu page.
type BarView struct {
	Lang         domain.Language `json:"lang"`
	Title        string          `json:"title"`
	Categories   []CategoryView  `json:"categories"`
	CategoryID   int64           `json:"category_id"`
	Dishes       []DishView      `json:"dishes"`
	Carousel     *CarouselView   `json:"carousel,omitempty"`
	AdvanceAfter int             `json:"advance_after_seconds"`
	RefreshAfter int             `json:"refresh_after_seconds"`
}

// ReviewView is a published review under a dish.
type ReviewView struct {
	ID        int64            `json:"id"`
	UserName  string           `json:"user_name"`
	Rating    int              `json:"rating"`
	Text      string           `json:"text"`
	CreatedAt domain.Timestamp `json:"created_at"`
}

// DishDetailView is the dish modal.
type DishDetailView struct {
	Dish         DishView     `json:"dish"`
	CategoryName string       `json:"category_name"`
	Ingredients  []string     `json:"ingredients"`
	Reviews      []ReviewView `json:"reviews"`
}

// RoleOption is an entry on the landing page.
type RoleOption struct {
	Role  string `json:"role"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// LanguageOption is an entry of the language selector.
type LanguageOption struct {
	Code   domain.Language `json:"code"`
	Label  string          `json:"label"`
	Active bool            `json:"active"`
}
