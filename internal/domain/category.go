package domain

// Page decides on which customer route a category is shown.
type Page string

const (
	PageKitchen Page = "kitchen"
	PageBar     Page = "bar"
	PagePizza   Page = "pizza"
	PageHidden  Page = "hidden"
)

// Valid reports whether p is a known page.
func (p Page) Valid() bool {
	switch p {
	case PageKitchen, PageBar, PagePizza, PageHidden:
		return true
	}
	return false
}

// Category groups dishes and drives menu partitioning.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"name,omitempty"`
	NameRU       string `json:"name_ru"`
	NameEN       string `json:"name_en"`
	NameKK       string `json:"name_kk"`
	DisplayOrder int    `json:"display_order"`
	Page         Page   `json:"page"`
	DishesCount  int    `json:"dishes_count,omitempty"`
}

// EffectivePage treats a missing page as the kitchen menu.
func (c Category) EffectivePage() Page {
	if c.Page == "" {
		return PageKitchen
	}
	return c.Page
}

// LocalizedName returns the category name for lang.
func (c Category) LocalizedName(lang Language) string {
	return localize(lang, c.NameRU, c.NameEN, c.NameKK, c.Name)
}
