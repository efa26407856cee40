package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Price is a dish price in tenge. Backends disagree on whether numeric
// columns travel as JSON numbers or strings, so both are accepted.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*p = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("price %q: %w", s, err)
		}
		*p = Price(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*p = Price(f)
	return nil
}

// Whole drops the fractional part, as printed on the menu.
func (p Price) Whole() int64 {
	return int64(math.Floor(float64(p)))
}

// Dish is a menu item.
type Dish struct {
	ID              int64  `json:"id"`
	CategoryID      int64  `json:"category_id"`
	CategoryName    string `json:"category_name,omitempty"`
	Name            string `json:"name"`
	NameRU          string `json:"name_ru"`
	NameEN          string `json:"name_en"`
	NameKK          string `json:"name_kk"`
	Description     string `json:"description,omitempty"`
	DescriptionRU   string `json:"description_ru"`
	DescriptionEN   string `json:"description_en"`
	DescriptionKK   string `json:"description_kk"`
	Price           Price  `json:"price"`
	Weight          string `json:"weight"`
	ImageURL        string `json:"image_url"`
	IngredientsText string `json:"ingredients_text"`
	IsAvailable     bool   `json:"is_available"`
}

// LocalizedName returns the dish name for lang.
func (d Dish) LocalizedName(lang Language) string {
	return localize(lang, d.NameRU, d.NameEN, d.NameKK, d.Name)
}

// LocalizedDescription returns the dish description for lang.
func (d Dish) LocalizedDescription(lang Language) string {
	return localize(lang, d.DescriptionRU, d.DescriptionEN, d.DescriptionKK, d.Description)
}

// Ingredients splits the free-text ingredient list on commas and newlines.
func (d Dish) Ingredients() []string {
	fields := strings.FieldsFunc(d.IngredientsText, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
