package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
	"polykitchen/internal/service/admin"
)

// DishWriter saves a dish through the admin API. id 0 creates.
type DishWriter interface {
	Save(ctx context.Context, cred backend.Credentials, id int64, form admin.DishForm, upload *admin.ImageUpload) (*domain.Dish, error)
}

// RowError points at the CSV line that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// CSVImporter reads dish rows and creates each one through a DishWriter.
type CSVImporter struct {
	reader *csv.Reader
	dishes DishWriter
	cred   backend.Credentials
}

func NewCSVImporter(r io.Reader, dishes DishWriter, cred backend.Credentials) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader: csvr,
		dishes: dishes,
		cred:   cred,
	}
}

// Run imports every row and returns how many dishes were created before
// the first failure.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, col := range []string{"category_id", "name_ru", "price"} {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return imported, &RowError{Line: line, Err: err}
		}
		line, _ := i.reader.FieldPos(0)
		if blank(record) {
			continue
		}

		form, err := parseRow(record, index)
		if err != nil {
			return imported, &RowError{Line: line, Err: err}
		}
		if _, err := i.dishes.Save(ctx, i.cred, 0, form, nil); err != nil {
			return imported, &RowError{Line: line, Err: fmt.Errorf("save dish %q: %w", form.NameRU, err)}
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (admin.DishForm, error) {
	form := admin.DishForm{
		NameRU:          pick(record, index, "name_ru"),
		NameEN:          pick(record, index, "name_en"),
		NameKK:          pick(record, index, "name_kk"),
		DescriptionRU:   pick(record, index, "description_ru"),
		DescriptionEN:   pick(record, index, "description_en"),
		DescriptionKK:   pick(record, index, "description_kk"),
		Weight:          pick(record, index, "weight"),
		ImageURL:        pick(record, index, "image_url"),
		IngredientsText: pick(record, index, "ingredients_text"),
	}
	if form.NameRU == "" {
		return form, errors.New("name_ru is required")
	}

	categoryID, err := strconv.ParseInt(pick(record, index, "category_id"), 10, 64)
	if err != nil || categoryID <= 0 {
		return form, fmt.Errorf("invalid category_id %q", pick(record, index, "category_id"))
	}
	form.CategoryID = categoryID

	raw := strings.ReplaceAll(pick(record, index, "price"), ",", ".")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return form, fmt.Errorf("invalid price %q", raw)
	}
	form.Price = price

	if v := pick(record, index, "is_available"); v != "" {
		avail, err := strconv.ParseBool(v)
		if err != nil {
			return form, fmt.Errorf("invalid is_available %q", v)
		}
		form.IsAvailable = &avail
	}
	return form, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
