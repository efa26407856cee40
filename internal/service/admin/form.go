package admin

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormError carries per-field messages for an admin form.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *FormError {
	return &FormError{Fields: map[string]string{field: msg}}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// check validates in and maps failures through messages keyed by the json
// field name.
func check(v *validator.Validate, in interface{}, messages map[string]string) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	fe := &FormError{Fields: make(map[string]string, len(verrs))}
	for _, ve := range verrs {
		msg, ok := messages[ve.Field()]
		if !ok {
			msg = "Некорректное значение"
		}
		fe.Fields[ve.Field()] = msg
	}
	return fe
}
