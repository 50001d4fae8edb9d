package models

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to the first validation failure for it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid book: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func bookValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// ValidateCreate checks a create payload against the form-input contract.
func ValidateCreate(c BookCreate) error {
	return check(c)
}

// ValidateUpdate checks only the fields present in the patch.
func ValidateUpdate(u BookUpdate) error {
	return check(u)
}

func check(payload any) error {
	err := bookValidator().Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := FieldErrors{}
	for _, fieldErr := range verrs {
		fe.add(fieldErr.Field(), message(fieldErr.Field(), fieldErr.Tag()))
	}
	return fe
}

func message(field, tag string) string {
	switch field {
	case "title":
		if tag == "max" {
			return "Title too long"
		}
		return "Title is required"
	case "author":
		if tag == "max" {
			return "Author name too long"
		}
		return "Author is required"
	case "genre":
		return "Genre is required"
	case "status":
		return "Status must be one of want_to_read, reading, completed, dropped"
	case "description":
		return "Description too long"
	case "pages":
		return "Pages must be between 1 and 10000"
	case "rating":
		return "Rating must be between 1 and 5"
	}
	return "is invalid (" + tag + ")"
}
