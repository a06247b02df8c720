// Package validation wraps a shared go-playground validator with the shop's
// custom tags:
//
//	pricebucket  one of the filter price bucket labels
//	sortkey      one of the supported sort keys
//	emotion      one of the emotion labels
//
// Field names in errors use the json tag (or query tag) of the field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/crimson-sun/emoshop/internal/engine/filter"
	"github.com/crimson-sun/emoshop/internal/engine/sorter"
	"github.com/crimson-sun/emoshop/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error collects every failed rule of one struct.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Validator returns the shared instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
		mustRegister("pricebucket", func(fl validator.FieldLevel) bool {
			_, ok := filter.ParseBucket(fl.Field().String())
			return ok
		})
		mustRegister("sortkey", func(fl validator.FieldLevel) bool {
			return sorter.ValidKey(model.SortKey(fl.Field().String()))
		})
		mustRegister("emotion", func(fl validator.FieldLevel) bool {
			return model.Emotion(fl.Field().String()).Valid()
		})
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "query"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// Struct validates s. It returns nil or an *Error.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}
	out := &Error{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: message(fe)}
	}
	return out
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "pricebucket":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(filter.Buckets, ", "))
	case "sortkey":
		keys := make([]string, len(sorter.Keys))
		for i, k := range sorter.Keys {
			keys[i] = string(k)
		}
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(keys, ", "))
	case "emotion":
		return fmt.Sprintf("%s must be a known emotion", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "ne":
		return fmt.Sprintf("%s must not be %s", field, param)
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
