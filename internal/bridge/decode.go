package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tillpoint/tillpoint/internal/shared"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func isEmpty(payload json.RawMessage) bool {
	return len(payload) == 0 || string(payload) == "null"
}

// Decode unmarshals payload into T and validates its `validate` tags.
// An empty payload decodes as an empty object.
func Decode[T any](payload json.RawMessage) (T, error) {
	var target T
	if isEmpty(payload) {
		payload = json.RawMessage("{}")
	}
	if err := json.Unmarshal(payload, &target); err != nil {
		return target, fmt.Errorf("%w: malformed payload: %s", shared.ErrValidation, err.Error())
	}
	if err := validate.Struct(target); err != nil {
		return target, validationError(err)
	}
	return target, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "min", "gte", "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrValidation, strings.Join(msgs, "; "))
}

// fieldPath drops the root type and embedded struct segments from a
// validator namespace. JSON names are lower camel case, so any upper case
// segment before the leaf is a Go type name.
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	out := make([]string, 0, len(parts))
	for i, part := range parts {
		if i < len(parts)-1 && part != "" && unicode.IsUpper([]rune(part)[0]) {
			continue
		}
		out = append(out, part)
	}
	return strings.Join(out, ".")
}

// Update is a decoded update payload.
type Update[T any] struct {
	ID   string
	Data T
}

// DecodeUpdate reads the {id, data} payload of update operations. A flat
// payload carrying the data fields beside id is accepted too.
func DecodeUpdate[T any](payload json.RawMessage) (Update[T], error) {
	var head struct {
		ID   string          `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	if !isEmpty(payload) {
		if err := json.Unmarshal(payload, &head); err != nil {
			return Update[T]{}, fmt.Errorf("%w: malformed payload: %s", shared.ErrValidation, err.Error())
		}
	}
	if strings.TrimSpace(head.ID) == "" {
		return Update[T]{}, fmt.Errorf("%w: id is required", shared.ErrValidation)
	}
	body := head.Data
	if isEmpty(body) {
		body = payload
	}
	data, err := Decode[T](body)
	if err != nil {
		return Update[T]{}, err
	}
	return Update[T]{ID: head.ID, Data: data}, nil
}

// IDParams is the payload of get/delete operations on global collections.
type IDParams struct {
	ID string `json:"id" validate:"required"`
}

// StoreIDParams is the payload of get/delete operations on store-scoped collections.
type StoreIDParams struct {
	StoreID string `json:"storeId" validate:"required"`
	ID      string `json:"id" validate:"required"`
}

// ListParams is the common list payload.
type ListParams struct {
	StoreID  string `json:"storeId"`
	Page     int    `json:"page" validate:"gte=0"`
	PageSize int    `json:"pageSize" validate:"gte=0"`
	Search   string `json:"search"`
	SortBy   string `json:"sortBy"`
	SortDir  string `json:"sortDir" validate:"omitempty,oneof=asc desc ASC DESC"`
	IsActive *bool  `json:"isActive"`
}

// Filters converts params to shared.ListFilters with defaultSize applied.
func (p ListParams) Filters(defaultSize int) shared.ListFilters {
	page, size := shared.NormalizePage(p.Page, p.PageSize, defaultSize)
	return shared.ListFilters{
		StoreID:  p.StoreID,
		Page:     page,
		PageSize: size,
		Search:   strings.TrimSpace(p.Search),
		SortBy:   p.SortBy,
		SortDir:  strings.ToLower(p.SortDir),
		IsActive: p.IsActive,
	}
}
