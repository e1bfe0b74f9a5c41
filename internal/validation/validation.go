// Package validation checks request inputs and turns failures into
// apperror.ValidationFailures.
//
// Rules live on the input structs as `validate` tags (go-playground/validator).
// Each caller passes a Messages table that maps a JSON field name to the one
// message the API returns for it, whichever rule failed. That keeps the
// response bodies stable no matter how many rules a field carries:
//
//	{"message": "Bad Request", "errors": {"city": "City is required"}}
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/rental-spots/internal/apperror"
)

// Messages maps a JSON field name to its error message.
type Messages map[string]string

// Validator wraps a validator.Validate configured to report JSON field names.
// It is safe for concurrent use; validator caches struct metadata internally.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report `json:"startDate"` instead of the Go field name StartDate.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// Struct validates s. Failed fields get their message from msgs, falling
// back to a generic "<field> is invalid".
func (v *Validator) Struct(s interface{}, msgs Messages) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = msgs.For(name)
	}
	return apperror.ValidationFailures(fields)
}

// Add merges extra failures (rules validator tags can't express, such as
// comparing two dates) into err. err may be nil.
func Add(err error, field, message string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperror.ErrValidation) {
		if _, seen := appErr.Fields[field]; !seen {
			appErr.Fields[field] = message
		}
		return appErr
	}
	if err != nil {
		return err
	}
	return apperror.ValidationFailed(field, message)
}

// For returns the message for field.
func (m Messages) For(field string) string {
	if msg, ok := m[field]; ok {
		return msg
	}
	return field + " is invalid"
}

// DecodeJSON reads one JSON object from r into dst.
//
// A value of the wrong type (a string for "lat", say) is reported against
// the field it was meant for, using msgs, so clients see the same body they
// would get from a failed rule. Malformed JSON is a validation error on
// "body".
func DecodeJSON(r io.Reader, dst interface{}, msgs Messages) error {
	err := json.NewDecoder(r).Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		// Nested paths come back dotted; the outer name is the input field.
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[:i]
		}
		return apperror.ValidationFailed(field, msgs.For(field))
	}
	if errors.Is(err, io.EOF) {
		return apperror.ValidationFailed("body", "Request body is required")
	}
	return apperror.ValidationFailed("body", "Invalid JSON body")
}
