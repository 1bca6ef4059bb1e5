// Package model holds the SmartFactory entities and their JSON decoders.
//
// Decoders are strict: a payload missing a required field, or carrying a field
// of the wrong type, yields a *DecodeError and no partial value.
package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// DecodeError reports a payload that does not have the expected shape.
type DecodeError struct {
	Entity string
	Field  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: field %q: %s", e.Entity, e.Field, e.Reason)
	}
	return fmt.Sprintf("decode %s: %s", e.Entity, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeInto unmarshals data into wire, a struct of pointer fields tagged
// for the validator, and checks the tags. Errors are *DecodeError.
func DecodeInto(entity string, data []byte, wire any) error {
	if err := json.Unmarshal(data, wire); err != nil {
		return jsonError(entity, err)
	}
	if err := validate.Struct(wire); err != nil {
		return validationError(entity, err)
	}
	return nil
}

func jsonError(entity string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodeError{
			Entity: entity,
			Field:  typeErr.Field,
			Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
			Err:    err,
		}
	}
	return &DecodeError{Entity: entity, Reason: "malformed JSON", Err: err}
}

func validationError(entity string, err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := "failed " + fe.Tag()
		switch fe.Tag() {
		case "required":
			reason = "missing"
		case "min":
			reason = "empty"
		}
		return &DecodeError{Entity: entity, Field: fe.Field(), Reason: reason, Err: err}
	}
	return &DecodeError{Entity: entity, Reason: err.Error(), Err: err}
}

// decodeList splits a JSON array and decodes every element with fn.
func decodeList[T any](entity string, data []byte, fn func([]byte) (T, error)) ([]T, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, jsonError(entity+" list", err)
	}
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		v, err := fn(raw)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
