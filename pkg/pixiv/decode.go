package pixiv

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Validator is implemented by domain records that carry schema checks
// beyond what JSON unmarshalling enforces: required fields, enum
// membership, semantic formats such as email addresses.
type Validator interface {
	Validate() error
}

// Decode unmarshals an API response body into T and validates the result.
// Unknown fields are ignored, never rejected: the service adds fields
// independently of this client and must not break it by doing so. Type
// mismatches and schema violations surface as a *DecodeError naming the
// offending field and the expected vs. actual shape.
//
// Decode is pure; it performs no I/O.
func Decode[T any](data []byte) (*T, error) {
	var value T

	if err := DecodeInto(data, &value); err != nil {
		return nil, err
	}

	return &value, nil
}

// DecodeInto is the non-generic form of Decode for callers that already
// hold a destination value.
func DecodeInto(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return wrapDecodeError(err)
	}

	if v, ok := dest.(Validator); ok {
		if err := v.Validate(); err != nil {
			decodeErr := &DecodeError{}
			if errors.As(err, &decodeErr) {
				return decodeErr
			}

			return &DecodeError{Err: err}
		}
	}

	return nil
}

// wrapDecodeError converts encoding/json failures into the structured
// DecodeError taxonomy, preserving the field path when the standard
// library provides one.
func wrapDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		expected := typeErr.Type.String()
		field := typeErr.Field

		if typeErr.Struct != "" && field == "" {
			field = typeErr.Struct
		}

		return &DecodeError{
			Field:    field,
			Expected: expected,
			Actual:   typeErr.Value,
			Err:      err,
		}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &DecodeError{
			Expected: "valid JSON",
			Actual:   fmt.Sprintf("malformed input at offset %d", syntaxErr.Offset),
			Err:      err,
		}
	}

	return &DecodeError{Err: err}
}
