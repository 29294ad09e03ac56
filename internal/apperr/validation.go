package apperr

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FromValidation converts the result of an ozzo-validation call into a
// *ValidationError. A nil input returns nil; rule-evaluation failures become
// internal errors.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return Internal(internal.InternalError())
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return Validation(err.Error(), nil)
	}

	fields := make(map[string]string, len(errs))
	keys := make([]string, 0, len(errs))
	for k, v := range errs {
		if v == nil {
			continue
		}
		fields[k] = v.Error()
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msg := "invalid input data"
	if len(keys) == 1 {
		msg = keys[0] + ": " + fields[keys[0]]
	}
	return Validation(msg, fields)
}
