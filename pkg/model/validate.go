package model

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/larderhq/larder/pkg/crud"
)

// validate is the shared validator instance. Tags are declared on the
// trait and input structs in this package.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks v against its declared validation tags. A failed rule is
// reported as an InvalidArgument taxonomy error naming the offending
// field; non-validation failures (e.g. v is not a struct) propagate as-is.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ferrs validator.ValidationErrors
	if errors.As(err, &ferrs) && len(ferrs) > 0 {
		f := ferrs[0]
		return crud.NewInvalidArgument(typeName(v), f.Field(), "failed %q validation", f.Tag())
	}
	return err
}

// typeName returns the struct type name of v, dereferencing pointers.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	return t.Name()
}
