package crud

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can map it to a transport-level
// response without inspecting error strings.
type Kind int

const (
	KindUnknown Kind = iota

	// KindNotFound indicates no row matched the requested identity.
	KindNotFound

	// KindAlreadyExists indicates the storage engine reported a
	// uniqueness violation.
	KindAlreadyExists

	// KindAccessDenied indicates an authorization failure. It is produced
	// by callers wrapping the engine, never by the engine itself.
	KindAccessDenied

	// KindNoChange indicates a caller-detected no-op update.
	KindNoChange

	// KindInvalidArgument indicates malformed input: negative pagination
	// bounds, an empty filter or update set, a zero identity.
	KindInvalidArgument

	// KindUnknownField indicates an update or filter key that does not
	// correspond to a declared field on the entity.
	KindUnknownField
)

// String returns the kind name used in rendered messages.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAlreadyExists:
		return "already exists"
	case KindAccessDenied:
		return "access denied"
	case KindNoChange:
		return "no change"
	case KindInvalidArgument:
		return "invalid argument"
	case KindUnknownField:
		return "unknown field"
	default:
		return "unknown"
	}
}

// Error is a typed failure carrying enough context (entity name, identifier,
// offending field) for a caller to render a precise message without
// re-deriving it.
type Error struct {
	Kind   Kind
	Entity string // entity type name, e.g. "User"
	ID     any    // identifier involved, if any
	Field  string // offending field, for invalid-argument and unknown-field
	Reason string // free-form detail
	Err    error  // wrapped storage error, if any
}

// Error renders the full context of the failure.
func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s with id %v not found", e.Entity, e.ID)
	case KindAlreadyExists:
		if e.ID != nil {
			return fmt.Sprintf("%s with id %v already exists", e.Entity, e.ID)
		}
		return fmt.Sprintf("%s already exists", e.Entity)
	case KindUnknownField:
		return fmt.Sprintf("%s has no field %q", e.Entity, e.Field)
	case KindAccessDenied:
		if e.Reason != "" {
			return fmt.Sprintf("access denied: %s", e.Reason)
		}
		return "access denied"
	case KindNoChange:
		if e.Reason != "" {
			return fmt.Sprintf("no change: %s", e.Reason)
		}
		return "no change detected"
	case KindInvalidArgument:
		if e.Field != "" {
			return fmt.Sprintf("invalid argument for %s field %q: %s", e.Entity, e.Field, e.Reason)
		}
		return fmt.Sprintf("invalid argument for %s: %s", e.Entity, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
	}
}

// Unwrap returns the wrapped storage error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewNotFound builds a NotFound error for the given entity/id pair.
func NewNotFound(entity string, id any) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id}
}

// NewAlreadyExists builds an AlreadyExists error wrapping the storage
// error that reported the uniqueness violation.
func NewAlreadyExists(entity string, id any, err error) *Error {
	return &Error{Kind: KindAlreadyExists, Entity: entity, ID: id, Err: err}
}

// NewAccessDenied builds an AccessDenied error. Callers produce these when
// authorization fails; the engine never does.
func NewAccessDenied(entity, reason string) *Error {
	return &Error{Kind: KindAccessDenied, Entity: entity, Reason: reason}
}

// NewNoChange builds a NoChange error for a caller-detected no-op update.
func NewNoChange(entity, reason string) *Error {
	return &Error{Kind: KindNoChange, Entity: entity, Reason: reason}
}

// NewInvalidArgument builds an InvalidArgument error. field may be empty
// when the problem is not tied to a single field.
func NewInvalidArgument(entity, field, format string, args ...any) *Error {
	return &Error{
		Kind:   KindInvalidArgument,
		Entity: entity,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// NewUnknownField builds an UnknownField error for an update or filter key
// that is not declared on the entity.
func NewUnknownField(entity, field string) *Error {
	return &Error{Kind: KindUnknownField, Entity: entity, Field: field}
}

// kindOf extracts the Kind from err, or KindUnknown if err is not from
// this taxonomy.
func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a NotFound taxonomy error.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsAlreadyExists reports whether err is an AlreadyExists taxonomy error.
func IsAlreadyExists(err error) bool { return kindOf(err) == KindAlreadyExists }

// IsAccessDenied reports whether err is an AccessDenied taxonomy error.
func IsAccessDenied(err error) bool { return kindOf(err) == KindAccessDenied }

// IsNoChange reports whether err is a NoChange taxonomy error.
func IsNoChange(err error) bool { return kindOf(err) == KindNoChange }

// IsInvalidArgument reports whether err is an InvalidArgument taxonomy error.
func IsInvalidArgument(err error) bool { return kindOf(err) == KindInvalidArgument }

// IsUnknownField reports whether err is an UnknownField taxonomy error.
func IsUnknownField(err error) bool { return kindOf(err) == KindUnknownField }
