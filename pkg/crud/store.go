// Package crud provides a generic CRUD engine over relational storage.
// A Store is instantiated once per entity type and bound to that type's
// table and identity at construction. Every operation takes a
// caller-supplied unit-of-work session (see the db package); the engine
// never opens or closes sessions itself. Failures surface as typed errors
// from this package's taxonomy.
package crud

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Filters is a set of equality conditions, AND-combined. Keys may be Go
// field names or database column names of the entity.
type Filters map[string]any

// schemaCache is shared across all Store instances so each entity type is
// parsed once.
var schemaCache = &sync.Map{}

// Store performs create/read/update/delete operations for a single entity
// type T. T must declare exactly one primary key; soft-delete support is
// detected at construction from the presence of IsDeleted and DeletedAt
// fields (see model.SoftDelete).
type Store[T any] struct {
	schema    *schema.Schema
	pk        *schema.Field
	isDeleted *schema.Field
	deletedAt *schema.Field
}

// New builds a Store for T. It fails if T is not a valid entity: no
// mappable schema, or not exactly one primary key. These are programmer
// errors surfaced at setup, not at first call.
func New[T any]() (*Store[T], error) {
	var zero T
	sch, err := schema.Parse(&zero, schemaCache, schema.NamingStrategy{})
	if err != nil {
		return nil, fmt.Errorf("parsing schema for %T: %w", zero, err)
	}
	if len(sch.PrimaryFields) != 1 {
		return nil, fmt.Errorf("entity %s must declare exactly one primary key, has %d",
			sch.Name, len(sch.PrimaryFields))
	}
	s := &Store[T]{
		schema: sch,
		pk:     sch.PrimaryFields[0],
	}
	isDeleted := sch.LookUpField("IsDeleted")
	deletedAt := sch.LookUpField("DeletedAt")
	if isDeleted != nil && deletedAt != nil {
		s.isDeleted = isDeleted
		s.deletedAt = deletedAt
	}
	return s, nil
}

// MustNew is New, panicking on error. Intended for package-level Store
// variables where the entity type is known to be valid.
func MustNew[T any]() *Store[T] {
	s, err := New[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the entity type name, e.g. "User".
func (s *Store[T]) Name() string {
	return s.schema.Name
}

// SoftDeletable reports whether T carries the soft-delete capability.
func (s *Store[T]) SoftDeletable() bool {
	return s.isDeleted != nil
}

// Get retrieves the entity with the given identity. It never returns an
// absent value silently: the result is either the entity or a NotFound
// taxonomy error.
func (s *Store[T]) Get(sess *gorm.DB, id any) (*T, error) {
	var out T
	err := sess.Where(map[string]any{s.pk.DBName: id}).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound(s.Name(), id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s %v: %w", s.Name(), id, err)
	}
	return &out, nil
}

// GetMulti returns up to limit entities after skipping skip, ordered by
// identity ascending so pagination is deterministic. Returns
// InvalidArgument when skip is negative or limit is not positive.
func (s *Store[T]) GetMulti(sess *gorm.DB, skip, limit int) ([]T, error) {
	if skip < 0 {
		return nil, NewInvalidArgument(s.Name(), "", "skip must be non-negative, got %d", skip)
	}
	if limit <= 0 {
		return nil, NewInvalidArgument(s.Name(), "", "limit must be positive, got %d", limit)
	}
	var out []T
	err := sess.
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.pk.DBName}}).
		Offset(skip).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.Name(), err)
	}
	return out, nil
}

// Count returns the total row count for the entity's table. Soft-deleted
// rows are counted; it is a raw row count unless the caller filters.
func (s *Store[T]) Count(sess *gorm.DB) (int64, error) {
	var n int64
	if err := sess.Model(new(T)).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting %s: %w", s.Name(), err)
	}
	return n, nil
}

// Create inserts obj as an atomic unit. Identity and timestamp fields are
// assigned as part of the same write. A uniqueness violation reported by
// the storage engine is rolled back and converted to AlreadyExists; every
// other storage failure propagates wrapped but unclassified.
func (s *Store[T]) Create(sess *gorm.DB, obj *T) (*T, error) {
	if err := sess.Create(obj).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewAlreadyExists(s.Name(), s.identityOf(obj), err)
		}
		return nil, fmt.Errorf("creating %s: %w", s.Name(), err)
	}
	return obj, nil
}

// GetOrCreate returns the first entity matching filters, or creates obj
// when none matches. The boolean reports whether a new entity was created.
// An existing entity is returned unmodified; obj is ignored on that path.
//
// The read and the create are intentionally not serialized: under
// concurrent callers a race between the existence check and the insert can
// occur. Callers that need atomicity must declare a unique constraint on
// the filtered columns, which converts the losing side of the race into an
// AlreadyExists error instead of a silent duplicate.
func (s *Store[T]) GetOrCreate(sess *gorm.DB, obj *T, filters Filters) (*T, bool, error) {
	if len(filters) == 0 {
		return nil, false, NewInvalidArgument(s.Name(), "", "at least one filter is required")
	}
	cond, err := s.resolve(filters, true)
	if err != nil {
		return nil, false, err
	}

	var existing T
	lookupErr := sess.Where(cond).First(&existing).Error
	if lookupErr == nil {
		return &existing, false, nil
	}
	if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("looking up %s: %w", s.Name(), lookupErr)
	}

	created, err := s.Create(sess, obj)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// Update fetches the target entity (NotFound when absent, per Get's
// contract) and applies exactly the fields present in the update set.
// Returns InvalidArgument when the set is empty or names the identity
// field, and UnknownField when a key is not declared on the entity.
// Timestamp-tracked entities get UpdatedAt refreshed in the same commit;
// the returned entity is re-read so computed fields are current.
func (s *Store[T]) Update(sess *gorm.DB, id any, fields map[string]any) (*T, error) {
	target, err := s.Get(sess, id)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, NewInvalidArgument(s.Name(), "", "no fields to update")
	}
	updates, err := s.resolve(fields, false)
	if err != nil {
		return nil, err
	}
	if err := sess.Model(target).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("updating %s %v: %w", s.Name(), id, err)
	}
	return s.Get(sess, id)
}

// Exists reports whether at least one entity matches all filters. An empty
// filter set matches any row.
func (s *Store[T]) Exists(sess *gorm.DB, filters Filters) (bool, error) {
	q := sess.Model(new(T))
	if len(filters) > 0 {
		cond, err := s.resolve(filters, true)
		if err != nil {
			return false, err
		}
		q = q.Where(cond)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("checking %s existence: %w", s.Name(), err)
	}
	return n > 0, nil
}

// Delete removes the entity with the given identity. With soft true on a
// soft-deletable entity the row is kept and marked deleted (IsDeleted set,
// DeletedAt stamped); otherwise the row is physically removed. An entity
// without the soft-delete capability is always removed physically,
// whatever soft says.
//
// Delete fetches the target first and fails with NotFound when it is
// absent; because Get's contract is total there is no silent false result
// for a missing row.
func (s *Store[T]) Delete(sess *gorm.DB, id any, soft bool) (bool, error) {
	target, err := s.Get(sess, id)
	if err != nil {
		return false, err
	}

	if soft && s.SoftDeletable() {
		now := time.Now().UTC()
		updates := map[string]any{
			s.isDeleted.DBName: true,
			s.deletedAt.DBName: &now,
		}
		if err := sess.Model(target).Updates(updates).Error; err != nil {
			return false, fmt.Errorf("soft-deleting %s %v: %w", s.Name(), id, err)
		}
		return true, nil
	}

	if err := sess.Delete(target).Error; err != nil {
		return false, fmt.Errorf("deleting %s %v: %w", s.Name(), id, err)
	}
	return true, nil
}

// resolve maps update or filter keys onto database column names. Unknown
// keys yield UnknownField. The identity column is accepted in filters but
// rejected in update sets; identity is immutable once assigned.
func (s *Store[T]) resolve(fields map[string]any, allowIdentity bool) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		field := s.schema.LookUpField(key)
		if field == nil {
			return nil, NewUnknownField(s.Name(), key)
		}
		if field == s.pk && !allowIdentity {
			return nil, NewInvalidArgument(s.Name(), field.Name, "identity is immutable")
		}
		out[field.DBName] = value
	}
	return out, nil
}

// identityOf reads the identity value from obj, or nil when unset.
func (s *Store[T]) identityOf(obj *T) any {
	v, zero := s.pk.ValueOf(context.Background(), reflect.ValueOf(obj))
	if zero {
		return nil
	}
	return v
}
