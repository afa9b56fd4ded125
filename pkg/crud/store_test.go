package crud_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/larderhq/larder/pkg/crud"
	"github.com/larderhq/larder/pkg/db"
	"github.com/larderhq/larder/pkg/model"
)

// product exercises the integer-identity kind alongside soft deletion.
type product struct {
	model.IntID
	model.Timestamps
	model.SoftDelete

	Name  string `gorm:"not null"`
	Price float64
}

// note has no soft-delete capability; soft requests fall through to a
// physical removal.
type note struct {
	model.UUID
	model.Timestamps

	Body string
}

func newSession(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := db.Config{
		Environment:  db.EnvProduction,
		Backend:      db.BackendSQLite,
		DatabaseName: filepath.Join(t.TempDir(), "crud_test.db"),
	}
	provider, err := db.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	require.NoError(t, provider.AutoMigrate(&model.User{}, &product{}, &note{}))
	return provider.Session(context.Background())
}

func newUser(t *testing.T, name, email string) *model.User {
	t.Helper()
	u, err := model.NewUser(model.UserCreate{Name: name, Email: email, HashedPassword: "h"})
	require.NoError(t, err)
	return u
}

func TestNewRejectsEntityWithoutIdentity(t *testing.T) {
	type orphan struct {
		Name string
	}
	_, err := crud.New[orphan]()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary key")
}

func TestStoreCapabilities(t *testing.T) {
	users := crud.MustNew[model.User]()
	notes := crud.MustNew[note]()

	assert.Equal(t, "User", users.Name())
	assert.True(t, users.SoftDeletable())
	assert.False(t, notes.SoftDeletable())
}

func TestCreateAssignsIdentityAndTimestamps(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	created, err := users.Create(sess, newUser(t, "Alice", "alice@x.com"))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.WithinDuration(t, created.CreatedAt, created.UpdatedAt, time.Second)

	got, err := users.Get(sess, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@x.com", got.Email)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsDeleted)
}

func TestGetMissingIsNotFound(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	_, err := users.Get(sess, "no-such-id")
	require.Error(t, err)
	assert.True(t, crud.IsNotFound(err))
	assert.Contains(t, err.Error(), "User")
	assert.Contains(t, err.Error(), "no-such-id")
}

func TestCreateDuplicateEmailIsAlreadyExists(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	_, err := users.Create(sess, newUser(t, "Alice", "alice@x.com"))
	require.NoError(t, err)

	_, err = users.Create(sess, newUser(t, "Other Alice", "alice@x.com"))
	require.Error(t, err)
	assert.True(t, crud.IsAlreadyExists(err))
}

func TestGetMultiValidatesBounds(t *testing.T) {
	sess := newSession(t)
	products := crud.MustNew[product]()

	_, err := products.GetMulti(sess, -1, 10)
	assert.True(t, crud.IsInvalidArgument(err))

	_, err = products.GetMulti(sess, 0, 0)
	assert.True(t, crud.IsInvalidArgument(err))

	_, err = products.GetMulti(sess, 0, -3)
	assert.True(t, crud.IsInvalidArgument(err))
}

func TestGetMultiPaginationIsContiguous(t *testing.T) {
	sess := newSession(t)
	products := crud.MustNew[product]()

	for i := 0; i < 5; i++ {
		_, err := products.Create(sess, &product{Name: "widget", Price: float64(i)})
		require.NoError(t, err)
	}

	total, err := products.Count(sess)
	require.NoError(t, err)
	require.EqualValues(t, 5, total)

	all, err := products.GetMulti(sess, 0, int(total))
	require.NoError(t, err)
	require.Len(t, all, 5)

	// Identity-ordered ascending.
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].ID, all[i-1].ID)
	}

	// Pages of two are disjoint and contiguous; concatenation rebuilds the
	// full listing in order.
	var paged []product
	for skip := 0; skip < int(total); skip += 2 {
		page, err := products.GetMulti(sess, skip, 2)
		require.NoError(t, err)
		paged = append(paged, page...)
	}
	require.Len(t, paged, 5)
	for i := range all {
		assert.Equal(t, all[i].ID, paged[i].ID)
	}
}

func TestCountIncludesSoftDeleted(t *testing.T) {
	sess := newSession(t)
	products := crud.MustNew[product]()

	var last *product
	for i := 0; i < 3; i++ {
		p, err := products.Create(sess, &product{Name: "widget"})
		require.NoError(t, err)
		last = p
	}

	ok, err := products.Delete(sess, last.ID, true)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := products.Count(sess)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n, "count is a raw row count; soft-deleted rows stay")
}

func TestGetOrCreate(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	first, created, err := users.GetOrCreate(sess,
		newUser(t, "Alice", "alice@x.com"),
		crud.Filters{"Email": "alice@x.com"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Alice", first.Name)

	// Second call matches; the input entity is ignored and the original's
	// non-filter fields are preserved.
	second, created, err := users.GetOrCreate(sess,
		newUser(t, "Impostor", "alice@x.com"),
		crud.Filters{"Email": "alice@x.com"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice", second.Name)
}

func TestGetOrCreateRequiresFilters(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	_, _, err := users.GetOrCreate(sess, newUser(t, "Alice", "alice@x.com"), crud.Filters{})
	assert.True(t, crud.IsInvalidArgument(err))

	_, _, err = users.GetOrCreate(sess, newUser(t, "Alice", "alice@x.com"), nil)
	assert.True(t, crud.IsInvalidArgument(err))
}

func TestGetOrCreateRejectsUnknownFilterKey(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	_, _, err := users.GetOrCreate(sess, newUser(t, "Alice", "alice@x.com"),
		crud.Filters{"nickname": "al"})
	assert.True(t, crud.IsUnknownField(err))
}

// The read-then-insert window in GetOrCreate is intentionally not
// serialized. The unique index on the filtered column is what converts the
// losing side of a concurrent race into AlreadyExists instead of a silent
// duplicate; this test pins that conversion.
func TestGetOrCreateRaceLoserHitsUniqueConstraint(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	_, created, err := users.GetOrCreate(sess,
		newUser(t, "Alice", "alice@x.com"),
		crud.Filters{"Email": "alice@x.com"})
	require.NoError(t, err)
	require.True(t, created)

	// A racing caller that lost the window and went straight to the
	// insert path sees AlreadyExists from the constraint.
	_, err = users.Create(sess, newUser(t, "Racer", "alice@x.com"))
	assert.True(t, crud.IsAlreadyExists(err))
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	created, err := users.Create(sess, newUser(t, "Alice", "alice@x.com"))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond) // ensure a strictly later UpdatedAt

	name := "Alicia"
	updated, err := users.Update(sess, created.ID, model.UserUpdate{Name: &name}.Fields())
	require.NoError(t, err)

	assert.Equal(t, "Alicia", updated.Name)
	assert.Equal(t, "alice@x.com", updated.Email, "absent fields stay untouched")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt),
		"UpdatedAt %v not after %v", updated.UpdatedAt, created.UpdatedAt)
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix(), "CreatedAt is immutable")
}

func TestUpdateEmptySetIsInvalidArgument(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	created, err := users.Create(sess, newUser(t, "Alice", "alice@x.com"))
	require.NoError(t, err)

	_, err = users.Update(sess, created.ID, map[string]any{})
	assert.True(t, crud.IsInvalidArgument(err))
}

func TestUpdateUnknownFieldLeavesEntityUnchanged(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	created, err := users.Create(sess, newUser(t, "Alice", "alice@x.com"))
	require.NoError(t, err)

	_, err = users.Update(sess, created.ID, map[string]any{"nickname": "al"})
	require.Error(t, err)
	assert.True(t, crud.IsUnknownField(err))

	got, err := users.Get(sess, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, created.UpdatedAt.Unix(), got.UpdatedAt.Unix())
}

func TestUpdateIdentityIsImmutable(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	created, err := users.Create(sess, newUser(t, "Alice", "alice@x.com"))
	require.NoError(t, err)

	_, err = users.Update(sess, created.ID, map[string]any{"ID": "some-other-id"})
	assert.True(t, crud.IsInvalidArgument(err))
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	_, err := users.Update(sess, "no-such-id", map[string]any{"Name": "X"})
	assert.True(t, crud.IsNotFound(err))
}

func TestExists(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	ok, err := users.Exists(sess, crud.Filters{"Email": "alice@x.com"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = users.Create(sess, newUser(t, "Alice", "alice@x.com"))
	require.NoError(t, err)

	ok, err = users.Exists(sess, crud.Filters{"Email": "alice@x.com"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = users.Exists(sess, crud.Filters{"Email": "alice@x.com", "Name": "Bob"})
	require.NoError(t, err)
	assert.False(t, ok, "filters AND-combine")

	// An empty filter set matches any row.
	ok, err = users.Exists(sess, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSoftDeleteLifecycle(t *testing.T) {
	sess := newSession(t)
	products := crud.MustNew[product]()

	created, err := products.Create(sess, &product{Name: "widget", Price: 9.99})
	require.NoError(t, err)

	ok, err := products.Delete(sess, created.ID, true)
	require.NoError(t, err)
	require.True(t, ok)

	// Row remains readable by identity, marked deleted.
	got, err := products.Get(sess, created.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	require.NotNil(t, got.DeletedAt)

	// Physical removal afterwards makes the identity unreachable.
	ok, err = products.Delete(sess, created.ID, false)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = products.Get(sess, created.ID)
	assert.True(t, crud.IsNotFound(err))
}

func TestSoftDeleteOnIncapableEntityRemovesRow(t *testing.T) {
	sess := newSession(t)
	notes := crud.MustNew[note]()

	created, err := notes.Create(sess, &note{Body: "remember the milk"})
	require.NoError(t, err)

	ok, err := notes.Delete(sess, created.ID, true)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = notes.Get(sess, created.ID)
	assert.True(t, crud.IsNotFound(err))
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	sess := newSession(t)
	users := crud.MustNew[model.User]()

	ok, err := users.Delete(sess, "no-such-id", false)
	assert.False(t, ok)
	assert.True(t, crud.IsNotFound(err))
}

func TestRestoreRoundTrip(t *testing.T) {
	sess := newSession(t)
	products := crud.MustNew[product]()

	created, err := products.Create(sess, &product{Name: "widget"})
	require.NoError(t, err)

	ok, err := products.Delete(sess, created.ID, true)
	require.NoError(t, err)
	require.True(t, ok)

	// Restore is a trait capability; the caller persists it through Update.
	restored, err := products.Update(sess, created.ID, map[string]any{
		"IsDeleted": false,
		"DeletedAt": nil,
	})
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)
}
