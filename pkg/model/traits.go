package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IntID gives an entity an auto-incrementing integer primary key. An
// entity embeds exactly one of IntID or UUID; the identity is assigned on
// insert and immutable afterwards.
type IntID struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

// UUID gives an entity a randomly generated 128-bit primary key, stored as
// its canonical string form. Generated in BeforeCreate when the caller did
// not supply one.
type UUID struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`
}

// BeforeCreate assigns a UUID v7 identifier if none is set.
func (u *UUID) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = newUUID()
	}
	return nil
}

// newUUID generates a UUID v7 string, falling back to v4 if v7 generation
// fails.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Timestamps adds creation and modification instants. CreatedAt is set
// once at insertion; UpdatedAt is reset on every mutation that reaches
// storage. Both are timezone-aware.
type Timestamps struct {
	CreatedAt time.Time `gorm:"autoCreateTime;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null" json:"updated_at"`
}

// SoftDelete adds logical-deletion columns. A soft-deleted entity's row
// stays physically present and readable by identity. The columns are plain
// fields rather than the ORM's soft-delete type so reads and counts see
// deleted rows; invariant: IsDeleted is true iff DeletedAt is non-nil.
type SoftDelete struct {
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// MarkDeleted marks the entity logically deleted as of now.
func (s *SoftDelete) MarkDeleted(now time.Time) {
	s.IsDeleted = true
	t := now.UTC()
	s.DeletedAt = &t
}

// Restore clears the logical-deletion state. Idempotent.
func (s *SoftDelete) Restore() {
	s.IsDeleted = false
	s.DeletedAt = nil
}

// Credentials adds standard user-credential columns. Password hashing is
// the caller's responsibility; HashedPassword is opaque here.
type Credentials struct {
	Email          string `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	HashedPassword string `gorm:"not null" json:"-" validate:"required"`
	IsActive       bool   `gorm:"not null;default:true" json:"is_active"`
}
