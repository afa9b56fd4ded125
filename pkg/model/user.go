package model

// User is the canonical composed entity: UUID identity, tracked
// timestamps, soft-deletion, and credential columns. The unique index on
// Email is what turns a concurrent get-or-create race into an
// AlreadyExists failure instead of a duplicate row.
type User struct {
	UUID
	Timestamps
	SoftDelete
	Credentials

	Name string `gorm:"not null" json:"name" validate:"required"`
}

// TableName fixes the storage table name.
func (User) TableName() string { return "users" }

// UserCreate is the input for creating a User. HashedPassword is expected
// to be hashed before it reaches this layer.
type UserCreate struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	HashedPassword string `json:"-" validate:"required"`
	IsActive       *bool  `json:"is_active,omitempty"`
}

// NewUser validates in and builds a User ready for the CRUD engine.
// IsActive defaults to true when not supplied.
func NewUser(in UserCreate) (*User, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return &User{
		Credentials: Credentials{
			Email:          in.Email,
			HashedPassword: in.HashedPassword,
			IsActive:       active,
		},
		Name: in.Name,
	}, nil
}

// UserUpdate is the partial-update input for a User. Only fields that are
// explicitly present (non-nil) are applied to the target entity.
type UserUpdate struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email"`
	HashedPassword *string `json:"-"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// Fields returns the update set: exactly the fields present on u, keyed by
// entity field name for the CRUD engine's Update.
func (u UserUpdate) Fields() map[string]any {
	out := make(map[string]any)
	if u.Name != nil {
		out["Name"] = *u.Name
	}
	if u.Email != nil {
		out["Email"] = *u.Email
	}
	if u.HashedPassword != nil {
		out["HashedPassword"] = *u.HashedPassword
	}
	if u.IsActive != nil {
		out["IsActive"] = *u.IsActive
	}
	return out
}
