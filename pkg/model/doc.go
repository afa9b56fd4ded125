// Package model defines the composable field sets (traits) that persisted
// entity types are built from: identity, timestamps, soft-deletion, and
// user credentials. An entity type embeds the traits it needs; each trait
// contributes a fixed column set and the methods that maintain its
// invariants. The package also carries the canonical User entity and its
// create/update input schemas.
package model
