package domain

import "errors"

var (
	// ErrInvalidParams signals malformed search parameters.
	ErrInvalidParams = errors.New("invalid search params")
	// ErrInvalidConfig signals a malformed index configuration.
	ErrInvalidConfig = errors.New("invalid index config")
	// ErrConflictingRoles signals an attribute declared with roles the backend cannot hold together.
	ErrConflictingRoles = errors.New("conflicting attribute roles")
	// ErrInvalidSynonym signals a malformed synonym record.
	ErrInvalidSynonym = errors.New("invalid synonym")
	// ErrNotRepresentable signals a synonym type the target model cannot store.
	ErrNotRepresentable = errors.New("synonym type not representable")
	// ErrInvalidFilter signals a filter expression that failed to parse.
	ErrInvalidFilter = errors.New("invalid filter expression")
	// ErrMissingPrimaryKey signals a document without a usable primary key value.
	ErrMissingPrimaryKey = errors.New("document missing primary key")
)
