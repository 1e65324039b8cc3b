package storage

import "errors"

var (
	// ErrNotFound is returned when a token, pair or bundle does not exist.
	// The pricing core treats it as a missing graph edge, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a swap log or price snapshot is
	// recorded twice. Both tables are append-only.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned for records that break an entity invariant,
	// such as a pair whose tokens are equal or reference unknown tokens.
	ErrInvalidInput = errors.New("invalid input")
)
