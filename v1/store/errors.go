package store

import (
	"errors"

	"github.com/Aleph-Alpha/polystore/v1/query"
)

var (
	// ErrUnknownScheme is returned when a handle's scheme has no registered
	// adapter.
	ErrUnknownScheme = errors.New("unknown scheme")

	// ErrInvalidLocator is returned for a handle that cannot be parsed.
	ErrInvalidLocator = errors.New("invalid locator")

	// ErrInvalidConfig is returned for a malformed configuration document.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound is returned when a database, collection or matching record
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous is returned by unnamed lookups that match more than one
	// database.
	ErrAmbiguous = errors.New("ambiguous")

	// ErrInconsistentAlias is returned when a database already records an
	// alias different from the one it is being attached under.
	ErrInconsistentAlias = errors.New("inconsistent alias")

	// ErrNotImplemented is returned when an adapter does not support an
	// operation, or an index has no embedder.
	ErrNotImplemented = errors.New("not implemented")

	// ErrClosed is returned by operations on a closed or dropped database.
	ErrClosed = errors.New("database is closed")

	// ErrUnsupportedValue is returned when a value cannot be represented in a
	// store's native filter dialect.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrInvalidQuery is returned for queries that cannot be executed.
	ErrInvalidQuery = query.ErrInvalidQuery
)

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAmbiguous reports whether err is, or wraps, ErrAmbiguous.
func IsAmbiguous(err error) bool { return errors.Is(err, ErrAmbiguous) }

// IsUnknownScheme reports whether err is, or wraps, ErrUnknownScheme.
func IsUnknownScheme(err error) bool { return errors.Is(err, ErrUnknownScheme) }

// IsClosed reports whether err is, or wraps, ErrClosed.
func IsClosed(err error) bool { return errors.Is(err, ErrClosed) }
