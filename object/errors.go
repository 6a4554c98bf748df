package object

import "errors"

var (
	// ErrNotIntegral is returned when an integer encoding is required but
	// the value is not an Int, Bool or Char.
	ErrNotIntegral = errors.New("value is not integral")

	// ErrNotCollection is returned by indexing and length operations on
	// values that are not collections.
	ErrNotCollection = errors.New("value is not a collection")

	// ErrIndexOutOfRange is returned when an index falls outside a
	// collection.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidConversion is returned when a value cannot be converted to
	// the requested type.
	ErrInvalidConversion = errors.New("invalid conversion")

	// ErrConversionRange is returned when a string holds a number that does
	// not fit in an Int.
	ErrConversionRange = errors.New("number out of range")
)
