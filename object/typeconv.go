package object

import (
	"errors"
	"fmt"
	"strconv"
)

// *****************************************************************************
// Integral coercion
// *****************************************************************************

// IsIntegral reports whether obj has an integer encoding.
func IsIntegral(obj Object) bool {
	_, ok := obj.(Integral)
	return ok
}

// AsInt returns the integer encoding of an Int, Bool or Char.
func AsInt(obj Object) (int32, error) {
	i, ok := obj.(Integral)
	if !ok {
		return 0, fmt.Errorf("%w: expected int, bool or char (%s given)", ErrNotIntegral, obj.Type())
	}
	return i.Int(), nil
}

// AsBool returns true if the integer encoding of obj is non-zero.
func AsBool(obj Object) (bool, error) {
	i, err := AsInt(obj)
	if err != nil {
		return false, err
	}
	return i != 0, nil
}

// AsChar truncates the integer encoding of obj to a single byte.
func AsChar(obj Object) (byte, error) {
	i, err := AsInt(obj)
	if err != nil {
		return 0, err
	}
	return byte(i), nil
}

// FromInt builds an integral value of type t from an integer encoding.
func FromInt(t Type, value int32) (Object, error) {
	switch t {
	case INT:
		return NewInt(value), nil
	case BOOL:
		return NewBool(value != 0), nil
	case CHAR:
		return NewChar(byte(value)), nil
	default:
		return nil, fmt.Errorf("%w: %s is not an integral type", ErrNotIntegral, t)
	}
}

// *****************************************************************************
// Comparison
// *****************************************************************************

// Equal compares type and payload. Values of different types are never
// equal.
func Equal(a, b Object) bool {
	return a.Equals(b)
}

// NotEqual is the negation of Equal.
func NotEqual(a, b Object) bool {
	return !a.Equals(b)
}

// GreaterThan compares the integer encodings of two integral values.
func GreaterThan(a, b Object) (bool, error) {
	left, err := AsInt(a)
	if err != nil {
		return false, err
	}
	right, err := AsInt(b)
	if err != nil {
		return false, err
	}
	return left > right, nil
}

// *****************************************************************************
// Collections
// *****************************************************************************

// Len returns the length of a collection.
func Len(obj Object) (int32, error) {
	c, ok := obj.(Collection)
	if !ok {
		return 0, fmt.Errorf("%w: len of %s", ErrNotCollection, obj.Type())
	}
	return c.Len(), nil
}

// Index returns the element of a collection at the given index.
func Index(obj Object, index int32) (Object, error) {
	c, ok := obj.(Collection)
	if !ok {
		return nil, fmt.Errorf("%w: cannot index %s", ErrNotCollection, obj.Type())
	}
	return c.GetItem(index)
}

// *****************************************************************************
// Conversion
// *****************************************************************************

// TypeOf returns a TypeTag naming the type of obj.
func TypeOf(obj Object) *TypeTag {
	return NewTypeTag(obj.Type())
}

// Convert coerces obj to the target base type.
//
//   - int: strings are parsed as base-10 integers, integral values keep
//     their integer encoding.
//   - char: integral values are truncated to a byte, strings yield their
//     first byte.
//   - bool: integral values are tested against zero, the strings TRUE and
//     FALSE are parsed.
//   - string: the textual form of the value.
func Convert(obj Object, target Type) (Object, error) {
	switch target {
	case INT:
		if s, ok := obj.(*String); ok {
			return parseInt(s.value)
		}
		i, err := AsInt(obj)
		if err != nil {
			return nil, convertError(obj, target, err)
		}
		return NewInt(i), nil
	case CHAR:
		if s, ok := obj.(*String); ok {
			if len(s.value) == 0 {
				return nil, fmt.Errorf("%w: empty string to char", ErrInvalidConversion)
			}
			return NewChar(s.value[0]), nil
		}
		c, err := AsChar(obj)
		if err != nil {
			return nil, convertError(obj, target, err)
		}
		return NewChar(c), nil
	case BOOL:
		if s, ok := obj.(*String); ok {
			switch s.value {
			case "TRUE":
				return True, nil
			case "FALSE":
				return False, nil
			}
			return nil, fmt.Errorf("%w: %q to bool", ErrInvalidConversion, s.value)
		}
		b, err := AsBool(obj)
		if err != nil {
			return nil, convertError(obj, target, err)
		}
		return NewBool(b), nil
	case STRING:
		if s, ok := obj.(*String); ok {
			return s, nil
		}
		return NewString(obj.Inspect()), nil
	default:
		return nil, fmt.Errorf("%w: cannot convert to %s", ErrInvalidConversion, target)
	}
}

func parseInt(s string) (Object, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("%w: %q", ErrConversionRange, s)
		}
		return nil, fmt.Errorf("%w: %q to int", ErrInvalidConversion, s)
	}
	return NewInt(int32(v)), nil
}

func convertError(obj Object, target Type, err error) error {
	return fmt.Errorf("%w: %s to %s (%v)", ErrInvalidConversion, obj.Type(), target, err)
}
