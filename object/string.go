package object

import "fmt"

// String wraps a Go string. Strings are the only collection type: they are
// indexed by byte and each element is a Char.
type String struct {
	value string
}

func NewString(value string) *String {
	return &String{value: value}
}

func (s *String) sealed() {}

func (s *String) Type() Type {
	return STRING
}

func (s *String) Value() string {
	return s.value
}

func (s *String) Inspect() string {
	return s.value
}

func (s *String) String() string {
	return s.value
}

func (s *String) Interface() interface{} {
	return s.value
}

func (s *String) Equals(other Object) bool {
	o, ok := other.(*String)
	return ok && o.value == s.value
}

func (s *String) Len() int32 {
	return int32(len(s.value))
}

func (s *String) GetItem(index int32) (Object, error) {
	if index < 0 || int(index) >= len(s.value) {
		return nil, fmt.Errorf("%w: index %d (length %d)", ErrIndexOutOfRange, index, len(s.value))
	}
	return NewChar(s.value[index]), nil
}
