package object

import "strconv"

// Int wraps int32 and implements Object and Integral.
type Int struct {
	value int32
}

func NewInt(value int32) *Int {
	return &Int{value: value}
}

func (i *Int) sealed() {}

func (i *Int) Type() Type {
	return INT
}

func (i *Int) Value() int32 {
	return i.value
}

func (i *Int) Int() int32 {
	return i.value
}

func (i *Int) Inspect() string {
	return strconv.FormatInt(int64(i.value), 10)
}

func (i *Int) String() string {
	return i.Inspect()
}

func (i *Int) Interface() interface{} {
	return i.value
}

func (i *Int) Equals(other Object) bool {
	o, ok := other.(*Int)
	return ok && o.value == i.value
}
