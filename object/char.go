package object

// Char is a single byte character. It implements Object and Integral.
type Char struct {
	value byte
}

func NewChar(value byte) *Char {
	return &Char{value: value}
}

func (c *Char) sealed() {}

func (c *Char) Type() Type {
	return CHAR
}

func (c *Char) Value() byte {
	return c.value
}

func (c *Char) Int() int32 {
	return int32(c.value)
}

func (c *Char) Inspect() string {
	return string([]byte{c.value})
}

func (c *Char) String() string {
	return c.Inspect()
}

func (c *Char) Interface() interface{} {
	return string([]byte{c.value})
}

func (c *Char) Equals(other Object) bool {
	o, ok := other.(*Char)
	return ok && o.value == c.value
}
