package object

// Bool wraps bool and implements Object and Integral.
type Bool struct {
	value bool
}

// NewBool returns the shared True or False value.
func NewBool(value bool) *Bool {
	if value {
		return True
	}
	return False
}

func (b *Bool) sealed() {}

func (b *Bool) Type() Type {
	return BOOL
}

func (b *Bool) Value() bool {
	return b.value
}

func (b *Bool) Int() int32 {
	if b.value {
		return 1
	}
	return 0
}

func (b *Bool) Inspect() string {
	if b.value {
		return "TRUE"
	}
	return "FALSE"
}

func (b *Bool) String() string {
	return b.Inspect()
}

func (b *Bool) Interface() interface{} {
	return b.value
}

func (b *Bool) Equals(other Object) bool {
	o, ok := other.(*Bool)
	return ok && o.value == b.value
}
