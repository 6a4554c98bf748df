package object

// TypeTag is a first-class value naming a Type. It is produced by the type
// instruction and by type-name literals, and consumed by convert.
type TypeTag struct {
	value Type
}

func NewTypeTag(value Type) *TypeTag {
	return &TypeTag{value: value}
}

func (t *TypeTag) sealed() {}

func (t *TypeTag) Type() Type {
	return TYPE
}

func (t *TypeTag) Value() Type {
	return t.value
}

func (t *TypeTag) Inspect() string {
	return t.value.String()
}

func (t *TypeTag) String() string {
	return t.Inspect()
}

func (t *TypeTag) Interface() interface{} {
	return t.value.String()
}

func (t *TypeTag) Equals(other Object) bool {
	o, ok := other.(*TypeTag)
	return ok && o.value == t.value
}
