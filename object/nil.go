package object

type NilType struct{}

func (n *NilType) sealed() {}

func (n *NilType) Type() Type {
	return NULL
}

func (n *NilType) Inspect() string {
	return ""
}

func (n *NilType) String() string {
	return ""
}

func (n *NilType) Interface() interface{} {
	return nil
}

func (n *NilType) Equals(other Object) bool {
	_, ok := other.(*NilType)
	return ok
}
