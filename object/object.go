// Package object provides the runtime value types of the stax virtual
// machine.
//
// The set of value types is closed: Int, Bool, Char, String, TypeTag and
// the Nil sentinel. Code that consumes an Object is expected to type switch
// over these concrete types:
//
//	switch obj := obj.(type) {
//	case *object.Int:
//		// do something with obj.Value()
//	case *object.String:
//		// do something with obj.Value()
//	}
package object

// Type identifies the kind of a value. The four base kinds are the only
// valid targets of a conversion.
type Type int32

// Type constants
const (
	INT    Type = 0
	BOOL   Type = 1
	CHAR   Type = 2
	STRING Type = 3
	TYPE   Type = 4
	NULL   Type = 5
)

// String returns the canonical name of the type, as used in source code.
func (t Type) String() string {
	switch t {
	case INT:
		return "int"
	case BOOL:
		return "bool"
	case CHAR:
		return "char"
	case STRING:
		return "string"
	case TYPE:
		return "type"
	case NULL:
		return "null"
	default:
		return "unknown"
	}
}

// IsBase reports whether t is one of the four base kinds.
func (t Type) IsBase() bool {
	return t >= INT && t <= STRING
}

// IsIntegral reports whether values of type t have an integer encoding.
func (t Type) IsIntegral() bool {
	return t == INT || t == BOOL || t == CHAR
}

// LookupType returns the Type with the given canonical name.
func LookupType(name string) (Type, bool) {
	switch name {
	case "int":
		return INT, true
	case "bool":
		return BOOL, true
	case "char":
		return CHAR, true
	case "string":
		return STRING, true
	}
	return NULL, false
}

// Nil is the value produced when an evaluation yields nothing.
var Nil = &NilType{}

var (
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// Object is the interface implemented by every runtime value.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns the textual form of the object, as written by print.
	Inspect() string

	// Interface converts the object to a native Go value.
	Interface() interface{}

	// Equals returns true if other has the same type and payload.
	Equals(other Object) bool

	sealed()
}

// Integral is implemented by values that have an integer encoding.
type Integral interface {
	Object

	// Int returns the integer encoding of the value.
	Int() int32
}

// Collection is implemented by values that support indexing and length.
type Collection interface {
	Object

	// Len returns the number of elements.
	Len() int32

	// GetItem returns the element at the given index.
	GetItem(index int32) (Object, error)
}
