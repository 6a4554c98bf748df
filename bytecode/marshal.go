package bytecode

import (
	"bytes"
	"fmt"

	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
	"github.com/fxamacker/cbor/v2"
)

// ImageVersion is the version of the binary program image format.
const ImageVersion = 1

// imageMagic prefixes every program image.
var imageMagic = []byte("STAX")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Serialization types

type valueDef struct {
	Type   object.Type `cbor:"t"`
	Int    int32       `cbor:"i,omitempty"`
	String string      `cbor:"s,omitempty"`
}

type instructionDef struct {
	Op      op.Code   `cbor:"op"`
	Operand *valueDef `cbor:"arg,omitempty"`
}

type locationDef struct {
	Line   int `cbor:"l"`
	Column int `cbor:"c"`
}

type programState struct {
	Version      int              `cbor:"version"`
	Filename     string           `cbor:"filename,omitempty"`
	Source       string           `cbor:"source,omitempty"`
	Instructions []instructionDef `cbor:"instructions"`
	Locations    []locationDef    `cbor:"locations,omitempty"`
	Labels       map[string]int   `cbor:"labels,omitempty"`
}

// Marshal encodes a Program as a binary image.
func Marshal(program *Program) ([]byte, error) {
	state := programState{
		Version:      ImageVersion,
		Filename:     program.filename,
		Source:       program.source,
		Instructions: make([]instructionDef, len(program.instructions)),
		Labels:       program.labels,
	}
	for i, instr := range program.instructions {
		def := instructionDef{Op: instr.Op}
		if instr.Operand != nil {
			value, err := marshalValue(instr.Operand)
			if err != nil {
				return nil, fmt.Errorf("bytecode: instruction %d: %w", i, err)
			}
			def.Operand = value
		}
		state.Instructions[i] = def
	}
	if len(program.locations) > 0 {
		state.Locations = make([]locationDef, len(program.locations))
		for i, loc := range program.locations {
			state.Locations[i] = locationDef{Line: loc.Line, Column: loc.Column}
		}
	}
	body, err := cborEncMode.Marshal(&state)
	if err != nil {
		return nil, fmt.Errorf("bytecode: marshal program: %w", err)
	}
	return append(append([]byte{}, imageMagic...), body...), nil
}

// IsImage reports whether data starts with the program image header.
func IsImage(data []byte) bool {
	return bytes.HasPrefix(data, imageMagic)
}

// Unmarshal decodes a binary image produced by Marshal. The decoded program
// is validated before it is returned.
func Unmarshal(data []byte) (*Program, error) {
	if !IsImage(data) {
		return nil, fmt.Errorf("bytecode: not a program image")
	}
	var state programState
	if err := cbor.Unmarshal(data[len(imageMagic):], &state); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal program: %w", err)
	}
	if state.Version != ImageVersion {
		return nil, fmt.Errorf("bytecode: unsupported image version %d", state.Version)
	}
	instructions := make([]Instruction, len(state.Instructions))
	for i, def := range state.Instructions {
		instr := Instruction{Op: def.Op}
		if def.Operand != nil {
			value, err := unmarshalValue(def.Operand)
			if err != nil {
				return nil, fmt.Errorf("bytecode: instruction %d: %w", i, err)
			}
			instr.Operand = value
		}
		instructions[i] = instr
	}
	var locations []SourceLocation
	if len(state.Locations) > 0 {
		locations = make([]SourceLocation, len(state.Locations))
		for i, loc := range state.Locations {
			locations[i] = SourceLocation{Line: loc.Line, Column: loc.Column}
		}
	}
	program := NewProgram(ProgramParams{
		Instructions: instructions,
		Locations:    locations,
		Labels:       state.Labels,
		Source:       state.Source,
		Filename:     state.Filename,
	})
	if err := program.Validate(); err != nil {
		return nil, err
	}
	return program, nil
}

func marshalValue(obj object.Object) (*valueDef, error) {
	switch obj := obj.(type) {
	case *object.String:
		return &valueDef{Type: object.STRING, String: obj.Value()}, nil
	case *object.TypeTag:
		return &valueDef{Type: object.TYPE, Int: int32(obj.Value())}, nil
	case object.Integral:
		return &valueDef{Type: obj.Type(), Int: obj.Int()}, nil
	default:
		return nil, fmt.Errorf("cannot encode operand of type %s", obj.Type())
	}
}

func unmarshalValue(def *valueDef) (object.Object, error) {
	switch def.Type {
	case object.STRING:
		return object.NewString(def.String), nil
	case object.TYPE:
		t := object.Type(def.Int)
		if !t.IsBase() {
			return nil, fmt.Errorf("invalid type tag %d", def.Int)
		}
		return object.NewTypeTag(t), nil
	case object.INT, object.BOOL, object.CHAR:
		return object.FromInt(def.Type, def.Int)
	default:
		return nil, fmt.Errorf("invalid operand type %d", def.Type)
	}
}
