// Package bytecode provides the immutable representation of compiled stax
// programs.
//
// A [Program] is a linear sequence of [Instruction] values together with a
// source map (one [SourceLocation] per instruction), the label table that
// produced its jump targets, and the original source text. Programs are
// created once by the compiler and may be shared safely across goroutines
// and VM instances.
//
// # Immutability Guarantees
//
//   - All fields are unexported and there are no mutation methods
//   - [NewProgram] copies its input slices and maps
//   - Accessors return values or copies, never internal slices
//
// Index-based access is used for instructions:
//
//	for i := 0; i < program.InstructionCount(); i++ {
//	    fmt.Println(program.InstructionAt(i))
//	}
//
// # Serialization
//
// [Marshal] and [Unmarshal] convert a Program to and from a binary image: a
// short magic header followed by a canonical CBOR document. Images let a
// program be compiled once and executed many times without the source.
package bytecode
