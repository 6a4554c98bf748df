package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Lexical errors
//   - E2xxx: Compile errors
//   - E3xxx: Runtime errors
type ErrorCode string

const (
	// Lexical errors (E1xxx)
	E1002 ErrorCode = "E1002" // Unterminated string literal
	E1003 ErrorCode = "E1003" // Invalid character literal
	E1008 ErrorCode = "E1008" // Invalid number literal
	E1010 ErrorCode = "E1010" // Invalid escape sequence

	// Compile errors (E2xxx)
	E2001 ErrorCode = "E2001" // Undefined variable
	E2002 ErrorCode = "E2002" // Expected identifier
	E2003 ErrorCode = "E2003" // Label redeclared
	E2004 ErrorCode = "E2004" // Undefined label
	E2005 ErrorCode = "E2005" // Unknown instruction

	// Runtime errors (E3xxx)
	E3001 ErrorCode = "E3001" // Type error
	E3002 ErrorCode = "E3002" // Division by zero
	E3003 ErrorCode = "E3003" // Index out of range
	E3004 ErrorCode = "E3004" // Undefined variable
	E3005 ErrorCode = "E3005" // Stack underflow
	E3006 ErrorCode = "E3006" // Invalid input
	E3007 ErrorCode = "E3007" // Input out of range
	E3008 ErrorCode = "E3008" // Invalid instruction
	E3009 ErrorCode = "E3009" // Invalid conversion
	E3010 ErrorCode = "E3010" // I/O error
	E3011 ErrorCode = "E3011" // Stack overflow
	E3012 ErrorCode = "E3012" // Halted
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1002: "unterminated string literal",
	E1003: "invalid character literal",
	E1008: "invalid number literal",
	E1010: "invalid escape sequence",

	E2001: "undefined variable",
	E2002: "expected identifier",
	E2003: "label redeclared",
	E2004: "undefined label",
	E2005: "unknown instruction",

	E3001: "type error",
	E3002: "division by zero",
	E3003: "index out of range",
	E3004: "undefined variable",
	E3005: "stack underflow",
	E3006: "invalid input",
	E3007: "input out of range",
	E3008: "invalid instruction",
	E3009: "invalid conversion",
	E3010: "i/o error",
	E3011: "stack overflow",
	E3012: "halted",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "syntax"
	case '2':
		return "compile"
	case '3':
		return "runtime"
	default:
		return "unknown"
	}
}
