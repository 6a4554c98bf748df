// Package token defines language keywords and tokens used when lexing source code.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the input
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Advance returns a new Position advanced by n bytes on the same line.
func (p Position) Advance(n int) Position {
	return Position{
		Char:      p.Char + n,
		LineStart: p.LineStart,
		Line:      p.Line,
		Column:    p.Column + n,
		File:      p.File,
	}
}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	BOOL        = "BOOL"
	CHAR        = "CHAR"
	EOF         = "EOF"
	ILLEGAL     = "ILLEGAL"
	INSTRUCTION = "INSTRUCTION"
	INT         = "INT"
	LABEL       = "LABEL"
	NEWLINE     = "EOL"
	STRING      = "STRING"
	TYPE        = "TYPE"
	WORD        = "WORD"
)

// Instruction keywords. Aliases map to the same instruction when compiled.
var keywords = map[string]bool{
	"push":      true,
	"->":        true,
	"pop":       true,
	"dup":       true,
	"swap":      true,
	"clear":     true,
	"size":      true,
	"add":       true,
	"+":         true,
	"sub":       true,
	"-":         true,
	"mul":       true,
	"*":         true,
	"div":       true,
	"/":         true,
	"mod":       true,
	"%":         true,
	"and":       true,
	"&":         true,
	"or":        true,
	"|":         true,
	"xor":       true,
	"^":         true,
	"not":       true,
	"!":         true,
	"eq":        true,
	"==":        true,
	"neq":       true,
	"!=":        true,
	"lt":        true,
	"<":         true,
	"gt":        true,
	">":         true,
	"lte":       true,
	"<=":        true,
	"gte":       true,
	">=":        true,
	"j":         true,
	"jump":      true,
	"jif":       true,
	"jumpif":    true,
	"j==":       true,
	"j!=":       true,
	"j<":        true,
	"j>":        true,
	"j<=":       true,
	"j>=":       true,
	"call":      true,
	"ret":       true,
	"set":       true,
	"<-":        true,
	"get":       true,
	"print":     true,
	"println":   true,
	"print_p":   true,
	"println_p": true,
	"read":      true,
	"readint":   true,
	"at":        true,
	"len":       true,
	"type":      true,
	"conv":      true,
	"convert":   true,
}

var literals = map[string]Type{
	"TRUE":   BOOL,
	"FALSE":  BOOL,
	"int":    TYPE,
	"bool":   TYPE,
	"char":   TYPE,
	"string": TYPE,
}

// IsKeyword reports whether word is an instruction keyword.
func IsKeyword(word string) bool {
	return keywords[word]
}

// Keywords returns all instruction keywords, including aliases.
func Keywords() []string {
	result := make([]string, 0, len(keywords))
	for k := range keywords {
		result = append(result, k)
	}
	return result
}

// LookupWord classifies a bare word as an instruction keyword, a bool or
// type literal, or a plain WORD.
func LookupWord(word string) Type {
	if keywords[word] {
		return INSTRUCTION
	}
	if tok, ok := literals[word]; ok {
		return tok
	}
	return WORD
}
