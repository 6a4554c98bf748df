// Package compiler compiles stax statements into bytecode.
//
// Each statement is compiled in a single pass over its tokens in reverse
// order. The surface syntax is prefix: "add 5 10" pushes 10, then 5, then
// adds. Walking the tokens back to front lets every instruction be emitted
// after its operands with no syntax tree.
//
// Compilation has two phases. CompileStatement appends the instructions of
// one statement, leaving forward jump targets as symbolic label names.
// Resolve backpatches every symbolic target against the label table and
// returns the finished, immutable program.
//
// A label refers to the first instruction of the statement it begins, so
// jumping to it runs the whole statement.
package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/stax/bytecode"
	"github.com/deepnoodle-ai/stax/errors"
	"github.com/deepnoodle-ai/stax/lexer"
	"github.com/deepnoodle-ai/stax/object"
	"github.com/deepnoodle-ai/stax/op"
	"github.com/deepnoodle-ai/stax/token"
	"github.com/rs/zerolog"
)

// Config holds compiler configuration options.
type Config struct {
	// Filename is the source filename, used for error messages.
	Filename string

	// Variables are names to treat as already declared, typically the
	// variables held by the VM that will run the compiled code.
	Variables []string

	// Logger receives debug output. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Compiler turns statements into bytecode. Declared variables persist
// across compiles until Reset. A Compiler must not be used concurrently.
type Compiler struct {
	filename string
	logger   zerolog.Logger
	symbols  *SymbolTable

	// Program under construction
	current *Code
	source  string

	// Pending bare words, consumed by set, get and the jump family
	words []token.Token
}

// Compile compiles a complete program from source.
// Pass nil for cfg to use default settings.
func Compile(source string, cfg *Config) (*bytecode.Program, error) {
	return New(cfg).CompileSource(source)
}

// New creates and returns a new Compiler. Pass nil for cfg to use defaults.
func New(cfg *Config) *Compiler {
	c := &Compiler{
		logger:  zerolog.Nop(),
		symbols: NewSymbolTable(),
		current: newCode(),
	}
	if cfg != nil {
		c.filename = cfg.Filename
		if cfg.Logger != nil {
			c.logger = *cfg.Logger
		}
		for _, name := range cfg.Variables {
			c.symbols.InsertVariable(name)
		}
		c.symbols.Commit()
	}
	return c
}

// Declared reports whether a variable name has been declared.
func (c *Compiler) Declared(name string) bool {
	return c.symbols.IsDefined(name)
}

// Variables returns the sorted names of all declared variables.
func (c *Compiler) Variables() []string {
	return c.symbols.AllNames()
}

// Reset discards the program under construction and all declarations.
func (c *Compiler) Reset() {
	c.Abort()
	c.symbols.Clear()
}

// Abort discards the program under construction and rolls back any
// variables it declared.
func (c *Compiler) Abort() {
	c.current = newCode()
	c.source = ""
	c.words = nil
	c.symbols.Rollback()
}

// CompileSource tokenizes and compiles a program, one statement per line.
func (c *Compiler) CompileSource(source string) (*bytecode.Program, error) {
	statements, err := lexer.TokenizeProgram(source, lexer.WithFile(c.filename))
	if err != nil {
		return nil, err
	}
	c.source = source
	return c.CompileProgram(statements)
}

// CompileProgram compiles every statement and then resolves labels.
func (c *Compiler) CompileProgram(statements [][]token.Token) (*bytecode.Program, error) {
	for _, statement := range statements {
		if err := c.CompileStatement(statement); err != nil {
			return nil, err
		}
	}
	return c.Resolve()
}

// CompileStatement compiles the tokens of one statement, appending to the
// program under construction. On error the whole program is discarded.
func (c *Compiler) CompileStatement(tokens []token.Token) error {
	if err := c.compileStatement(tokens); err != nil {
		c.Abort()
		return err
	}
	return nil
}

func (c *Compiler) compileStatement(tokens []token.Token) error {
	c.words = c.words[:0]
	start := c.current.InstructionCount()
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		var next *token.Token
		if i > 0 {
			next = &tokens[i-1]
		}
		var err error
		switch tok.Type {
		case token.INT, token.BOOL, token.CHAR, token.STRING, token.TYPE:
			err = c.compileLiteral(tok)
		case token.WORD:
			err = c.compileWord(tok, next)
		case token.INSTRUCTION:
			err = c.compileInstruction(tok)
		case token.LABEL:
			err = c.declareLabel(tok, start)
		default:
			err = c.errorAt(errors.E2005, tok, "unexpected token %q", tok.Literal)
		}
		if err != nil {
			return err
		}
	}
	if len(c.words) > 0 {
		return c.undefinedVariable(c.words[len(c.words)-1])
	}
	return nil
}

// Resolve backpatches symbolic jump targets and returns the finished
// program. The compiler is then ready for the next program.
func (c *Compiler) Resolve() (*bytecode.Program, error) {
	code := c.current
	for i, instr := range code.instructions {
		if !instr.Op.IsJump() {
			continue
		}
		name, ok := instr.Operand.(*object.String)
		if !ok {
			continue
		}
		target, found := code.labels[name.Value()]
		if !found {
			err := c.undefinedLabel(name.Value(), code.locations[i])
			c.Abort()
			return nil, err
		}
		code.instructions[i].Operand = object.NewInt(int32(target))
		c.logger.Debug().
			Str("label", name.Value()).
			Int("ip", i).
			Int("target", target).
			Msg("resolved jump target")
	}
	program := code.ToBytecode(c.source, c.filename)
	c.symbols.Commit()
	c.current = newCode()
	c.source = ""
	c.logger.Debug().
		Int("instructions", program.InstructionCount()).
		Int("labels", len(code.labels)).
		Msg("compiled program")
	return program, nil
}

func (c *Compiler) compileLiteral(tok token.Token) error {
	var value object.Object
	switch tok.Type {
	case token.INT:
		v, err := strconv.ParseInt(tok.Literal, 10, 32)
		if err != nil {
			return c.errorAt(errors.E1008, tok, "invalid number literal %q", tok.Literal)
		}
		value = object.NewInt(int32(v))
	case token.BOOL:
		value = object.NewBool(tok.Literal == "TRUE")
	case token.CHAR:
		value = object.NewChar(tok.Literal[0])
	case token.STRING:
		value = object.NewString(tok.Literal)
	case token.TYPE:
		t, ok := object.LookupType(tok.Literal)
		if !ok {
			return c.errorAt(errors.E2005, tok, "unknown type %q", tok.Literal)
		}
		value = object.NewTypeTag(t)
	}
	c.current.emit(tok, op.Push, value)
	return nil
}

// compileWord handles a bare word. next is the token preceding it in the
// source, which is the next one to be compiled.
func (c *Compiler) compileWord(tok token.Token, next *token.Token) error {
	if next != nil && next.Type == token.INSTRUCTION {
		if kw, ok := lookupKeyword(next.Literal); ok {
			switch {
			case kw.op == op.Set:
				c.words = append(c.words, tok)
				return nil
			case kw.op == op.Get:
				if !c.symbols.IsDefined(tok.Literal) {
					return c.undefinedVariable(tok)
				}
				c.words = append(c.words, tok)
				return nil
			case kw.operand == operandLabel:
				c.words = append(c.words, tok)
				return nil
			}
		}
	}
	if c.symbols.IsDefined(tok.Literal) {
		c.current.emit(tok, op.Get, object.NewString(tok.Literal))
		return nil
	}
	// Presumed to be a label for a jump earlier in the statement
	c.words = append(c.words, tok)
	return nil
}

func (c *Compiler) popWord(tok token.Token, what string) (token.Token, error) {
	if len(c.words) == 0 {
		return token.Token{}, c.errorAt(errors.E2002, tok, "%s requires %s", tok.Literal, what)
	}
	word := c.words[len(c.words)-1]
	c.words = c.words[:len(c.words)-1]
	return word, nil
}

func (c *Compiler) compileInstruction(tok token.Token) error {
	kw, ok := lookupKeyword(tok.Literal)
	if !ok {
		return c.errorAt(errors.E2005, tok, "unknown instruction %q", tok.Literal)
	}
	if kw.sugar {
		return nil
	}
	switch kw.operand {
	case operandName:
		word, err := c.popWord(tok, "a variable name")
		if err != nil {
			return err
		}
		if kw.op == op.Get && !c.symbols.IsDefined(word.Literal) {
			return c.undefinedVariable(word)
		}
		c.current.emit(tok, kw.op, object.NewString(word.Literal))
		if kw.op == op.Set {
			c.symbols.InsertVariable(word.Literal)
		}
	case operandLabel:
		word, err := c.popWord(tok, "a label")
		if err != nil {
			return err
		}
		if kw.cond != op.Invalid {
			c.current.emit(tok, kw.cond, nil)
		}
		var target object.Object = object.NewString(word.Literal)
		if index, found := c.current.labels[word.Literal]; found {
			target = object.NewInt(int32(index))
		}
		c.current.emit(tok, kw.op, target)
	default:
		c.current.emit(tok, kw.op, nil)
		if kw.popAfter {
			c.current.emit(tok, op.Pop, nil)
		}
	}
	return nil
}

// declareLabel binds a label to index, the position of the first
// instruction of its statement.
func (c *Compiler) declareLabel(tok token.Token, index int) error {
	if prev, found := c.current.labelTokens[tok.Literal]; found {
		err := c.errorAt(errors.E2003, tok, "label %q redeclared", tok.Literal)
		err.Note = fmt.Sprintf("previously declared on line %d", prev.StartPosition.LineNumber())
		return err
	}
	c.current.labels[tok.Literal] = index
	c.current.labelTokens[tok.Literal] = tok
	return nil
}

func (c *Compiler) errorAt(code errors.ErrorCode, tok token.Token, format string, args ...any) *errors.CompileError {
	err := errors.NewCompileError(code, tok.StartPosition.LineNumber(), format, args...)
	err.Filename = c.filename
	err.Column = tok.StartPosition.ColumnNumber()
	err.EndColumn = tok.EndPosition.ColumnNumber()
	err.SourceLine = c.sourceLine(tok.StartPosition.LineNumber())
	return err
}

func (c *Compiler) undefinedVariable(tok token.Token) error {
	err := c.errorAt(errors.E2001, tok, "undefined variable %q", tok.Literal)
	err.Suggestions = errors.SuggestSimilar(tok.Literal, c.symbols.AllNames())
	return err
}

func (c *Compiler) undefinedLabel(name string, loc bytecode.SourceLocation) error {
	err := errors.NewCompileError(errors.E2004, loc.Line, "undefined label %q", name)
	err.Filename = c.filename
	err.Column = loc.Column
	err.SourceLine = c.sourceLine(loc.Line)
	labels := make([]string, 0, len(c.current.labels))
	for label := range c.current.labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	err.Suggestions = errors.SuggestSimilar(name, labels)
	return err
}

func (c *Compiler) sourceLine(line int) string {
	if line < 1 || c.source == "" {
		return ""
	}
	lines := strings.Split(c.source, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}
