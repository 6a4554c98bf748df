// Package lexer splits stax source text into tokens.
//
// Source is line oriented: each line is one statement made of whitespace
// separated words. A word starting with '#' comments out the rest of the
// line. String and character literals are returned unquoted and unescaped.
package lexer

import (
	"strings"

	"github.com/deepnoodle-ai/stax/errors"
	"github.com/deepnoodle-ai/stax/token"
	"github.com/hashicorp/go-multierror"
)

// Lexer produces tokens from an input string.
type Lexer struct {
	input     string
	file      string
	pos       int // byte offset of the next unread character
	line      int // 0-indexed
	lineStart int
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithFile sets the filename recorded in token positions and errors.
func WithFile(file string) Option {
	return func(l *Lexer) {
		l.file = file
	}
}

// WithLine sets the 0-indexed line number of the first line of input.
func WithLine(line int) Option {
	return func(l *Lexer) {
		l.line = line
	}
}

// New returns a Lexer for the given input.
func New(input string, opts ...Option) *Lexer {
	l := &Lexer{input: input}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lexer) position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.file,
	}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Next returns the next token. A NEWLINE token ends each line and EOF is
// returned once the input is exhausted.
func (l *Lexer) Next() (token.Token, error) {
	for !l.atEnd() && isSpace(l.peek()) {
		l.pos++
	}
	start := l.position()
	if l.atEnd() {
		return token.Token{Type: token.EOF, StartPosition: start, EndPosition: start}, nil
	}
	switch ch := l.peek(); ch {
	case '\n':
		l.pos++
		tok := token.Token{Type: token.NEWLINE, Literal: "\n", StartPosition: start, EndPosition: start}
		l.line++
		l.lineStart = l.pos
		return tok, nil
	case '#':
		l.skipLine()
		return l.Next()
	case '"':
		return l.readString(start)
	case '\'':
		return l.readChar(start)
	default:
		return l.readWord(start), nil
	}
}

// SkipLine discards input up to the next newline, leaving the newline to
// be returned by Next. Used to recover after a lexical error.
func (l *Lexer) SkipLine() {
	l.skipLine()
}

func (l *Lexer) skipLine() {
	for !l.atEnd() && l.peek() != '\n' {
		l.pos++
	}
}

func (l *Lexer) readWord(start token.Position) token.Token {
	for !l.atEnd() && !isSpace(l.peek()) && l.peek() != '\n' {
		l.pos++
	}
	word := l.input[start.Char:l.pos]
	tok := token.Token{
		Literal:       word,
		StartPosition: start,
		EndPosition:   start.Advance(len(word) - 1),
	}
	switch {
	case token.IsKeyword(word):
		tok.Type = token.INSTRUCTION
	case isDigit(word[0]) || (len(word) > 1 && word[0] == '-' && isDigit(word[1])):
		// Validated when compiled
		tok.Type = token.INT
	case len(word) > 1 && word[len(word)-1] == ':':
		tok.Type = token.LABEL
		tok.Literal = word[:len(word)-1]
	default:
		tok.Type = token.LookupWord(word)
	}
	return tok
}

func (l *Lexer) readString(start token.Position) (token.Token, error) {
	l.pos++ // opening quote
	var sb strings.Builder
	for {
		if l.atEnd() || l.peek() == '\n' {
			return token.Token{}, l.errorf(errors.E1002, start, "unterminated string literal")
		}
		ch := l.peek()
		if ch == '"' {
			l.pos++
			break
		}
		if ch == '\\' {
			escStart := l.position()
			c, err := l.readEscape(escStart)
			if err != nil {
				return token.Token{}, err
			}
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte(ch)
		l.pos++
	}
	return token.Token{
		Type:          token.STRING,
		Literal:       sb.String(),
		StartPosition: start,
		EndPosition:   start.Advance(l.pos - start.Char - 1),
	}, nil
}

func (l *Lexer) readChar(start token.Position) (token.Token, error) {
	l.pos++ // opening quote
	if l.atEnd() || l.peek() == '\n' || l.peek() == '\'' {
		return token.Token{}, l.errorf(errors.E1003, start, "invalid character literal")
	}
	var value byte
	if l.peek() == '\\' {
		c, err := l.readEscape(l.position())
		if err != nil {
			return token.Token{}, err
		}
		value = c
	} else {
		value = l.peek()
		l.pos++
	}
	if l.peek() != '\'' {
		return token.Token{}, l.errorf(errors.E1003, start, "invalid character literal")
	}
	l.pos++
	if !l.atEnd() && !isSpace(l.peek()) && l.peek() != '\n' {
		return token.Token{}, l.errorf(errors.E1003, start, "invalid character literal")
	}
	return token.Token{
		Type:          token.CHAR,
		Literal:       string([]byte{value}),
		StartPosition: start,
		EndPosition:   start.Advance(l.pos - start.Char - 1),
	}, nil
}

// readEscape consumes a backslash escape and returns the byte it denotes.
func (l *Lexer) readEscape(start token.Position) (byte, error) {
	l.pos++ // backslash
	if l.atEnd() || l.peek() == '\n' {
		return 0, l.errorf(errors.E1010, start, "invalid escape sequence")
	}
	ch := l.peek()
	l.pos++
	switch ch {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\', '"', '\'':
		return ch, nil
	}
	return 0, l.errorf(errors.E1010, start, "invalid escape sequence \\%c", ch)
}

func (l *Lexer) errorf(code errors.ErrorCode, pos token.Position, format string, args ...any) *errors.CompileError {
	err := errors.NewCompileError(code, pos.LineNumber(), format, args...)
	err.Filename = l.file
	err.Column = pos.ColumnNumber()
	err.SourceLine = l.lineText(pos.LineStart)
	return err
}

func (l *Lexer) lineText(lineStart int) string {
	end := strings.IndexByte(l.input[lineStart:], '\n')
	if end < 0 {
		return strings.TrimRight(l.input[lineStart:], "\r")
	}
	return strings.TrimRight(l.input[lineStart:lineStart+end], "\r")
}

// Tokenize returns the tokens of a single statement. lineNo is the 1-based
// line number recorded in positions and errors.
func Tokenize(line string, lineNo int, opts ...Option) ([]token.Token, error) {
	if lineNo > 0 {
		opts = append(opts, WithLine(lineNo-1))
	}
	l := New(line, opts...)
	var tokens []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case token.EOF:
			return tokens, nil
		case token.NEWLINE:
			continue
		}
		tokens = append(tokens, tok)
	}
}

// TokenizeProgram returns the tokens of every line of source, one statement
// per line. Empty lines yield empty statements so that statement i is line
// i+1. All lexical errors are collected and returned together.
func TokenizeProgram(source string, opts ...Option) ([][]token.Token, error) {
	l := New(source, opts...)
	var result *multierror.Error
	var statements [][]token.Token
	var current []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			result = multierror.Append(result, err)
			l.SkipLine()
			current = nil
			continue
		}
		switch tok.Type {
		case token.EOF:
			statements = append(statements, current)
			if err := result.ErrorOrNil(); err != nil {
				return nil, err
			}
			return statements, nil
		case token.NEWLINE:
			statements = append(statements, current)
			current = nil
		default:
			current = append(current, tok)
		}
	}
}
