package compiler

import "github.com/deepnoodle-ai/stax/op"

// operandKind describes what an instruction keyword takes from the word
// stack.
type operandKind uint8

const (
	operandNone  operandKind = iota
	operandName              // set, get: a variable name
	operandLabel             // jump family: a label name
)

type keyword struct {
	op      op.Code
	operand operandKind
	// cond is the comparison emitted before JUMP_IF by the compound jumps
	cond op.Code
	// popAfter is set for the print-and-pop variants
	popAfter bool
	// sugar keywords emit nothing
	sugar bool
}

var keywords = map[string]keyword{
	"push":  {sugar: true},
	"->":    {sugar: true},
	"pop":   {op: op.Pop},
	"dup":   {op: op.Dup},
	"swap":  {op: op.Swap},
	"clear": {op: op.Clear},
	"size":  {op: op.Size},

	"add": {op: op.Add},
	"+":   {op: op.Add},
	"sub": {op: op.Sub},
	"-":   {op: op.Sub},
	"mul": {op: op.Mul},
	"*":   {op: op.Mul},
	"div": {op: op.Div},
	"/":   {op: op.Div},
	"mod": {op: op.Mod},
	"%":   {op: op.Mod},

	"and": {op: op.And},
	"&":   {op: op.And},
	"or":  {op: op.Or},
	"|":   {op: op.Or},
	"xor": {op: op.Xor},
	"^":   {op: op.Xor},
	"not": {op: op.Not},
	"!":   {op: op.Not},

	"eq":  {op: op.Eq},
	"==":  {op: op.Eq},
	"neq": {op: op.Neq},
	"!=":  {op: op.Neq},
	"lt":  {op: op.Less},
	"<":   {op: op.Less},
	"gt":  {op: op.Greater},
	">":   {op: op.Greater},
	"lte": {op: op.LessEq},
	"<=":  {op: op.LessEq},
	"gte": {op: op.GreaterEq},
	">=":  {op: op.GreaterEq},

	"j":      {op: op.Jump, operand: operandLabel},
	"jump":   {op: op.Jump, operand: operandLabel},
	"jif":    {op: op.JumpIf, operand: operandLabel},
	"jumpif": {op: op.JumpIf, operand: operandLabel},
	"j==":    {op: op.JumpIf, operand: operandLabel, cond: op.Eq},
	"j!=":    {op: op.JumpIf, operand: operandLabel, cond: op.Neq},
	"j<":     {op: op.JumpIf, operand: operandLabel, cond: op.Less},
	"j>":     {op: op.JumpIf, operand: operandLabel, cond: op.Greater},
	"j<=":    {op: op.JumpIf, operand: operandLabel, cond: op.LessEq},
	"j>=":    {op: op.JumpIf, operand: operandLabel, cond: op.GreaterEq},
	"call":   {op: op.Call, operand: operandLabel},
	"ret":    {op: op.Ret},

	"set": {op: op.Set, operand: operandName},
	"<-":  {op: op.Set, operand: operandName},
	"get": {op: op.Get, operand: operandName},

	"print":     {op: op.Print},
	"println":   {op: op.Println},
	"print_p":   {op: op.Print, popAfter: true},
	"println_p": {op: op.Println, popAfter: true},
	"read":      {op: op.Read},
	"readint":   {op: op.ReadInt},

	"at":  {op: op.At},
	"len": {op: op.Len},

	"type":    {op: op.Type},
	"conv":    {op: op.Convert},
	"convert": {op: op.Convert},
}

func lookupKeyword(word string) (keyword, bool) {
	kw, ok := keywords[word]
	return kw, ok
}
