// Package irtext reads the textual IR format written by ir.Fprint.
package irtext

import (
	"fmt"

	"github.com/you-not-fish/dessa/internal/ir"
)

// Token is the type of a lexical token.
type Token uint

const (
	_EOF Token = iota
	_EOL       // end of a non-empty line

	_Name
	_Number

	// Binary operators, ordered by precedence class.
	_Eql // ==
	_Neq // !=
	_Lss // <
	_Leq // <=
	_Gtr // >
	_Geq // >=

	_Add // +
	_Sub // -
	_Or  // |
	_Xor // ^

	_Mul // *
	_Div // /
	_Rem // %
	_And // &
	_Shl // <<
	_Shr // >>

	// Unary only
	_Not   // !
	_Tilde // ~

	// Delimiters
	_Assign // =
	_Arrow  // <-
	_At     // @
	_Colon  // :
	_Comma  // ,
	_Lparen // (
	_Rparen // )
	_Lbrack // [
	_Rbrack // ]

	// Keywords
	_Alias
	_Block
	_Call
	_Def
	_Defs
	_Flags
	_Goto
	_If
	_Mem
	_Phi
	_Proc
	_Reg
	_Return
	_Seq
	_Stack
	_Store
	_Temp
	_Use
	_Uses

	tokenCount
)

var tokenNames = [...]string{
	_EOF: "EOF",
	_EOL: "newline",

	_Name:   "name",
	_Number: "number",

	_Eql: "==",
	_Neq: "!=",
	_Lss: "<",
	_Leq: "<=",
	_Gtr: ">",
	_Geq: ">=",

	_Add: "+",
	_Sub: "-",
	_Or:  "|",
	_Xor: "^",

	_Mul: "*",
	_Div: "/",
	_Rem: "%",
	_And: "&",
	_Shl: "<<",
	_Shr: ">>",

	_Not:   "!",
	_Tilde: "~",

	_Assign: "=",
	_Arrow:  "<-",
	_At:     "@",
	_Colon:  ":",
	_Comma:  ",",
	_Lparen: "(",
	_Rparen: ")",
	_Lbrack: "[",
	_Rbrack: "]",

	_Alias:  "alias",
	_Block:  "block",
	_Call:   "call",
	_Def:    "def",
	_Defs:   "defs",
	_Flags:  "flags",
	_Goto:   "goto",
	_If:     "if",
	_Mem:    "mem",
	_Phi:    "phi",
	_Proc:   "proc",
	_Reg:    "reg",
	_Return: "return",
	_Seq:    "seq",
	_Stack:  "stack",
	_Store:  "store",
	_Temp:   "temp",
	_Use:    "use",
	_Uses:   "uses",
}

func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// Precedence returns the binding strength of a binary operator, or 0.
//
//	1: == != < <= > >=
//	2: + - | ^
//	3: * / % & << >>
func (t Token) Precedence() int {
	switch t {
	case _Eql, _Neq, _Lss, _Leq, _Gtr, _Geq:
		return 1
	case _Add, _Sub, _Or, _Xor:
		return 2
	case _Mul, _Div, _Rem, _And, _Shl, _Shr:
		return 3
	}
	return 0
}

// IsEOF reports whether t marks the end of input.
func (t Token) IsEOF() bool { return t == _EOF }

// IsKeyword reports whether t is a keyword token.
func (t Token) IsKeyword() bool {
	return t >= _Alias && t <= _Uses
}

var binaryOps = map[Token]ir.Operator{
	_Eql: ir.OpEq,
	_Neq: ir.OpNe,
	_Lss: ir.OpLt,
	_Leq: ir.OpLe,
	_Gtr: ir.OpGt,
	_Geq: ir.OpGe,
	_Add: ir.OpAdd,
	_Sub: ir.OpSub,
	_Or:  ir.OpOr,
	_Xor: ir.OpXor,
	_Mul: ir.OpMul,
	_Div: ir.OpDiv,
	_Rem: ir.OpMod,
	_And: ir.OpAnd,
	_Shl: ir.OpShl,
	_Shr: ir.OpShr,
}

var unaryOps = map[Token]ir.Operator{
	_Sub:   ir.OpNeg,
	_Not:   ir.OpNot,
	_Tilde: ir.OpComp,
}

var keywords = map[string]Token{}

func init() {
	for t := _Alias; t <= _Uses; t++ {
		keywords[tokenNames[t]] = t
	}
}

// LookupKeyword returns the keyword token for ident, or _Name.
func LookupKeyword(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return _Name
}

// storageKinds maps declaration keywords to storage kinds.
var storageKinds = map[Token]ir.StorageKind{
	_Reg:   ir.StorageRegister,
	_Stack: ir.StorageStack,
	_Seq:   ir.StorageSequence,
	_Flags: ir.StorageFlags,
	_Temp:  ir.StorageTemporary,
	_Mem:   ir.StorageMemory,
}
