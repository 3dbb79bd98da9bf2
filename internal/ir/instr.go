package ir

import (
	"fmt"
	"strings"
)

// Instruction is the operation performed by a statement. Valid types are
// *DefInstruction, *Assignment, *PhiAssignment, *AliasAssignment,
// *UseInstruction, *CallInstruction, *Store, *Branch, and *Return.
type Instruction interface {
	String() string
	instrNode()
}

// DefInstruction marks the point where Ident becomes live without an
// explicit assignment, such as an incoming parameter.
type DefInstruction struct {
	Ident *Identifier
}

// Assignment is Dst = Src.
type Assignment struct {
	Dst *Identifier
	Src Expr
}

// PhiAssignment is Dst = phi(...).
type PhiAssignment struct {
	Dst *Identifier
	Src *PhiFunction
}

// AliasAssignment declares Dst a reinterpretation of Src (for example a
// sub-register view) without changing the underlying storage.
type AliasAssignment struct {
	Dst *Identifier
	Src Expr
}

// UseInstruction marks Expr live at a control-flow boundary.
type UseInstruction struct {
	Expr Expr
}

// CallBinding pairs a storage with the expression flowing through it.
type CallBinding struct {
	Storage Storage
	Expr    Expr
}

func (b CallBinding) String() string {
	return b.Storage.String() + ":" + b.Expr.String()
}

// CallInstruction calls Callee. Uses are the values passed in; Defs are
// the identifiers the call writes.
type CallInstruction struct {
	Callee Expr
	Uses   []CallBinding
	Defs   []CallBinding
}

// Store writes Src to memory.
type Store struct {
	Dst *MemoryAccess
	Src Expr
}

// Branch transfers control to Target when Cond holds; otherwise control
// falls through to the block's other successor.
type Branch struct {
	Cond   Expr
	Target *Block
}

// Return leaves the procedure. Expr may be nil.
type Return struct {
	Expr Expr
}

func (d *DefInstruction) String() string  { return "def " + d.Ident.String() }
func (a *Assignment) String() string      { return a.Dst.String() + " = " + a.Src.String() }
func (p *PhiAssignment) String() string   { return p.Dst.String() + " = " + p.Src.String() }
func (a *AliasAssignment) String() string { return a.Dst.String() + " = alias " + a.Src.String() }
func (u *UseInstruction) String() string  { return "use " + u.Expr.String() }
func (s *Store) String() string           { return "store " + s.Dst.String() + " = " + s.Src.String() }

func (c *CallInstruction) String() string {
	var sb strings.Builder
	sb.WriteString("call ")
	sb.WriteString(c.Callee.String())
	writeBindings(&sb, "uses", c.Uses)
	writeBindings(&sb, "defs", c.Defs)
	return sb.String()
}

func writeBindings(sb *strings.Builder, label string, bs []CallBinding) {
	if len(bs) == 0 {
		return
	}
	sb.WriteString(" " + label + " ")
	for i, b := range bs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.String())
	}
}

func (b *Branch) String() string {
	return fmt.Sprintf("if %s goto %s", b.Cond, b.Target)
}

func (r *Return) String() string {
	if r.Expr == nil {
		return "return"
	}
	return "return " + r.Expr.String()
}

func (*DefInstruction) instrNode()  {}
func (*Assignment) instrNode()      {}
func (*PhiAssignment) instrNode()   {}
func (*AliasAssignment) instrNode() {}
func (*UseInstruction) instrNode()  {}
func (*CallInstruction) instrNode() {}
func (*Store) instrNode()           {}
func (*Branch) instrNode()          {}
func (*Return) instrNode()          {}

// IsTerminator reports whether instr ends a block.
func IsTerminator(instr Instruction) bool {
	switch instr.(type) {
	case *Branch, *Return:
		return true
	}
	return false
}

// Statement is an address-tagged instruction owned by exactly one block.
// Statements are compared by pointer identity.
type Statement struct {
	Address     uint64
	Instruction Instruction
	Block       *Block
}

// NewStatement creates a statement that is not yet in any block's list.
func NewStatement(addr uint64, instr Instruction, b *Block) *Statement {
	return &Statement{Address: addr, Instruction: instr, Block: b}
}

// String returns the instruction text.
func (s *Statement) String() string {
	return s.Instruction.String()
}

// LongString includes the owning block and address.
func (s *Statement) LongString() string {
	return fmt.Sprintf("%s@%08X: %s", s.Block, s.Address, s.Instruction)
}
