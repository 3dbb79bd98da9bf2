package ir

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/dessa/internal/types"
)

// Expr is an expression tree node. Valid types are *Identifier,
// *Constant, *BinaryExpr, *UnaryExpr, *MemoryAccess, *Cast, and
// *PhiFunction.
type Expr interface {
	DataType() types.Type
	String() string
	exprNode()
}

// Operator is the operation of a unary or binary expression.
type Operator int

const (
	OpInvalid Operator = iota

	// Binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Unary
	OpNeg
	OpNot
	OpComp
)

var operatorNames = [...]string{
	OpInvalid: "?",
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpMod:     "%",
	OpAnd:     "&",
	OpOr:      "|",
	OpXor:     "^",
	OpShl:     "<<",
	OpShr:     ">>",
	OpEq:      "==",
	OpNe:      "!=",
	OpLt:      "<",
	OpLe:      "<=",
	OpGt:      ">",
	OpGe:      ">=",
	OpNeg:     "-",
	OpNot:     "!",
	OpComp:    "~",
}

// String returns the source representation of the operator.
func (op Operator) String() string {
	if int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return "?"
}

// IsComparison reports whether op yields a boolean.
func (op Operator) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// Constant is an integer constant.
type Constant struct {
	Type  types.Type
	Value uint64
}

// NewConst returns a word32 constant.
func NewConst(v uint64) *Constant {
	return &Constant{Type: types.Typ[types.Word32], Value: v}
}

func (c *Constant) DataType() types.Type { return c.Type }
func (c *Constant) String() string       { return fmt.Sprintf("0x%X", c.Value) }

// BinaryExpr is Left Op Right.
type BinaryExpr struct {
	Op    Operator
	Type  types.Type
	Left  Expr
	Right Expr
}

func (b *BinaryExpr) DataType() types.Type { return b.Type }

func (b *BinaryExpr) String() string {
	return operand(b.Left) + " " + b.Op.String() + " " + operand(b.Right)
}

// UnaryExpr is Op X.
type UnaryExpr struct {
	Op   Operator
	Type types.Type
	X    Expr
}

func (u *UnaryExpr) DataType() types.Type { return u.Type }
func (u *UnaryExpr) String() string       { return u.Op.String() + operand(u.X) }

// MemoryAccess reads (or, as a store destination, writes) memory at Addr.
type MemoryAccess struct {
	Type types.Type
	Addr Expr
}

func (m *MemoryAccess) DataType() types.Type { return m.Type }
func (m *MemoryAccess) String() string       { return "[" + m.Addr.String() + "]" }

// Cast reinterprets X as Type.
type Cast struct {
	Type types.Type
	X    Expr
}

func (c *Cast) DataType() types.Type { return c.Type }
func (c *Cast) String() string       { return "(" + c.Type.String() + ") " + operand(c.X) }

// PhiArg is one incoming value of a phi function. Block is the
// predecessor the value flows in from.
type PhiArg struct {
	Block *Block
	Value Expr
}

// PhiFunction selects among incoming values at a join point. Args[i]
// corresponds to the i'th predecessor of the owning block.
type PhiFunction struct {
	Type types.Type
	Args []PhiArg
}

// NewPhiFunction creates a phi with one argument per value.
func NewPhiFunction(typ types.Type, values ...Expr) *PhiFunction {
	phi := &PhiFunction{Type: typ, Args: make([]PhiArg, len(values))}
	for i, v := range values {
		phi.Args[i].Value = v
	}
	return phi
}

func (p *PhiFunction) DataType() types.Type { return p.Type }

func (p *PhiFunction) String() string {
	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		if a.Value == nil {
			args[i] = "<nil>"
		} else {
			args[i] = a.Value.String()
		}
	}
	return "phi(" + strings.Join(args, ", ") + ")"
}

func (*Constant) exprNode()     {}
func (*BinaryExpr) exprNode()   {}
func (*UnaryExpr) exprNode()    {}
func (*MemoryAccess) exprNode() {}
func (*Cast) exprNode()         {}
func (*PhiFunction) exprNode()  {}

// operand renders e, parenthesized when it is itself an operator
// expression.
func operand(e Expr) string {
	switch e.(type) {
	case *BinaryExpr, *Cast:
		return "(" + e.String() + ")"
	}
	return e.String()
}
