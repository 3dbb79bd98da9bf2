package irtext

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/types"
)

// Maximum number of errors before parsing is abandoned.
const maxErrors = 10

// SyntaxError is an error at a position in the input.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// declaration is a named storage together with its data type.
type declaration struct {
	stg ir.Storage
	typ types.Type
}

// blockRef is a block name whose resolution is deferred until all block
// headers of the procedure have been seen.
type blockRef struct {
	pos     Pos
	name    string
	resolve func(*ir.Block)
}

// Parser reads procedures in IR text form.
type Parser struct {
	scanner *Scanner

	tok Token
	lit string
	pos Pos

	errh   func(pos Pos, msg string)
	errcnt int
	first  error
	abort  bool

	// Per-procedure state.
	proc     *ir.Procedure
	block    *ir.Block
	decls    map[string]declaration
	implicit map[string]bool // names declared by first use
	idents   map[string]*ir.Identifier
	blocks   map[string]*ir.Block
	preds    map[*ir.Block][]blockRef
	refs     []blockRef
}

// NewParser returns a parser reading src. errh, if non-nil, is called for
// every error.
func NewParser(filename string, src io.Reader, errh func(pos Pos, msg string)) *Parser {
	p := &Parser{errh: errh}
	p.scanner = NewScanner(filename, src, func(line, col uint32, msg string) {
		p.errorAt(NewPos(filename, line, col), msg)
	})
	p.next()
	return p
}

// Parse reads every procedure in src. It returns the procedures parsed
// and the first error encountered, if any.
func Parse(filename string, src io.Reader, errh func(pos Pos, msg string)) ([]*ir.Procedure, error) {
	p := NewParser(filename, src, errh)
	procs := p.Parse()
	return procs, p.FirstError()
}

// ParseFile reads and parses the named file.
func ParseFile(filename string) ([]*ir.Procedure, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open IR file")
	}
	defer f.Close()
	return Parse(filename, f, nil)
}

// ParseProcedure parses src, which must contain exactly one procedure.
func ParseProcedure(filename string, src io.Reader) (*ir.Procedure, error) {
	procs, err := Parse(filename, src, nil)
	if err != nil {
		return nil, err
	}
	if len(procs) != 1 {
		return nil, errors.Errorf("%s: expected 1 procedure, found %d", filename, len(procs))
	}
	return procs[0], nil
}

// Errors returns the number of errors reported.
func (p *Parser) Errors() int { return p.errcnt }

// FirstError returns the first error reported, or nil.
func (p *Parser) FirstError() error { return p.first }

// ----------------------------------------------------------------------------
// Token navigation

func (p *Parser) next() {
	p.scanner.Next()
	p.tok = p.scanner.Token()
	p.lit = p.scanner.Literal()
	p.pos = p.scanner.Pos()
}

func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

func (p *Parser) want(tok Token) bool {
	if !p.got(tok) {
		p.syntaxError("expected " + tok.String() + ", found " + p.tokString())
		return false
	}
	return true
}

func (p *Parser) tokString() string {
	switch p.tok {
	case _Name, _Number:
		return strconv.Quote(p.lit)
	}
	return p.tok.String()
}

// ----------------------------------------------------------------------------
// Error handling

func (p *Parser) syntaxError(msg string) {
	p.errorAt(p.pos, msg)
}

func (p *Parser) errorAt(pos Pos, msg string) {
	if p.abort {
		return
	}
	if p.errcnt == 0 {
		p.first = &SyntaxError{Pos: pos, Msg: msg}
	}
	p.errcnt++
	if p.errh != nil {
		p.errh(pos, msg)
	}
	if p.errcnt >= maxErrors {
		p.abort = true
		if p.errh != nil {
			p.errh(pos, "too many errors; aborting parse")
		}
	}
}

// skipLine discards the remainder of the current line.
func (p *Parser) skipLine() {
	for p.tok != _EOL && p.tok != _EOF {
		p.next()
	}
	p.got(_EOL)
}

// endLine consumes the end of a line, reporting trailing garbage.
func (p *Parser) endLine() {
	if p.tok == _EOF || p.got(_EOL) {
		return
	}
	p.syntaxError("unexpected " + p.tokString() + " at end of line")
	p.skipLine()
}

// ----------------------------------------------------------------------------
// Procedures and declarations

// Parse reads procedures until EOF or until too many errors occurred.
func (p *Parser) Parse() []*ir.Procedure {
	var procs []*ir.Procedure
	for !p.abort && p.tok != _EOF {
		if p.tok != _Proc {
			p.syntaxError("expected proc, found " + p.tokString())
			p.skipLine()
			continue
		}
		procs = append(procs, p.procedure())
	}
	return procs
}

// procedure parses: proc NAME, followed by declarations and blocks up to
// the next proc line.
func (p *Parser) procedure() *ir.Procedure {
	p.want(_Proc)
	name := p.name()
	p.endLine()

	p.proc = ir.NewProcedure(name)
	p.block = nil
	p.decls = make(map[string]declaration)
	p.implicit = make(map[string]bool)
	p.idents = make(map[string]*ir.Identifier)
	p.blocks = make(map[string]*ir.Block)
	p.preds = make(map[*ir.Block][]blockRef)
	p.refs = nil

	for !p.abort && p.tok != _EOF && p.tok != _Proc {
		switch p.tok {
		case _Reg, _Stack, _Seq, _Flags, _Temp, _Mem:
			p.declaration()
		case _Block:
			p.blockHeader()
		default:
			if p.block == nil {
				p.syntaxError("statement outside of a block")
				p.skipLine()
				continue
			}
			p.statement()
		}
	}

	p.resolveBlocks()
	return p.proc
}

func (p *Parser) name() string {
	if p.tok != _Name {
		p.syntaxError("expected name, found " + p.tokString())
		return "_"
	}
	lit := p.lit
	p.next()
	return lit
}

// declaration parses one of
//
//	reg NAME TYPE
//	stack NAME OFFSET TYPE
//	seq NAME ELEM... [TYPE]
//	flags NAME TYPE
//	temp NAME TYPE
//	mem NAME TYPE
func (p *Parser) declaration() {
	kind := p.tok
	pos := p.pos
	p.next()
	name := p.name()

	var stg ir.Storage
	switch kind {
	case _Reg:
		stg = ir.Register{Name: name}
	case _Flags:
		stg = ir.FlagGroup{Name: name}
	case _Temp:
		stg = ir.Temporary{Name: name}
	case _Mem:
		stg = ir.MemoryStorage{}
	case _Stack:
		neg := p.got(_Sub)
		off := int(p.number())
		if neg {
			off = -off
		}
		stg = ir.StackSlot{Offset: off}
	case _Seq:
		var elems []ir.Storage
		size := 0
		for p.tok == _Name {
			// A trailing type name (or one followed by "(") is the type.
			lit, litPos := p.lit, p.pos
			p.next()
			if p.tok == _Lparen || (p.tok == _EOL || p.tok == _EOF) && p.isTypeName(lit) {
				typ := p.typeFrom(lit, litPos)
				p.declare(pos, name, ir.Sequence{Elements: elems}, typ)
				p.endLine()
				return
			}
			elems = append(elems, p.storageNamed(lit))
			size += p.typeNamed(lit).Size()
		}
		if len(elems) < 2 {
			p.syntaxError("expected type, found " + p.tokString())
			p.skipLine()
			return
		}
		// Without a type the sequence is a word as wide as its elements.
		p.declare(pos, name, ir.Sequence{Elements: elems}, types.WordOfSize(size))
		p.endLine()
		return
	}

	typ := p.type_()
	p.declare(pos, name, stg, typ)
	p.endLine()
}

func (p *Parser) declare(pos Pos, name string, stg ir.Storage, typ types.Type) {
	if p.implicit[name] {
		p.errorAt(pos, fmt.Sprintf("%s declared after use", name))
		return
	}
	if _, dup := p.decls[name]; dup {
		p.errorAt(pos, fmt.Sprintf("%s redeclared", name))
		return
	}
	p.decls[name] = declaration{stg: stg, typ: typ}
}

// storageNamed returns the storage declared as name, or the register of
// that name.
func (p *Parser) storageNamed(name string) ir.Storage {
	if d, ok := p.decls[name]; ok {
		return d.stg
	}
	return ir.Register{Name: name}
}

// typeNamed returns the type of the storage declared as name, or word32
// for an undeclared register.
func (p *Parser) typeNamed(name string) types.Type {
	if d, ok := p.decls[name]; ok {
		return d.typ
	}
	return types.Typ[types.Word32]
}

// type_ parses a type name or ptrN(TYPE).
func (p *Parser) type_() types.Type {
	pos := p.pos
	return p.typeFrom(p.name(), pos)
}

func (p *Parser) typeFrom(name string, pos Pos) types.Type {
	if p.tok == _Lparen && (name == "ptr32" || name == "ptr64") {
		p.next()
		elem := p.type_()
		p.want(_Rparen)
		size := 4
		if name == "ptr64" {
			size = 8
		}
		return types.NewPointer(elem, size)
	}
	typ, ok := types.Lookup(name)
	if !ok {
		p.errorAt(pos, fmt.Sprintf("unknown type %s", name))
		return types.Typ[types.Unknown]
	}
	return typ
}

func (p *Parser) number() uint64 {
	if p.tok != _Number {
		p.syntaxError("expected number, found " + p.tokString())
		return 0
	}
	v, err := strconv.ParseUint(p.lit, 0, 64)
	if err != nil {
		p.syntaxError(fmt.Sprintf("invalid number %s", p.lit))
	}
	p.next()
	return v
}

// ----------------------------------------------------------------------------
// Blocks

// blockHeader parses: block NAME [@ADDR] [<- PRED...]
func (p *Parser) blockHeader() {
	p.want(_Block)
	pos := p.pos
	name := p.name()

	var b *ir.Block
	switch {
	case len(p.blocks) == 0:
		b = p.proc.Entry
		b.Name = name
	case p.proc.Block(name) != nil:
		p.errorAt(pos, fmt.Sprintf("block %s redeclared", name))
		b = p.proc.NewBlock(name)
	default:
		b = p.proc.NewBlock(name)
	}
	p.blocks[name] = b
	p.block = b

	if p.got(_At) {
		b.Address = p.number()
	}
	if p.got(_Arrow) {
		for p.tok == _Name {
			p.preds[b] = append(p.preds[b], blockRef{pos: p.pos, name: p.lit})
			p.next()
		}
	}
	p.endLine()
}

// resolveBlocks links predecessors in the order they were listed, then
// resolves branch targets and phi argument blocks.
func (p *Parser) resolveBlocks() {
	for _, b := range p.proc.Blocks {
		for _, ref := range p.preds[b] {
			pred := p.blocks[ref.name]
			if pred == nil {
				p.errorAt(ref.pos, fmt.Sprintf("undefined block %s", ref.name))
				continue
			}
			pred.AddSucc(b)
		}
	}
	for _, ref := range p.refs {
		b := p.blocks[ref.name]
		if b == nil {
			p.errorAt(ref.pos, fmt.Sprintf("undefined block %s", ref.name))
			continue
		}
		ref.resolve(b)
	}
	for _, b := range p.proc.Blocks {
		for _, stm := range b.Phis() {
			phi := stm.Instruction.(*ir.PhiAssignment).Src
			for i := range phi.Args {
				if i < len(b.Preds) {
					phi.Args[i].Block = b.Preds[i]
				}
			}
		}
	}
}

// ----------------------------------------------------------------------------
// Statements

func (p *Parser) statement() {
	var instr ir.Instruction
	switch p.tok {
	case _Def:
		p.next()
		instr = &ir.DefInstruction{Ident: p.ident()}
	case _Use:
		p.next()
		instr = &ir.UseInstruction{Expr: p.expr()}
	case _Call:
		instr = p.call()
	case _Store:
		instr = p.store()
	case _If:
		instr = p.branch()
	case _Return:
		p.next()
		ret := &ir.Return{}
		if p.tok != _EOL && p.tok != _EOF {
			ret.Expr = p.expr()
		}
		instr = ret
	case _Name:
		instr = p.assignment()
	default:
		p.syntaxError("expected statement, found " + p.tokString())
		p.skipLine()
		return
	}
	p.block.NewStatement(instr)
	p.endLine()
}

// assignment parses: ID = EXPR | ID = phi(EXPR, ...) | ID = alias EXPR
func (p *Parser) assignment() ir.Instruction {
	dst := p.ident()
	p.want(_Assign)
	switch p.tok {
	case _Phi:
		p.next()
		p.want(_Lparen)
		phi := &ir.PhiFunction{Type: dst.Type}
		for p.tok != _Rparen && p.tok != _EOL && p.tok != _EOF {
			phi.Args = append(phi.Args, ir.PhiArg{Value: p.expr()})
			if !p.got(_Comma) {
				break
			}
		}
		p.want(_Rparen)
		return &ir.PhiAssignment{Dst: dst, Src: phi}
	case _Alias:
		p.next()
		return &ir.AliasAssignment{Dst: dst, Src: p.expr()}
	}
	return &ir.Assignment{Dst: dst, Src: p.expr()}
}

// call parses: call EXPR [uses STG:EXPR, ...] [defs STG:EXPR, ...]
func (p *Parser) call() ir.Instruction {
	p.want(_Call)
	c := &ir.CallInstruction{Callee: p.expr()}
	if p.got(_Uses) {
		c.Uses = p.bindings()
	}
	if p.got(_Defs) {
		c.Defs = p.bindings()
	}
	return c
}

func (p *Parser) bindings() []ir.CallBinding {
	var bs []ir.CallBinding
	for {
		stg := p.storageNamed(p.name())
		p.want(_Colon)
		bs = append(bs, ir.CallBinding{Storage: stg, Expr: p.expr()})
		if !p.got(_Comma) {
			return bs
		}
	}
}

// store parses: store [EXPR] = EXPR
func (p *Parser) store() ir.Instruction {
	p.want(_Store)
	p.want(_Lbrack)
	addr := p.expr()
	p.want(_Rbrack)
	p.want(_Assign)
	src := p.expr()
	return &ir.Store{Dst: &ir.MemoryAccess{Type: src.DataType(), Addr: addr}, Src: src}
}

// branch parses: if EXPR goto BLOCK
func (p *Parser) branch() ir.Instruction {
	p.want(_If)
	br := &ir.Branch{Cond: p.expr()}
	p.want(_Goto)
	pos := p.pos
	name := p.name()
	p.refs = append(p.refs, blockRef{pos: pos, name: name, resolve: func(b *ir.Block) { br.Target = b }})
	return br
}

// ----------------------------------------------------------------------------
// Identifiers and expressions

// ident parses an identifier name. Names are interned so that every
// occurrence of a name in a procedure yields the same object.
func (p *Parser) ident() *ir.Identifier {
	return p.identNamed(p.name())
}

func (p *Parser) identNamed(name string) *ir.Identifier {
	if id, ok := p.idents[name]; ok {
		return id
	}

	base, version := name, 0
	d, ok := p.decls[name]
	if !ok {
		base, version = ir.SplitVersion(name)
		d, ok = p.decls[base]
	}
	if !ok {
		// Undeclared names are 32-bit registers.
		d = declaration{stg: ir.Register{Name: base}, typ: types.Typ[types.Word32]}
		p.decls[base] = d
		p.implicit[base] = true
	}

	id := &ir.Identifier{Name: name, Type: d.typ, Storage: d.stg, Version: version}
	p.idents[name] = id
	return id
}

func (p *Parser) expr() ir.Expr {
	return p.binaryExpr(0)
}

// binaryExpr parses a binary expression whose operators bind tighter than
// prec. Operators of equal precedence associate to the left.
func (p *Parser) binaryExpr(prec int) ir.Expr {
	x := p.unaryExpr()
	for {
		oprec := p.tok.Precedence()
		if oprec <= prec {
			return x
		}
		op := binaryOps[p.tok]
		p.next()
		y := p.binaryExpr(oprec)

		typ := x.DataType()
		if op.IsComparison() {
			typ = types.Typ[types.Bool]
		}
		x = &ir.BinaryExpr{Op: op, Type: typ, Left: x, Right: y}
	}
}

func (p *Parser) unaryExpr() ir.Expr {
	if op, ok := unaryOps[p.tok]; ok {
		p.next()
		x := p.unaryExpr()
		typ := x.DataType()
		if op == ir.OpNot {
			typ = types.Typ[types.Bool]
		}
		return &ir.UnaryExpr{Op: op, Type: typ, X: x}
	}
	return p.operand()
}

// operand parses an identifier, a constant, a memory access, a cast, or a
// parenthesized expression.
func (p *Parser) operand() ir.Expr {
	switch p.tok {
	case _Name:
		return p.ident()

	case _Number:
		return ir.NewConst(p.number())

	case _Lbrack:
		p.next()
		addr := p.expr()
		p.want(_Rbrack)
		return &ir.MemoryAccess{Type: types.Typ[types.Word32], Addr: addr}

	case _Lparen:
		p.next()
		if p.tok == _Name && p.isTypeName(p.lit) {
			pos := p.pos
			typ := p.typeFrom(p.name(), pos)
			p.want(_Rparen)
			return &ir.Cast{Type: typ, X: p.unaryExpr()}
		}
		x := p.expr()
		p.want(_Rparen)
		return x
	}

	p.syntaxError("expected expression, found " + p.tokString())
	p.skipToEnd()
	return ir.NewConst(0)
}

// isTypeName reports whether name denotes a type rather than a value. A
// declared storage name always denotes a value.
func (p *Parser) isTypeName(name string) bool {
	if _, ok := p.decls[name]; ok {
		return false
	}
	if name == "ptr32" || name == "ptr64" {
		return true
	}
	_, ok := types.Lookup(name)
	return ok
}

// skipToEnd advances to the end of the line without consuming it.
func (p *Parser) skipToEnd() {
	for p.tok != _EOL && p.tok != _EOF {
		p.next()
	}
}
