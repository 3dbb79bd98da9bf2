package irtext

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/types"
)

const loopSrc = `proc loop
  reg r1 word32
  reg r2 word32
  flags SZ bool
  block entry @0x1000
    def r1
    def r2
  block head <- entry body
    r1_1 = phi(r1, r1_2)
    SZ = r1_1 == 0xA
    if SZ goto exit
  block body <- head
    r1_2 = r1_1 + 0x1
    store [r2 + 0x4] = r1_2
  block exit <- head
    use r1_1
    return r1_1
`

const miscSrc = `proc misc
  reg esp ptr32(word32)
  stack loc8 -8 int32
  reg eax word32
  reg ax word16
  seq dx_ax dx ax word32
  block entry
    def esp
    loc8 = [esp + 0x4]
    eax = (word32) loc8
    ax = alias eax
    call [esp] uses eax:eax defs eax:eax_1
    dx_ax = -eax_1 * ~eax
    return dx_ax
`

func mustParse(t *testing.T, src string) *ir.Procedure {
	t.Helper()
	var errs []string
	procs, err := Parse("test.ir", strings.NewReader(src), func(pos Pos, msg string) {
		errs = append(errs, pos.String()+": "+msg)
	})
	assert.NilError(t, err, "errors:\n%s", strings.Join(errs, "\n"))
	assert.Assert(t, is.Len(procs, 1))
	assert.NilError(t, ir.Verify(procs[0]))
	return procs[0]
}

func parseErrors(src string) []string {
	var errs []string
	Parse("test.ir", strings.NewReader(src), func(pos Pos, msg string) {
		errs = append(errs, pos.String()+": "+msg)
	})
	return errs
}

func TestParseRoundTrip(t *testing.T) {
	for _, src := range []string{loopSrc, miscSrc} {
		p := mustParse(t, src)
		got := ir.Sprint(p)
		if diff := cmp.Diff(src, got); diff != "" {
			t.Errorf("printed procedure differs from source (-want +got):\n%s", diff)
		}

		again := mustParse(t, got)
		if diff := cmp.Diff(got, ir.Sprint(again)); diff != "" {
			t.Errorf("second round trip differs (-want +got):\n%s", diff)
		}
	}
}

func TestParseCFG(t *testing.T) {
	p := mustParse(t, loopSrc)

	assert.Check(t, is.Equal(p.Name, "loop"))
	assert.Assert(t, is.Len(p.Blocks, 4))
	entry, head, body, exit := p.Blocks[0], p.Blocks[1], p.Blocks[2], p.Blocks[3]
	assert.Check(t, p.Entry == entry)
	assert.Check(t, is.Equal(entry.Address, uint64(0x1000)))
	assert.Check(t, is.DeepEqual(blockNames(head.Preds), []string{"entry", "body"}))
	assert.Check(t, is.DeepEqual(blockNames(head.Succs), []string{"body", "exit"}))
	assert.Check(t, is.DeepEqual(blockNames(exit.Preds), []string{"head"}))

	phi := head.Statements[0].Instruction.(*ir.PhiAssignment)
	assert.Check(t, phi.Src.Args[0].Block == entry)
	assert.Check(t, phi.Src.Args[1].Block == body)

	br := head.Statements[2].Instruction.(*ir.Branch)
	assert.Check(t, br.Target == exit)

	for _, stm := range entry.Statements {
		assert.Check(t, is.Equal(stm.Address, uint64(0x1000)))
	}
}

func blockNames(bs []*ir.Block) []string {
	var names []string
	for _, b := range bs {
		names = append(names, b.String())
	}
	return names
}

func TestParseIdentifiers(t *testing.T) {
	p := mustParse(t, loopSrc)
	head := p.Blocks[1]

	phi := head.Statements[0].Instruction.(*ir.PhiAssignment)
	r1v1 := phi.Dst
	r1 := phi.Src.Args[0].Value.(*ir.Identifier)
	assert.Check(t, is.Equal(r1v1.Version, 1))
	assert.Check(t, is.Equal(r1.Version, 0))
	assert.Check(t, ir.SameStorage(r1.Storage, r1v1.Storage))
	assert.Check(t, is.Equal(r1v1.BaseName(), "r1"))

	// Every occurrence of a name is the same object.
	cmpSZ := head.Statements[1].Instruction.(*ir.Assignment)
	assert.Check(t, cmpSZ.Src.(*ir.BinaryExpr).Left == r1v1)
	assert.Check(t, types.Identical(cmpSZ.Src.DataType(), types.Typ[types.Bool]))

	sz := cmpSZ.Dst
	assert.Check(t, is.Equal(sz.Storage.Kind(), ir.StorageFlags))
	assert.Check(t, types.Identical(sz.Type, types.Typ[types.Bool]))
}

func TestParseStorages(t *testing.T) {
	p := mustParse(t, miscSrc)
	stmts := p.Entry.Statements

	loc8 := stmts[1].Instruction.(*ir.Assignment).Dst
	assert.Check(t, is.Equal(loc8.Storage.Key(), "s:-8"))
	assert.Check(t, is.Equal(loc8.Type.String(), "int32"))

	esp := stmts[0].Instruction.(*ir.DefInstruction).Ident
	assert.Check(t, is.Equal(esp.Type.String(), "ptr32(word32)"))
	assert.Check(t, is.Equal(esp.Type.Size(), 4))

	cast := stmts[2].Instruction.(*ir.Assignment).Src.(*ir.Cast)
	assert.Check(t, cast.X == loc8)

	call := stmts[4].Instruction.(*ir.CallInstruction)
	assert.Assert(t, is.Len(call.Defs, 1))
	assert.Check(t, is.Equal(call.Defs[0].Storage.Key(), "r:eax"))
	assert.Check(t, is.Equal(call.Defs[0].Expr.(*ir.Identifier).Version, 1))

	dxax := stmts[5].Instruction.(*ir.Assignment).Dst
	assert.Check(t, is.Equal(dxax.Storage.Key(), "seq(r:dx,r:ax)"))
	assert.Check(t, is.Equal(dxax.Version, 0))
}

func TestParseUntypedSequence(t *testing.T) {
	p := mustParse(t, `proc f
  reg dx word16
  reg ax word16
  seq dx_ax dx ax
  seq ecx_ebx ecx ebx
  block entry
    dx_ax = 0x1
    ecx_ebx = dx_ax
    return ecx_ebx
`)
	dxax := p.Entry.Statements[0].Instruction.(*ir.Assignment).Dst
	assert.Check(t, is.Equal(dxax.Storage.Key(), "seq(r:dx,r:ax)"))
	assert.Check(t, types.Identical(dxax.Type, types.Typ[types.Word32]))

	ecxebx := p.Entry.Statements[1].Instruction.(*ir.Assignment).Dst
	assert.Check(t, types.Identical(ecxebx.Type, types.Typ[types.Word64]))

	_, err := Parse("test.ir", strings.NewReader("proc f\n  seq x dx\n  block entry\n"), nil)
	assert.Check(t, err != nil, "a one-element sequence needs a type")
}

func TestParseUndeclaredNames(t *testing.T) {
	p := mustParse(t, "proc f\n  block entry\n    r7_3 = r7 + 0x1\n")
	as := p.Entry.Statements[0].Instruction.(*ir.Assignment)
	assert.Check(t, is.Equal(as.Dst.Storage.Key(), "r:r7"))
	assert.Check(t, is.Equal(as.Dst.Version, 3))
	assert.Check(t, types.Identical(as.Dst.Type, types.Typ[types.Word32]))
}

func TestParsePrecedence(t *testing.T) {
	p := mustParse(t, "proc f\n  block entry\n    use a + b * c == d - e - f\n")
	u := p.Entry.Statements[0].Instruction.(*ir.UseInstruction)
	assert.Check(t, is.Equal(u.Expr.String(), "(a + (b * c)) == ((d - e) - f)"))
}

func TestParseMultipleProcedures(t *testing.T) {
	src := "proc a\n  block entry\n    return\nproc b\n  block start\n    return 0x1\n"
	procs, err := Parse("multi.ir", strings.NewReader(src), nil)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(procs, 2))
	assert.Check(t, is.Equal(procs[0].Name, "a"))
	assert.Check(t, is.Equal(procs[1].Entry.Name, "start"))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing operand", "proc f\n  block entry\n    r1 = \n", "test.ir:3:10: expected expression, found newline"},
		{"undefined target", "proc f\n  block entry\n    if r1 goto nowhere\n", "test.ir:3:16: undefined block nowhere"},
		{"undefined pred", "proc f\n  block entry\n  block b <- x\n", "test.ir:3:14: undefined block x"},
		{"unknown type", "proc f\n  reg r1 word33\n", "test.ir:2:10: unknown type word33"},
		{"outside block", "proc f\n  def r1\n", "test.ir:2:3: statement outside of a block"},
		{"no proc", "block entry\n", "test.ir:1:1: expected proc, found block"},
		{"redeclared", "proc f\n  reg r1 word32\n  reg r1 word16\n", "test.ir:3:3: r1 redeclared"},
		{"declared after use", "proc f\n  block entry\n    use r1\n  reg r1 word16\n", "test.ir:4:3: r1 declared after use"},
		{"duplicate block", "proc f\n  block entry\n  block entry\n", "test.ir:3:9: block entry redeclared"},
		{"trailing", "proc f\n  block entry\n    return r1 r2\n", "test.ir:3:15: unexpected \"r2\" at end of line"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseErrors(tt.src)
			assert.Assert(t, is.Len(errs, 1), "errors: %v", errs)
			assert.Check(t, is.Equal(errs[0], tt.want))
		})
	}
}

func TestParseErrorLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("proc f\n  block entry\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, "    = %d\n", i)
	}
	errs := parseErrors(sb.String())
	assert.Assert(t, is.Len(errs, maxErrors+1))
	assert.Check(t, is.Contains(errs[maxErrors], "too many errors"))
}

func TestFirstError(t *testing.T) {
	_, err := Parse("x.ir", strings.NewReader("proc f\n  reg r1 bogus\n  reg r2 bogus\n"), nil)
	assert.Check(t, is.Error(err, "x.ir:2:10: unknown type bogus"))

	_, err = ParseProcedure("x.ir", strings.NewReader(loopSrc+miscSrc))
	assert.Check(t, is.ErrorContains(err, "expected 1 procedure, found 2"))
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.ir"))
	assert.Check(t, is.ErrorContains(err, "open IR file"))
}
