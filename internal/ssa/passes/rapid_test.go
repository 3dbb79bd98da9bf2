package passes

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/ssa"
	"github.com/you-not-fish/dessa/internal/types"
)

// genPreSSA draws a procedure over a few registers, none of them
// versioned. Blocks form a chain; some blocks also branch to a random
// later or earlier block, possibly the one they fall through to.
func genPreSSA(t *rapid.T) *ir.Procedure {
	word32 := types.Typ[types.Word32]
	p := ir.NewProcedure("gen")

	var regs []*ir.Identifier
	nregs := rapid.IntRange(1, 4).Draw(t, "nregs")
	for i := 0; i < nregs; i++ {
		name := fmt.Sprintf("r%d", i)
		regs = append(regs, ir.NewIdentifier(name, word32, ir.Register{Name: name}))
	}
	operand := func() ir.Expr {
		if rapid.Bool().Draw(t, "const") {
			return ir.NewConst(uint64(rapid.IntRange(0, 9).Draw(t, "value")))
		}
		return rapid.SampledFrom(regs).Draw(t, "reg")
	}

	nblocks := rapid.IntRange(1, 6).Draw(t, "nblocks")
	blocks := []*ir.Block{p.Entry}
	for i := 1; i < nblocks; i++ {
		blocks = append(blocks, p.NewBlock(fmt.Sprintf("b%d", i)))
	}

	for i, b := range blocks {
		nstmts := rapid.IntRange(0, 4).Draw(t, "nstmts")
		for j := 0; j < nstmts; j++ {
			dst := rapid.SampledFrom(regs).Draw(t, "dst")
			var src ir.Expr
			switch rapid.IntRange(0, 2).Draw(t, "kind") {
			case 0:
				src = operand()
			case 1:
				src = &ir.BinaryExpr{Op: ir.OpAdd, Type: word32, Left: operand(), Right: operand()}
			default:
				b.NewStatement(&ir.Store{
					Dst: &ir.MemoryAccess{Type: word32, Addr: operand()},
					Src: operand(),
				})
				continue
			}
			b.NewStatement(&ir.Assignment{Dst: dst, Src: src})
		}

		if i == len(blocks)-1 {
			b.NewStatement(&ir.Return{Expr: rapid.SampledFrom(regs).Draw(t, "ret")})
			continue
		}
		b.AddSucc(blocks[i+1])
		if rapid.Bool().Draw(t, "branch") {
			target := blocks[rapid.IntRange(1, len(blocks)-1).Draw(t, "target")]
			b.AddSucc(target)
			b.NewStatement(&ir.Branch{Cond: rapid.SampledFrom(regs).Draw(t, "cond"), Target: target})
		}
	}
	return p
}

// TestPipelineKeepsStateValid constructs SSA for random procedures and
// runs every registered pass with validation enabled.
func TestPipelineKeepsStateValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := genPreSSA(t)
		if err := ir.Verify(p); err != nil {
			t.Fatalf("generated procedure is invalid: %v\n%s", err, ir.Sprint(p))
		}

		st, err := Construct(p)
		if err != nil {
			t.Fatalf("Construct: %v", err)
		}
		if err := ir.Verify(p); err != nil {
			t.Fatalf("Construct broke the CFG: %v\n%s", err, ir.Sprint(p))
		}
		if err := st.Check(); err != nil {
			t.Fatalf("Construct: %v\n%s", err, ir.Sprint(p))
		}

		names := rapid.SliceOf(rapid.SampledFrom(Names())).Draw(t, "passes")
		passes, err := Pipeline(names)
		if err != nil {
			t.Fatalf("Pipeline: %v", err)
		}
		if err := Run(st, passes, Config{Validate: true}); err != nil {
			t.Fatalf("%v\n%s", err, ir.Sprint(p))
		}
	})
}

// TestConstructSingleDefinitions checks that every identifier version has
// exactly one defining statement after construction.
func TestConstructSingleDefinitions(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := genPreSSA(t)
		st, err := Construct(p)
		if err != nil {
			t.Fatalf("Construct: %v", err)
		}

		defs := make(map[ir.IdentKey]*ir.Statement)
		for stm := range p.Statements() {
			for _, id := range ssa.CollectDefinitions(stm.Instruction) {
				if prev, ok := defs[id.Key()]; ok {
					t.Fatalf("%s defined by %q and %q", id, prev, stm)
				}
				defs[id.Key()] = stm
				sid, ok := st.Identifiers.Get(id)
				if !ok || sid.DefStatement != stm {
					t.Fatalf("record of %s does not point at %q", id, stm)
				}
			}
		}
	})
}
