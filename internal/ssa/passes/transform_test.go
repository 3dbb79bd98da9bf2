package passes

import (
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/you-not-fish/dessa/internal/ir"
)

func TestDeadCode(t *testing.T) {
	st := tracked(t, `proc f
  block entry
    def r1
    r2 = r1 + 0x1
    r3 = r2 * 0x2
    r4 = r1 - 0x1
    call [r1] uses eax:r4 defs eax:eax_1, edx:edx_1
    use eax_1
    return r1
`)
	DeadCode(st)
	checkState(t, st)

	assert.Check(t, is.DeepEqual(stmts(st.Procedure.Entry), []string{
		"def r1",
		"r4 = r1 - 0x1",
		"call [r1] uses eax:r4 defs eax:eax_1",
		"use eax_1",
		"return r1",
	}))

	var names []string
	for sid := range st.Identifiers.All() {
		names = append(names, sid.String())
	}
	assert.Check(t, is.DeepEqual(names, []string{"r1", "r4", "eax_1"}))
}

func TestDeadCodeRemovesCycles(t *testing.T) {
	st := tracked(t, `proc f
  block entry
    def r1
  block head <- entry body
    r1_1 = phi(r1, r1_2)
    if r1 goto exit
  block body <- head
    r1_2 = r1_1 + 0x1
  block exit <- head
    return r1
`)
	DeadCode(st)
	checkState(t, st)

	assert.Check(t, is.DeepEqual(stmts(st.Procedure.Block("head")), []string{"if r1 goto exit"}))
	assert.Check(t, is.Len(st.Procedure.Block("body").Statements, 0))
	assert.Check(t, is.Equal(st.Identifiers.Len(), 1))
}

func TestDeadCodeKeepsLiveLoop(t *testing.T) {
	st := construct(t, preLoopSrc)
	before := ir.Sprint(st.Procedure)
	DeadCode(st)
	checkState(t, st)
	assert.Check(t, is.Equal(ir.Sprint(st.Procedure), before))
}

func TestCopyPropagation(t *testing.T) {
	st := tracked(t, `proc f
  block entry
    def r1
    r2 = r1
    r3 = r2
    r4 = 0x5
    r5 = r3 + r4
    return r5
`)
	CopyPropagation(st)
	checkState(t, st)

	assert.Check(t, is.DeepEqual(stmts(st.Procedure.Entry), []string{
		"def r1",
		"r5 = r1 + 0x5",
		"return r5",
	}))

	r1 := st.Procedure.Entry.Statements[0].Instruction.(*ir.DefInstruction).Ident
	sid, _ := st.Identifiers.Get(r1)
	assert.Check(t, is.Len(sid.Uses, 1))
	assert.Check(t, sid.Uses[0] == st.Procedure.Entry.Statements[1])

	// The copies' records are left for DeadCode to prune.
	assert.Check(t, is.Equal(st.Identifiers.Len(), 5))
	DeadCode(st)
	assert.Check(t, is.Equal(st.Identifiers.Len(), 2))
}

func TestCopyPropagationKeepsRetypingCopy(t *testing.T) {
	st := tracked(t, `proc f
  reg cx word32
  reg ax int32
  block entry
    def cx
    ax = cx
    return ax
`)
	CopyPropagation(st)
	checkState(t, st)
	assert.Check(t, is.DeepEqual(stmts(st.Procedure.Entry), []string{"def cx", "ax = cx", "return ax"}))
}

func TestCopyPropagationIntoPhi(t *testing.T) {
	st := construct(t, diamondSrc)
	CopyPropagation(st)
	checkState(t, st)

	p := st.Procedure
	assert.Check(t, is.Len(p.Block("then").Statements, 0))
	assert.Check(t, is.Len(p.Block("else").Statements, 0))
	assert.Check(t, is.DeepEqual(stmts(p.Block("join")), []string{"m_3 = phi(a, b)", "return m_3"}))
}

func TestPhiCopies(t *testing.T) {
	st := construct(t, diamondSrc)
	CopyPropagation(st)
	PhiCopies(st)
	checkState(t, st)

	p := st.Procedure
	assert.Check(t, is.DeepEqual(stmts(p.Block("else")), []string{"m_4 = a"}))
	assert.Check(t, is.DeepEqual(stmts(p.Block("then")), []string{"m_5 = b"}))
	assert.Check(t, is.DeepEqual(stmts(p.Block("join")), []string{"m_3 = phi(m_4, m_5)", "return m_3"}))

	cp := p.Block("else").Statements[0]
	sid, ok := st.Identifiers.Get(cp.Instruction.(*ir.Assignment).Dst)
	assert.Assert(t, ok)
	assert.Check(t, sid.DefStatement == cp)
	assert.Check(t, is.Equal(sid.Original.Name, "m"))
	assert.Check(t, is.Len(sid.Uses, 1))
}

func TestPhiCopiesBeforeTerminator(t *testing.T) {
	st := construct(t, preLoopSrc)
	PhiCopies(st)
	checkState(t, st)

	p := st.Procedure
	assert.Check(t, is.DeepEqual(stmts(p.Entry), []string{"def r2", "r1_1 = 0x0", "r1_4 = r1_1"}))
	assert.Check(t, is.DeepEqual(stmts(p.Block("body")), []string{
		"r1_3 = r1_2 + 0x1",
		"store [r2 + 0x4] = r1_3",
		"r1_5 = r1_3",
	}))
	assert.Check(t, is.Equal(p.Block("head").Statements[0].String(), "r1_2 = phi(r1_4, r1_5)"))
}

func TestPhiCopiesDuplicatePredecessor(t *testing.T) {
	st := tracked(t, `proc f
  block entry
    def r1
    def r2
    if r1 goto join
  block join <- entry entry
    r1_1 = phi(r1, r2)
    r2_1 = phi(r2, r1)
    return r1_1
`)
	PhiCopies(st)
	checkState(t, st)

	p := st.Procedure
	assert.Check(t, is.DeepEqual(stmts(p.Entry), []string{
		"def r1",
		"def r2",
		"r1_2 = r1",
		"r2_2 = r2",
		"r1_3 = r2",
		"r2_3 = r1",
		"if r1 goto join",
	}))
	assert.Check(t, is.DeepEqual(stmts(p.Block("join"))[:2], []string{
		"r1_1 = phi(r1_2, r1_3)",
		"r2_1 = phi(r2_2, r2_3)",
	}))
}
