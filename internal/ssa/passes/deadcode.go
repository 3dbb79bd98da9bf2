package passes

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/ssa"
)

// DeadCode deletes assignments, phi assignments and alias assignments
// whose values cannot reach a def instruction, use instruction, call,
// store, branch or return. Output bindings of calls nobody reads are
// dropped, and records left without a definition or uses are pruned.
func DeadCode(st *ssa.State) {
	p := st.Procedure
	live := mapset.NewThreadUnsafeSet[*ir.Statement]()
	var work []*ir.Statement
	mark := func(stm *ir.Statement) {
		if live.Add(stm) {
			work = append(work, stm)
		}
	}

	for stm := range p.Statements() {
		if !isPure(stm.Instruction) {
			mark(stm)
		}
	}
	for len(work) > 0 {
		stm := work[len(work)-1]
		work = work[:len(work)-1]
		for _, id := range ssa.CollectUses(stm.Instruction) {
			if sid, ok := st.Identifiers.Get(id); ok && sid.DefStatement != nil {
				mark(sid.DefStatement)
			}
		}
	}

	var dead []*ir.Statement
	for stm := range p.Statements() {
		if !live.Contains(stm) {
			dead = append(dead, stm)
		}
	}
	for _, stm := range dead {
		st.DeleteStatement(stm)
	}

	bindings := dropUnusedCallDefs(st)
	pruned := st.Identifiers.Prune()
	logrus.WithField("proc", p.Name).Debugf("deadcode: removed %d statements, %d call outputs, %d records",
		len(dead), bindings, pruned)
}

// isPure reports whether instr only computes the identifiers it defines.
func isPure(instr ir.Instruction) bool {
	switch instr.(type) {
	case *ir.Assignment, *ir.PhiAssignment, *ir.AliasAssignment:
		return true
	}
	return false
}

func dropUnusedCallDefs(st *ssa.State) int {
	n := 0
	for stm := range st.Procedure.Statements() {
		call, ok := stm.Instruction.(*ir.CallInstruction)
		if !ok {
			continue
		}
		call.Defs = slices.DeleteFunc(call.Defs, func(b ir.CallBinding) bool {
			id, ok := b.Expr.(*ir.Identifier)
			if !ok {
				return false
			}
			sid, ok := st.Identifiers.Get(id)
			if !ok || sid.DefStatement != stm || !sid.IsUnused() {
				return false
			}
			sid.DefStatement = nil
			n++
			return true
		})
	}
	return n
}
