package passes

import (
	"github.com/sirupsen/logrus"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/ssa"
)

// PhiCopies puts the procedure in conventional SSA form: every phi
// argument is copied into a fresh version of the phi's storage at the end
// of the predecessor it flows in from, and the phi reads the copy.
func PhiCopies(st *ssa.State) {
	n := 0
	for _, b := range st.Procedure.Blocks {
		phis := b.Phis()
		if len(phis) == 0 || b.NumPreds() < 2 {
			continue
		}
		bindings := st.PredecessorPhiIdentifiers(b)

		mult := make(map[*ir.Block]int)
		for _, pred := range b.Preds {
			mult[pred]++
		}
		occ := make(map[*ir.Block]int)

		for i, pred := range b.Preds {
			k := occ[pred]
			occ[pred]++
			for j, stm := range phis {
				arg := bindings[pred][j*mult[pred]+k].Expr
				insertPhiCopy(st, stm, i, pred, arg)
				n++
			}
		}
	}
	logrus.WithField("proc", st.Procedure.Name).Debugf("phicopies: inserted %d copies", n)
}

func insertPhiCopy(st *ssa.State, phiStm *ir.Statement, i int, pred *ir.Block, arg ir.Expr) {
	phi := phiStm.Instruction.(*ir.PhiAssignment)

	sid := st.Identifiers.Add(phi.Dst, nil, true)
	cp := ir.NewStatement(pred.Address, &ir.Assignment{Dst: sid.Ident, Src: arg}, pred)
	pred.InsertBeforeTerminator(cp)
	sid.DefStatement = cp
	st.AddUses(cp)

	st.RemoveExprUses(phiStm, arg)
	phi.Src.Args[i].Value = sid.Ident
	st.AddExprUses(phiStm, sid.Ident)
}
