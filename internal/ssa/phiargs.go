package ssa

import (
	"fmt"

	"github.com/you-not-fish/dessa/internal/ir"
)

// PredecessorPhiIdentifiers returns, for each predecessor of b, the values
// flowing into b along that edge as (destination storage, value) bindings.
//
// With several predecessors the phi assignments of b are transposed: the
// list of predecessor P holds, in phi order, the argument each phi takes
// from P. If P occurs m times in b.Preds, the list holds m consecutive
// arguments per phi, in predecessor order: for phi j and the k'th
// occurrence of P the binding is at index j*m+k.
// With a single predecessor b has no phis, and the identifiers of its use
// instructions are reported instead. A block without predecessors, or a
// join block without phis, yields an empty map.
func (s *State) PredecessorPhiIdentifiers(b *ir.Block) map[*ir.Block][]ir.CallBinding {
	bindings := make(map[*ir.Block][]ir.CallBinding)
	switch {
	case b.NumPreds() > 1:
		phis := b.Phis()
		if len(phis) == 0 {
			return bindings
		}
		for _, stm := range phis {
			phi := stm.Instruction.(*ir.PhiAssignment)
			if len(phi.Src.Args) != b.NumPreds() {
				panic(fmt.Sprintf("ssa: %s: %q has %d args but block has %d preds",
					b, stm, len(phi.Src.Args), b.NumPreds()))
			}
			for i, pred := range b.Preds {
				bindings[pred] = append(bindings[pred], ir.CallBinding{
					Storage: phi.Dst.Storage,
					Expr:    phi.Src.Args[i].Value,
				})
			}
		}
	case b.NumPreds() == 1:
		var uses []ir.CallBinding
		for _, stm := range b.Statements {
			u, ok := stm.Instruction.(*ir.UseInstruction)
			if !ok {
				continue
			}
			if id, ok := u.Expr.(*ir.Identifier); ok {
				uses = append(uses, ir.CallBinding{Storage: id.Storage, Expr: id})
			}
		}
		bindings[b.Preds[0]] = uses
	}
	return bindings
}
