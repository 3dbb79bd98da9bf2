package passes

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/ssa"
	"github.com/you-not-fish/dessa/internal/types"
)

// CopyPropagation replaces every use of x defined by a copy "x = y" or
// "x = const" with the copied operand and deletes the copy. Copies between
// identifiers of different types are kept.
func CopyPropagation(st *ssa.State) {
	log := logrus.WithField("proc", st.Procedure.Name)
	copies := 0
	for _, stm := range slices.Collect(st.Procedure.Statements()) {
		as, ok := stm.Instruction.(*ir.Assignment)
		if !ok || stm.Block == nil {
			continue
		}
		switch src := as.Src.(type) {
		case *ir.Constant:
		case *ir.Identifier:
			if src.Key() == as.Dst.Key() || !types.Identical(src.Type, as.Dst.Type) {
				continue
			}
		default:
			continue
		}
		sid, ok := st.Identifiers.Get(as.Dst)
		if !ok || sid.DefStatement != stm {
			continue
		}

		for len(sid.Uses) > 0 {
			u := sid.Uses[0]
			if st.ReplaceUse(u, as.Dst, as.Src) == 0 {
				log.WithField("stmt", u).Warnf("copyprop: %s is recorded as a use but does not read it", sid)
				sid.RemoveAllUses(u)
			}
		}
		st.DeleteStatement(stm)
		copies++
	}
	log.Debugf("copyprop: propagated %d copies", copies)
}
