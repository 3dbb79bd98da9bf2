// Package ssa maintains the SSA form of a procedure. A State pairs a
// procedure with a table recording, for every identifier version, the
// statement that defines it and the statements that use it, and keeps the
// two consistent as passes edit the procedure.
package ssa

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/you-not-fish/dessa/internal/ir"
)

// State is the SSA form of one procedure: the procedure itself and the
// def/use records of its identifiers. A State is not safe for concurrent
// use; different procedures may be processed concurrently.
type State struct {
	Procedure   *ir.Procedure
	Identifiers *Identifiers
}

// NewState returns a State with an empty identifier table.
func NewState(p *ir.Procedure) *State {
	return &State{Procedure: p, Identifiers: NewIdentifiers()}
}

func (s *State) logger() *logrus.Entry {
	return logrus.WithField("proc", s.Procedure.Name)
}

// EnsureDefInstruction returns the record of id, creating it together with
// a def instruction in b if id is not yet tracked. In the entry block the
// def instruction is placed after the last existing def instruction;
// elsewhere it is appended.
func (s *State) EnsureDefInstruction(id *ir.Identifier, b *ir.Block) *Identifier {
	if sid, ok := s.Identifiers.Get(id); ok {
		return sid
	}
	sid := s.Identifiers.Add(id, nil, false)
	stm := ir.NewStatement(b.Address, &ir.DefInstruction{Ident: sid.Ident}, b)
	sid.DefStatement = stm

	if b == s.Procedure.Entry {
		b.Insert(lastDefPosition(b)+1, stm)
	} else {
		b.Append(stm)
	}
	s.logger().WithField("stmt", stm).Debug("ssa: added def instruction")
	return sid
}

func lastDefPosition(b *ir.Block) int {
	for i := len(b.Statements) - 1; i >= 0; i-- {
		if _, ok := b.Statements[i].Instruction.(*ir.DefInstruction); ok {
			return i
		}
	}
	return -1
}

// InsertAfterDefinition inserts ass after before, past any alias
// assignments that already follow it, and makes the new statement the
// definition of ass.Dst. ass.Dst is replaced by the table's canonical
// identifier.
func (s *State) InsertAfterDefinition(before *ir.Statement, ass *ir.AliasAssignment) *Identifier {
	b := before.Block
	i := b.IndexOf(before)
	if i < 0 {
		panic(fmt.Sprintf("ssa: InsertAfterDefinition: %s is not in block %s", before.LongString(), b))
	}
	for i < len(b.Statements)-1 {
		if _, ok := b.Statements[i+1].Instruction.(*ir.AliasAssignment); !ok {
			break
		}
		i++
	}
	stm := ir.NewStatement(before.Address, ass, b)
	b.Insert(i+1, stm)

	sid := s.Identifiers.Add(ass.Dst, stm, false)
	sid.DefStatement = stm
	ass.Dst = sid.Ident
	s.logger().WithField("stmt", stm).Debug("ssa: inserted alias")
	return sid
}

// DeleteStatement removes stm from the procedure. Definitions bound to
// stm are cleared first, then its uses are removed, then it is unlinked
// from its block.
func (s *State) DeleteStatement(stm *ir.Statement) {
	b := stm.Block
	if b == nil || b.IndexOf(stm) < 0 {
		panic(fmt.Sprintf("ssa: DeleteStatement: %s is not in any block", stm.LongString()))
	}

	s.ReplaceDefinitions(stm, nil)

	if missing := removeUses(s.Identifiers, stm, CollectUses(stm.Instruction)); len(missing) > 0 {
		s.logger().WithField("stmt", stm).Warnf("ssa: %d uses were not recorded", len(missing))
	}
	for sid := range s.Identifiers.All() {
		if n := sid.RemoveAllUses(stm); n > 0 {
			s.logger().WithFields(logrus.Fields{"stmt": stm, "ident": sid}).
				Warnf("ssa: dropped %d stale uses", n)
		}
	}

	b.Remove(stm)
	stm.Block = nil
	s.logger().WithField("stmt", stm).Debug("ssa: deleted statement")
}

// ReplaceDefinitions rebinds every identifier defined by old to stm, which
// may be nil to leave the identifiers undefined.
func (s *State) ReplaceDefinitions(old, stm *ir.Statement) {
	for sid := range s.Identifiers.All() {
		if sid.DefStatement == old {
			sid.DefStatement = stm
		}
	}
}

// AddDefinitions binds every identifier defined by stm to stm, creating
// records for identifiers not yet tracked.
func (s *State) AddDefinitions(stm *ir.Statement) {
	for _, id := range CollectDefinitions(stm.Instruction) {
		s.Identifiers.Add(id, stm, false).DefStatement = stm
	}
}

// AddUses records every identifier occurrence read by stm.
func (s *State) AddUses(stm *ir.Statement) {
	addUses(s.Identifiers, stm, CollectUses(stm.Instruction))
}

// AddExprUses records every identifier occurrence in e as a use by stm.
func (s *State) AddExprUses(stm *ir.Statement, e ir.Expr) {
	addUses(s.Identifiers, stm, CollectExprUses(e))
}

// RemoveUses drops every use occurrence stm makes. A nil stm is ignored.
func (s *State) RemoveUses(stm *ir.Statement) {
	if stm == nil {
		return
	}
	removeUses(s.Identifiers, stm, CollectUses(stm.Instruction))
}

// RemoveExprUses drops the use occurrences of stm contributed by e.
func (s *State) RemoveExprUses(stm *ir.Statement, e ir.Expr) {
	removeUses(s.Identifiers, stm, CollectExprUses(e))
}

// ReplaceUse rewrites every occurrence of old in stm to e, keeping the use
// lists in step.
func (s *State) ReplaceUse(stm *ir.Statement, old *ir.Identifier, e ir.Expr) int {
	n := 0
	key := old.Key()
	for _, slot := range ir.UseSlots(stm.Instruction) {
		ir.ReplaceIdentifiers(slot, func(id *ir.Identifier) ir.Expr {
			if id.Key() != key {
				return nil
			}
			n++
			return e
		})
	}
	for i := 0; i < n; i++ {
		removeUses(s.Identifiers, stm, []*ir.Identifier{old})
		s.AddExprUses(stm, e)
	}
	return n
}

// Track returns a State for a procedure that is already in SSA form,
// recording every definition and use it currently contains.
func Track(p *ir.Procedure) *State {
	s := NewState(p)
	for stm := range p.Statements() {
		s.AddDefinitions(stm)
		s.AddUses(stm)
	}
	return s
}
