package ssa

import (
	"github.com/you-not-fish/dessa/internal/ir"
)

// CollectUses returns every identifier occurrence read by instr, in
// traversal order. An identifier read twice appears twice.
func CollectUses(instr ir.Instruction) []*ir.Identifier {
	var ids []*ir.Identifier
	for _, slot := range ir.UseSlots(instr) {
		ids = append(ids, CollectExprUses(*slot)...)
	}
	return ids
}

// CollectExprUses returns every identifier occurrence within e.
func CollectExprUses(e ir.Expr) []*ir.Identifier {
	var ids []*ir.Identifier
	ir.Inspect(e, func(e ir.Expr) bool {
		if id, ok := e.(*ir.Identifier); ok {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// CountUses maps each identifier read by instr to its number of
// occurrences.
func CountUses(instr ir.Instruction) map[ir.IdentKey]int {
	counts := make(map[ir.IdentKey]int)
	for _, id := range CollectUses(instr) {
		counts[id.Key()]++
	}
	return counts
}

// CollectDefinitions returns the distinct identifiers defined by instr.
func CollectDefinitions(instr ir.Instruction) []*ir.Identifier {
	defs := ir.Defs(instr)
	if len(defs) < 2 {
		return defs
	}
	seen := make(map[ir.IdentKey]bool, len(defs))
	out := defs[:0:0]
	for _, id := range defs {
		if !seen[id.Key()] {
			seen[id.Key()] = true
			out = append(out, id)
		}
	}
	return out
}

// removeUses drops one use occurrence of stm for each identifier in ids.
// Identifiers without a record or without a matching occurrence are
// returned.
func removeUses(t *Identifiers, stm *ir.Statement, ids []*ir.Identifier) []*ir.Identifier {
	var missing []*ir.Identifier
	for _, id := range ids {
		sid, ok := t.Get(id)
		if !ok || !sid.RemoveUse(stm) {
			missing = append(missing, id)
		}
	}
	return missing
}

// addUses records one use occurrence of stm for each identifier in ids,
// creating undefined records where necessary.
func addUses(t *Identifiers, stm *ir.Statement, ids []*ir.Identifier) {
	for _, id := range ids {
		t.Add(id, nil, false).AddUse(stm)
	}
}
