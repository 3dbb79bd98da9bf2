package ssa

import (
	"fmt"
	"io"
	"slices"

	"github.com/you-not-fish/dessa/internal/ir"
)

// Identifier is the SSA bookkeeping record of one identifier version:
// the statement defining it and the statements using it.
type Identifier struct {
	// Ident is the canonical identifier object for this version.
	Ident *ir.Identifier

	// Original is the pre-SSA variable this version was renamed from.
	Original *ir.Identifier

	// DefStatement is the single statement defining Ident, or nil if Ident
	// is undefined (a procedure input or a dead value).
	DefStatement *ir.Statement

	// Uses lists the statements reading Ident. A statement appears once
	// per occurrence of Ident in its instruction.
	Uses []*ir.Statement
}

func (sid *Identifier) String() string {
	return sid.Ident.String()
}

// AddUse records one occurrence of Ident in stm.
func (sid *Identifier) AddUse(stm *ir.Statement) {
	sid.Uses = append(sid.Uses, stm)
}

// RemoveUse drops one occurrence of stm from the use list. It reports
// whether an occurrence was found.
func (sid *Identifier) RemoveUse(stm *ir.Statement) bool {
	i := slices.Index(sid.Uses, stm)
	if i < 0 {
		return false
	}
	sid.Uses = slices.Delete(sid.Uses, i, i+1)
	return true
}

// RemoveAllUses drops every occurrence of stm and returns how many were
// removed.
func (sid *Identifier) RemoveAllUses(stm *ir.Statement) int {
	n := len(sid.Uses)
	sid.Uses = slices.DeleteFunc(sid.Uses, func(u *ir.Statement) bool { return u == stm })
	return n - len(sid.Uses)
}

// UseCount returns the number of recorded occurrences of Ident in stm.
func (sid *Identifier) UseCount(stm *ir.Statement) int {
	n := 0
	for _, u := range sid.Uses {
		if u == stm {
			n++
		}
	}
	return n
}

// IsUnused reports whether no statement reads the identifier.
func (sid *Identifier) IsUnused() bool {
	return len(sid.Uses) == 0
}

// Write writes the record in long form:
//
//	r1_2: orig: r1
//	    def:  r1_2 = r1_1 + 0x1
//	    uses: return r1_2
func (sid *Identifier) Write(w io.Writer) {
	fmt.Fprintf(w, "%s: orig: %s\n", sid.Ident, sid.Original)
	if sid.DefStatement != nil {
		fmt.Fprintf(w, "    def:  %s\n", sid.DefStatement)
	}
	for i, u := range sid.Uses {
		if i == 0 {
			fmt.Fprintf(w, "    uses: %s\n", u)
		} else {
			fmt.Fprintf(w, "          %s\n", u)
		}
	}
}
