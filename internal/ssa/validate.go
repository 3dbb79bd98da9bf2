package ssa

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"

	"github.com/you-not-fish/dessa/internal/ir"
)

// ViolationKind classifies a def/use inconsistency.
type ViolationKind int

const (
	// DeadUse: a use list names a statement that is not in the procedure.
	DeadUse ViolationKind = iota + 1
	// ExtraUse: the table records more uses by a statement than it makes.
	ExtraUse
	// MissingUse: a statement makes more uses than the table records.
	MissingUse
	// DuplicateDef: two statements define the same identifier.
	DuplicateDef
	// MissingDef: the record has no definition but a statement defines it.
	MissingDef
	// WrongDef: the record's definition is not the defining statement.
	WrongDef
	// UntrackedDef: a statement defines an identifier the table lacks.
	UntrackedDef
)

var violationKindNames = [...]string{
	DeadUse:      "DeadUse",
	ExtraUse:     "ExtraUse",
	MissingUse:   "MissingUse",
	DuplicateDef: "DuplicateDef",
	MissingDef:   "MissingDef",
	WrongDef:     "WrongDef",
	UntrackedDef: "UntrackedDef",
}

func (k ViolationKind) String() string {
	if k > 0 && int(k) < len(violationKindNames) {
		return violationKindNames[k]
	}
	return fmt.Sprintf("ViolationKind(%d)", int(k))
}

// Violation describes one inconsistency between the identifier table and
// the procedure.
type Violation struct {
	Kind  ViolationKind
	Proc  string
	Ident *ir.Identifier

	// Statement is the statement the violation is about. For DuplicateDef
	// it is the later definition and Other the earlier one; for WrongDef
	// Statement is the recorded definition and Other the actual one.
	Statement *ir.Statement
	Other     *ir.Statement

	// Recorded and Actual are use counts for ExtraUse and MissingUse.
	Recorded int
	Actual   int
}

func stmtString(stm *ir.Statement) string {
	if stm == nil {
		return "<nil>"
	}
	return stm.String()
}

func (v Violation) Error() string {
	switch v.Kind {
	case DeadUse:
		return fmt.Sprintf("%s: there is no %s use (%s) in procedure statements list",
			v.Proc, v.Ident, stmtString(v.Statement))
	case ExtraUse:
		return fmt.Sprintf("%s: incorrect %s id in %s:%s uses (recorded %d, actual %d)",
			v.Proc, v.Ident, v.Statement.Block, v.Statement, v.Recorded, v.Actual)
	case MissingUse:
		return fmt.Sprintf("%s: there is no %s id in %s:%s uses (recorded %d, actual %d)",
			v.Proc, v.Ident, v.Statement.Block, v.Statement, v.Recorded, v.Actual)
	case DuplicateDef:
		return fmt.Sprintf("%s: multiple definitions for %s (%s and %s)",
			v.Proc, v.Ident, stmtString(v.Statement), stmtString(v.Other))
	case MissingDef, WrongDef:
		return fmt.Sprintf("%s: incorrect definition for %s(%s). Should be %s",
			v.Proc, v.Ident, stmtString(v.Statement), stmtString(v.Other))
	case UntrackedDef:
		return fmt.Sprintf("%s: there is no %s(%s) in the ssa identifiers",
			v.Proc, v.Ident, stmtString(v.Statement))
	}
	return fmt.Sprintf("%s: %s %s", v.Proc, v.Kind, v.Ident)
}

// useCount is an identifier together with a number of occurrences.
type useCount struct {
	id *ir.Identifier
	n  int
}

// Validate recomputes definitions and uses from the procedure and reports
// every disagreement with the identifier table to report. It does not
// stop at the first violation and does not modify anything.
func (s *State) Validate(report func(Violation)) {
	s.validateUses(report)
	s.validateDefinitions(report)
}

// Check runs Validate and combines all violations into one error, or
// returns nil if the state is consistent.
func (s *State) Check() error {
	var msgs []string
	s.Validate(func(v Violation) {
		msgs = append(msgs, v.Error())
	})
	if len(msgs) == 0 {
		return nil
	}
	return errors.Errorf("SSA validation failed:\n  %s", strings.Join(msgs, "\n  "))
}

// Violations returns every violation Validate reports.
func (s *State) Violations() []Violation {
	var vs []Violation
	s.Validate(func(v Violation) { vs = append(vs, v) })
	return vs
}

func (s *State) validateUses(report func(Violation)) {
	p := s.Procedure

	live := mapset.NewThreadUnsafeSet[*ir.Statement]()
	for stm := range p.Statements() {
		live.Add(stm)
	}

	// Recorded use counts per statement, and dead uses.
	stored := make(map[*ir.Statement]map[ir.IdentKey]*useCount)
	for sid := range s.Identifiers.All() {
		dead := mapset.NewThreadUnsafeSet[*ir.Statement]()
		for _, u := range sid.Uses {
			if !live.Contains(u) {
				if dead.Add(u) {
					report(Violation{Kind: DeadUse, Proc: p.Name, Ident: sid.Ident, Statement: u})
				}
				continue
			}
			m := stored[u]
			if m == nil {
				m = make(map[ir.IdentKey]*useCount)
				stored[u] = m
			}
			key := sid.Ident.Key()
			if m[key] == nil {
				m[key] = &useCount{id: sid.Ident}
			}
			m[key].n++
		}
	}

	for stm := range p.Statements() {
		actual := CountUses(stm.Instruction)
		recorded := stored[stm]

		for _, key := range sortedKeys(recorded) {
			r := recorded[key]
			if actual[key] < r.n {
				report(Violation{Kind: ExtraUse, Proc: p.Name, Ident: r.id, Statement: stm,
					Recorded: r.n, Actual: actual[key]})
			}
		}
		for _, key := range sortedKeys(actual) {
			if r := recorded[key]; countOf(r) < actual[key] {
				report(Violation{Kind: MissingUse, Proc: p.Name, Ident: s.usedIdent(stm, key), Statement: stm,
					Recorded: countOf(r), Actual: actual[key]})
			}
		}
	}
}

func (s *State) validateDefinitions(report func(Violation)) {
	p := s.Procedure

	actualDefs := make(map[ir.IdentKey]*ir.Statement)
	defIdents := make(map[ir.IdentKey]*ir.Identifier)
	var order []ir.IdentKey
	duplicated := make(map[ir.IdentKey]bool)
	for stm := range p.Statements() {
		for _, id := range CollectDefinitions(stm.Instruction) {
			key := id.Key()
			if first, ok := actualDefs[key]; ok {
				duplicated[key] = true
				report(Violation{Kind: DuplicateDef, Proc: p.Name, Ident: id, Statement: stm, Other: first})
				continue
			}
			actualDefs[key] = stm
			defIdents[key] = id
			order = append(order, key)
		}
	}

	for sid := range s.Identifiers.All() {
		key := sid.Ident.Key()
		if duplicated[key] {
			continue
		}
		actual := actualDefs[key]
		if sid.DefStatement == actual {
			continue
		}
		kind := WrongDef
		if sid.DefStatement == nil {
			kind = MissingDef
		}
		report(Violation{Kind: kind, Proc: p.Name, Ident: sid.Ident, Statement: sid.DefStatement, Other: actual})
	}

	for _, key := range order {
		if s.Identifiers.Lookup(key) == nil {
			report(Violation{Kind: UntrackedDef, Proc: p.Name, Ident: defIdents[key], Statement: actualDefs[key]})
		}
	}
}

func countOf(u *useCount) int {
	if u == nil {
		return 0
	}
	return u.n
}

// usedIdent returns the identifier with the given key that stm reads.
func (s *State) usedIdent(stm *ir.Statement, key ir.IdentKey) *ir.Identifier {
	if sid := s.Identifiers.Lookup(key); sid != nil {
		return sid.Ident
	}
	for _, id := range CollectUses(stm.Instruction) {
		if id.Key() == key {
			return id
		}
	}
	return nil
}

func sortedKeys[V any](m map[ir.IdentKey]V) []ir.IdentKey {
	keys := make([]ir.IdentKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b ir.IdentKey) int {
		if c := cmp.Compare(a.Storage, b.Storage); c != 0 {
			return c
		}
		return cmp.Compare(a.Version, b.Version)
	})
	return keys
}
