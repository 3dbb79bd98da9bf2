package ssa

import (
	"iter"
	"slices"

	"github.com/you-not-fish/dessa/internal/ir"
)

// Identifiers maps identifier keys to their SSA records. Records are kept
// in insertion order so enumeration is deterministic.
type Identifiers struct {
	byKey    map[ir.IdentKey]*Identifier
	order    []*Identifier
	versions map[string]int // storage key -> highest version seen
}

// NewIdentifiers returns an empty table.
func NewIdentifiers() *Identifiers {
	return &Identifiers{
		byKey:    make(map[ir.IdentKey]*Identifier),
		versions: make(map[string]int),
	}
}

// Add returns the record for id.
//
// If newVersion is false, id itself is registered: an existing record for
// id's key is returned unchanged, otherwise a record with DefStatement def
// is created.
//
// If newVersion is true, a fresh version of id's storage is minted and a
// new record is created for it with Original set to id's original.
//
// The original of a versioned identifier is the version 0 identifier of
// its storage.
func (t *Identifiers) Add(id *ir.Identifier, def *ir.Statement, newVersion bool) *Identifier {
	if !newVersion {
		if sid, ok := t.byKey[id.Key()]; ok {
			return sid
		}
		return t.insert(&Identifier{Ident: id, Original: t.original(id), DefStatement: def})
	}

	var orig *ir.Identifier
	if sid, ok := t.byKey[id.Key()]; ok {
		orig = sid.Original
	} else {
		orig = t.original(id)
	}
	stg := id.Storage.Key()
	v := t.versions[stg] + 1
	return t.insert(&Identifier{Ident: id.WithVersion(v), Original: orig, DefStatement: def})
}

func (t *Identifiers) original(id *ir.Identifier) *ir.Identifier {
	if id.Version == 0 {
		return id
	}
	if sid, ok := t.byKey[ir.IdentKey{Storage: id.Storage.Key()}]; ok {
		return sid.Ident
	}
	return id.WithVersion(0)
}

func (t *Identifiers) insert(sid *Identifier) *Identifier {
	key := sid.Ident.Key()
	t.byKey[key] = sid
	t.order = append(t.order, sid)
	if key.Version > t.versions[key.Storage] {
		t.versions[key.Storage] = key.Version
	}
	return sid
}

// Get returns the record for id, if any.
func (t *Identifiers) Get(id *ir.Identifier) (*Identifier, bool) {
	sid, ok := t.byKey[id.Key()]
	return sid, ok
}

// Lookup returns the record with the given key, or nil.
func (t *Identifiers) Lookup(key ir.IdentKey) *Identifier {
	return t.byKey[key]
}

// Contains reports whether id has a record.
func (t *Identifiers) Contains(id *ir.Identifier) bool {
	_, ok := t.byKey[id.Key()]
	return ok
}

// Remove drops the record for id. Version numbering is not reused.
func (t *Identifiers) Remove(id *ir.Identifier) bool {
	sid, ok := t.byKey[id.Key()]
	if !ok {
		return false
	}
	delete(t.byKey, id.Key())
	t.order = slices.DeleteFunc(t.order, func(x *Identifier) bool { return x == sid })
	return true
}

// Len returns the number of records.
func (t *Identifiers) Len() int { return len(t.order) }

// All iterates over the records in insertion order. The table must not be
// modified during iteration; use Snapshot for that.
func (t *Identifiers) All() iter.Seq[*Identifier] {
	return func(yield func(*Identifier) bool) {
		for _, sid := range t.order {
			if !yield(sid) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the records in insertion order.
func (t *Identifiers) Snapshot() []*Identifier {
	return slices.Clone(t.order)
}

// Prune drops every record that has neither a definition nor a use and
// returns the number of records removed.
func (t *Identifiers) Prune() int {
	n := 0
	for _, sid := range t.Snapshot() {
		if sid.DefStatement == nil && sid.IsUnused() {
			t.Remove(sid.Ident)
			n++
		}
	}
	return n
}
