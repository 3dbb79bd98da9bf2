package ir

import (
	"fmt"
	"strings"
)

// StorageKind classifies where a value lives.
type StorageKind int

const (
	StorageInvalid StorageKind = iota
	StorageRegister
	StorageStack
	StorageSequence
	StorageFlags
	StorageTemporary
	StorageMemory
)

var storageKindNames = [...]string{
	StorageInvalid:   "invalid",
	StorageRegister:  "reg",
	StorageStack:     "stack",
	StorageSequence:  "seq",
	StorageFlags:     "flags",
	StorageTemporary: "temp",
	StorageMemory:    "mem",
}

// String returns the declaration keyword of the storage kind.
func (k StorageKind) String() string {
	if int(k) < len(storageKindNames) {
		return storageKindNames[k]
	}
	return "unknown"
}

// Storage is an abstract location a value can live in.
// Two storages are the same location iff their keys are equal.
type Storage interface {
	Kind() StorageKind

	// Key returns the canonical structural identity of the storage.
	Key() string

	String() string
}

// Register is a named machine register.
type Register struct {
	Name string
}

func (r Register) Kind() StorageKind { return StorageRegister }
func (r Register) Key() string       { return "r:" + r.Name }
func (r Register) String() string    { return r.Name }

// StackSlot is a frame-relative stack location. Negative offsets are
// locals, positive offsets are incoming arguments.
type StackSlot struct {
	Offset int
}

func (s StackSlot) Kind() StorageKind { return StorageStack }
func (s StackSlot) Key() string       { return fmt.Sprintf("s:%d", s.Offset) }
func (s StackSlot) String() string    { return fmt.Sprintf("Stack[%d]", s.Offset) }

// Sequence is the concatenation of other storages, most significant first
// (e.g. dx:ax).
type Sequence struct {
	Elements []Storage
}

func (s Sequence) Kind() StorageKind { return StorageSequence }

func (s Sequence) Key() string {
	keys := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		keys[i] = e.Key()
	}
	return "seq(" + strings.Join(keys, ",") + ")"
}

func (s Sequence) String() string {
	names := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		names[i] = e.String()
	}
	return strings.Join(names, ":")
}

// FlagGroup is a set of condition-code bits treated as one value.
type FlagGroup struct {
	Name string
}

func (f FlagGroup) Kind() StorageKind { return StorageFlags }
func (f FlagGroup) Key() string       { return "f:" + f.Name }
func (f FlagGroup) String() string    { return f.Name }

// Temporary is a compiler-introduced location with no machine counterpart.
type Temporary struct {
	Name string
}

func (t Temporary) Kind() StorageKind { return StorageTemporary }
func (t Temporary) Key() string       { return "t:" + t.Name }
func (t Temporary) String() string    { return t.Name }

// MemoryStorage is the global memory store.
type MemoryStorage struct{}

func (MemoryStorage) Kind() StorageKind { return StorageMemory }
func (MemoryStorage) Key() string       { return "mem" }
func (MemoryStorage) String() string    { return "Mem" }

// SameStorage reports whether a and b denote the same location.
func SameStorage(a, b Storage) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}
