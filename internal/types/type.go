// Package types describes the machine-level data types carried by
// identifiers and constants in the decompiler IR.
package types

// Type is the interface implemented by all types.
type Type interface {
	// Size returns the size of a value of this type in bytes.
	Size() int

	// String returns a human-readable representation of the type.
	String() string

	// aType is a marker method to restrict implementations to this package.
	aType()
}

// typ is a base struct for all type implementations.
type typ struct{}

func (typ) aType() {}
