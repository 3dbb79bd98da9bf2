package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/you-not-fish/dessa/internal/types"
)

// Identifier names one version of a value living in a storage.
// Version 0 is the pre-SSA (or procedure input) version.
type Identifier struct {
	Name    string
	Type    types.Type
	Storage Storage
	Version int
}

// IdentKey is the structural identity of an identifier: its storage and
// version. Distinct *Identifier objects with equal keys denote the same
// SSA value.
type IdentKey struct {
	Storage string
	Version int
}

// String renders the key for diagnostics.
func (k IdentKey) String() string {
	return fmt.Sprintf("%s#%d", k.Storage, k.Version)
}

// NewIdentifier creates a version-0 identifier.
func NewIdentifier(name string, typ types.Type, stg Storage) *Identifier {
	return &Identifier{Name: name, Type: typ, Storage: stg}
}

// Key returns the structural identity of id.
func (id *Identifier) Key() IdentKey {
	return IdentKey{Storage: id.Storage.Key(), Version: id.Version}
}

// BaseName returns the name without the version suffix.
func (id *Identifier) BaseName() string {
	if id.Version == 0 {
		return id.Name
	}
	return strings.TrimSuffix(id.Name, "_"+strconv.Itoa(id.Version))
}

// WithVersion returns a new identifier for version v of the same storage.
func (id *Identifier) WithVersion(v int) *Identifier {
	name := id.BaseName()
	if v != 0 {
		name += "_" + strconv.Itoa(v)
	}
	return &Identifier{Name: name, Type: id.Type, Storage: id.Storage, Version: v}
}

// SplitVersion splits a printed identifier name such as "r1_3" into its
// base name and version. Names without a numeric suffix have version 0.
func SplitVersion(name string) (string, int) {
	i := strings.LastIndexByte(name, '_')
	if i <= 0 || i == len(name)-1 {
		return name, 0
	}
	v, err := strconv.Atoi(name[i+1:])
	if err != nil || v <= 0 {
		return name, 0
	}
	return name[:i], v
}

// DataType implements Expr.
func (id *Identifier) DataType() types.Type { return id.Type }

func (id *Identifier) String() string { return id.Name }

func (*Identifier) exprNode() {}
