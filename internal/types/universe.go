package types

// universe maps predeclared type names to their types.
var universe map[string]Type

func init() {
	universe = make(map[string]Type, len(Typ))
	for _, t := range Typ {
		if t != nil {
			universe[t.name] = t
		}
	}
}

// Lookup returns the predeclared type with the given name.
func Lookup(name string) (Type, bool) {
	t, ok := universe[name]
	return t, ok
}

// WordOfSize returns the untyped word type of the given byte size, or
// Unknown if no such word type exists.
func WordOfSize(size int) Type {
	switch size {
	case 1:
		return Typ[Word8]
	case 2:
		return Typ[Word16]
	case 4:
		return Typ[Word32]
	case 8:
		return Typ[Word64]
	}
	return Typ[Unknown]
}
