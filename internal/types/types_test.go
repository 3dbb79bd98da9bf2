package types

import (
	"testing"
)

func TestBasicTypes(t *testing.T) {
	tests := []struct {
		kind BasicKind
		name string
		info BasicInfo
		size int
	}{
		{Bool, "bool", IsBoolean, 1},
		{Word16, "word16", IsWord, 2},
		{Word32, "word32", IsWord, 4},
		{Int32, "int32", IsSigned, 4},
		{UInt8, "uint8", IsUnsigned, 1},
		{Ptr32, "ptr32", IsPointer, 4},
		{Real64, "real64", IsReal, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := Typ[tt.kind]
			if typ == nil {
				t.Fatalf("Typ[%d] is nil", tt.kind)
			}
			if typ.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", typ.Kind(), tt.kind)
			}
			if typ.Info() != tt.info {
				t.Errorf("Info() = %v, want %v", typ.Info(), tt.info)
			}
			if typ.String() != tt.name {
				t.Errorf("String() = %q, want %q", typ.String(), tt.name)
			}
			if typ.Size() != tt.size {
				t.Errorf("Size() = %d, want %d", typ.Size(), tt.size)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"word8", "word32", "int64", "ptr32", "bool"} {
		typ, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) failed", name)
			continue
		}
		if typ.String() != name {
			t.Errorf("Lookup(%q).String() = %q", name, typ.String())
		}
	}
	if _, ok := Lookup("int"); ok {
		t.Errorf("Lookup(int) should fail")
	}
}

func TestPointerType(t *testing.T) {
	ptr := NewPointer(Typ[Int16], 4)

	if ptr.Elem() != Typ[Int16] {
		t.Errorf("Elem() != expected base type")
	}
	if ptr.String() != "ptr32(int16)" {
		t.Errorf("String() = %q, want %q", ptr.String(), "ptr32(int16)")
	}
	if ptr.Size() != 4 {
		t.Errorf("Size() = %d, want 4", ptr.Size())
	}
}

func TestIdentical(t *testing.T) {
	if !Identical(Typ[Word32], Typ[Word32]) {
		t.Errorf("word32 should be identical to itself")
	}
	if Identical(Typ[Word32], Typ[Int32]) {
		t.Errorf("word32 and int32 should differ")
	}
	if !Identical(NewPointer(Typ[Bool], 4), NewPointer(Typ[Bool], 4)) {
		t.Errorf("structurally equal pointers should be identical")
	}
	if Identical(NewPointer(Typ[Bool], 4), NewPointer(Typ[Bool], 8)) {
		t.Errorf("pointers of different width should differ")
	}
}

func TestWordOfSize(t *testing.T) {
	if got := WordOfSize(2); got != Typ[Word16] {
		t.Errorf("WordOfSize(2) = %v, want word16", got)
	}
	if got := WordOfSize(3); got != Typ[Unknown] {
		t.Errorf("WordOfSize(3) = %v, want unknown", got)
	}
	if got := WordOfSize(8); got != Typ[Word64] {
		t.Errorf("WordOfSize(8) = %v, want word64", got)
	}
}
