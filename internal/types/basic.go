package types

// BasicKind describes the kind of basic type.
type BasicKind int

const (
	Invalid BasicKind = iota // invalid type

	Unknown // no information beyond the width of the storage
	Bool

	// Untyped machine words
	Word8
	Word16
	Word32
	Word64

	// Signed integers
	Int8
	Int16
	Int32
	Int64

	// Unsigned integers
	UInt8
	UInt16
	UInt32
	UInt64

	// Pointers of unknown referent
	Ptr32
	Ptr64

	// IEEE floating point
	Real32
	Real64
)

// BasicInfo describes properties of a basic type.
type BasicInfo int

const (
	IsBoolean BasicInfo = 1 << iota
	IsWord
	IsSigned
	IsUnsigned
	IsPointer
	IsReal
	IsInteger = IsSigned | IsUnsigned
	IsNumeric = IsInteger | IsReal
)

// Basic represents a primitive machine type.
type Basic struct {
	typ
	kind BasicKind
	info BasicInfo
	size int
	name string
}

// Kind returns the kind of the basic type.
func (b *Basic) Kind() BasicKind {
	return b.kind
}

// Info returns information about the basic type.
func (b *Basic) Info() BasicInfo {
	return b.info
}

// Name returns the name of the basic type.
func (b *Basic) Name() string {
	return b.name
}

// Size implements Type.
func (b *Basic) Size() int {
	return b.size
}

// String implements Type.
func (b *Basic) String() string {
	return b.name
}

// Typ holds the predeclared basic types, indexed by BasicKind.
// Typ[Invalid] is nil, representing an invalid type.
var Typ = []*Basic{
	Invalid: nil,
	Unknown: {kind: Unknown, size: 0, name: "unknown"},
	Bool:    {kind: Bool, info: IsBoolean, size: 1, name: "bool"},
	Word8:   {kind: Word8, info: IsWord, size: 1, name: "word8"},
	Word16:  {kind: Word16, info: IsWord, size: 2, name: "word16"},
	Word32:  {kind: Word32, info: IsWord, size: 4, name: "word32"},
	Word64:  {kind: Word64, info: IsWord, size: 8, name: "word64"},
	Int8:    {kind: Int8, info: IsSigned, size: 1, name: "int8"},
	Int16:   {kind: Int16, info: IsSigned, size: 2, name: "int16"},
	Int32:   {kind: Int32, info: IsSigned, size: 4, name: "int32"},
	Int64:   {kind: Int64, info: IsSigned, size: 8, name: "int64"},
	UInt8:   {kind: UInt8, info: IsUnsigned, size: 1, name: "uint8"},
	UInt16:  {kind: UInt16, info: IsUnsigned, size: 2, name: "uint16"},
	UInt32:  {kind: UInt32, info: IsUnsigned, size: 4, name: "uint32"},
	UInt64:  {kind: UInt64, info: IsUnsigned, size: 8, name: "uint64"},
	Ptr32:   {kind: Ptr32, info: IsPointer, size: 4, name: "ptr32"},
	Ptr64:   {kind: Ptr64, info: IsPointer, size: 8, name: "ptr64"},
	Real32:  {kind: Real32, info: IsReal, size: 4, name: "real32"},
	Real64:  {kind: Real64, info: IsReal, size: 8, name: "real64"},
}
