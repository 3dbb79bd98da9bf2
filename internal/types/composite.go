package types

import "fmt"

// Pointer represents a pointer type with a known referent.
type Pointer struct {
	typ
	elem Type
	size int // width of the pointer itself in bytes
}

// NewPointer creates a new pointer type of the given width.
func NewPointer(elem Type, size int) *Pointer {
	return &Pointer{elem: elem, size: size}
}

// Elem returns the type the pointer refers to.
func (p *Pointer) Elem() Type {
	return p.elem
}

// Size implements Type.
func (p *Pointer) Size() int {
	return p.size
}

// String implements Type.
func (p *Pointer) String() string {
	return fmt.Sprintf("ptr%d(%s)", p.size*8, p.elem)
}
