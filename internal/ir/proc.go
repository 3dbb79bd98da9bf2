// Package ir defines the decompiler's intermediate representation: procedures
// made of basic blocks holding ordered, mutable statement lists, and the
// storages, identifiers and expressions the statements operate on.
package ir

import "iter"

// Procedure is a decompiled procedure: a control flow graph of Blocks,
// each holding Statements.
type Procedure struct {
	// Name is the procedure name.
	Name string

	// Blocks is the list of basic blocks. Blocks[0] is always the entry block.
	Blocks []*Block

	// Entry is the entry block (same as Blocks[0]).
	Entry *Block

	// nextBlockID is the next available block ID.
	nextBlockID ID
}

// NewProcedure creates a new procedure with the given name.
// An entry block named "entry" is automatically created.
func NewProcedure(name string) *Procedure {
	p := &Procedure{Name: name}
	p.Entry = p.NewBlock("entry")
	return p
}

// NewBlock creates a new basic block and appends it to the procedure.
func (p *Procedure) NewBlock(name string) *Block {
	b := &Block{
		ID:   p.nextBlockID,
		Name: name,
		Proc: p,
	}
	p.nextBlockID++
	p.Blocks = append(p.Blocks, b)
	return b
}

// Block returns the block with the given name, or nil.
func (p *Procedure) Block(name string) *Block {
	for _, b := range p.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Statements iterates over every statement of the procedure in block
// order. The procedure must not be modified during iteration.
func (p *Procedure) Statements() iter.Seq[*Statement] {
	return func(yield func(*Statement) bool) {
		for _, b := range p.Blocks {
			for _, stm := range b.Statements {
				if !yield(stm) {
					return
				}
			}
		}
	}
}

// NumBlocks returns the number of blocks in the procedure.
func (p *Procedure) NumBlocks() int { return len(p.Blocks) }

// NumStatements returns the total number of statements across all blocks.
func (p *Procedure) NumStatements() int {
	n := 0
	for _, b := range p.Blocks {
		n += len(b.Statements)
	}
	return n
}
