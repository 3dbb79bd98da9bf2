package ir

import (
	"fmt"
	"slices"
)

// ID is a unique identifier for Blocks within a Procedure.
type ID int32

// Block represents a basic block in the control flow graph. A block
// exclusively owns its ordered statement list.
type Block struct {
	// ID is a unique identifier within the containing Procedure.
	ID ID

	// Name is the label of the block.
	Name string

	// Address is the address of the first instruction of the block.
	Address uint64

	// Statements is the ordered list of statements in this block.
	Statements []*Statement

	// Succs lists the successor blocks in the CFG.
	Succs []*Block

	// Preds lists the predecessor blocks in the CFG. Phi arguments
	// correspond positionally to this list.
	Preds []*Block

	// Proc is the procedure containing this block.
	Proc *Procedure

	// Dominance tree fields, populated by ComputeDom.
	Idom     *Block   // immediate dominator
	Dominees []*Block // blocks immediately dominated by this block
}

// String returns the block label.
func (b *Block) String() string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("b%d", b.ID)
}

// AddSucc adds a successor block, updating both Succs and the successor's Preds.
func (b *Block) AddSucc(succ *Block) {
	b.Succs = append(b.Succs, succ)
	succ.Preds = append(succ.Preds, b)
}

// NumPreds returns the number of predecessor blocks.
func (b *Block) NumPreds() int { return len(b.Preds) }

// PredIndex returns the index of p in b.Preds, or -1.
func (b *Block) PredIndex(p *Block) int {
	return slices.Index(b.Preds, p)
}

// IndexOf returns the position of stm in the statement list, or -1.
func (b *Block) IndexOf(stm *Statement) int {
	return slices.Index(b.Statements, stm)
}

// NewStatement creates a statement at the block's address and appends it.
func (b *Block) NewStatement(instr Instruction) *Statement {
	stm := NewStatement(b.Address, instr, b)
	b.Statements = append(b.Statements, stm)
	return stm
}

// Append adds stm to the end of the block.
func (b *Block) Append(stm *Statement) {
	stm.Block = b
	b.Statements = append(b.Statements, stm)
}

// Insert places stm at position i.
func (b *Block) Insert(i int, stm *Statement) {
	stm.Block = b
	b.Statements = slices.Insert(b.Statements, i, stm)
}

// InsertBeforeTerminator places stm before the block's trailing branch or
// return, or at the end if the block falls through.
func (b *Block) InsertBeforeTerminator(stm *Statement) {
	n := len(b.Statements)
	if n > 0 && IsTerminator(b.Statements[n-1].Instruction) {
		b.Insert(n-1, stm)
		return
	}
	b.Append(stm)
}

// Remove deletes stm from the block. It reports whether stm was found.
func (b *Block) Remove(stm *Statement) bool {
	i := b.IndexOf(stm)
	if i < 0 {
		return false
	}
	b.Statements = slices.Delete(b.Statements, i, i+1)
	return true
}

// Phis returns the phi-assignment statements of the block in order.
func (b *Block) Phis() []*Statement {
	var phis []*Statement
	for _, stm := range b.Statements {
		if _, ok := stm.Instruction.(*PhiAssignment); ok {
			phis = append(phis, stm)
		}
	}
	return phis
}
