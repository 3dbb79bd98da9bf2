package ir

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Verify checks the structural integrity of a procedure's CFG and
// statement lists. It returns an error describing all violations found,
// or nil if valid. Def/use consistency is checked separately by the ssa
// package.
func Verify(p *Procedure) error {
	var errs []string

	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if p.Entry == nil {
		add("proc %s: entry block is nil", p.Name)
		return combineErrors(errs)
	}
	if len(p.Blocks) == 0 || p.Blocks[0] != p.Entry {
		add("proc %s: Blocks[0] is not the entry block", p.Name)
	}

	// 1. Entry block has no predecessors
	if len(p.Entry.Preds) != 0 {
		add("proc %s: entry block %s has %d predecessors, want 0",
			p.Name, p.Entry, len(p.Entry.Preds))
	}

	blockSet := make(map[*Block]bool, len(p.Blocks))
	for _, b := range p.Blocks {
		blockSet[b] = true
	}
	stmtSet := make(map[*Statement]*Block)

	for _, b := range p.Blocks {
		// 2. Block's Proc pointer matches
		if b.Proc != p {
			add("proc %s, %s: block Proc pointer mismatch", p.Name, b)
		}

		for i, stm := range b.Statements {
			// 3. A statement lives in exactly one block list
			if other, dup := stmtSet[stm]; dup {
				add("proc %s, %s: statement %q also appears in %s", p.Name, b, stm, other)
			}
			stmtSet[stm] = b

			// 4. Statement's Block pointer matches its containing block
			if stm.Block != b {
				add("proc %s, %s: statement %q Block pointer is %s, want %s",
					p.Name, b, stm, stm.Block, b)
			}
			if stm.Instruction == nil {
				add("proc %s, %s: statement %d has no instruction", p.Name, b, i)
				continue
			}

			switch in := stm.Instruction.(type) {
			case *PhiAssignment:
				// 5. Phi args count == Preds count
				if len(in.Src.Args) != b.NumPreds() {
					add("proc %s, %s: %q has %d args but block has %d preds",
						p.Name, b, stm, len(in.Src.Args), b.NumPreds())
				}
				for _, arg := range in.Src.Args {
					if arg.Block != nil && b.PredIndex(arg.Block) < 0 {
						add("proc %s, %s: %q has an argument from %s, which is not a predecessor",
							p.Name, b, stm, arg.Block)
					}
				}
			case *Branch:
				// 6. Branch target is a successor
				if !containsBlock(b.Succs, in.Target) {
					add("proc %s, %s: branch target %s is not a successor", p.Name, b, in.Target)
				}
			}

			// 7. Terminators only at the end
			if IsTerminator(stm.Instruction) && i != len(b.Statements)-1 {
				add("proc %s, %s: terminator %q is not the last statement", p.Name, b, stm)
			}

			for _, slot := range UseSlots(stm.Instruction) {
				if *slot == nil {
					add("proc %s, %s: %q has a nil operand", p.Name, b, stm)
				}
			}
		}

		// 8. Succs/Preds edge consistency
		for _, succ := range b.Succs {
			if !blockSet[succ] {
				add("proc %s, %s: successor %s not in procedure", p.Name, b, succ)
				continue
			}
			if !containsBlock(succ.Preds, b) {
				add("proc %s, %s: successor %s does not have %s as predecessor",
					p.Name, b, succ, b)
			}
		}
		for _, pred := range b.Preds {
			if !blockSet[pred] {
				add("proc %s, %s: predecessor %s not in procedure", p.Name, b, pred)
				continue
			}
			if !containsBlock(pred.Succs, b) {
				add("proc %s, %s: predecessor %s does not have %s as successor",
					p.Name, b, pred, b)
			}
		}
	}

	return combineErrors(errs)
}

// containsBlock checks whether bs contains b.
func containsBlock(bs []*Block, b *Block) bool {
	for _, x := range bs {
		if x == b {
			return true
		}
	}
	return false
}

// combineErrors creates an error from a list of error strings, or returns nil.
func combineErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Errorf("IR verification failed:\n  %s", strings.Join(errs, "\n  "))
}
