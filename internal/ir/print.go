package ir

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Fprint writes the textual form of a procedure to w. The output can be
// read back with the irtext package.
//
// Format:
//
//	proc name
//	  reg r1 word32
//	  block entry
//	    def r1
//	    r1_1 = r1 + 0x4
//	  block l1 <- entry l2
//	    r1_2 = phi(r1_1, r1_3)
//	    return r1_2
func Fprint(w io.Writer, p *Procedure) {
	fmt.Fprintf(w, "proc %s\n", p.Name)

	names := fprintDecls(w, p)
	for _, b := range p.Blocks {
		fprintBlock(w, b, names)
	}
}

// fprintDecls writes one storage declaration per distinct storage, in order
// of first occurrence, and returns the declared name of each storage key.
func fprintDecls(w io.Writer, p *Procedure) map[string]string {
	names := make(map[string]string)
	declare := func(id *Identifier) {
		key := id.Storage.Key()
		if _, ok := names[key]; ok {
			return
		}
		name := id.BaseName()
		names[key] = name
		switch s := id.Storage.(type) {
		case StackSlot:
			fmt.Fprintf(w, "  stack %s %d %s\n", name, s.Offset, id.Type)
		case Sequence:
			elems := make([]string, len(s.Elements))
			for i, e := range s.Elements {
				elems[i] = e.String()
			}
			fmt.Fprintf(w, "  seq %s %s %s\n", name, strings.Join(elems, " "), id.Type)
		default:
			fmt.Fprintf(w, "  %s %s %s\n", id.Storage.Kind(), name, id.Type)
		}
	}
	for stm := range p.Statements() {
		for _, id := range Defs(stm.Instruction) {
			declare(id)
		}
		for _, slot := range UseSlots(stm.Instruction) {
			Inspect(*slot, func(e Expr) bool {
				if id, ok := e.(*Identifier); ok {
					declare(id)
				}
				return true
			})
		}
	}
	return names
}

// fprintBlock writes a single block to w.
func fprintBlock(w io.Writer, b *Block, names map[string]string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  block %s", b)
	if b.Address != 0 {
		fmt.Fprintf(&sb, " @0x%X", b.Address)
	}
	if len(b.Preds) > 0 {
		sb.WriteString(" <-")
		for _, p := range b.Preds {
			sb.WriteString(" " + p.String())
		}
	}
	fmt.Fprintln(w, sb.String())

	for _, stm := range b.Statements {
		fmt.Fprintf(w, "    %s\n", formatInstruction(stm.Instruction, names))
	}
}

// formatInstruction formats an instruction, naming call binding storages
// by their declared names.
func formatInstruction(instr Instruction, names map[string]string) string {
	call, ok := instr.(*CallInstruction)
	if !ok {
		return instr.String()
	}
	var sb strings.Builder
	sb.WriteString("call " + call.Callee.String())
	bindings := func(label string, bs []CallBinding) {
		if len(bs) == 0 {
			return
		}
		sb.WriteString(" " + label + " ")
		for i, b := range bs {
			if i > 0 {
				sb.WriteString(", ")
			}
			name, ok := names[b.Storage.Key()]
			if !ok {
				name = b.Storage.String()
			}
			sb.WriteString(name + ":" + b.Expr.String())
		}
	}
	bindings("uses", call.Uses)
	bindings("defs", call.Defs)
	return sb.String()
}

// Sprint returns the textual form of a procedure as a string.
func Sprint(p *Procedure) string {
	var sb strings.Builder
	Fprint(&sb, p)
	return sb.String()
}

// Print writes the textual form of a procedure to stdout.
func Print(p *Procedure) {
	Fprint(os.Stdout, p)
}
