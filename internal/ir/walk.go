package ir

// Inspect traverses an expression tree in depth-first pre-order. It calls
// f(e) for each node; if f returns false, the children of e are skipped.
// Nil expressions are ignored.
func Inspect(e Expr, f func(Expr) bool) {
	if e == nil || !f(e) {
		return
	}
	switch e := e.(type) {
	case *BinaryExpr:
		Inspect(e.Left, f)
		Inspect(e.Right, f)
	case *UnaryExpr:
		Inspect(e.X, f)
	case *MemoryAccess:
		Inspect(e.Addr, f)
	case *Cast:
		Inspect(e.X, f)
	case *PhiFunction:
		for _, a := range e.Args {
			Inspect(a.Value, f)
		}
	case *Identifier, *Constant:
		// leaves
	}
}

// UseSlots returns addressable references to every top-level expression
// the instruction reads. Callers may replace the expression in a slot.
func UseSlots(instr Instruction) []*Expr {
	switch in := instr.(type) {
	case *DefInstruction:
		return nil
	case *Assignment:
		return []*Expr{&in.Src}
	case *PhiAssignment:
		slots := make([]*Expr, len(in.Src.Args))
		for i := range in.Src.Args {
			slots[i] = &in.Src.Args[i].Value
		}
		return slots
	case *AliasAssignment:
		return []*Expr{&in.Src}
	case *UseInstruction:
		return []*Expr{&in.Expr}
	case *CallInstruction:
		slots := []*Expr{&in.Callee}
		for i := range in.Uses {
			slots = append(slots, &in.Uses[i].Expr)
		}
		for i := range in.Defs {
			// Only a non-identifier output binding reads anything.
			if _, ok := in.Defs[i].Expr.(*Identifier); !ok {
				slots = append(slots, &in.Defs[i].Expr)
			}
		}
		return slots
	case *Store:
		return []*Expr{&in.Dst.Addr, &in.Src}
	case *Branch:
		return []*Expr{&in.Cond}
	case *Return:
		if in.Expr == nil {
			return nil
		}
		return []*Expr{&in.Expr}
	}
	return nil
}

// Defs returns the identifiers an instruction defines.
func Defs(instr Instruction) []*Identifier {
	switch in := instr.(type) {
	case *DefInstruction:
		return []*Identifier{in.Ident}
	case *Assignment:
		return []*Identifier{in.Dst}
	case *PhiAssignment:
		return []*Identifier{in.Dst}
	case *AliasAssignment:
		return []*Identifier{in.Dst}
	case *CallInstruction:
		var ids []*Identifier
		for _, b := range in.Defs {
			if id, ok := b.Expr.(*Identifier); ok {
				ids = append(ids, id)
			}
		}
		return ids
	}
	return nil
}

// ReplaceIdentifiers rewrites the expression in slot, substituting every
// identifier node for which f returns a non-nil expression.
func ReplaceIdentifiers(slot *Expr, f func(*Identifier) Expr) {
	*slot = replaceIdents(*slot, f)
}

func replaceIdents(e Expr, f func(*Identifier) Expr) Expr {
	switch x := e.(type) {
	case *Identifier:
		if r := f(x); r != nil {
			return r
		}
	case *BinaryExpr:
		x.Left = replaceIdents(x.Left, f)
		x.Right = replaceIdents(x.Right, f)
	case *UnaryExpr:
		x.X = replaceIdents(x.X, f)
	case *MemoryAccess:
		x.Addr = replaceIdents(x.Addr, f)
	case *Cast:
		x.X = replaceIdents(x.X, f)
	case *PhiFunction:
		for i := range x.Args {
			x.Args[i].Value = replaceIdents(x.Args[i].Value, f)
		}
	}
	return e
}
