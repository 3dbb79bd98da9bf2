package passes

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/ssa"
)

// variable is one storage of a pre-SSA procedure.
type variable struct {
	orig      *ir.Identifier // version 0 identifier of the storage
	defBlocks []*ir.Block

	// global is set if some block reads the storage before defining it.
	// Phis are only placed for global variables.
	global bool
}

// Construct converts a procedure that is not yet in SSA form. Phi
// assignments are placed on the iterated dominance frontier of every
// storage's definitions and identifiers are renamed by a preorder walk of
// the dominator tree. A storage read before any definition reaches it gets
// a def instruction in the entry block.
//
// The procedure must not contain phi assignments.
func Construct(p *ir.Procedure) (*ssa.State, error) {
	for stm := range p.Statements() {
		if _, ok := stm.Instruction.(*ir.PhiAssignment); ok {
			return nil, errors.Errorf("%s: %s: %q: procedure already has phi assignments", p.Name, stm.Block, stm)
		}
	}

	ir.ComputeDom(p)
	df := ir.ComputeDomFrontier(p)

	vars, order := collectVariables(p)
	phiVar := insertPhis(p, vars, order, df)

	c := &constructor{
		st:     ssa.NewState(p),
		vars:   vars,
		phiVar: phiVar,
		stacks: make(map[string][]*ir.Identifier),
		seen:   make(map[*ir.Block]bool),
	}
	c.rename(p.Entry)
	for _, b := range p.Blocks {
		if !c.seen[b] {
			c.rename(b)
		}
	}

	logrus.WithField("proc", p.Name).Debugf("construct: %d blocks, %d variables, %d phis, %d identifiers",
		p.NumBlocks(), len(order), len(phiVar), c.st.Identifiers.Len())
	return c.st, nil
}

// collectVariables returns the storages of p keyed by storage key, and the
// keys in first-occurrence order.
func collectVariables(p *ir.Procedure) (map[string]*variable, []string) {
	vars := make(map[string]*variable)
	var order []string
	note := func(id *ir.Identifier) *variable {
		key := id.Storage.Key()
		v, ok := vars[key]
		if !ok {
			orig := id
			if id.Version != 0 {
				orig = id.WithVersion(0)
			}
			v = &variable{orig: orig}
			vars[key] = v
			order = append(order, key)
		}
		return v
	}

	for _, b := range p.Blocks {
		local := make(map[string]bool)
		for _, stm := range b.Statements {
			for _, id := range ssa.CollectUses(stm.Instruction) {
				v := note(id)
				if !local[id.Storage.Key()] {
					v.global = true
				}
			}
			for _, id := range ir.Defs(stm.Instruction) {
				v := note(id)
				local[id.Storage.Key()] = true
				if n := len(v.defBlocks); n == 0 || v.defBlocks[n-1] != b {
					v.defBlocks = append(v.defBlocks, b)
				}
			}
		}
	}
	return vars, order
}

// insertPhis places an empty phi assignment for each global variable at the
// iterated dominance frontier of its defining blocks. It returns the
// variable each phi statement belongs to.
func insertPhis(p *ir.Procedure, vars map[string]*variable, order []string, df map[*ir.Block][]*ir.Block) map[*ir.Statement]string {
	phiVar := make(map[*ir.Statement]string)
	placed := make(map[*ir.Block]int)

	for _, key := range order {
		v := vars[key]
		if !v.global {
			continue
		}
		for _, b := range iteratedDF(v.defBlocks, df) {
			phi := &ir.PhiAssignment{
				Dst: v.orig,
				Src: &ir.PhiFunction{Type: v.orig.Type, Args: make([]ir.PhiArg, len(b.Preds))},
			}
			stm := ir.NewStatement(b.Address, phi, b)
			b.Insert(placed[b], stm)
			placed[b]++
			phiVar[stm] = key
		}
	}
	return phiVar
}

// iteratedDF computes the iterated dominance frontier from a set of defining blocks.
func iteratedDF(defs []*ir.Block, df map[*ir.Block][]*ir.Block) []*ir.Block {
	var result []*ir.Block
	inResult := make(map[*ir.Block]bool)
	worklist := slices.Clone(defs)
	inWorklist := make(map[*ir.Block]bool, len(defs))
	for _, b := range defs {
		inWorklist[b] = true
	}

	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		for _, d := range df[b] {
			if !inResult[d] {
				inResult[d] = true
				result = append(result, d)
				if !inWorklist[d] {
					inWorklist[d] = true
					worklist = append(worklist, d)
				}
			}
		}
	}
	return result
}

type constructor struct {
	st     *ssa.State
	vars   map[string]*variable
	phiVar map[*ir.Statement]string
	stacks map[string][]*ir.Identifier // reaching definitions per storage
	seen   map[*ir.Block]bool
}

// current returns the definition of the storage key reaching the point
// being renamed.
func (c *constructor) current(key string) *ir.Identifier {
	if s := c.stacks[key]; len(s) > 0 {
		return s[len(s)-1]
	}
	return c.st.EnsureDefInstruction(c.vars[key].orig, c.st.Procedure.Entry).Ident
}

// define creates the record for a definition of id's storage by stm and
// makes it the reaching definition. A version 0 identifier of a def
// instruction keeps its name the first time it is seen.
func (c *constructor) define(id *ir.Identifier, stm *ir.Statement, keep bool, pushed *[]string) *ir.Identifier {
	key := id.Storage.Key()
	var sid *ssa.Identifier
	if keep && id.Version == 0 && !c.st.Identifiers.Contains(id) {
		sid = c.st.Identifiers.Add(id, stm, false)
	} else {
		sid = c.st.Identifiers.Add(c.vars[key].orig, stm, true)
	}
	sid.DefStatement = stm
	c.stacks[key] = append(c.stacks[key], sid.Ident)
	*pushed = append(*pushed, key)
	return sid.Ident
}

func (c *constructor) rename(b *ir.Block) {
	c.seen[b] = true
	var pushed []string

	for _, stm := range slices.Clone(b.Statements) {
		if _, ok := c.phiVar[stm]; ok {
			phi := stm.Instruction.(*ir.PhiAssignment)
			phi.Dst = c.define(phi.Dst, stm, false, &pushed)
			continue
		}

		for _, slot := range ir.UseSlots(stm.Instruction) {
			ir.ReplaceIdentifiers(slot, func(id *ir.Identifier) ir.Expr {
				return c.current(id.Storage.Key())
			})
		}
		c.st.AddUses(stm)

		switch in := stm.Instruction.(type) {
		case *ir.DefInstruction:
			in.Ident = c.define(in.Ident, stm, true, &pushed)
		case *ir.Assignment:
			in.Dst = c.define(in.Dst, stm, false, &pushed)
		case *ir.AliasAssignment:
			in.Dst = c.define(in.Dst, stm, false, &pushed)
		case *ir.CallInstruction:
			for i := range in.Defs {
				if id, ok := in.Defs[i].Expr.(*ir.Identifier); ok {
					in.Defs[i].Expr = c.define(id, stm, false, &pushed)
				}
			}
		}
	}

	done := make(map[*ir.Block]bool)
	for _, succ := range b.Succs {
		if done[succ] {
			continue
		}
		done[succ] = true
		c.fillPhis(b, succ)
	}

	for _, d := range b.Dominees {
		c.rename(d)
	}

	for i := len(pushed) - 1; i >= 0; i-- {
		key := pushed[i]
		c.stacks[key] = c.stacks[key][:len(c.stacks[key])-1]
	}
}

// fillPhis sets the arguments of succ's phis that flow in from b.
func (c *constructor) fillPhis(b, succ *ir.Block) {
	for i, pred := range succ.Preds {
		if pred != b {
			continue
		}
		for _, stm := range succ.Statements {
			key, ok := c.phiVar[stm]
			if !ok {
				continue
			}
			val := c.current(key)
			phi := stm.Instruction.(*ir.PhiAssignment)
			phi.Src.Args[i] = ir.PhiArg{Block: b, Value: val}
			c.st.AddExprUses(stm, val)
		}
	}
}
