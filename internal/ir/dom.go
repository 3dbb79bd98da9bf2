package ir

// ReversePostOrder returns the blocks of p in reverse post-order,
// starting from p.Entry. Unreachable blocks are excluded.
func ReversePostOrder(p *Procedure) []*Block {
	visited := make(map[*Block]bool, len(p.Blocks))
	var order []*Block

	var dfs func(b *Block)
	dfs = func(b *Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			dfs(s)
		}
		order = append(order, b)
	}
	dfs(p.Entry)

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// ComputeDom computes the immediate dominator tree for p using
// Cooper, Harvey, and Kennedy's "A Simple, Fast Dominance Algorithm".
// It populates Block.Idom and Block.Dominees for all reachable blocks;
// unreachable blocks end up with a nil Idom.
func ComputeDom(p *Procedure) {
	rpo := ReversePostOrder(p)
	if len(rpo) == 0 {
		return
	}

	order := make(map[*Block]int, len(rpo))
	for i, b := range rpo {
		order[b] = i
	}

	intersect := func(b1, b2 *Block) *Block {
		for b1 != b2 {
			for order[b1] > order[b2] {
				b1 = b1.Idom
			}
			for order[b2] > order[b1] {
				b2 = b2.Idom
			}
		}
		return b1
	}

	for _, b := range p.Blocks {
		b.Idom = nil
		b.Dominees = nil
	}
	// The entry is its own dominator while iterating.
	entry := rpo[0]
	entry.Idom = entry

	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			var idom *Block
			for _, pred := range b.Preds {
				if pred.Idom == nil {
					continue
				}
				if idom == nil {
					idom = pred
				} else {
					idom = intersect(pred, idom)
				}
			}
			if idom != nil && b.Idom != idom {
				b.Idom = idom
				changed = true
			}
		}
	}
	entry.Idom = nil

	for _, b := range rpo {
		if b.Idom != nil {
			b.Idom.Dominees = append(b.Idom.Dominees, b)
		}
	}
}

// Dominates reports whether a dominates b. ComputeDom must have been
// called first.
func Dominates(a, b *Block) bool {
	for ; b != nil; b = b.Idom {
		if a == b {
			return true
		}
	}
	return false
}

// ComputeDomFrontier computes the dominance frontier for each block in p.
// ComputeDom must have been called first.
func ComputeDomFrontier(p *Procedure) map[*Block][]*Block {
	df := make(map[*Block][]*Block)
	for _, b := range p.Blocks {
		if len(b.Preds) < 2 {
			continue
		}
		for _, pred := range b.Preds {
			for runner := pred; runner != nil && runner != b.Idom; runner = runner.Idom {
				df[runner] = appendUnique(df[runner], b)
			}
		}
	}
	return df
}

// appendUnique appends b to list if not already present.
func appendUnique(list []*Block, b *Block) []*Block {
	for _, x := range list {
		if x == b {
			return list
		}
	}
	return append(list, b)
}
