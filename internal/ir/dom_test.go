package ir

import (
	"testing"
)

// TestDomSingleBlock verifies that a single-block procedure has Idom=nil.
func TestDomSingleBlock(t *testing.T) {
	p := NewProcedure("p")

	ComputeDom(p)

	if p.Entry.Idom != nil {
		t.Errorf("entry Idom = %v, want nil", p.Entry.Idom)
	}
	if len(p.Entry.Dominees) != 0 {
		t.Errorf("entry Dominees = %d, want 0", len(p.Entry.Dominees))
	}
}

// TestDomLinearChain verifies: b0 → b1 → b2
func TestDomLinearChain(t *testing.T) {
	p := NewProcedure("p")
	b0 := p.Entry
	b1 := p.NewBlock("b1")
	b2 := p.NewBlock("b2")
	b0.AddSucc(b1)
	b1.AddSucc(b2)

	ComputeDom(p)

	if b1.Idom != b0 {
		t.Errorf("b1.Idom = %v, want %v", b1.Idom, b0)
	}
	if b2.Idom != b1 {
		t.Errorf("b2.Idom = %v, want %v", b2.Idom, b1)
	}
	if !Dominates(b0, b2) || Dominates(b2, b1) {
		t.Errorf("Dominates disagrees with the chain")
	}
}

// makeDiamond builds:
//
//	entry
//	├→ l ─┐
//	└→ r ─┘
//	   join
func makeDiamond() (p *Procedure, l, r, join *Block) {
	p = NewProcedure("diamond")
	l = p.NewBlock("l")
	r = p.NewBlock("r")
	join = p.NewBlock("join")
	p.Entry.AddSucc(l)
	p.Entry.AddSucc(r)
	l.AddSucc(join)
	r.AddSucc(join)
	return p, l, r, join
}

func TestDomDiamond(t *testing.T) {
	p, l, r, join := makeDiamond()

	ComputeDom(p)

	for _, b := range []*Block{l, r, join} {
		if b.Idom != p.Entry {
			t.Errorf("%v.Idom = %v, want entry", b, b.Idom)
		}
	}

	df := ComputeDomFrontier(p)
	assertDF(t, df, p.Entry, nil)
	assertDF(t, df, l, []*Block{join})
	assertDF(t, df, r, []*Block{join})
	assertDF(t, df, join, nil)
}

// TestDomLoop verifies:
//
//	entry → head → body
//	         ↑      │
//	         └──────┘
//	        head → exit
func TestDomLoop(t *testing.T) {
	p := NewProcedure("loop")
	head := p.NewBlock("head")
	body := p.NewBlock("body")
	exit := p.NewBlock("exit")
	p.Entry.AddSucc(head)
	head.AddSucc(body)
	head.AddSucc(exit)
	body.AddSucc(head)

	ComputeDom(p)

	if head.Idom != p.Entry {
		t.Errorf("head.Idom = %v, want entry", head.Idom)
	}
	if body.Idom != head || exit.Idom != head {
		t.Errorf("body.Idom = %v, exit.Idom = %v, want head", body.Idom, exit.Idom)
	}

	df := ComputeDomFrontier(p)
	assertDF(t, df, body, []*Block{head})
	assertDF(t, df, head, []*Block{head})
}

func TestRPOOrdering(t *testing.T) {
	p, _, _, join := makeDiamond()

	rpo := ReversePostOrder(p)

	if len(rpo) != 4 {
		t.Fatalf("RPO len = %d, want 4", len(rpo))
	}
	if rpo[0] != p.Entry {
		t.Errorf("RPO[0] = %v, want entry", rpo[0])
	}
	if rpo[3] != join {
		t.Errorf("RPO[3] = %v, want %v", rpo[3], join)
	}
}

func TestDomUnreachable(t *testing.T) {
	p := NewProcedure("p")
	b1 := p.NewBlock("dead")

	ComputeDom(p)

	if b1.Idom != nil {
		t.Errorf("unreachable b1.Idom = %v, want nil", b1.Idom)
	}
	if len(ReversePostOrder(p)) != 1 {
		t.Errorf("unreachable block should not appear in RPO")
	}
}

// assertDF checks that the dominance frontier of b equals the expected set.
func assertDF(t *testing.T, df map[*Block][]*Block, b *Block, want []*Block) {
	t.Helper()
	got := df[b]
	if len(got) != len(want) {
		t.Errorf("DF(%v) = %v (len %d), want %v (len %d)", b, got, len(got), want, len(want))
		return
	}
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("DF(%v) missing %v, got %v", b, w, got)
		}
	}
}
