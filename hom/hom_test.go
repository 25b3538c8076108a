package hom

import (
	"testing"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/store"
	"github.com/datalogplus/reasoner/subst"
	"github.com/datalogplus/reasoner/term"
)

func TestSearchJoinsTwoAtoms(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	parent := sess.InternPredicate("parent", 2)
	s := store.New()
	alice := sess.InternConstant("/alice")
	bob := sess.InternConstant("/bob")
	carol := sess.InternConstant("/carol")
	s.Add(parent, []term.Term{alice, bob})
	s.Add(parent, []term.Term{bob, carol})

	binder := func(p term.Predicate) (data.ReadableData, bool) {
		if p.Equals(parent) {
			return s.Relation(p), true
		}
		return nil, false
	}

	x := sess.InternVariable("X")
	y := sess.InternVariable("Y")
	z := sess.InternVariable("Z")
	atoms := []formula.Atom{
		formula.NewAtom(parent, x, y),
		formula.NewAtom(parent, y, z),
	}

	var results []subst.Substitution
	err := Search(atoms, binder, StaticOrder, subst.New(), func(s subst.Substitution) error {
		results = append(results, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() produced %d solutions, want 1", len(results))
	}
	gx, _ := results[0].Get(x)
	gz, _ := results[0].Get(z)
	if !gx.Equals(alice) || !gz.Equals(carol) {
		t.Errorf("Search() solution = X:%v Z:%v, want X:/alice Z:/carol", gx, gz)
	}
}

func TestSearchStopsEarly(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	s := store.New()
	for i := 0; i < 5; i++ {
		s.Add(p, []term.Term{sess.InternConstant(string(rune('a' + i)))})
	}
	binder := func(pred term.Predicate) (data.ReadableData, bool) {
		if pred.Equals(p) {
			return s.Relation(pred), true
		}
		return nil, false
	}
	x := sess.InternVariable("X")
	atoms := []formula.Atom{formula.NewAtom(p, x)}

	count := 0
	err := Search(atoms, binder, StaticOrder, subst.New(), func(s subst.Substitution) error {
		count++
		return Stop
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if count != 1 {
		t.Errorf("Search() emitted %d times after Stop, want 1", count)
	}
}

func TestDynamicByEstimatedBoundOrdersBySelectivity(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	big := sess.InternPredicate("big", 1)
	small := sess.InternPredicate("small", 1)
	s := store.New()
	for i := 0; i < 100; i++ {
		s.Add(big, []term.Term{sess.InternConstant(string(rune(i)))})
	}
	s.Add(small, []term.Term{sess.InternConstant(string(rune(0)))})

	binder := func(p term.Predicate) (data.ReadableData, bool) {
		switch {
		case p.Equals(big):
			return s.Relation(big), true
		case p.Equals(small):
			return s.Relation(small), true
		}
		return nil, false
	}
	x := sess.InternVariable("X")
	atoms := []formula.Atom{formula.NewAtom(big, x), formula.NewAtom(small, x)}
	ordered := DynamicByEstimatedBound(atoms, binder)
	if !ordered[0].Predicate.Equals(small) {
		t.Errorf("DynamicByEstimatedBound() put %v first, want small/1 first", ordered[0].Predicate)
	}
}
