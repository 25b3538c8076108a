package store

import (
	"testing"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/term"
)

func TestAddAndContains(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	s := New()
	p := sess.InternPredicate("parent", 2)
	alice := sess.InternConstant("/alice")
	bob := sess.InternConstant("/bob")

	if !s.Add(p, []term.Term{alice, bob}) {
		t.Fatalf("Add() = false on first insert, want true")
	}
	if s.Add(p, []term.Term{alice, bob}) {
		t.Errorf("Add() = true on duplicate insert, want false")
	}
	if !s.Contains(p, []term.Term{alice, bob}) {
		t.Errorf("Contains() = false, want true")
	}
}

func TestEvaluateWithBoundPosition(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	s := New()
	p := sess.InternPredicate("parent", 2)
	alice := sess.InternConstant("/alice")
	bob := sess.InternConstant("/bob")
	carol := sess.InternConstant("/carol")
	s.Add(p, []term.Term{alice, bob})
	s.Add(p, []term.Term{alice, carol})
	s.Add(p, []term.Term{bob, carol})

	x := sess.InternVariable("X")
	atom := formula.NewAtom(p, alice, x)
	q := data.BasicQuery{Pattern: data.AtomicPattern{Atom: atom, Bound: []bool{true, false}}}

	rel := s.Relation(p)
	var got [][]term.Term
	if err := rel.Evaluate(q, func(args []term.Term) error {
		got = append(got, args)
		return nil
	}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Evaluate() produced %d results, want 2", len(got))
	}
}

func TestEstimateBoundReflectsSelectivity(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	s := New()
	p := sess.InternPredicate("edge", 2)
	a := sess.InternConstant("/a")
	for i := 0; i < 5; i++ {
		s.Add(p, []term.Term{a, sess.InternConstant(string(rune('b' + i)))})
	}

	x := sess.InternVariable("X")
	atom := formula.NewAtom(p, a, x)
	q := data.BasicQuery{Pattern: data.AtomicPattern{Atom: atom, Bound: []bool{true, false}}}
	rel := s.Relation(p)
	if got := rel.EstimateBound(q); got != 5 {
		t.Errorf("EstimateBound() = %d, want 5", got)
	}
}

func TestMatchesAtomRepeatedVariable(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("same", 2)
	x := sess.InternVariable("X")
	atom := formula.NewAtom(p, x, x)

	a := sess.InternConstant("/a")
	b := sess.InternConstant("/b")
	if !MatchesAtom(atom, []term.Term{a, a}) {
		t.Errorf("MatchesAtom(same(X,X), (a,a)) = false, want true")
	}
	if MatchesAtom(atom, []term.Term{a, b}) {
		t.Errorf("MatchesAtom(same(X,X), (a,b)) = true, want false")
	}
}
