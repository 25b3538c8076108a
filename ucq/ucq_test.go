package ucq

import (
	"testing"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/term"
)

func TestRewriteFoldsHeadIntoQuery(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	manages := sess.InternPredicate("manages", 2)
	employee := sess.InternPredicate("employee", 1)
	x := sess.InternVariable("X")
	z := sess.InternVariable("Z")
	w := sess.InternVariable("W")

	// Rule: employee(X) -> exists Z. manages(X, Z)
	rule := Rule{
		BodyAtoms:    []formula.Atom{formula.NewAtom(employee, x)},
		HeadAtoms:    []formula.Atom{formula.NewAtom(manages, x, z)},
		Existentials: []term.Variable{z},
	}

	// Query: answer(W) :- manages(W, _Y)
	y := sess.InternVariable("Y")
	seed := Query{
		Atoms:      []formula.Atom{formula.NewAtom(manages, w, y)},
		AnswerVars: []term.Variable{w},
	}

	results := Rewrite(seed, []Rule{rule}, 3)
	found := false
	for _, r := range results {
		if len(r.Atoms) == 1 && r.Atoms[0].Predicate.Equals(employee) {
			found = true
		}
	}
	if !found {
		t.Errorf("Rewrite() did not produce a rewriting using employee/1; got %d results", len(results))
	}
}

func TestSubsumptionDropsMoreSpecificQuery(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	q := sess.InternPredicate("q", 1)
	x := sess.InternVariable("X")

	general := Query{Atoms: []formula.Atom{formula.NewAtom(p, x)}, AnswerVars: []term.Variable{x}}
	specific := Query{
		Atoms:      []formula.Atom{formula.NewAtom(p, x), formula.NewAtom(q, x)},
		AnswerVars: []term.Variable{x},
	}
	if !subsumes(general, specific) {
		t.Errorf("subsumes(p(X), p(X)&q(X)) = false, want true")
	}
	if subsumes(specific, general) {
		t.Errorf("subsumes(p(X)&q(X), p(X)) = true, want false")
	}
}
