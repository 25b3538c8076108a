package grd

import (
	"testing"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/term"
)

func TestStratifyBySCCRejectsNegativeSelfLoop(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	x := sess.InternVariable("X")

	// p(X) :- !p(X)
	body := formula.NewNegation(formula.NewAtomFormula(formula.NewAtom(p, x)))
	head := formula.NewAtomFormula(formula.NewAtom(p, x))
	r := Rule{
		Body:      body,
		HeadVars:  [][]term.Variable{nil},
		HeadAtoms: [][]formula.Atom{{formula.NewAtom(p, x)}},
		IsEdb:     map[term.Predicate]bool{},
	}
	_ = head

	g, err := Build([]Rule{r}, PredicateMode)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := g.StratifyBySCC(); err != ErrNotStratifiable {
		t.Errorf("StratifyBySCC() err = %v, want ErrNotStratifiable", err)
	}
}

func TestStratifyBySCCOrdersByNegativeDependency(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	q := sess.InternPredicate("q", 1)
	x := sess.InternVariable("X")

	// p(X) :- !q(X).
	rule := Rule{
		Body:      formula.NewNegation(formula.NewAtomFormula(formula.NewAtom(q, x))),
		HeadVars:  [][]term.Variable{nil},
		HeadAtoms: [][]formula.Atom{{formula.NewAtom(p, x)}},
		IsEdb:     map[term.Predicate]bool{},
	}

	g, err := Build([]Rule{rule}, PredicateMode)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	strata, err := g.StratifyBySCC()
	if err != nil {
		t.Fatalf("StratifyBySCC: %v", err)
	}
	if strata[q] >= strata[p] {
		t.Errorf("StratifyBySCC() put q at stratum %d, p at %d; want q strictly before p", strata[q], strata[p])
	}
}

func TestStratifySingleEvaluationRejectsNegation(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	q := sess.InternPredicate("q", 1)
	x := sess.InternVariable("X")

	rule := Rule{
		Body:      formula.NewNegation(formula.NewAtomFormula(formula.NewAtom(q, x))),
		HeadVars:  [][]term.Variable{nil},
		HeadAtoms: [][]formula.Atom{{formula.NewAtom(p, x)}},
		IsEdb:     map[term.Predicate]bool{},
	}
	g, err := Build([]Rule{rule}, PredicateMode)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := g.StratifySingleEvaluation(); err != ErrNotStratifiable {
		t.Errorf("StratifySingleEvaluation() err = %v, want ErrNotStratifiable", err)
	}
}
