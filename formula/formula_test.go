package formula

import (
	"testing"

	"github.com/datalogplus/reasoner/term"
)

func TestAtomFreeVars(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("parent", 2)
	x := sess.InternVariable("X")
	y := sess.InternVariable("Y")
	a := NewAtom(p, x, y)

	got := a.FreeVars()
	if len(got) != 2 || !got[0].Equals(x) || !got[1].Equals(y) {
		t.Errorf("FreeVars() = %v, want [X Y]", got)
	}
}

func TestConjunctionFreeVarsDeduplicated(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	q := sess.InternPredicate("q", 2)
	x := sess.InternVariable("X")
	y := sess.InternVariable("Y")

	conj := NewConjunction(
		NewAtomFormula(NewAtom(p, x)),
		NewAtomFormula(NewAtom(q, x, y)),
	)
	got := conj.FreeVars()
	if len(got) != 2 {
		t.Errorf("FreeVars() = %v, want 2 distinct variables", got)
	}
}

func TestExistentialHidesBoundVars(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 2)
	x := sess.InternVariable("X")
	y := sess.InternVariable("Y")

	ex := NewExistential([]term.Variable{y}, NewAtomFormula(NewAtom(p, x, y)))
	got := ex.FreeVars()
	if len(got) != 1 || !got[0].Equals(x) {
		t.Errorf("Existential.FreeVars() = %v, want [X]", got)
	}
}

func TestRuleValidateRejectsUnsafeNegation(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	q := sess.InternPredicate("q", 1)
	x := sess.InternVariable("X")
	y := sess.InternVariable("Y")

	// q(X) :- !p(Y)  -- Y does not occur positively.
	body := NewNegation(NewAtomFormula(NewAtom(p, y)))
	head := NewAtomFormula(NewAtom(q, x))
	r := NewRule(body, head)
	if err := r.Validate(); err == nil {
		t.Errorf("Validate() = nil, want error for unsafe negation")
	}
}

func TestRuleValidateAcceptsExistentialHead(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	knows := sess.InternPredicate("knows", 2)
	manages := sess.InternPredicate("manages", 2)
	x := sess.InternVariable("X")
	z := sess.InternVariable("Z")

	body := NewAtomFormula(NewAtom(knows, x, x))
	head := NewExistential([]term.Variable{z}, NewAtomFormula(NewAtom(manages, x, z)))
	r := NewRule(body, head)
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if !IsExistentialHead(r.Head) {
		t.Errorf("IsExistentialHead() = false, want true")
	}
	if IsPlainConjunctiveHead(r.Head) {
		t.Errorf("IsPlainConjunctiveHead() = true, want false (head has existential var)")
	}
}

func TestRuleValidateRejectsUnboundFrontierVariable(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	q := sess.InternPredicate("q", 1)
	x := sess.InternVariable("X")
	w := sess.InternVariable("W")

	body := NewAtomFormula(NewAtom(p, x))
	head := NewAtomFormula(NewAtom(q, w)) // W unrelated to body
	r := NewRule(body, head)
	if err := r.Validate(); err == nil {
		t.Errorf("Validate() = nil, want error for unbound frontier variable")
	}
}

func TestIsDisjunctiveExistentialHead(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	q := sess.InternPredicate("q", 1)
	x := sess.InternVariable("X")
	z := sess.InternVariable("Z")

	left := NewAtomFormula(NewAtom(p, x))
	right := NewExistential([]term.Variable{z}, NewAtomFormula(NewAtom(q, z)))
	disj := NewDisjunction(left, right)
	if !IsDisjunctiveExistentialHead(disj) {
		t.Errorf("IsDisjunctiveExistentialHead() = false, want true")
	}
	if IsExistentialHead(disj) {
		t.Errorf("IsExistentialHead() = true, want false (head is disjunctive)")
	}
}
