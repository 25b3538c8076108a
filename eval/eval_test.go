package eval

import (
	"testing"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/store"
	"github.com/datalogplus/reasoner/subst"
	"github.com/datalogplus/reasoner/term"
)

func TestEvalNegationRequiresAbsence(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	blocked := sess.InternPredicate("blocked", 1)
	s := store.New()
	a := sess.InternConstant("/a")
	s.Add(blocked, []term.Term{a})

	binder := func(p term.Predicate) (data.ReadableData, bool) {
		if p.Equals(blocked) {
			return s.Relation(p), true
		}
		return nil, false
	}

	x := sess.InternVariable("X")
	neg := formula.NewNegation(formula.NewAtomFormula(formula.NewAtom(blocked, x)))

	base := subst.New().Extend(x, a)
	count := 0
	if err := Eval(neg, binder, nil, base, func(subst.Substitution) error { count++; return nil }); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if count != 0 {
		t.Errorf("Eval(negation) over a blocked value emitted, want no emission")
	}

	b := sess.InternConstant("/b")
	base2 := subst.New().Extend(x, b)
	count = 0
	if err := Eval(neg, binder, nil, base2, func(subst.Substitution) error { count++; return nil }); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if count != 1 {
		t.Errorf("Eval(negation) over an unblocked value did not emit, want one emission")
	}
}

func TestEvalEqualityBindsFreeVariable(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	x := sess.InternVariable("X")
	c := sess.InternConstant("/c")
	eq := formula.NewEquality(x, c)

	var got []subst.Substitution
	err := Eval(eq, nil, nil, subst.New(), func(s subst.Substitution) error {
		got = append(got, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Eval(equality) emitted %d times, want 1", len(got))
	}
	v, ok := got[0].Get(x)
	if !ok || !v.Equals(c) {
		t.Errorf("Eval(equality) bound X to %v, want /c", v)
	}
}

func TestEvalComparison(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	two := sess.InternInt(2)
	three := sess.InternInt(3)
	lt := formula.NewComparison(formula.Lt, two, three)

	count := 0
	if err := Eval(lt, nil, nil, subst.New(), func(subst.Substitution) error { count++; return nil }); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if count != 1 {
		t.Errorf("Eval(2 < 3) emitted %d times, want 1", count)
	}
}
