package chase

import (
	"testing"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/eval"
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/store"
	"github.com/datalogplus/reasoner/term"
)

func binderFor(s *store.FactStore) eval.Binder {
	return func(p term.Predicate) (data.ReadableData, bool) {
		return s.Relation(p), true
	}
}

func TestRunPlainRuleReachesFixpoint(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	parent := sess.InternPredicate("parent", 2)
	grandparent := sess.InternPredicate("grandparent", 2)
	x, y, z := sess.InternVariable("X"), sess.InternVariable("Y"), sess.InternVariable("Z")

	s := store.New()
	alice, bob, carol := sess.InternConstant("alice"), sess.InternConstant("bob"), sess.InternConstant("carol")
	s.Add(parent, []term.Term{alice, bob})
	s.Add(parent, []term.Term{bob, carol})

	body := formula.NewConjunction(
		formula.NewAtomFormula(formula.NewAtom(parent, x, y)),
		formula.NewAtomFormula(formula.NewAtom(parent, y, z)),
	)
	head := formula.NewAtomFormula(formula.NewAtom(grandparent, x, z))
	rule, err := NewRule("grandparent_rule", formula.NewRule(body, head))
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}

	eng := New(sess, []Rule{rule}, Config{Checker: RestrictedChecker})
	if _, err := eng.Run(s, binderFor(s)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !s.Contains(grandparent, []term.Term{alice, carol}) {
		t.Errorf("expected grandparent(alice, carol) to be derived")
	}
	if s.Count(grandparent) != 1 {
		t.Errorf("Count(grandparent) = %d, want 1", s.Count(grandparent))
	}
}

func TestRunExistentialRuleInventsWitnessOnce(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	employee := sess.InternPredicate("employee", 1)
	manages := sess.InternPredicate("manages", 2)
	x, z := sess.InternVariable("X"), sess.InternVariable("Z")

	s := store.New()
	alice := sess.InternConstant("alice")
	s.Add(employee, []term.Term{alice})

	body := formula.NewAtomFormula(formula.NewAtom(employee, x))
	head := formula.NewExistential([]term.Variable{z}, formula.NewAtomFormula(formula.NewAtom(manages, x, z)))
	rule, err := NewRule("everyone_has_a_manager", formula.NewRule(body, head))
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}

	eng := New(sess, []Rule{rule}, Config{Checker: RestrictedChecker, Halt: RoundLimit(5)})
	if _, err := eng.Run(s, binderFor(s)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if s.Count(manages) != 1 {
		t.Fatalf("Count(manages) = %d, want exactly one invented witness", s.Count(manages))
	}
}

func TestRunObliviousRenamerInventsFreshWitnessEveryRound(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	employee := sess.InternPredicate("employee", 1)
	manages := sess.InternPredicate("manages", 2)
	x, z := sess.InternVariable("X"), sess.InternVariable("Z")

	s := store.New()
	alice := sess.InternConstant("alice")
	s.Add(employee, []term.Term{alice})

	body := formula.NewAtomFormula(formula.NewAtom(employee, x))
	head := formula.NewExistential([]term.Variable{z}, formula.NewAtomFormula(formula.NewAtom(manages, x, z)))
	rule, err := NewRule("everyone_has_a_manager", formula.NewRule(body, head))
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}

	// Oblivious checker + oblivious renamer never recognizes the trigger as
	// satisfied, so without a round limit this would never reach a fixed
	// point; RoundLimit bounds it for the test.
	eng := New(sess, []Rule{rule}, Config{Rename: ObliviousRenamer, Halt: RoundLimit(3)})
	if _, err := eng.Run(s, binderFor(s)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if s.Count(manages) < 3 {
		t.Errorf("Count(manages) = %d, want at least 3 distinct witnesses after 3 rounds", s.Count(manages))
	}
}
