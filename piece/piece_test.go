package piece

import (
	"testing"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/term"
)

func TestComputeSimpleUnifier(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	manages := sess.InternPredicate("manages", 2)
	x := sess.InternVariable("X")
	z := sess.InternVariable("Z")
	alice := sess.InternConstant("/alice")
	y0 := sess.InternVariable("Y0")

	// Query atom: manages(/alice, Y0)
	queryAtoms := []formula.Atom{formula.NewAtom(manages, alice, y0)}
	// Rule head: exists Z. manages(X, Z)
	headAtoms := []formula.Atom{formula.NewAtom(manages, x, z)}

	unifiers, err := Compute(queryAtoms, []term.Variable{z}, headAtoms)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(unifiers) == 0 {
		t.Fatalf("Compute() returned no unifiers, want at least one")
	}
	u := unifiers[0]
	if len(u.Piece) != 1 || u.Piece[0] != 0 {
		t.Errorf("Piece = %v, want [0]", u.Piece)
	}
}

func TestComputeRejectsSplitExistential(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	p := sess.InternPredicate("p", 1)
	q := sess.InternPredicate("q", 1)
	z := sess.InternVariable("Z")
	a := sess.InternVariable("A")

	// Query: p(A), q(A)  -- both query atoms share the same term A.
	queryAtoms := []formula.Atom{formula.NewAtom(p, a), formula.NewAtom(q, a)}
	// Rule head: exists Z. p(Z)  -- only unifies the first query atom.
	headAtoms := []formula.Atom{formula.NewAtom(p, z)}

	unifiers, err := Compute(queryAtoms, []term.Variable{z}, headAtoms)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for _, u := range unifiers {
		if len(u.Piece) == 1 {
			t.Errorf("Compute() accepted a piece covering only atom 0, leaving q(A) outside despite shared existential binding")
		}
	}
}
