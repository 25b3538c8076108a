package term

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInterningIsIdempotent(t *testing.T) {
	s := NewSession()
	defer s.Close()

	v1 := s.InternVariable("X")
	v2 := s.InternVariable("X")
	if !v1.Equals(v2) {
		t.Errorf("InternVariable(X) twice produced distinct handles: %v vs %v", v1, v2)
	}

	c1 := s.InternConstant("/alice")
	c2 := s.InternConstant("/alice")
	if !c1.Equals(c2) {
		t.Errorf("InternConstant(/alice) twice produced distinct handles")
	}

	p1 := s.InternPredicate("parent", 2)
	p2 := s.InternPredicate("parent", 2)
	if !p1.Equals(p2) {
		t.Errorf("InternPredicate(parent,2) twice produced distinct handles")
	}
}

func TestDistinctValuesGetDistinctHandles(t *testing.T) {
	s := NewSession()
	defer s.Close()

	if s.InternVariable("X").Equals(s.InternVariable("Y")) {
		t.Errorf("distinct variables compared equal")
	}
	if s.InternConstant("/a").Equals(s.InternConstant("/b")) {
		t.Errorf("distinct constants compared equal")
	}
	p1 := s.InternPredicate("p", 1)
	p2 := s.InternPredicate("p", 2)
	if p1.Equals(p2) {
		t.Errorf("predicates with different arity compared equal")
	}
}

func TestFreshVariableNeverCollides(t *testing.T) {
	s := NewSession()
	defer s.Close()

	s.InternVariable("_X1")
	fresh := s.Fresh("X")
	if fresh.Equals(s.InternVariable("_X1")) {
		t.Errorf("Fresh collided with an existing variable")
	}
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		f := s.Fresh("Z")
		if seen[f.Name()] {
			t.Fatalf("Fresh produced a repeated name %q", f.Name())
		}
		seen[f.Name()] = true
	}
}

func TestLiteralStructuralInterning(t *testing.T) {
	s := NewSession()
	defer s.Close()

	a := s.InternTuple([]Literal{s.InternInt(1), s.InternInt(2)})
	b := s.InternTuple([]Literal{s.InternInt(1), s.InternInt(2)})
	if !a.Equals(b) {
		t.Errorf("equal tuple literals were not interned to the same handle")
	}
	c := s.InternTuple([]Literal{s.InternInt(2), s.InternInt(1)})
	if a.Equals(c) {
		t.Errorf("tuples with different element order compared equal")
	}
}

func TestLiteralAccessors(t *testing.T) {
	s := NewSession()
	defer s.Close()

	elems := []Literal{s.InternInt(1), s.InternString("x")}
	tup := s.InternTuple(elems)
	got, ok := tup.Elements()
	if !ok {
		t.Fatalf("Elements() ok = false for tuple")
	}
	if diff := cmp.Diff(elems, got, cmp.Comparer(func(a, b Literal) bool { return a.Equals(b) })); diff != "" {
		t.Errorf("Elements() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLiteral(t *testing.T) {
	s := NewSession()
	defer s.Close()

	lit, err := s.ParseLiteral(IntDatatype, "42")
	if err != nil {
		t.Fatalf("ParseLiteral: %v", err)
	}
	v, ok := lit.IntValue()
	if !ok || v != 42 {
		t.Errorf("ParseLiteral(Int, 42) = %v, %v, want 42, true", v, ok)
	}

	if _, err := s.ParseLiteral(IntDatatype, "not-a-number"); err == nil {
		t.Errorf("ParseLiteral accepted malformed integer")
	}
}
