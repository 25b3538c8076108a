package computed

import (
	"testing"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/term"
)

func TestSumForward(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	reg := NewRegistry()
	fn := reg[term.FunctionSym{Name: "sum", Arity: -1}]
	result, err := fn.Eval(sess, []term.Term{sess.InternInt(2), sess.InternInt(3)})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	got, _ := result.(term.Literal).IntValue()
	if got != 5 {
		t.Errorf("sum(2,3) = %d, want 5", got)
	}
}

func TestMinusReversible(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	reg := NewRegistry()
	fn := reg[term.FunctionSym{Name: "minus", Arity: 2}]
	// minus(X, 3) = 4  =>  X = 7
	result, ok, err := fn.Reversible(sess, sess.InternInt(4), []term.Term{nil, sess.InternInt(3)}, 0)
	if err != nil {
		t.Fatalf("Reversible: %v", err)
	}
	if !ok {
		t.Fatalf("Reversible() ok = false, want true")
	}
	got, _ := result.(term.Literal).IntValue()
	if got != 7 {
		t.Errorf("minus reversible = %d, want 7", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	reg := NewRegistry()
	fn := reg[term.FunctionSym{Name: "divide", Arity: 2}]
	_, err := fn.Eval(sess, []term.Term{sess.InternInt(1), sess.InternInt(0)})
	if err != ErrDivisionByZero {
		t.Errorf("Eval(divide, 1, 0) err = %v, want ErrDivisionByZero", err)
	}
}

func TestPredicateForwardEvaluation(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	reg := NewRegistry()
	sumFn := reg[term.FunctionSym{Name: "sum", Arity: -1}]
	sumFn.Sym.Arity = 2
	pred := NewPredicate(sess, sumFn)

	a := sess.InternInt(2)
	b := sess.InternInt(3)
	v := sess.InternVariable("Result")
	atom := formula.NewAtom(pred.Pred, a, b, v)
	q := data.BasicQuery{Pattern: data.AtomicPattern{Atom: atom, Bound: []bool{true, true, false}}}

	var got []term.Term
	if err := pred.Evaluate(q, func(args []term.Term) error {
		got = args
		return nil
	}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Evaluate produced %d args, want 3", len(got))
	}
	result, _ := got[2].(term.Literal).IntValue()
	if result != 5 {
		t.Errorf("sum(2,3,Result) bound Result to %d, want 5", result)
	}
}
