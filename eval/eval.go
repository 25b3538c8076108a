// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package eval implements the first-order query evaluator: one evaluation
// function per formula shape (atom, conjunction, disjunction, negation,
// existential, universal), dispatched by Eval; Prepare wraps a formula and a
// scheduler into a Prepared plan a caller can run repeatedly against
// different binders.
package eval

import (
	"fmt"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/hom"
	"github.com/datalogplus/reasoner/subst"
	"github.com/datalogplus/reasoner/term"
)

// Binder resolves predicates to data sources; re-exported from hom so
// callers of this package need not import hom just to construct one.
type Binder = hom.Binder

// Prepared is a compiled evaluation plan for a formula, closed over a
// scheduler, ready to run against any Binder.
type Prepared struct {
	formula   formula.Formula
	scheduler hom.Scheduler
}

// Prepare compiles f into a Prepared plan, using scheduler (nil for
// hom.StaticOrder) to order conjunctive atoms.
func Prepare(f formula.Formula, scheduler hom.Scheduler) Prepared {
	return Prepared{formula: f, scheduler: scheduler}
}

// Run evaluates the prepared formula against binder, extending base, and
// calls emit once per satisfying substitution.
func (p Prepared) Run(binder Binder, base subst.Substitution, emit func(subst.Substitution) error) error {
	return Eval(p.formula, binder, p.scheduler, base, emit)
}

// EstimateBound estimates the number of solutions the prepared formula
// would produce, using the same bound-estimation the dynamic scheduler
// consults; it is a cheap heuristic, not an exact count.
func (p Prepared) EstimateBound(binder Binder, base subst.Substitution) int {
	return estimateBound(p.formula, binder, base)
}

// Eval evaluates formula f against binder, extending base, calling emit
// once per satisfying substitution. Eval dispatches on f's concrete type,
// with one case per premise shape (atoms, negation, equality, and
// recursively composed conjunctions) plus the full first-order fragment
// (disjunction, existential and universal quantification).
func Eval(f formula.Formula, binder Binder, scheduler hom.Scheduler, base subst.Substitution, emit func(subst.Substitution) error) error {
	switch x := f.(type) {
	case formula.AtomFormula:
		return evalAtom(x.Atom, binder, base, emit)
	case formula.Conjunction:
		return evalConjunction(x, binder, scheduler, base, emit)
	case formula.Disjunction:
		return evalDisjunction(x, binder, scheduler, base, emit)
	case formula.Negation:
		return evalNegation(x, binder, scheduler, base, emit)
	case formula.Existential:
		return evalExistential(x, binder, scheduler, base, emit)
	case formula.Universal:
		return evalUniversal(x, binder, scheduler, base, emit)
	case formula.Equality:
		return evalEquality(x, base, emit)
	case formula.Comparison:
		return evalComparison(x, base, emit)
	default:
		return fmt.Errorf("eval: unsupported formula shape %T", f)
	}
}

func evalAtom(a formula.Atom, binder Binder, base subst.Substitution, emit func(subst.Substitution) error) error {
	return hom.Search([]formula.Atom{a}, binder, hom.StaticOrder, base, emit)
}

func evalConjunction(c formula.Conjunction, binder Binder, scheduler hom.Scheduler, base subst.Substitution, emit func(subst.Substitution) error) error {
	atoms, rest, ok := splitPureAtoms(c.Conjuncts)
	if ok {
		// Fast path: a conjunction of bare atoms runs through homomorphism
		// search directly, giving the scheduler visibility into the whole
		// join rather than one atom at a time.
		return hom.Search(atoms, binder, scheduler, base, emit)
	}
	return evalConjunctsSequentially(rest, binder, scheduler, base, emit)
}

// splitPureAtoms returns ok=true with atoms populated iff every conjunct is
// a plain AtomFormula; rest echoes conjuncts unchanged for the fallback path.
func splitPureAtoms(conjuncts []formula.Formula) (atoms []formula.Atom, rest []formula.Formula, ok bool) {
	atoms = make([]formula.Atom, 0, len(conjuncts))
	for _, c := range conjuncts {
		af, isAtom := c.(formula.AtomFormula)
		if !isAtom {
			return nil, conjuncts, false
		}
		atoms = append(atoms, af.Atom)
	}
	return atoms, nil, true
}

func evalConjunctsSequentially(conjuncts []formula.Formula, binder Binder, scheduler hom.Scheduler, base subst.Substitution, emit func(subst.Substitution) error) error {
	if len(conjuncts) == 0 {
		return emit(base)
	}
	head, tail := conjuncts[0], conjuncts[1:]
	return Eval(head, binder, scheduler, base, func(extended subst.Substitution) error {
		return evalConjunctsSequentially(tail, binder, scheduler, extended, emit)
	})
}

func evalDisjunction(d formula.Disjunction, binder Binder, scheduler hom.Scheduler, base subst.Substitution, emit func(subst.Substitution) error) error {
	for _, disjunct := range d.Disjuncts {
		if err := Eval(disjunct, binder, scheduler, base, emit); err != nil {
			return err
		}
	}
	return nil
}

func evalNegation(n formula.Negation, binder Binder, scheduler hom.Scheduler, base subst.Substitution, emit func(subst.Substitution) error) error {
	found := false
	err := Eval(n.Inner, binder, scheduler, base, func(subst.Substitution) error {
		found = true
		return hom.Stop
	})
	if err != nil {
		return err
	}
	if found {
		return nil
	}
	return emit(base)
}

func evalExistential(e formula.Existential, binder Binder, scheduler hom.Scheduler, base subst.Substitution, emit func(subst.Substitution) error) error {
	found := false
	err := Eval(e.Inner, binder, scheduler, base, func(extended subst.Substitution) error {
		found = true
		keep := append(base.Domain(), e.FreeVars()...)
		return emit(extended.RestrictTo(keep))
	})
	_ = found
	return err
}

// evalUniversal evaluates "forall Vars. Inner" by checking that "not Inner"
// has no solution under base. It does not enumerate a domain for Vars:
// every quantified variable must already be bound in base, and an error is
// returned otherwise. Callers that need to quantify over a materialized
// predicate's whole extension should rewrite the quantifier into a query
// against that predicate before calling Eval.
func evalUniversal(u formula.Universal, binder Binder, scheduler hom.Scheduler, base subst.Substitution, emit func(subst.Substitution) error) error {
	for _, v := range u.Vars {
		if _, ok := base.Get(v); !ok {
			return fmt.Errorf("eval: universal quantifier over unbound variable %v has no finite evaluation strategy", v)
		}
	}
	allHold := true
	err := Eval(formula.NewNegation(u.Inner), binder, scheduler, base, func(subst.Substitution) error {
		allHold = false
		return hom.Stop
	})
	if err != nil {
		return err
	}
	if allHold {
		return emit(base)
	}
	return nil
}

func evalEquality(e formula.Equality, base subst.Substitution, emit func(subst.Substitution) error) error {
	left := term.ApplySubst(e.Left, base)
	right := term.ApplySubst(e.Right, base)
	lv, lok := left.(term.Variable)
	rv, rok := right.(term.Variable)
	switch {
	case lok && !rok:
		return emit(base.Extend(lv, right))
	case rok && !lok:
		return emit(base.Extend(rv, left))
	case lok && rok:
		if lv.Equals(rv) {
			return emit(base)
		}
		return emit(base.Extend(lv, rv))
	default:
		if left.Equals(right) {
			return emit(base)
		}
		return nil
	}
}

func evalComparison(c formula.Comparison, base subst.Substitution, emit func(subst.Substitution) error) error {
	left := term.ApplySubst(c.Left, base)
	right := term.ApplySubst(c.Right, base)
	ll, lok := left.(term.Literal)
	rl, rok := right.(term.Literal)
	if !lok || !rok {
		return fmt.Errorf("eval: comparison %s %s %s requires both sides bound to literals", c.Left, c.Op, c.Right)
	}
	ok, err := compareLiterals(c.Op, ll, rl)
	if err != nil {
		return err
	}
	if ok {
		return emit(base)
	}
	return nil
}

func compareLiterals(op formula.ComparisonOp, a, b term.Literal) (bool, error) {
	ai, aIsInt := a.IntValue()
	bi, bIsInt := b.IntValue()
	if aIsInt && bIsInt {
		return applyOp(op, float64(ai), float64(bi)), nil
	}
	af, aIsFloat := a.FloatValue()
	bf, bIsFloat := b.FloatValue()
	if (aIsInt || aIsFloat) && (bIsInt || bIsFloat) {
		if aIsInt {
			af = float64(ai)
		}
		if bIsInt {
			bf = float64(bi)
		}
		return applyOp(op, af, bf), nil
	}
	as, aIsStr := a.StringValue()
	bs, bIsStr := b.StringValue()
	if aIsStr && bIsStr {
		return applyStringOp(op, as, bs), nil
	}
	return false, fmt.Errorf("eval: comparison between incompatible literal types %v and %v", a.Datatype, b.Datatype)
}

func applyOp(op formula.ComparisonOp, a, b float64) bool {
	switch op {
	case formula.Lt:
		return a < b
	case formula.Le:
		return a <= b
	case formula.Gt:
		return a > b
	case formula.Ge:
		return a >= b
	default:
		return false
	}
}

func applyStringOp(op formula.ComparisonOp, a, b string) bool {
	switch op {
	case formula.Lt:
		return a < b
	case formula.Le:
		return a <= b
	case formula.Gt:
		return a > b
	case formula.Ge:
		return a >= b
	default:
		return false
	}
}

func estimateBound(f formula.Formula, binder Binder, base subst.Substitution) int {
	switch x := f.(type) {
	case formula.AtomFormula:
		src, ok := binder(x.Atom.Predicate)
		if !ok {
			return 0
		}
		boundFlags := make([]bool, len(x.Atom.Args))
		for i, arg := range x.Atom.Args {
			if v, isVar := arg.(term.Variable); isVar {
				_, boundFlags[i] = base.Get(v)
			} else {
				boundFlags[i] = true
			}
		}
		return src.EstimateBound(data.BasicQuery{Pattern: data.AtomicPattern{Atom: x.Atom, Bound: boundFlags}})
	case formula.Conjunction:
		min := -1
		for _, c := range x.Conjuncts {
			b := estimateBound(c, binder, base)
			if min == -1 || b < min {
				min = b
			}
		}
		if min == -1 {
			return 0
		}
		return min
	case formula.Disjunction:
		sum := 0
		for _, d := range x.Disjuncts {
			sum += estimateBound(d, binder, base)
		}
		return sum
	default:
		return 1
	}
}
