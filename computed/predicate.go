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

package computed

import (
	"fmt"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/term"
)

// Predicate is a data.ReadableData source whose extension is the graph of
// a function: pred(Args..., Result) holds iff Eval(Args...) == Result. It
// supports two evaluation modes:
//   - forward: all of Args bound, Result free (or bound, to be checked) --
//     always available.
//   - reversible: all of Args but one bound, plus Result bound -- available
//     only when the underlying Func supplies a Reversible implementation.
type Predicate struct {
	Sess *term.Session
	Pred term.Predicate
	Fn   Func
}

// NewPredicate builds a computed predicate of arity Fn.Sym.Arity+1 (the
// function's arguments, plus its result in the final position).
func NewPredicate(sess *term.Session, fn Func) Predicate {
	return Predicate{Sess: sess, Pred: sess.InternPredicate(fn.Sym.Name, fn.Sym.Arity+1), Fn: fn}
}

// CanEvaluate implements data.ReadableData: every argument position but at
// most one must be bound; if exactly the result position is free, this is
// the forward direction (always supported); if exactly one argument
// position is free and the result is bound, this is the reversible
// direction (supported only if Fn.Reversible is set).
func (p Predicate) CanEvaluate(q data.BasicQuery) bool {
	unboundArgPos := -1
	unboundCount := 0
	for i, b := range q.Pattern.Bound {
		if !b {
			unboundCount++
			if i < len(q.Pattern.Bound)-1 {
				unboundArgPos = i
			}
		}
	}
	resultBound := q.Pattern.Bound[len(q.Pattern.Bound)-1]
	switch {
	case unboundCount == 0:
		return true // fully ground: check membership
	case unboundCount == 1 && !resultBound:
		return true // forward evaluation
	case unboundCount == 1 && resultBound && unboundArgPos >= 0:
		return p.Fn.Reversible != nil
	default:
		return false
	}
}

// EstimateBound implements data.ReadableData: a computed predicate always
// produces at most one tuple per call (the function graph is a partial
// bijection on each argument position), so 1 is both the forward and
// reversible estimate; a fully ground query that fails membership produces
// 0, but checking that requires actually running Eval, so EstimateBound
// conservatively reports 1.
func (p Predicate) EstimateBound(q data.BasicQuery) int {
	return 1
}

// Evaluate implements data.ReadableData.
func (p Predicate) Evaluate(q data.BasicQuery, emit func(args []term.Term) error) error {
	args := q.Pattern.Atom.Args
	n := len(args)
	resultBound := q.Pattern.Bound[n-1]

	if allBoundExcept(q.Pattern.Bound, -1) {
		result, err := p.Fn.Eval(p.Sess, args[:n-1])
		if err != nil {
			return err
		}
		if result.Equals(args[n-1]) {
			return emit(args)
		}
		return nil
	}

	if !resultBound {
		result, err := p.Fn.Eval(p.Sess, args[:n-1])
		if err != nil {
			return err
		}
		full := append(append([]term.Term(nil), args[:n-1]...), result)
		return emit(full)
	}

	missing := firstUnbound(q.Pattern.Bound)
	if missing < 0 || missing >= n-1 || p.Fn.Reversible == nil {
		return fmt.Errorf("computed: predicate %v cannot evaluate this binding pattern", p.Pred)
	}
	inverse, ok, err := p.Fn.Reversible(p.Sess, args[n-1], args[:n-1], missing)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	full := append([]term.Term(nil), args[:n-1]...)
	full[missing] = inverse
	return emit(full)
}

func allBoundExcept(bound []bool, exceptPos int) bool {
	for i, b := range bound {
		if i == exceptPos {
			continue
		}
		if !b {
			return false
		}
	}
	return true
}

func firstUnbound(bound []bool) int {
	for i, b := range bound {
		if !b {
			return i
		}
	}
	return -1
}

// Binder builds an eval.Binder-compatible resolver (left untyped here to
// avoid this package depending on eval) over every function in reg,
// interning one predicate per function via NewPredicate. Callers needing
// other predicates alongside the computed ones (fact-store relations,
// reserved comparisons) should wrap the returned function with their own
// fallback.
func Binder(sess *term.Session, reg Registry) func(term.Predicate) (data.ReadableData, bool) {
	preds := make(map[term.Predicate]Predicate, len(reg))
	for _, fn := range reg {
		p := NewPredicate(sess, fn)
		preds[p.Pred] = p
	}
	return func(pred term.Predicate) (data.ReadableData, bool) {
		p, ok := preds[pred]
		return p, ok
	}
}
