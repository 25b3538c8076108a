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

package chase

import (
	"testing"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/grd"
	"github.com/datalogplus/reasoner/store"
	"github.com/datalogplus/reasoner/term"
)

// TestStratifiedRunSeparatesNegationFromItsBase builds a three-rule program
// where "unreachable" negates "reachable", which is itself defined by a
// two-rule recursive transitive closure over "edge". A correct
// stratification must finish deriving every reachable pair before any
// unreachable pair is considered, or the negation would see a partial,
// still-growing "reachable" relation.
func TestStratifiedRunSeparatesNegationFromItsBase(t *testing.T) {
	sess := term.NewSession()
	defer sess.Close()

	node := sess.InternPredicate("node", 1)
	edge := sess.InternPredicate("edge", 2)
	reachable := sess.InternPredicate("reachable", 2)
	unreachable := sess.InternPredicate("unreachable", 2)
	x, y, z := sess.InternVariable("X"), sess.InternVariable("Y"), sess.InternVariable("Z")

	s := store.New()
	a, b, c := sess.InternConstant("a"), sess.InternConstant("b"), sess.InternConstant("c")
	for _, n := range []term.Term{a, b, c} {
		s.Add(node, []term.Term{n})
	}
	s.Add(edge, []term.Term{a, b})
	s.Add(edge, []term.Term{b, c})

	baseRule, err := NewRule("edge_is_reachable", formula.NewRule(
		formula.NewAtomFormula(formula.NewAtom(edge, x, y)),
		formula.NewAtomFormula(formula.NewAtom(reachable, x, y)),
	))
	if err != nil {
		t.Fatalf("NewRule(edge_is_reachable): %v", err)
	}
	transRule, err := NewRule("reachable_transitive", formula.NewRule(
		formula.NewConjunction(
			formula.NewAtomFormula(formula.NewAtom(reachable, x, y)),
			formula.NewAtomFormula(formula.NewAtom(edge, y, z)),
		),
		formula.NewAtomFormula(formula.NewAtom(reachable, x, z)),
	))
	if err != nil {
		t.Fatalf("NewRule(reachable_transitive): %v", err)
	}
	negRule, err := NewRule("unreachable_is_negated_reachable", formula.NewRule(
		formula.NewConjunction(
			formula.NewAtomFormula(formula.NewAtom(node, x)),
			formula.NewAtomFormula(formula.NewAtom(node, y)),
			formula.NewNegation(formula.NewAtomFormula(formula.NewAtom(reachable, x, y))),
		),
		formula.NewAtomFormula(formula.NewAtom(unreachable, x, y)),
	))
	if err != nil {
		t.Fatalf("NewRule(unreachable_is_negated_reachable): %v", err)
	}

	edb := map[term.Predicate]bool{node: true, edge: true}
	eng := NewStratified(sess, []Rule{baseRule, transRule, negRule}, edb, Config{Checker: RestrictedChecker})
	strata, err := eng.Run(s, nil, grd.PredicateMode, (*grd.Graph).StratifyBySCC)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if strata[reachable] >= strata[unreachable] {
		t.Errorf("stratum[reachable]=%d should be strictly below stratum[unreachable]=%d",
			strata[reachable], strata[unreachable])
	}

	for _, pair := range [][2]term.Term{{a, b}, {a, c}, {b, c}} {
		if !s.Contains(reachable, []term.Term{pair[0], pair[1]}) {
			t.Errorf("expected reachable(%v, %v)", pair[0], pair[1])
		}
	}
	if s.Contains(unreachable, []term.Term{a, b}) {
		t.Errorf("did not expect unreachable(a, b): a reaches b")
	}
	if !s.Contains(unreachable, []term.Term{c, a}) {
		t.Errorf("expected unreachable(c, a): c cannot reach a")
	}
}
