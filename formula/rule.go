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

package formula

import (
	"fmt"

	"github.com/datalogplus/reasoner/term"
)

// FOQuery is a first-order query: a set of answer variables together with a
// body formula that binds them. AnswerVars lists the columns that survive
// into query results; variables free in Body but absent from AnswerVars are
// existentially projected away.
type FOQuery struct {
	AnswerVars []term.Variable
	Body       Formula
}

// NewFOQuery builds a query, validating that every answer variable actually
// occurs free in the body.
func NewFOQuery(answerVars []term.Variable, body Formula) (FOQuery, error) {
	free := make(map[term.Variable]bool)
	for _, v := range body.FreeVars() {
		free[v] = true
	}
	for _, v := range answerVars {
		if !free[v] {
			return FOQuery{}, fmt.Errorf("formula: answer variable %v does not occur free in the query body", v)
		}
	}
	return FOQuery{AnswerVars: answerVars, Body: body}, nil
}

func (q FOQuery) String() string {
	return fmt.Sprintf("answer(%v) :- %s", q.AnswerVars, q.Body)
}

// Rule is a single existential/disjunctive Datalog± rule: Body implies Head.
// Head may be:
//   - a single AtomFormula (plain Datalog rule)
//   - a Conjunction of AtomFormula (multi-atom head)
//   - an Existential wrapping a Conjunction of AtomFormula (existential rule)
//   - a Disjunction whose disjuncts are each one of the above shapes
//     (disjunctive, possibly existential, rule)
type Rule struct {
	Body Formula
	Head Formula
}

// NewRule constructs a rule without validating its fragment; use one of the
// Is*Head checks, or Validate, once the rule is fully built.
func NewRule(body, head Formula) Rule {
	return Rule{Body: body, Head: head}
}

func (r Rule) String() string {
	return fmt.Sprintf("%s :- %s", r.Head, r.Body)
}

// headDisjuncts returns the rule head's disjuncts: a single-element slice
// for a non-disjunctive head, or Disjunction.Disjuncts for a disjunctive one.
func headDisjuncts(head Formula) []Formula {
	if d, ok := head.(Disjunction); ok {
		return d.Disjuncts
	}
	return []Formula{head}
}

// disjunctAtomsAndExistentials splits a single head disjunct into its
// existentially quantified variables (nil if none) and its head atoms.
// It returns ok=false if the disjunct is not one of the permitted shapes.
func disjunctAtomsAndExistentials(f Formula) (vars []term.Variable, atoms []Atom, ok bool) {
	if ex, isEx := f.(Existential); isEx {
		vars = ex.Vars
		f = ex.Inner
	}
	switch x := f.(type) {
	case AtomFormula:
		return vars, []Atom{x.Atom}, true
	case Conjunction:
		atoms = make([]Atom, 0, len(x.Conjuncts))
		for _, c := range x.Conjuncts {
			af, isAtom := c.(AtomFormula)
			if !isAtom {
				return nil, nil, false
			}
			atoms = append(atoms, af.Atom)
		}
		return vars, atoms, true
	default:
		return nil, nil, false
	}
}

// IsPlainConjunctiveHead reports whether head has no existential
// quantification and no disjunction: every disjunct (there being only one)
// is a bare atom or conjunction of atoms.
func IsPlainConjunctiveHead(head Formula) bool {
	disjuncts := headDisjuncts(head)
	if len(disjuncts) != 1 {
		return false
	}
	vars, _, ok := disjunctAtomsAndExistentials(disjuncts[0])
	return ok && len(vars) == 0
}

// IsExistentialHead reports whether head is a single (possibly existentially
// quantified) conjunction of atoms: not disjunctive, but existential
// variables are allowed.
func IsExistentialHead(head Formula) bool {
	disjuncts := headDisjuncts(head)
	if len(disjuncts) != 1 {
		return false
	}
	_, _, ok := disjunctAtomsAndExistentials(disjuncts[0])
	return ok
}

// IsDisjunctiveExistentialHead reports whether every disjunct of head (a
// non-disjunctive head counting as a single disjunct) is a (possibly
// existentially quantified) conjunction of atoms: the most general
// rule-head fragment this engine supports.
func IsDisjunctiveExistentialHead(head Formula) bool {
	for _, d := range headDisjuncts(head) {
		if _, _, ok := disjunctAtomsAndExistentials(d); !ok {
			return false
		}
	}
	return true
}

// HeadAtomSets returns, for each disjunct of head, its existential
// variables and its atoms. It returns an error if head is not in the
// disjunctive-existential fragment.
func HeadAtomSets(head Formula) ([][]term.Variable, [][]Atom, error) {
	disjuncts := headDisjuncts(head)
	varsPerDisjunct := make([][]term.Variable, len(disjuncts))
	atomsPerDisjunct := make([][]Atom, len(disjuncts))
	for i, d := range disjuncts {
		vars, atoms, ok := disjunctAtomsAndExistentials(d)
		if !ok {
			return nil, nil, fmt.Errorf("formula: rule head disjunct %d is not a conjunction of atoms: %s", i, d)
		}
		varsPerDisjunct[i] = vars
		atomsPerDisjunct[i] = atoms
	}
	return varsPerDisjunct, atomsPerDisjunct, nil
}

// Validate checks structural well-formedness of r:
//   - the head is in the disjunctive-existential-conjunctive fragment
//   - every negated atom in the body is range-restricted: each of its
//     variables also occurs in some positive atom of the body (safe
//     negation, required so a stratification analysis can reject
//     unsafely-negated rules)
//   - every frontier variable (a head variable that is not existential)
//     occurs in some positive atom of the body
func (r Rule) Validate() error {
	if !IsDisjunctiveExistentialHead(r.Head) {
		return fmt.Errorf("formula: rule head %s is not a conjunction, existential or disjunction of atoms", r.Head)
	}

	positiveVars := make(map[term.Variable]bool)
	for _, a := range bodyAtoms(r.Body, false) {
		for _, v := range a.FreeVars() {
			positiveVars[v] = true
		}
	}
	for _, a := range bodyAtoms(r.Body, true) {
		for _, v := range a.FreeVars() {
			if !positiveVars[v] {
				return fmt.Errorf("formula: unsafe negation: variable %v in negated atom %s does not occur in a positive atom", v, a)
			}
		}
	}

	varsPerDisjunct, _, err := HeadAtomSets(r.Head)
	if err != nil {
		return err
	}
	for i, vars := range varsPerDisjunct {
		existential := make(map[term.Variable]bool, len(vars))
		for _, v := range vars {
			existential[v] = true
		}
		for _, v := range headFrontier(r.Head, i) {
			if existential[v] {
				continue
			}
			if !positiveVars[v] {
				return fmt.Errorf("formula: rule head variable %v is not bound by any positive body atom", v)
			}
		}
	}
	return nil
}

// bodyAtoms returns the atoms of body that are (if negated=true) or are not
// (if negated=false) under an odd number of negations.
func bodyAtoms(f Formula, negated bool) []Atom {
	var out []Atom
	var walk func(Formula, bool)
	walk = func(f Formula, neg bool) {
		switch x := f.(type) {
		case AtomFormula:
			if neg == negated {
				out = append(out, x.Atom)
			}
		case Negation:
			walk(x.Inner, !neg)
		case Conjunction:
			for _, c := range x.Conjuncts {
				walk(c, neg)
			}
		case Disjunction:
			for _, d := range x.Disjuncts {
				walk(d, neg)
			}
		case Existential:
			walk(x.Inner, neg)
		case Universal:
			walk(x.Inner, neg)
		}
	}
	walk(f, false)
	return out
}

func headFrontier(head Formula, disjunctIndex int) []term.Variable {
	disjuncts := headDisjuncts(head)
	_, atoms, ok := disjunctAtomsAndExistentials(disjuncts[disjunctIndex])
	if !ok {
		return nil
	}
	var vars []term.Variable
	for _, a := range atoms {
		vars = mergeVars(vars, a.FreeVars())
	}
	return vars
}
