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

// Package chase implements the forward-chaining fixed-point computation
// (the "chase") that saturates a fact store under a set of existential and
// disjunctive rules: each round evaluates every rule body once against the
// current store and adds the resulting head atoms, generalized to invent
// fresh witnesses for existential variables and to fire one disjunct per
// disjunctive head.
package chase

import (
	"fmt"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/term"
)

// Rule is a chase-ready rule: a formula.Rule plus its precomputed head
// decomposition (one entry per disjunct, so a disjunctive rule fires one
// branch per trigger rather than all branches at once).
type Rule struct {
	Name string // for diagnostics only, not used for identity
	Body formula.Formula

	// HeadExistentials[i] and HeadAtoms[i] are the existential variables
	// and atoms of the i-th head disjunct.
	HeadExistentials [][]term.Variable
	HeadAtoms        [][]formula.Atom
}

// NewRule builds a chase Rule from a validated formula.Rule.
func NewRule(name string, r formula.Rule) (Rule, error) {
	if err := r.Validate(); err != nil {
		return Rule{}, fmt.Errorf("chase: rule %s: %w", name, err)
	}
	vars, atoms, err := formula.HeadAtomSets(r.Head)
	if err != nil {
		return Rule{}, fmt.Errorf("chase: rule %s: %w", name, err)
	}
	return Rule{Name: name, Body: r.Body, HeadExistentials: vars, HeadAtoms: atoms}, nil
}

// BodyAtoms returns every atom in the rule's body, including atoms under
// negation (see formula.Atoms).
func (r Rule) BodyAtoms() []formula.Atom {
	return formula.Atoms(r.Body)
}

// IsExistential reports whether any head disjunct introduces a fresh
// existential variable.
func (r Rule) IsExistential() bool {
	for _, vars := range r.HeadExistentials {
		if len(vars) > 0 {
			return true
		}
	}
	return false
}

// IsDisjunctive reports whether the rule head has more than one disjunct.
func (r Rule) IsDisjunctive() bool {
	return len(r.HeadAtoms) > 1
}
