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
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/store"
	"github.com/datalogplus/reasoner/subst"
)

// TriggerChecker decides whether a trigger is already satisfied by the
// store and therefore need not fire. It receives one head disjunct's atoms
// and the trigger's body binding, before any Renamer has assigned
// existential witnesses.
type TriggerChecker func(s *store.FactStore, headAtoms []formula.Atom, binding subst.Substitution) bool

// ObliviousChecker never considers a trigger satisfied: every trigger fires
// every time it is found, which is simple but can re-derive facts (and,
// combined with ObliviousRenamer, can make an otherwise-terminating rule
// set run forever).
func ObliviousChecker(s *store.FactStore, headAtoms []formula.Atom, binding subst.Substitution) bool {
	return false
}

// RestrictedChecker considers a trigger satisfied when every one of its
// head atoms, grounded by binding, is already present in s: the standard
// "restricted" (semi-oblivious) chase check that avoids firing a rule
// whose conclusion already holds. binding is the frontier binding before a
// Renamer assigns existential witnesses, so a head atom that still
// contains an existential variable can never match a ground fact and the
// disjunct is treated as unsatisfied; this under-approximates the full
// restricted chase (which would ask "does there exist a witness already
// satisfying this atom"), trading completeness of the dedup for not having
// to run an existential sub-query per candidate trigger.
func RestrictedChecker(s *store.FactStore, headAtoms []formula.Atom, binding subst.Substitution) bool {
	for _, a := range headAtoms {
		grounded := a.ApplySubst(binding)
		if !s.Contains(grounded.Predicate, grounded.Args) {
			return false
		}
	}
	return true
}
