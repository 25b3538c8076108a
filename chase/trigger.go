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
	"github.com/datalogplus/reasoner/eval"
	"github.com/datalogplus/reasoner/hom"
	"github.com/datalogplus/reasoner/subst"
)

// Trigger is one homomorphism from a rule's body into the current store,
// naming the rule and head disjunct it would fire.
type Trigger struct {
	RuleIndex     int
	DisjunctIndex int
	Binding       subst.Substitution
}

// TriggerComputer finds every trigger for a rule against the current data,
// calling emit once per homomorphism found. Returning an error from emit
// stops the search early (other than hom.Stop, which is swallowed).
type TriggerComputer func(rule Rule, binder eval.Binder, scheduler hom.Scheduler, emit func(subst.Substitution) error) error

// DefaultTriggerComputer runs plain homomorphism search over a rule's body
// atoms, the same machinery backward-chaining query answering uses; this is
// the "naive" trigger search and re-evaluates the whole body every round.
func DefaultTriggerComputer(rule Rule, binder eval.Binder, scheduler hom.Scheduler, emit func(subst.Substitution) error) error {
	return eval.Eval(rule.Body, binder, scheduler, subst.New(), emit)
}
