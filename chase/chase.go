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
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/hom"
	"github.com/datalogplus/reasoner/internal/diag"
	"github.com/datalogplus/reasoner/store"
	"github.com/datalogplus/reasoner/subst"
	"github.com/datalogplus/reasoner/term"
)

// Config holds the pluggable strategies Engine.Run uses. Every field has a
// documented zero-value fallback so a caller can build a Config with only
// the fields it cares about.
type Config struct {
	// Scheduler orders each rule body's atoms during trigger search. Nil
	// defaults to hom.StaticOrder.
	Scheduler hom.Scheduler
	// Triggers finds homomorphisms of a rule body into the store. Nil
	// defaults to DefaultTriggerComputer.
	Triggers TriggerComputer
	// Checker decides whether a found trigger is already satisfied. Nil
	// defaults to ObliviousChecker (the oblivious chase: always fire).
	Checker TriggerChecker
	// Rename assigns witnesses to existential variables. Nil defaults to
	// SkolemRenamer (the restricted/core chase's deterministic witnesses).
	Rename Renamer
	// Apply materializes a round's firings into the store. Nil defaults to
	// SequentialApplier.
	Apply Applier
	// Halt bounds the number of rounds the chase may run for rule sets
	// without a finite universal model. Nil defaults to NoLimit.
	Halt HaltingCondition
	// Sink receives a NonTerminatingChaseWarning if Halt stops the chase
	// before a genuine fixed point was reached. Nil disables reporting.
	Sink *diag.Sink
}

func (c Config) withDefaults() Config {
	if c.Scheduler == nil {
		c.Scheduler = hom.StaticOrder
	}
	if c.Triggers == nil {
		c.Triggers = DefaultTriggerComputer
	}
	if c.Checker == nil {
		c.Checker = ObliviousChecker
	}
	if c.Rename == nil {
		c.Rename = SkolemRenamer
	}
	if c.Apply == nil {
		c.Apply = SequentialApplier
	}
	if c.Halt == nil {
		c.Halt = NoLimit
	}
	return c
}

// Engine runs the chase for a fixed rule set and session.
type Engine struct {
	sess  *term.Session
	rules []Rule
	cfg   Config
}

// New builds a chase engine over rules, evaluated with the session sess
// used to intern any witness terms a Renamer produces.
func New(sess *term.Session, rules []Rule, cfg Config) *Engine {
	return &Engine{sess: sess, rules: rules, cfg: cfg.withDefaults()}
}

// Run saturates s under the engine's rule set: repeatedly finds every
// trigger, fires every one the Checker does not consider already satisfied,
// and materializes the results, until a round adds no new facts or Halt
// says to stop. It returns the number of rounds actually run.
//
// Each round evaluates every rule body once against the current store and
// adds every resulting head atom before the next round begins, generalized
// to rule heads with existential witnesses and disjunction: a disjunctive
// rule's trigger fires its first head disjunct not already satisfied,
// which is sound for query answering under certain-answer semantics
// because it still guarantees at least one disjunct's facts are present,
// though it does not explore the full space of possible models a
// disjunctive chase could in principle track.
func (e *Engine) Run(s *store.FactStore, binder eval.Binder) (int, error) {
	round := 0
	for {
		round++
		firings, fired, err := e.findFirings(s, binder)
		if err != nil {
			return round, err
		}
		added, err := e.cfg.Apply(s, firings)
		if err != nil {
			return round, err
		}
		total := 0
		for _, p := range s.Predicates() {
			total += s.Count(p)
		}
		stats := RoundStats{Round: round, TriggersFired: fired, FactsAdded: added, TotalFactCount: total}
		if added == 0 {
			return round, nil
		}
		if !e.cfg.Halt(stats) {
			if e.cfg.Sink != nil {
				e.cfg.Sink.Report(diag.NonTerminatingChaseWarning, "chase stopped at round %d with %d facts, halting condition declined to continue", round, total)
			}
			return round, nil
		}
	}
}

func (e *Engine) findFirings(s *store.FactStore, binder eval.Binder) ([]Firing, int, error) {
	var firings []Firing
	fired := 0
	for _, r := range e.rules {
		err := e.cfg.Triggers(r, binder, e.cfg.Scheduler, func(binding subst.Substitution) error {
			disjunct := e.chooseDisjunct(s, r, binding)
			if disjunct == -1 {
				return nil // every disjunct already satisfied
			}
			frontier := binding.RestrictTo(headVars(r.HeadAtoms[disjunct]))
			full := binding
			if len(r.HeadExistentials[disjunct]) > 0 {
				witnesses := e.cfg.Rename(e.sess, r.Name, r.HeadExistentials[disjunct], frontier)
				full = subst.Compose(witnesses, binding)
			}
			fired++
			firings = append(firings, Firing{HeadAtoms: r.HeadAtoms[disjunct], Binding: full})
			return nil
		})
		if err != nil {
			return nil, 0, err
		}
	}
	return firings, fired, nil
}

// chooseDisjunct returns the index of the first head disjunct the Checker
// does not consider already satisfied under binding. binding does not
// ground existential variables, so under RestrictedChecker a disjunct with
// an existential variable in any of its atoms never counts as satisfied.
// It returns -1 if every disjunct is already satisfied.
func (e *Engine) chooseDisjunct(s *store.FactStore, r Rule, binding subst.Substitution) int {
	for i, atoms := range r.HeadAtoms {
		if !e.cfg.Checker(s, atoms, binding) {
			return i
		}
	}
	return -1
}

func headVars(atoms []formula.Atom) []term.Variable {
	seen := make(map[term.Variable]bool)
	var out []term.Variable
	for _, a := range atoms {
		for _, v := range a.FreeVars() {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
