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
	"fmt"
	"sort"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/eval"
	"github.com/datalogplus/reasoner/grd"
	"github.com/datalogplus/reasoner/store"
	"github.com/datalogplus/reasoner/term"
)

// StratifyFunc computes a stratum assignment for a Graph of Rule
// Dependencies; grd.Graph.StratifyBySCC, StratifyMinimal,
// StratifySingleEvaluation and StratifyMinimalEvaluation all have this
// signature.
type StratifyFunc func(g *grd.Graph) (grd.Strata, error)

// StratifiedEngine runs a rule set stratum by stratum: every stratum is
// saturated to a fixed point (via an Engine) before the next stratum's
// rules see any of its facts, so a negated or aggregated reference to a
// lower stratum always sees that stratum's final, completed extension.
type StratifiedEngine struct {
	sess  *term.Session
	rules []Rule
	cfg   Config
	edb   map[term.Predicate]bool
}

// NewStratified builds a stratified chase over rules. edb marks predicates
// with no rules of their own (their facts are assumed already present in
// the store and never recomputed).
func NewStratified(sess *term.Session, rules []Rule, edb map[term.Predicate]bool, cfg Config) *StratifiedEngine {
	return &StratifiedEngine{sess: sess, rules: rules, cfg: cfg.withDefaults(), edb: edb}
}

// buildGraph translates the engine's rules into grd.Rule values and builds
// the dependency graph under mode.
func (se *StratifiedEngine) buildGraph(mode grd.EdgeMode) (*grd.Graph, error) {
	grdRules := make([]grd.Rule, len(se.rules))
	for i, r := range se.rules {
		grdRules[i] = grd.Rule{
			Body:      r.Body,
			HeadVars:  r.HeadExistentials,
			HeadAtoms: r.HeadAtoms,
			IsEdb:     se.edb,
		}
	}
	return grd.Build(grdRules, mode)
}

// ruleStratum returns the stratum a rule must run in: the maximum stratum
// among every predicate the rule's head disjuncts define, so the rule is
// never evaluated before every one of its head predicates' dependencies
// have settled.
func ruleStratum(r Rule, strata grd.Strata) int {
	max := 0
	for _, atoms := range r.HeadAtoms {
		for _, a := range atoms {
			if s, ok := strata[a.Predicate]; ok && s > max {
				max = s
			}
		}
	}
	return max
}

// Run builds the Graph of Rule Dependencies under mode, stratifies it with
// strategy, and runs one Engine per stratum in increasing order against s,
// resolving predicates not produced by any rule (EDB predicates, and any
// computed predicates) through extra. It returns the per-predicate stratum
// assignment actually used, for diagnostics.
func (se *StratifiedEngine) Run(s *store.FactStore, extra eval.Binder, mode grd.EdgeMode, strategy StratifyFunc) (grd.Strata, error) {
	g, err := se.buildGraph(mode)
	if err != nil {
		return nil, fmt.Errorf("chase: building dependency graph: %w", err)
	}
	strata, err := strategy(g)
	if err != nil {
		return nil, fmt.Errorf("chase: stratification failed: %w", err)
	}

	byStratum := make(map[int][]Rule)
	for _, r := range se.rules {
		st := ruleStratum(r, strata)
		byStratum[st] = append(byStratum[st], r)
	}
	var levels []int
	for st := range byStratum {
		levels = append(levels, st)
	}
	sort.Ints(levels)

	binder := storeBinder(s, se.storePredicates(), extra)
	for _, st := range levels {
		engine := New(se.sess, byStratum[st], se.cfg)
		if _, err := engine.Run(s, binder); err != nil {
			return strata, fmt.Errorf("chase: stratum %d: %w", st, err)
		}
	}
	return strata, nil
}

// storePredicates is every predicate the store is responsible for
// answering: the declared EDB predicates plus every predicate defined by
// some rule's head, regardless of whether it has derived any facts yet.
func (se *StratifiedEngine) storePredicates() map[term.Predicate]bool {
	out := make(map[term.Predicate]bool, len(se.edb))
	for p := range se.edb {
		out[p] = true
	}
	for _, r := range se.rules {
		for _, atoms := range r.HeadAtoms {
			for _, a := range atoms {
				out[a.Predicate] = true
			}
		}
	}
	return out
}

// storeBinder resolves a predicate against s's relation view whenever
// known declares it store-backed, falling back to extra (typically a
// computed.Registry-backed binder) for anything else, such as computed
// predicates.
func storeBinder(s *store.FactStore, known map[term.Predicate]bool, extra eval.Binder) eval.Binder {
	return func(p term.Predicate) (data.ReadableData, bool) {
		if known[p] {
			return s.Relation(p), true
		}
		if extra != nil {
			return extra(p)
		}
		return nil, false
	}
}
