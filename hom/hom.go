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

// Package hom implements backtracking homomorphism search: given a
// conjunction of atoms and a binder that resolves each predicate to a
// data.ReadableData source, it enumerates every substitution extending an
// initial binding that satisfies all atoms simultaneously. This is the
// evaluation core behind both backward-chaining query answering and the
// chase's trigger search.
package hom

import (
	"sort"

	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/subst"
	"github.com/datalogplus/reasoner/term"
)

// Binder resolves a predicate to the ReadableData source that should answer
// queries against it.
type Binder func(p term.Predicate) (data.ReadableData, bool)

// Scheduler orders the atoms of a conjunction before search begins. Static
// schedulers only look at the atoms; dynamic ones may also consult the
// binder (e.g. via EstimateBound) to order by current selectivity.
type Scheduler func(atoms []formula.Atom, binder Binder) []formula.Atom

// StaticOrder leaves atoms in their original, as-written order. It is the
// cheapest scheduler and a reasonable default for small, hand-written rule
// bodies where the author already ordered atoms sensibly.
func StaticOrder(atoms []formula.Atom, binder Binder) []formula.Atom {
	return atoms
}

// MostBoundFirst is a static scheduler that orders atoms by the number of
// non-variable arguments (descending), breaking ties by arity (ascending),
// without consulting the data sources at all.
func MostBoundFirst(atoms []formula.Atom, binder Binder) []formula.Atom {
	out := append([]formula.Atom(nil), atoms...)
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := boundCount(out[i]), boundCount(out[j])
		if bi != bj {
			return bi > bj
		}
		return out[i].Predicate.Arity < out[j].Predicate.Arity
	})
	return out
}

func boundCount(a formula.Atom) int {
	n := 0
	for _, arg := range a.Args {
		if _, isVar := arg.(term.Variable); !isVar {
			n++
		}
	}
	return n
}

// DynamicByEstimatedBound is a dynamic scheduler: it greedily selects, at
// each step, the remaining atom with the smallest EstimateBound given the
// variables already bound by atoms placed earlier. This mirrors
// index-nested-loop join ordering in query optimizers and gives much better
// plans than a static order when selectivity varies widely across atoms.
func DynamicByEstimatedBound(atoms []formula.Atom, binder Binder) []formula.Atom {
	remaining := append([]formula.Atom(nil), atoms...)
	bound := make(map[term.Variable]bool)
	var out []formula.Atom
	for len(remaining) > 0 {
		bestIdx := -1
		bestCost := -1
		for i, a := range remaining {
			pattern := patternFor(a, bound)
			src, ok := binder(a.Predicate)
			cost := 0
			if ok {
				cost = src.EstimateBound(data.BasicQuery{Pattern: pattern})
			}
			if bestIdx == -1 || cost < bestCost {
				bestIdx, bestCost = i, cost
			}
		}
		chosen := remaining[bestIdx]
		out = append(out, chosen)
		for _, v := range chosen.FreeVars() {
			bound[v] = true
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return out
}

func patternFor(a formula.Atom, bound map[term.Variable]bool) data.AtomicPattern {
	boundFlags := make([]bool, len(a.Args))
	for i, arg := range a.Args {
		switch x := arg.(type) {
		case term.Variable:
			boundFlags[i] = bound[x]
		default:
			boundFlags[i] = true
		}
	}
	return data.AtomicPattern{Atom: a, Bound: boundFlags}
}

// Search enumerates every extension of base that simultaneously satisfies
// every atom in atoms, calling emit once per solution. Search stops early
// (without error) if emit returns hom.Stop.
func Search(atoms []formula.Atom, binder Binder, scheduler Scheduler, base subst.Substitution, emit func(subst.Substitution) error) error {
	if scheduler == nil {
		scheduler = StaticOrder
	}
	ordered := scheduler(atoms, binder)
	if err := searchFrom(ordered, binder, base, emit); err != Stop {
		return err
	}
	return nil
}

// Stop is returned by an emit callback to end Search early without
// propagating an error to the caller.
var Stop = stopSentinel{}

type stopSentinel struct{}

func (stopSentinel) Error() string { return "hom: search stopped early" }

func searchFrom(atoms []formula.Atom, binder Binder, current subst.Substitution, emit func(subst.Substitution) error) error {
	if len(atoms) == 0 {
		return emit(current)
	}
	head, rest := atoms[0], atoms[1:]
	src, ok := binder(head.Predicate)
	if !ok {
		return nil // predicate has no known extension: no solutions through this atom
	}
	boundAtom := head.ApplySubst(current)
	pattern := patternForGround(boundAtom)
	if !src.CanEvaluate(data.BasicQuery{Pattern: pattern}) {
		return nil
	}
	var stopped bool
	err := src.Evaluate(data.BasicQuery{Pattern: pattern}, func(args []term.Term) error {
		extended, ok := extend(current, boundAtom, args)
		if !ok {
			return nil
		}
		err := searchFrom(rest, binder, extended, emit)
		if err == Stop {
			stopped = true
		}
		return err
	})
	if stopped {
		return Stop
	}
	return err
}

func patternForGround(a formula.Atom) data.AtomicPattern {
	boundFlags := make([]bool, len(a.Args))
	for i, arg := range a.Args {
		if _, isVar := arg.(term.Variable); !isVar {
			boundFlags[i] = true
		}
	}
	return data.AtomicPattern{Atom: a, Bound: boundFlags}
}

// extend unifies boundAtom's still-free variables against a candidate
// tuple, returning an extended substitution and ok=true if the candidate is
// consistent (repeated variables in boundAtom must map to equal terms).
func extend(base subst.Substitution, boundAtom formula.Atom, args []term.Term) (subst.Substitution, bool) {
	out := base
	first := true
	for i, arg := range boundAtom.Args {
		v, isVar := arg.(term.Variable)
		if !isVar {
			continue // already ground, data source guaranteed the match
		}
		if bound, ok := out.Get(v); ok {
			if !bound.Equals(args[i]) {
				return nil, false
			}
			continue
		}
		if first {
			out = base.Extend(v, args[i])
			first = false
		} else {
			out = out.Extend(v, args[i])
		}
	}
	return out, true
}
