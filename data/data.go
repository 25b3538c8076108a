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

// Package data defines the ReadableData protocol: the minimal interface a
// predicate's extension must satisfy to participate in homomorphism search
// and query evaluation, whether it is backed by a materialized fact store
// or by an on-the-fly computed predicate.
package data

import (
	"fmt"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/term"
)

// AtomicPattern is a single atom paired with a partial binding (a pattern of
// bound positions) that a ReadableData source is asked to match against its
// extension.
type AtomicPattern struct {
	Atom formula.Atom
	// Bound marks, for each argument position, whether Atom.Args[i] is
	// already ground (either a literal/constant, or a variable bound by an
	// enclosing query context) at evaluation time.
	Bound []bool
}

// BoundArgs returns the ground terms of the pattern's bound positions, in
// argument order, and their positions.
func (p AtomicPattern) BoundArgs() (positions []int, terms []term.Term) {
	for i, b := range p.Bound {
		if b {
			positions = append(positions, i)
			terms = append(terms, p.Atom.Args[i])
		}
	}
	return positions, terms
}

// BasicQuery is a single conjunctive-atom query with an externally supplied
// partial binding, the unit of work a ReadableData source evaluates.
type BasicQuery struct {
	Pattern AtomicPattern
}

// ReadableData is the protocol every predicate extension must implement,
// whether it is a plain fact store, a view, or a computed-predicate source.
type ReadableData interface {
	// Evaluate calls emit once for every tuple of terms in this predicate's
	// extension that is consistent with query's bound positions. Evaluate
	// returns any error returned by emit, stopping iteration early.
	Evaluate(query BasicQuery, emit func(args []term.Term) error) error

	// CanEvaluate reports whether this source can answer query at all
	// (e.g. a computed predicate that requires its first argument bound
	// cannot evaluate a query leaving it free).
	CanEvaluate(query BasicQuery) bool

	// EstimateBound returns an estimate of the number of result tuples
	// Evaluate would produce for query, used by schedulers to order atoms
	// from most to least selective. The estimate need not be exact; it
	// must only be non-negative, and 0 must mean "definitely no results".
	EstimateBound(query BasicQuery) int
}

// MaterializedData is an optional capability: a ReadableData source that can
// also be enumerated in full, independent of any particular query pattern.
// Fact stores implement this; most computed predicates do not (their
// extension may be infinite, e.g. the reserved comparison predicates).
type MaterializedData interface {
	ReadableData
	// AllTuples calls emit once per tuple of the predicate's full
	// extension.
	AllTuples(emit func(args []term.Term) error) error
	// Count returns the exact number of tuples in the extension.
	Count() int
}

// Writable is an optional capability: a ReadableData source that also
// accepts new facts, used by the chase's appliers to materialize
// consequences of firing a trigger.
type Writable interface {
	// Add inserts a fully-ground tuple, returning true if it was not
	// already present.
	Add(args []term.Term) (bool, error)
}

// AtomAcceptance is an optional capability letting a source veto a
// particular ground atom before it is added, independent of Writable.Add's
// own dedup semantics (e.g. a computed predicate's reversible inverse
// rejecting a value outside its function's range).
type AtomAcceptance interface {
	// Accepts reports whether args is a valid tuple for this predicate.
	Accepts(args []term.Term) bool
}

// DatalogDelegable is an optional capability: a ReadableData source that can
// delegate part of the evaluation of query back into ordinary Datalog
// evaluation (e.g. a view defined by a stored rule, rather than by a
// function or a raw extension). When present, callers should prefer
// DelegateQuery over Evaluate whenever a formula.FOQuery is available,
// since a delegated evaluator can exploit query-specific optimizations
// (e.g. selecting an evaluation order) that a bare BasicQuery cannot.
type DatalogDelegable interface {
	ReadableData
	// DelegateQuery returns the FO query this source has been asked to
	// evaluate translated into a form the caller's own query evaluator
	// can run directly, or ok=false if no such translation exists.
	DelegateQuery(query BasicQuery) (translated formula.FOQuery, ok bool)
}

// ErrCannotEvaluate is returned by sources whose Evaluate is called on a
// query it cannot answer (CanEvaluate would have reported false); callers
// should check CanEvaluate first, this exists to make failures loud if they
// don't.
func ErrCannotEvaluate(pred term.Predicate) error {
	return fmt.Errorf("data: predicate %v cannot evaluate the given binding pattern", pred)
}
