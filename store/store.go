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

// Package store implements FactStore, a materialized, mutable ReadableData
// source indexed by (predicate, argument position, term), so a query with
// at least one argument position bound can look up candidate tuples through
// one bound position's index instead of scanning every fact for the
// predicate.
package store

import (
	"github.com/datalogplus/reasoner/data"
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/term"
)

// FactStore is a materialized, mutable, in-memory extension for one or more
// predicates. Facts are stored per predicate in a map keyed by the hash of
// the whole argument tuple, with a per-position term index built lazily, so
// point lookups on any single argument avoid a full predicate scan; a full
// scan is the fallback when no argument is bound.
type FactStore struct {
	// factsByPredicate[p][hash-of-args] = args, for every known fact of p.
	factsByPredicate map[term.Predicate]map[uint64][]term.Term
	// termIndex[p][argPos][term.Hash()] = set of arg-hashes with that term
	// at argPos. Built lazily on first use of a pattern bound at argPos,
	// so predicates that are always scanned unbound never pay for it.
	termIndex map[term.Predicate][]map[uint64]map[uint64]bool
}

// New returns an empty fact store.
func New() *FactStore {
	return &FactStore{
		factsByPredicate: make(map[term.Predicate]map[uint64][]term.Term),
		termIndex:        make(map[term.Predicate][]map[uint64]map[uint64]bool),
	}
}

func hashArgs(args []term.Term) uint64 {
	h := uint64(1469598103934665603) // FNV offset basis
	for _, a := range args {
		h ^= a.Hash()
		h *= 1099511628211 // FNV prime
	}
	return h
}

// Add inserts a fully-ground fact, returning true if it was not already
// present. The Add method of a Relation view wraps it to implement
// data.Writable.
func (s *FactStore) Add(p term.Predicate, args []term.Term) bool {
	key := hashArgs(args)
	byHash, ok := s.factsByPredicate[p]
	if !ok {
		byHash = make(map[uint64][]term.Term)
		s.factsByPredicate[p] = byHash
	}
	if _, exists := byHash[key]; exists {
		return false
	}
	byHash[key] = args
	s.indexFact(p, args, key)
	return true
}

func (s *FactStore) indexFact(p term.Predicate, args []term.Term, factHash uint64) {
	idx, ok := s.termIndex[p]
	if !ok {
		return // no term index built for this predicate yet
	}
	for i, arg := range args {
		if idx[i] == nil {
			continue
		}
		h := arg.Hash()
		set, ok := idx[i][h]
		if !ok {
			set = make(map[uint64]bool)
			idx[i][h] = set
		}
		set[factHash] = true
	}
}

// ensureTermIndex lazily builds an argument-position index for predicate p,
// covering every fact already present.
func (s *FactStore) ensureTermIndex(p term.Predicate, pos int) {
	idx, ok := s.termIndex[p]
	if !ok {
		idx = make([]map[uint64]map[uint64]bool, p.Arity)
		s.termIndex[p] = idx
	}
	if idx[pos] != nil {
		return
	}
	idx[pos] = make(map[uint64]map[uint64]bool)
	for hash, args := range s.factsByPredicate[p] {
		h := args[pos].Hash()
		set, ok := idx[pos][h]
		if !ok {
			set = make(map[uint64]bool)
			idx[pos][h] = set
		}
		set[hash] = true
	}
}

// Contains reports whether the exact fact (p, args) is present.
func (s *FactStore) Contains(p term.Predicate, args []term.Term) bool {
	byHash, ok := s.factsByPredicate[p]
	if !ok {
		return false
	}
	_, exists := byHash[hashArgs(args)]
	return exists
}

// Count returns the number of facts stored for p.
func (s *FactStore) Count(p term.Predicate) int {
	return len(s.factsByPredicate[p])
}

// Predicates lists every predicate with at least one indexed fact.
func (s *FactStore) Predicates() []term.Predicate {
	out := make([]term.Predicate, 0, len(s.factsByPredicate))
	for p := range s.factsByPredicate {
		out = append(out, p)
	}
	return out
}

// Scan calls emit for every fact of predicate p, unconditionally.
func (s *FactStore) Scan(p term.Predicate, emit func(args []term.Term) error) error {
	for _, args := range s.factsByPredicate[p] {
		if err := emit(args); err != nil {
			return err
		}
	}
	return nil
}

// relationView adapts a single predicate's facts into a data.ReadableData
// (and data.MaterializedData, data.Writable) view.
type relationView struct {
	store *FactStore
	pred  term.Predicate
}

// Relation returns a data.ReadableData / MaterializedData / Writable view
// scoped to a single predicate within s.
func (s *FactStore) Relation(p term.Predicate) relationView {
	return relationView{store: s, pred: p}
}

func matches(pattern data.AtomicPattern, args []term.Term) bool {
	for i, bound := range pattern.Bound {
		if bound && !pattern.Atom.Args[i].Equals(args[i]) {
			return false
		}
	}
	return true
}

// Evaluate implements data.ReadableData.
func (r relationView) Evaluate(q data.BasicQuery, emit func(args []term.Term) error) error {
	positions, terms := q.Pattern.BoundArgs()
	if len(positions) == 0 {
		return r.store.Scan(r.pred, emit)
	}
	// Use the most selective bound position: the one with the smallest
	// term-index bucket, falling back to the first bound position found.
	pos, boundTerm, best := positions[0], terms[0], -1
	for i, p := range positions {
		r.store.ensureTermIndex(r.pred, p)
		if n := len(r.store.termIndex[r.pred][p][terms[i].Hash()]); best < 0 || n < best {
			pos, boundTerm, best = p, terms[i], n
		}
	}
	idx := r.store.termIndex[r.pred][pos]
	byHash := r.store.factsByPredicate[r.pred]
	for hash := range idx[boundTerm.Hash()] {
		args := byHash[hash]
		if matches(q.Pattern, args) {
			if err := emit(args); err != nil {
				return err
			}
		}
	}
	return nil
}

// CanEvaluate implements data.ReadableData: a materialized store can answer
// any binding pattern.
func (r relationView) CanEvaluate(q data.BasicQuery) bool { return true }

// EstimateBound implements data.ReadableData.
func (r relationView) EstimateBound(q data.BasicQuery) int {
	positions, terms := q.Pattern.BoundArgs()
	if len(positions) == 0 {
		return r.store.Count(r.pred)
	}
	r.store.ensureTermIndex(r.pred, positions[0])
	idx := r.store.termIndex[r.pred][positions[0]]
	return len(idx[terms[0].Hash()])
}

// AllTuples implements data.MaterializedData.
func (r relationView) AllTuples(emit func(args []term.Term) error) error {
	return r.store.Scan(r.pred, emit)
}

// Count implements data.MaterializedData.
func (r relationView) Count() int { return r.store.Count(r.pred) }

// Add implements data.Writable.
func (r relationView) Add(args []term.Term) (bool, error) {
	return r.store.Add(r.pred, args), nil
}

// Merge copies every fact from other into s.
func (s *FactStore) Merge(other *FactStore) {
	for p, byHash := range other.factsByPredicate {
		for _, args := range byHash {
			s.Add(p, args)
		}
	}
}

// MatchesAtom reports whether ground args satisfies atom's pattern of
// constants and repeated variables (e.g. p(X, X) only matches tuples whose
// two components are equal), without consulting any store.
func MatchesAtom(atom formula.Atom, args []term.Term) bool {
	seen := make(map[term.Variable]term.Term)
	for i, a := range atom.Args {
		switch x := a.(type) {
		case term.Variable:
			if bound, ok := seen[x]; ok {
				if !bound.Equals(args[i]) {
					return false
				}
			} else {
				seen[x] = args[i]
			}
		default:
			if !x.Equals(args[i]) {
				return false
			}
		}
	}
	return true
}
