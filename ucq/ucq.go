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

// Package ucq rewrites a conjunctive query against a set of existential
// rules into a union of conjunctive queries (UCQ), breadth-first, using
// piece unifiers to fold a rule's head back into the query's atoms one step
// at a time. Subsumption discards any newly produced query that is no more
// general than one already kept, bounding the (otherwise unbounded) search.
package ucq

import (
	"bitbucket.org/creachadair/stringset"

	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/piece"
	"github.com/datalogplus/reasoner/subst"
	"github.com/datalogplus/reasoner/term"
)

// Rule is the minimal rule shape this package rewrites against: a single
// (possibly existential) conjunction of head atoms implied by a
// conjunction of body atoms. Disjunctive heads are rewritten by calling
// Rewrite once per disjunct, since each disjunct independently explains the
// same piece of a query.
type Rule struct {
	BodyAtoms    []formula.Atom
	HeadAtoms    []formula.Atom
	Existentials []term.Variable
}

// Query is a conjunctive query: its atoms, and which of its variables are
// answer variables (must survive rewriting, never be existentially
// eliminated by a piece unifier).
type Query struct {
	Atoms      []formula.Atom
	AnswerVars []term.Variable
}

func (q Query) signature() string {
	// A cheap signature (the atoms' string forms, in order) used to dedupe
	// queries before the subsumption check: Rewrite skips a candidate whose
	// signature was kept before without running that check. Answer
	// variables are not part of the signature.
	var sb []byte
	for _, a := range q.Atoms {
		sb = append(sb, []byte(a.String())...)
		sb = append(sb, '|')
	}
	return string(sb)
}

// Rewrite computes the union of conjunctive queries obtained by applying
// piece unifiers against rules, breadth-first, until a fixed point (no new,
// non-subsumed query can be produced) or maxRounds is reached. maxRounds
// bounds a search that is not guaranteed to terminate for an arbitrary rule
// set (first-order rewritability is undecidable in general); callers
// running this as part of finite-unification-set reasoning should pick
// maxRounds based on their rule set's known FUS bound.
func Rewrite(seed Query, rules []Rule, maxRounds int) []Query {
	frontier := []Query{seed}
	kept := []Query{seed}
	seenSignatures := stringset.New(seed.signature())

	for round := 0; round < maxRounds && len(frontier) > 0; round++ {
		var next []Query
		for _, q := range frontier {
			for _, r := range rules {
				for _, rewritten := range rewriteOneStep(q, r) {
					sig := rewritten.signature()
					if seenSignatures.Contains(sig) {
						continue
					}
					if isSubsumedByAny(rewritten, kept) {
						continue
					}
					kept = dropSubsumedBy(kept, rewritten)
					kept = append(kept, rewritten)
					seenSignatures.Add(sig)
					next = append(next, rewritten)
				}
			}
		}
		frontier = next
	}
	return kept
}

// rewriteOneStep produces, for every piece unifier between q's atoms and
// r's head, the query obtained by replacing the unified atoms with r's body
// atoms (the rewriting step of backward chaining over existential rules).
func rewriteOneStep(q Query, r Rule) []Query {
	unifiers, err := piece.Compute(q.Atoms, r.Existentials, r.HeadAtoms)
	if err != nil {
		return nil
	}
	var out []Query
	for _, u := range unifiers {
		if unifierTouchesAnswerVar(q, u) {
			continue // cannot eliminate an answer variable via rewriting
		}
		out = append(out, applyUnifier(q, r, u))
	}
	return out
}

func unifierTouchesAnswerVar(q Query, u piece.Unifier) bool {
	inPiece := make(map[int]bool, len(u.Piece))
	for _, i := range u.Piece {
		inPiece[i] = true
	}
	for _, av := range q.AnswerVars {
		rep := u.Partition.Representative(av)
		if !rep.Equals(av) {
			// av got unified away; only acceptable if it unified with
			// itself (no-op), otherwise we would lose an answer column.
			return true
		}
	}
	return false
}

func applyUnifier(q Query, r Rule, u piece.Unifier) Query {
	inPiece := make(map[int]bool, len(u.Piece))
	for _, i := range u.Piece {
		inPiece[i] = true
	}
	var remaining []formula.Atom
	for i, a := range q.Atoms {
		if !inPiece[i] {
			remaining = append(remaining, a.ApplySubst(u.Partition))
		}
	}
	for _, a := range r.BodyAtoms {
		remaining = append(remaining, a.ApplySubst(u.Partition))
	}
	newAnswerVars := make([]term.Variable, len(q.AnswerVars))
	for i, v := range q.AnswerVars {
		if rep, ok := u.Partition.Representative(v).(term.Variable); ok {
			newAnswerVars[i] = rep
		} else {
			newAnswerVars[i] = v
		}
	}
	return Query{Atoms: remaining, AnswerVars: newAnswerVars}
}

// isSubsumedByAny reports whether some query in kept is at least as general
// as q: every atom of the candidate can be found in q (up to a variable
// renaming), i.e. there is a homomorphism from the candidate's atoms into
// q's atoms fixing answer variables. A subsumed q contributes no additional
// answers and can be safely dropped.
func isSubsumedByAny(q Query, kept []Query) bool {
	for _, k := range kept {
		if subsumes(k, q) {
			return true
		}
	}
	return false
}

// dropSubsumedBy removes from kept any query that newQuery itself subsumes
// (newQuery being more general), keeping the kept set an antichain.
func dropSubsumedBy(kept []Query, newQuery Query) []Query {
	out := kept[:0]
	for _, k := range kept {
		if !subsumes(newQuery, k) {
			out = append(out, k)
		}
	}
	return out
}

// subsumes reports whether there is a homomorphism h from general's atoms
// into specific's atoms such that h maps the i-th answer variable of
// general to the i-th answer variable of specific. If so, general is at least as general as
// specific: any answer specific can produce, general can produce too.
func subsumes(general, specific Query) bool {
	if len(general.AnswerVars) != len(specific.AnswerVars) {
		return false
	}
	base := subst.New()
	for i, v := range general.AnswerVars {
		base = base.Extend(v, specific.AnswerVars[i])
	}
	return searchHomomorphism(general.Atoms, specific.Atoms, base)
}

func searchHomomorphism(remaining []formula.Atom, target []formula.Atom, current subst.Substitution) bool {
	if len(remaining) == 0 {
		return true
	}
	head, rest := remaining[0], remaining[1:]
	mapped := head.ApplySubst(current)
	for _, candidate := range target {
		if !mapped.Predicate.Equals(candidate.Predicate) {
			continue
		}
		extended, ok := tryMatch(mapped, candidate, current)
		if !ok {
			continue
		}
		if searchHomomorphism(rest, target, extended) {
			return true
		}
	}
	return false
}

func tryMatch(pattern, candidate formula.Atom, base subst.Substitution) (subst.Substitution, bool) {
	out := base
	for i, arg := range pattern.Args {
		v, isVar := arg.(term.Variable)
		if !isVar {
			if !arg.Equals(candidate.Args[i]) {
				return nil, false
			}
			continue
		}
		if bound, ok := out.Get(v); ok {
			if !bound.Equals(candidate.Args[i]) {
				return nil, false
			}
			continue
		}
		out = out.Extend(v, candidate.Args[i])
	}
	return out, true
}
