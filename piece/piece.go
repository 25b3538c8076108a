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

// Package piece computes piece unifiers: the core primitive of
// existential-rule query rewriting. A piece unifier identifies a subset
// ("piece") of a query's atoms that can be unified with a rule's head
// atoms, subject to existential isolation -- every query atom that shares a
// query term with an existential variable's unification class must also be
// part of the piece, since an existential variable denotes a fresh,
// unknown value that cannot be correlated with anything outside the piece.
package piece

import (
	"github.com/datalogplus/reasoner/formula"
	"github.com/datalogplus/reasoner/subst"
	"github.com/datalogplus/reasoner/term"
)

// Unifier is one piece unifier: Piece lists the indices (into the query
// atom slice passed to Compute) that were unified against head atoms, and
// Partition records the term identifications that made the unification
// possible.
type Unifier struct {
	Piece     []int
	Partition subst.Partition
}

// Compute finds every piece unifier between queryAtoms and a rule head
// given as headAtoms with existential variables existentials. A separate
// Unifier is returned for every non-empty, one-to-one assignment of some
// head atoms to query atoms of the same predicate that unifies without a
// constant conflict and keeps every existential class inside the piece;
// assignments are not limited to maximal ones.
func Compute(queryAtoms []formula.Atom, existentials []term.Variable, headAtoms []formula.Atom) ([]Unifier, error) {
	existentialSet := make(map[term.Variable]bool, len(existentials))
	for _, v := range existentials {
		existentialSet[v] = true
	}

	candidates := candidateAssignments(queryAtoms, headAtoms)
	var out []Unifier
	for _, assignment := range candidates {
		part, piece, err := unifyAssignment(queryAtoms, headAtoms, assignment)
		if err != nil {
			continue // conflicting unification: not a valid piece
		}
		if !isClosedUnderExistentials(queryAtoms, piece, part, existentialSet) {
			continue
		}
		out = append(out, Unifier{Piece: piece, Partition: part})
	}
	return out, nil
}

// candidateAssignments enumerates every injective partial function from
// headAtoms indices to queryAtoms indices where predicates match, as a
// slice of length len(headAtoms) (assignment[h] = query atom index, or -1
// if headAtoms[h] is not part of this candidate piece). The empty-piece
// (-1 everywhere) candidate unifies nothing and is not generated.
func candidateAssignments(queryAtoms, headAtoms []formula.Atom) [][]int {
	byPredicate := make(map[term.Predicate][]int)
	for i, a := range queryAtoms {
		byPredicate[a.Predicate] = append(byPredicate[a.Predicate], i)
	}

	var results [][]int
	assignment := make([]int, len(headAtoms))
	for i := range assignment {
		assignment[i] = -1
	}
	used := make(map[int]bool)

	var rec func(h int)
	rec = func(h int) {
		if h == len(headAtoms) {
			hasAny := false
			for _, v := range assignment {
				if v != -1 {
					hasAny = true
					break
				}
			}
			if hasAny {
				results = append(results, append([]int(nil), assignment...))
			}
			return
		}
		// Option: leave headAtoms[h] unmatched in this candidate.
		rec(h + 1)
		for _, qi := range byPredicate[headAtoms[h].Predicate] {
			if used[qi] {
				continue
			}
			used[qi] = true
			assignment[h] = qi
			rec(h + 1)
			assignment[h] = -1
			used[qi] = false
		}
	}
	rec(0)
	return results
}

func unifyAssignment(queryAtoms, headAtoms []formula.Atom, assignment []int) (subst.Partition, []int, error) {
	part := subst.NewPartition()
	var piece []int
	for h, qi := range assignment {
		if qi == -1 {
			continue
		}
		headArgs := toTerms(headAtoms[h].Args)
		queryArgs := toTerms(queryAtoms[qi].Args)
		var err error
		part, err = subst.UnifyTermsExtend(headArgs, queryArgs, part, term.NoVariable())
		if err != nil {
			return subst.Partition{}, nil, err
		}
		piece = append(piece, qi)
	}
	return part, piece, nil
}

func toTerms(args []term.Term) []term.Term {
	return args
}

// isClosedUnderExistentials verifies that, for every existential variable e
// used in part, every query atom containing a term unified with e's
// representative is included in piece. This is the defining safety
// condition of a piece unifier: existential variables are fresh nulls, so
// correlating them with any query atom outside the piece would be unsound.
func isClosedUnderExistentials(queryAtoms []formula.Atom, piece []int, part subst.Partition, existentialSet map[term.Variable]bool) bool {
	inPiece := make(map[int]bool, len(piece))
	for _, i := range piece {
		inPiece[i] = true
	}

	existentialClasses := make(map[term.Term]bool)
	for v := range existentialSet {
		rep := part.Representative(v)
		existentialClasses[rep] = true
	}
	if len(existentialClasses) == 0 {
		return true
	}

	for i, atom := range queryAtoms {
		for _, arg := range atom.Args {
			rep := part.Representative(arg)
			if existentialClasses[rep] && !inPiece[i] {
				return false
			}
		}
	}
	return true
}
