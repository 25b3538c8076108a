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

// Package formula defines atoms and first-order formulas built from them:
// conjunction, disjunction, negation, existential and universal
// quantification, equality and order comparisons. Every constructor computes
// and caches the formula's free variables once, so downstream code (safety
// checks, rewriting, scheduling) never re-walks a formula just to ask what
// varies in it.
package formula

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datalogplus/reasoner/term"
)

// Atom is a predicate applied to a tuple of terms.
type Atom struct {
	Predicate term.Predicate
	Args      []term.Term
}

// NewAtom constructs an atom, panicking if the argument count does not
// match the predicate's declared arity (a programmer error, not a runtime
// one: callers build predicates and arg lists from the same rule source).
func NewAtom(p term.Predicate, args ...term.Term) Atom {
	if len(args) != p.Arity {
		panic(fmt.Sprintf("formula: predicate %v expects %d args, got %d", p, p.Arity, len(args)))
	}
	return Atom{Predicate: p, Args: args}
}

func (a Atom) String() string {
	var sb strings.Builder
	sb.WriteString(a.Predicate.Name)
	sb.WriteRune('(')
	for i, arg := range a.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.String())
	}
	sb.WriteRune(')')
	return sb.String()
}

// Equals compares two atoms structurally (same predicate, same args).
func (a Atom) Equals(b Atom) bool {
	if !a.Predicate.Equals(b.Predicate) || len(a.Args) != len(b.Args) {
		return false
	}
	for i, arg := range a.Args {
		if !arg.Equals(b.Args[i]) {
			return false
		}
	}
	return true
}

// FreeVars returns the variables occurring in this atom's arguments, in
// first-occurrence order.
func (a Atom) FreeVars() []term.Variable {
	return collectVars(a.Args, nil)
}

// ApplySubst returns a, with subst applied to every argument.
func (a Atom) ApplySubst(s term.Subst) Atom {
	out := Atom{Predicate: a.Predicate, Args: make([]term.Term, len(a.Args))}
	for i, arg := range a.Args {
		out.Args[i] = term.ApplySubst(arg, s)
	}
	return out
}

// IsGround reports whether every argument is a ground term.
func (a Atom) IsGround() bool {
	for _, arg := range a.Args {
		if !arg.IsGround() {
			return false
		}
	}
	return true
}

func collectVars(args []term.Term, into []term.Variable) []term.Variable {
	seen := make(map[term.Variable]bool, len(into))
	for _, v := range into {
		seen[v] = true
	}
	for _, a := range args {
		switch x := a.(type) {
		case term.Variable:
			if !seen[x] {
				seen[x] = true
				into = append(into, x)
			}
		case term.FuncTerm:
			into = collectVars(x.Args, into)
		}
	}
	return into
}

// ComparisonOp is one of the ordering relations allowed in a Comparison
// formula.
type ComparisonOp int

const (
	// Lt is the strict less-than relation.
	Lt ComparisonOp = iota
	// Le is the less-than-or-equal relation.
	Le
	// Gt is the strict greater-than relation.
	Gt
	// Ge is the greater-than-or-equal relation.
	Ge
)

func (op ComparisonOp) String() string {
	switch op {
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return "?"
	}
}

// Formula is the sum type for first-order formulas built over atoms.
type Formula interface {
	isFormula()
	String() string
	// FreeVars returns this formula's free variables, computed once at
	// construction time and cached inside the concrete value.
	FreeVars() []term.Variable
	ApplySubst(s term.Subst) Formula
}

// AtomFormula lifts a single Atom into the Formula sum type.
type AtomFormula struct {
	Atom     Atom
	freeVars []term.Variable
}

// NewAtomFormula wraps an atom as a formula.
func NewAtomFormula(a Atom) AtomFormula {
	return AtomFormula{Atom: a, freeVars: a.FreeVars()}
}

func (AtomFormula) isFormula()                  {}
func (f AtomFormula) String() string            { return f.Atom.String() }
func (f AtomFormula) FreeVars() []term.Variable { return f.freeVars }
func (f AtomFormula) ApplySubst(s term.Subst) Formula {
	return NewAtomFormula(f.Atom.ApplySubst(s))
}

// Negation is the logical negation of an inner formula (negation as
// failure). Neither the type nor Rule.Validate restricts the inner formula
// to a single atom.
type Negation struct {
	Inner    Formula
	freeVars []term.Variable
}

// NewNegation negates inner.
func NewNegation(inner Formula) Negation {
	return Negation{Inner: inner, freeVars: inner.FreeVars()}
}

func (Negation) isFormula()                  {}
func (f Negation) String() string            { return "!" + f.Inner.String() }
func (f Negation) FreeVars() []term.Variable { return f.freeVars }
func (f Negation) ApplySubst(s term.Subst) Formula {
	return NewNegation(f.Inner.ApplySubst(s))
}

// Conjunction is a (possibly empty) logical AND of sub-formulas. An empty
// conjunction denotes the trivially true formula.
type Conjunction struct {
	Conjuncts []Formula
	freeVars  []term.Variable
}

// NewConjunction builds a conjunction of parts.
func NewConjunction(parts ...Formula) Conjunction {
	var vars []term.Variable
	for _, p := range parts {
		vars = mergeVars(vars, p.FreeVars())
	}
	return Conjunction{Conjuncts: parts, freeVars: vars}
}

func (Conjunction) isFormula() {}
func (f Conjunction) String() string {
	parts := make([]string, len(f.Conjuncts))
	for i, c := range f.Conjuncts {
		parts[i] = c.String()
	}
	return strings.Join(parts, " & ")
}
func (f Conjunction) FreeVars() []term.Variable { return f.freeVars }
func (f Conjunction) ApplySubst(s term.Subst) Formula {
	parts := make([]Formula, len(f.Conjuncts))
	for i, c := range f.Conjuncts {
		parts[i] = c.ApplySubst(s)
	}
	return NewConjunction(parts...)
}

// Disjunction is a logical OR of sub-formulas, used both in UCQ bodies and
// in disjunctive rule heads.
type Disjunction struct {
	Disjuncts []Formula
	freeVars  []term.Variable
}

// NewDisjunction builds a disjunction of parts.
func NewDisjunction(parts ...Formula) Disjunction {
	var vars []term.Variable
	for _, p := range parts {
		vars = mergeVars(vars, p.FreeVars())
	}
	return Disjunction{Disjuncts: parts, freeVars: vars}
}

func (Disjunction) isFormula() {}
func (f Disjunction) String() string {
	parts := make([]string, len(f.Disjuncts))
	for i, d := range f.Disjuncts {
		parts[i] = d.String()
	}
	return strings.Join(parts, " | ")
}
func (f Disjunction) FreeVars() []term.Variable { return f.freeVars }
func (f Disjunction) ApplySubst(s term.Subst) Formula {
	parts := make([]Formula, len(f.Disjuncts))
	for i, d := range f.Disjuncts {
		parts[i] = d.ApplySubst(s)
	}
	return NewDisjunction(parts...)
}

// Existential existentially quantifies Vars over Inner. Rule heads use this
// to mark the "invented" variables of an existential rule (spec GLOSSARY:
// existential variable).
type Existential struct {
	Vars     []term.Variable
	Inner    Formula
	freeVars []term.Variable
}

// NewExistential quantifies vars over inner.
func NewExistential(vars []term.Variable, inner Formula) Existential {
	bound := make(map[term.Variable]bool, len(vars))
	for _, v := range vars {
		bound[v] = true
	}
	var free []term.Variable
	for _, v := range inner.FreeVars() {
		if !bound[v] {
			free = append(free, v)
		}
	}
	return Existential{Vars: vars, Inner: inner, freeVars: free}
}

func (Existential) isFormula() {}
func (f Existential) String() string {
	names := make([]string, len(f.Vars))
	for i, v := range f.Vars {
		names[i] = v.String()
	}
	return fmt.Sprintf("exists %s. %s", strings.Join(names, ", "), f.Inner.String())
}
func (f Existential) FreeVars() []term.Variable { return f.freeVars }
func (f Existential) ApplySubst(s term.Subst) Formula {
	// Bound variables are never substituted; subst is expected to already
	// avoid them by construction (callers rename apart before applying).
	return NewExistential(f.Vars, f.Inner.ApplySubst(s))
}

// Universal universally quantifies Vars over Inner, used for FO queries
// whose body must hold for all bindings of Vars, over a finite domain.
type Universal struct {
	Vars     []term.Variable
	Inner    Formula
	freeVars []term.Variable
}

// NewUniversal quantifies vars over inner.
func NewUniversal(vars []term.Variable, inner Formula) Universal {
	bound := make(map[term.Variable]bool, len(vars))
	for _, v := range vars {
		bound[v] = true
	}
	var free []term.Variable
	for _, v := range inner.FreeVars() {
		if !bound[v] {
			free = append(free, v)
		}
	}
	return Universal{Vars: vars, Inner: inner, freeVars: free}
}

func (Universal) isFormula() {}
func (f Universal) String() string {
	names := make([]string, len(f.Vars))
	for i, v := range f.Vars {
		names[i] = v.String()
	}
	return fmt.Sprintf("forall %s. %s", strings.Join(names, ", "), f.Inner.String())
}
func (f Universal) FreeVars() []term.Variable { return f.freeVars }
func (f Universal) ApplySubst(s term.Subst) Formula {
	return NewUniversal(f.Vars, f.Inner.ApplySubst(s))
}

// Equality is an atomic equality constraint between two terms.
type Equality struct {
	Left, Right term.Term
	freeVars    []term.Variable
}

// NewEquality builds an equality constraint.
func NewEquality(left, right term.Term) Equality {
	return Equality{Left: left, Right: right, freeVars: collectVars([]term.Term{left, right}, nil)}
}

func (Equality) isFormula() {}
func (f Equality) String() string {
	return fmt.Sprintf("%s = %s", f.Left, f.Right)
}
func (f Equality) FreeVars() []term.Variable { return f.freeVars }
func (f Equality) ApplySubst(s term.Subst) Formula {
	return NewEquality(term.ApplySubst(f.Left, s), term.ApplySubst(f.Right, s))
}

// Comparison is an atomic order constraint between two terms.
type Comparison struct {
	Op          ComparisonOp
	Left, Right term.Term
	freeVars    []term.Variable
}

// NewComparison builds an order constraint.
func NewComparison(op ComparisonOp, left, right term.Term) Comparison {
	return Comparison{Op: op, Left: left, Right: right, freeVars: collectVars([]term.Term{left, right}, nil)}
}

func (Comparison) isFormula() {}
func (f Comparison) String() string {
	return fmt.Sprintf("%s %s %s", f.Left, f.Op, f.Right)
}
func (f Comparison) FreeVars() []term.Variable { return f.freeVars }
func (f Comparison) ApplySubst(s term.Subst) Formula {
	return NewComparison(f.Op, term.ApplySubst(f.Left, s), term.ApplySubst(f.Right, s))
}

func mergeVars(into []term.Variable, more []term.Variable) []term.Variable {
	seen := make(map[term.Variable]bool, len(into))
	for _, v := range into {
		seen[v] = true
	}
	for _, v := range more {
		if !seen[v] {
			seen[v] = true
			into = append(into, v)
		}
	}
	return into
}

// SortedVarNames renders vars' names in sorted order, for deterministic
// diagnostics and test output.
func SortedVarNames(vars []term.Variable) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name()
	}
	sort.Strings(names)
	return names
}

// Atoms walks f and returns every Atom reachable through conjunction,
// disjunction, negation and quantification, in the order encountered.
// Equality and Comparison formulas contribute no atoms.
func Atoms(f Formula) []Atom {
	var out []Atom
	var walk func(Formula)
	walk = func(f Formula) {
		switch x := f.(type) {
		case AtomFormula:
			out = append(out, x.Atom)
		case Negation:
			walk(x.Inner)
		case Conjunction:
			for _, c := range x.Conjuncts {
				walk(c)
			}
		case Disjunction:
			for _, d := range x.Disjuncts {
				walk(d)
			}
		case Existential:
			walk(x.Inner)
		case Universal:
			walk(x.Inner)
		}
	}
	walk(f)
	return out
}
