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

// Package subst implements substitutions (finite maps from variables to
// terms) and term partitions (union-find).
package subst

import (
	"sort"
	"strings"

	"github.com/datalogplus/reasoner/term"
)

// Substitution is a finite map from variables to terms, implementing
// term.Subst so it can be applied directly to any term, atom or formula.
type Substitution map[term.Variable]term.Term

// New returns an empty substitution.
func New() Substitution {
	return make(Substitution)
}

// Get implements term.Subst.
func (s Substitution) Get(v term.Variable) (term.Term, bool) {
	t, ok := s[v]
	return t, ok
}

// Extend returns a new substitution with v bound to t, leaving the receiver
// unmodified.
func (s Substitution) Extend(v term.Variable, t term.Term) Substitution {
	out := make(Substitution, len(s)+1)
	for k, val := range s {
		out[k] = val
	}
	out[v] = t
	return out
}

// Domain returns the variables bound by this substitution, in an
// unspecified but deterministic (sorted-by-name) order for reproducible
// diagnostics.
func (s Substitution) Domain() []term.Variable {
	vars := make([]term.Variable, 0, len(s))
	for v := range s {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name() < vars[j].Name() })
	return vars
}

// Apply applies this substitution to a single term.
func (s Substitution) Apply(t term.Term) term.Term {
	return term.ApplySubst(t, s)
}

// Compose returns left ∘ right: right acts first, then left is applied to
// the result.
func Compose(left, right Substitution) Substitution {
	out := make(Substitution, len(left)+len(right))
	for v, t := range right {
		out[v] = left.Apply(t)
	}
	for v, t := range left {
		if _, already := out[v]; !already {
			out[v] = t
		}
	}
	return out
}

// Normalize closes the substitution over variable-to-variable chains
// (X -> Y, Y -> /a becomes X -> /a, Y -> /a) until a fixed point is
// reached. Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s Substitution) Substitution {
	out := make(Substitution, len(s))
	for v, t := range s {
		out[v] = t
	}
	changed := true
	for changed {
		changed = false
		for v, t := range out {
			if next, ok := t.(term.Variable); ok {
				if bound, present := out[next]; present && !bound.Equals(t) {
					out[v] = bound
					changed = true
				}
			}
		}
	}
	return out
}

// RestrictTo returns the sub-substitution whose domain is limited to vars.
func (s Substitution) RestrictTo(vars []term.Variable) Substitution {
	out := make(Substitution, len(vars))
	for _, v := range vars {
		if t, ok := s[v]; ok {
			out[v] = t
		}
	}
	return out
}

// String renders the substitution for diagnostics, in deterministic order.
func (s Substitution) String() string {
	var sb strings.Builder
	sb.WriteRune('{')
	for i, v := range s.Domain() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
		sb.WriteString(" -> ")
		sb.WriteString(s[v].String())
	}
	sb.WriteRune('}')
	return sb.String()
}

// RenamingFor builds a safe-renaming substitution mapping each v in vars to
// a fresh session variable. Because the fresh variables are session-unique,
// composing RenamingFor's result with any other substitution cannot
// accidentally capture a variable already in use.
func RenamingFor(sess *term.Session, vars []term.Variable) Substitution {
	out := make(Substitution, len(vars))
	for _, v := range vars {
		out[v] = sess.Fresh(v.Name())
	}
	return out
}
