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
	"strings"

	"github.com/datalogplus/reasoner/subst"
	"github.com/datalogplus/reasoner/term"
)

// Renamer extends a trigger's binding with a witness term for every
// existential variable in existentials, given the rule's frontier binding
// (the substitution restricted to variables shared between body and head).
type Renamer func(sess *term.Session, ruleName string, existentials []term.Variable, frontier subst.Substitution) subst.Substitution

// ObliviousRenamer assigns each existential variable a brand-new labeled
// null every time the rule fires, regardless of the frontier binding. This
// is the classical "oblivious chase": simplest to reason about, but it
// never recognizes that two firings with the same frontier could share a
// witness, so it is the renamer most likely to run forever on a rule set
// that admits no finite universal model.
func ObliviousRenamer(sess *term.Session, ruleName string, existentials []term.Variable, frontier subst.Substitution) subst.Substitution {
	out := subst.New()
	for _, v := range existentials {
		fresh := sess.Fresh("null")
		out = out.Extend(v, fresh)
	}
	return out
}

// SkolemRenamer assigns each existential variable a witness deterministically
// derived from the rule name, the variable's own name, and the frontier
// binding: firing the same rule twice with the same frontier produces the
// same witness term, which is exactly the "restricted"/"core" chase's
// requirement for eventually recognizing a trigger as already satisfied.
// The witness is interned as a constant named after its Skolem function
// application, e.g. "sk#friend_of#Z(X=/alice)".
func SkolemRenamer(sess *term.Session, ruleName string, existentials []term.Variable, frontier subst.Substitution) subst.Substitution {
	out := subst.New()
	key := frontierKey(frontier)
	for _, v := range existentials {
		name := fmt.Sprintf("sk#%s#%s(%s)", ruleName, v.Name(), key)
		out = out.Extend(v, sess.InternConstant(name))
	}
	return out
}

// frontierKey renders a substitution's bindings in a canonical, sorted
// textual form suitable for Skolem-term naming.
func frontierKey(s subst.Substitution) string {
	vars := s.Domain()
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name() < vars[j].Name() })
	var sb strings.Builder
	for i, v := range vars {
		if i > 0 {
			sb.WriteRune(',')
		}
		t, _ := s.Get(v)
		sb.WriteString(v.Name())
		sb.WriteRune('=')
		sb.WriteString(t.String())
	}
	return sb.String()
}
