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

// Package computed implements the built-in function library and the
// computed-predicate ReadableData source: a predicate whose extension is
// defined by a function of its arguments rather than materialized facts.
package computed

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/datalogplus/reasoner/term"
)

// ErrDivisionByZero indicates a division by zero runtime error.
var ErrDivisionByZero = errors.New("computed: division by zero")

// Func is a registered computed function: Eval computes the result of
// applying the function to fully-evaluated arguments.
type Func struct {
	Sym  term.FunctionSym
	Eval func(sess *term.Session, args []term.Term) (term.Term, error)
	// Reversible, when non-nil, computes one missing argument from the
	// result and the other arguments: Reversible(sess, result, args,
	// missingPos) returns the unique value args[missingPos] must have held.
	// Only functions with a unique inverse on every argument position
	// implement this (e.g. arithmetic negation or string concatenation
	// with a fixed separator do not, because the split is ambiguous).
	Reversible func(sess *term.Session, result term.Term, args []term.Term, missingPos int) (term.Term, bool, error)
}

// Registry is a lookup table from function symbol to Func.
type Registry map[term.FunctionSym]Func

// NewRegistry returns a registry preloaded with the standard library: sum,
// minus, product, divide, average, min, max, median, power, string
// operations, collection operations, dict operations, and datatype
// conversions.
func NewRegistry() Registry {
	r := make(Registry)
	registerArithmetic(r)
	registerStrings(r)
	registerCollections(r)
	registerDicts(r)
	registerConversions(r)
	return r
}

func (r Registry) register(f Func) {
	r[f.Sym] = f
}

func asFloat(l term.Literal) (float64, bool) {
	if v, ok := l.IntValue(); ok {
		return float64(v), true
	}
	if v, ok := l.FloatValue(); ok {
		return v, true
	}
	return 0, false
}

func numericArgs(args []term.Term) ([]float64, bool) {
	out := make([]float64, len(args))
	for i, a := range args {
		lit, ok := a.(term.Literal)
		if !ok {
			return nil, false
		}
		f, ok := asFloat(lit)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func allInts(args []term.Term) bool {
	for _, a := range args {
		lit, ok := a.(term.Literal)
		if !ok {
			return false
		}
		if _, ok := lit.IntValue(); !ok {
			return false
		}
	}
	return true
}

func numericResult(sess *term.Session, v float64, integral bool) term.Term {
	if integral {
		return sess.InternInt(int64(v))
	}
	return sess.InternFloat(v)
}

func registerArithmetic(r Registry) {
	r.register(Func{
		Sym: term.FunctionSym{Name: "sum", Arity: -1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok {
				return nil, fmt.Errorf("computed: sum requires numeric arguments")
			}
			total := 0.0
			for _, n := range nums {
				total += n
			}
			return numericResult(sess, total, allInts(args)), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "minus", Arity: 2},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok || len(nums) != 2 {
				return nil, fmt.Errorf("computed: minus requires two numeric arguments")
			}
			return numericResult(sess, nums[0]-nums[1], allInts(args)), nil
		},
		Reversible: func(sess *term.Session, result term.Term, args []term.Term, missingPos int) (term.Term, bool, error) {
			res, ok := result.(term.Literal)
			if !ok {
				return nil, false, nil
			}
			rf, ok := asFloat(res)
			if !ok {
				return nil, false, nil
			}
			known := args[1-missingPos]
			kl, ok := known.(term.Literal)
			if !ok {
				return nil, false, nil
			}
			kf, ok := asFloat(kl)
			if !ok {
				return nil, false, nil
			}
			integral := allInts([]term.Term{res, known})
			if missingPos == 0 {
				return numericResult(sess, rf+kf, integral), true, nil
			}
			return numericResult(sess, kf-rf, integral), true, nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "product", Arity: -1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok {
				return nil, fmt.Errorf("computed: product requires numeric arguments")
			}
			total := 1.0
			for _, n := range nums {
				total *= n
			}
			return numericResult(sess, total, allInts(args)), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "divide", Arity: 2},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok || len(nums) != 2 {
				return nil, fmt.Errorf("computed: divide requires two numeric arguments")
			}
			if nums[1] == 0 {
				return nil, ErrDivisionByZero
			}
			return numericResult(sess, nums[0]/nums[1], false), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "average", Arity: -1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok || len(nums) == 0 {
				return nil, fmt.Errorf("computed: average requires at least one numeric argument")
			}
			total := 0.0
			for _, n := range nums {
				total += n
			}
			return sess.InternFloat(total / float64(len(nums))), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "min", Arity: -1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok || len(nums) == 0 {
				return nil, fmt.Errorf("computed: min requires at least one numeric argument")
			}
			m := nums[0]
			for _, n := range nums[1:] {
				if n < m {
					m = n
				}
			}
			return numericResult(sess, m, allInts(args)), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "max", Arity: -1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok || len(nums) == 0 {
				return nil, fmt.Errorf("computed: max requires at least one numeric argument")
			}
			m := nums[0]
			for _, n := range nums[1:] {
				if n > m {
					m = n
				}
			}
			return numericResult(sess, m, allInts(args)), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "median", Arity: -1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok || len(nums) == 0 {
				return nil, fmt.Errorf("computed: median requires at least one numeric argument")
			}
			sorted := append([]float64(nil), nums...)
			sort.Float64s(sorted)
			n := len(sorted)
			if n%2 == 1 {
				return numericResult(sess, sorted[n/2], allInts(args)), nil
			}
			return sess.InternFloat((sorted[n/2-1] + sorted[n/2]) / 2), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "power", Arity: 2},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			nums, ok := numericArgs(args)
			if !ok || len(nums) != 2 {
				return nil, fmt.Errorf("computed: power requires two numeric arguments")
			}
			return numericResult(sess, math.Pow(nums[0], nums[1]), allInts(args)), nil
		},
	})
}

func registerStrings(r Registry) {
	r.register(Func{
		Sym: term.FunctionSym{Name: "string_concat", Arity: -1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			var sb strings.Builder
			for _, a := range args {
				lit, ok := a.(term.Literal)
				if !ok {
					return nil, fmt.Errorf("computed: string_concat requires string arguments")
				}
				s, ok := lit.StringValue()
				if !ok {
					return nil, fmt.Errorf("computed: string_concat requires string arguments")
				}
				sb.WriteString(s)
			}
			return sess.InternString(sb.String()), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "string_len", Arity: 1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			s, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return sess.InternInt(int64(len(s))), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "string_upper", Arity: 1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			s, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return sess.InternString(strings.ToUpper(s)), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "string_lower", Arity: 1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			s, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return sess.InternString(strings.ToLower(s)), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "string_contains", Arity: 2},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			s, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			sub, err := stringArg(args, 1)
			if err != nil {
				return nil, err
			}
			return sess.InternBool(strings.Contains(s, sub)), nil
		},
	})
}

func stringArg(args []term.Term, i int) (string, error) {
	lit, ok := args[i].(term.Literal)
	if !ok {
		return "", fmt.Errorf("computed: argument %d is not a string literal", i)
	}
	s, ok := lit.StringValue()
	if !ok {
		return "", fmt.Errorf("computed: argument %d is not a string literal", i)
	}
	return s, nil
}

func registerCollections(r Registry) {
	r.register(Func{
		Sym: term.FunctionSym{Name: "list_len", Arity: 1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			lit, ok := args[0].(term.Literal)
			if !ok {
				return nil, fmt.Errorf("computed: list_len requires a tuple or set argument")
			}
			elems, ok := lit.Elements()
			if !ok {
				return nil, fmt.Errorf("computed: list_len requires a tuple or set argument")
			}
			return sess.InternInt(int64(len(elems))), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "list_get", Arity: 2},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			lit, ok := args[0].(term.Literal)
			if !ok {
				return nil, fmt.Errorf("computed: list_get requires a tuple argument")
			}
			elems, ok := lit.Elements()
			if !ok {
				return nil, fmt.Errorf("computed: list_get requires a tuple argument")
			}
			idxLit, ok := args[1].(term.Literal)
			if !ok {
				return nil, fmt.Errorf("computed: list_get index must be an integer")
			}
			idx, ok := idxLit.IntValue()
			if !ok || idx < 0 || int(idx) >= len(elems) {
				return nil, fmt.Errorf("computed: list_get index %d out of range", idx)
			}
			return elems[idx], nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "list_contains", Arity: 2},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			lit, ok := args[0].(term.Literal)
			if !ok {
				return nil, fmt.Errorf("computed: list_contains requires a tuple or set argument")
			}
			elems, ok := lit.Elements()
			if !ok {
				return nil, fmt.Errorf("computed: list_contains requires a tuple or set argument")
			}
			for _, e := range elems {
				if e.Equals(args[1]) {
					return sess.InternBool(true), nil
				}
			}
			return sess.InternBool(false), nil
		},
	})
}

func registerDicts(r Registry) {
	r.register(Func{
		Sym: term.FunctionSym{Name: "dict_get", Arity: 2},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			lit, ok := args[0].(term.Literal)
			if !ok {
				return nil, fmt.Errorf("computed: dict_get requires a dict argument")
			}
			entries, ok := lit.Entries()
			if !ok {
				return nil, fmt.Errorf("computed: dict_get requires a dict argument")
			}
			for _, e := range entries {
				if e.Key.Equals(args[1]) {
					return e.Val, nil
				}
			}
			return nil, fmt.Errorf("computed: dict_get key %v not present", args[1])
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "dict_size", Arity: 1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			lit, ok := args[0].(term.Literal)
			if !ok {
				return nil, fmt.Errorf("computed: dict_size requires a dict argument")
			}
			entries, ok := lit.Entries()
			if !ok {
				return nil, fmt.Errorf("computed: dict_size requires a dict argument")
			}
			return sess.InternInt(int64(len(entries))), nil
		},
	})
}

func registerConversions(r Registry) {
	r.register(Func{
		Sym: term.FunctionSym{Name: "to_string", Arity: 1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			return sess.InternString(args[0].String()), nil
		},
	})
	r.register(Func{
		Sym: term.FunctionSym{Name: "to_float", Arity: 1},
		Eval: func(sess *term.Session, args []term.Term) (term.Term, error) {
			lit, ok := args[0].(term.Literal)
			if !ok {
				return nil, fmt.Errorf("computed: to_float requires a numeric argument")
			}
			f, ok := asFloat(lit)
			if !ok {
				return nil, fmt.Errorf("computed: to_float requires a numeric argument")
			}
			return sess.InternFloat(f), nil
		},
	})
}
