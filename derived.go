/*
Copyright © 2026 the wrfoptics authors.
This file is part of wrfoptics.

wrfoptics is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

wrfoptics is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with wrfoptics.  If not, see <http://www.gnu.org/licenses/>.
*/

package wrfoptics

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

// rhoDryVar is the name by which the dry air density can be used
// in derived variable expressions.
const rhoDryVar = "rho_dry"

func oneArgFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("wrfoptics: got %d arguments for function '%s', but needs 1", len(args), name)
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("wrfoptics: invalid argument %v for function '%s'", args[0], name)
		}
		return f(x), nil
	}
}

// DerivedFunctions returns the functions available to derived
// variable expressions.
func DerivedFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"exp":   oneArgFunc("exp", math.Exp),
		"log":   oneArgFunc("log", math.Log),
		"log10": oneArgFunc("log10", math.Log10),
		"sqrt":  oneArgFunc("sqrt", math.Sqrt),
		"abs":   oneArgFunc("abs", math.Abs),
	}
}

// DerivedVars calculates user-defined variables from the optical
// outputs. Expressions may use the output variable names
// (e.g. "alpha_ext / 1000"), rho_dry, and the functions returned by
// DerivedFunctions.
type DerivedVars struct {
	names []string
	exprs map[string]*govaluate.EvaluableExpression
	vars  map[string][]string
}

// NewDerivedVars parses the given expressions, which are keyed by the
// name of the variable they define. An error is returned if an
// expression is invalid or refers to an unknown variable.
func NewDerivedVars(expressions map[string]string) (*DerivedVars, error) {
	known := map[string]bool{rhoDryVar: true}
	for _, v := range OutputVars() {
		known[v.Name] = true
	}
	d := &DerivedVars{
		exprs: make(map[string]*govaluate.EvaluableExpression),
		vars:  make(map[string][]string),
	}
	funcs := DerivedFunctions()
	for name, expr := range expressions {
		if known[name] {
			return nil, fmt.Errorf("wrfoptics: derived variable name '%s' is already used", name)
		}
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
		if err != nil {
			return nil, fmt.Errorf("wrfoptics: derived variable '%s': %v", name, err)
		}
		used := removeDuplicates(e.Vars())
		for _, v := range used {
			if !known[v] {
				return nil, fmt.Errorf("wrfoptics: derived variable '%s': undefined variable name '%s'", name, v)
			}
		}
		d.names = append(d.names, name)
		d.exprs[name] = e
		d.vars[name] = used
	}
	sort.Strings(d.names)
	return d, nil
}

// Names returns the names of the derived variables in sorted order.
func (d *DerivedVars) Names() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.names...)
}

// Evaluate calculates the derived variables for each grid cell of f.
// A nil receiver returns no variables.
func (d *DerivedVars) Evaluate(f *OpticsField) (map[string]*sparse.DenseArray, error) {
	if d == nil || len(d.names) == 0 {
		return nil, nil
	}
	inputs := f.Variables()
	inputs[rhoDryVar] = f.RhoDry

	out := make(map[string]*sparse.DenseArray, len(d.names))
	params := make(map[string]interface{})
	for _, name := range d.names {
		used := d.vars[name]
		for _, v := range used {
			if inputs[v] == nil {
				return nil, fmt.Errorf("wrfoptics: derived variable '%s': variable '%s' has no data", name, v)
			}
		}
		result := sparse.ZerosDense(append([]int(nil), f.AlphaExt.Shape...)...)
		for i := range result.Elements {
			for _, v := range used {
				params[v] = inputs[v].Elements[i]
			}
			r, err := d.exprs[name].Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("wrfoptics: evaluating derived variable '%s': %v", name, err)
			}
			switch rr := r.(type) {
			case float64:
				result.Elements[i] = rr
			case bool:
				if rr {
					result.Elements[i] = 1
				}
			default:
				return nil, fmt.Errorf("wrfoptics: derived variable '%s' has non-numeric result %v", name, r)
			}
		}
		out[name] = result
	}
	return out, nil
}

func removeDuplicates(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	var out []string
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
