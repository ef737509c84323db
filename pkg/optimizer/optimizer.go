// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package optimizer

import (
	"fmt"
	"log/slog"

	"github.com/velarno/copper/pkg/cost"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/template"
)

// CostFunc prices a parameter mapping.
type CostFunc func(template.Parameters) int64

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithCostFunc replaces the local multiplicative cost.
func WithCostFunc(f CostFunc) Option {
	return func(o *Optimizer) {
		o.cost = f
	}
}

// Optimizer splits over-budget mappings along one parameter.
type Optimizer struct {
	cost CostFunc
}

// New returns an optimizer pricing mappings with cost.Of unless overridden.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{cost: cost.Of}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result is a complete partition of the input mapping.
type Result struct {
	// Parts are the within-budget mappings, in ascending order of the split
	// parameter's value positions.
	Parts []template.Parameters
	// Pops counts worklist pops; at most 2n-1 for n split values.
	Pops int
	// Splits counts halvings.
	Splits int
}

// Optimize partitions params into mappings that each cost at most budget by
// repeatedly halving the values of param. Every other parameter is copied
// unchanged into each part, so the union of the parts' cross-products is the
// original cross-product and no combination appears twice.
//
// It fails with INVALID_REQUEST when param is not set or budget is not
// positive, and with UNSATISFIABLE_BUDGET when a part holding a single value
// of param is still over budget. No parts are returned on failure.
func (o *Optimizer) Optimize(params template.Parameters, param string, budget int64) (*Result, error) {
	if budget < 1 {
		return nil, cerrors.Validation("budget", fmt.Sprintf("must be at least 1, got %d", budget))
	}
	if !params.Has(param) {
		return nil, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("split_parameter: %q is not set on the template", param),
			map[string]any{"field": "split_parameter", "parameter": param})
	}

	res := &Result{}
	stack := []template.Parameters{params.Clone()}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		res.Pops++

		c := o.cost(top)
		if c <= budget {
			res.Parts = append(res.Parts, top)
			continue
		}

		values := top[param]
		n := len(values)
		if n < 2 {
			runsTotal.WithLabelValues(resultUnsatisfiable).Inc()
			return nil, cerrors.NewWithContext(cerrors.ErrCodeUnsatisfiableBudget,
				fmt.Sprintf("cost %d exceeds budget %d with a single %q value", c, budget, param),
				map[string]any{
					"parameter": param,
					"cost":      c,
					"budget":    budget,
					"mapping":   top,
				})
		}

		cutoff := n / 2
		lower, upper := top.Clone(), top.Clone()
		lower[param] = lower[param][:cutoff:cutoff]
		upper[param] = upper[param][cutoff:]

		// upper first so lower is popped next
		stack = append(stack, upper, lower)
		res.Splits++
	}

	runsTotal.WithLabelValues(resultOK).Inc()
	popsObserved.Observe(float64(res.Pops))
	splitsTotal.Add(float64(res.Splits))

	slog.Debug("optimized",
		"parameter", param,
		"budget", budget,
		"parts", len(res.Parts),
		"pops", res.Pops,
		"splits", res.Splits)
	return res, nil
}
