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
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/velarno/copper/pkg/template"
)

// OptimizeAll plans each state independently with at most concurrency
// workers. Plans are returned in input order; the first failure cancels the
// remaining work and is returned.
func (o *Optimizer) OptimizeAll(ctx context.Context, states []*template.State, param string, budget int64, concurrency int) ([]*Plan, error) {
	plans := make([]*Plan, len(states))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, st := range states {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := o.Plan(st, param, budget)
			if err != nil {
				return err
			}
			plans[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plans, nil
}
