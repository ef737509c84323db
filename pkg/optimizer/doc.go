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

// Package optimizer splits over-budget request templates into sub-templates
// that each fit a cost budget.
//
// The split is a depth-first halving along one designated parameter
// (usually "year"): a worklist starts with the full mapping, an entry within
// budget is accepted, and an entry over budget has its split values cut at
// n/2 into two entries that are pushed back. Other parameters are carried
// into every part unchanged, so the parts partition the original request.
//
// When a part holding a single split value is still over budget the run
// fails with UNSATISFIABLE_BUDGET; the optimizer never falls back to
// splitting a second parameter.
//
// Usage:
//
//	opt := optimizer.New()
//	plan, err := opt.Plan(state, "year", 400)
//	if err != nil {
//	    return err
//	}
//	err = optimizer.Persist(ctx, store, plan)
package optimizer
