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

// Package cost implements the template cost model and the oracles that answer it.
//
// The local model is the product over parameters of max(1, values): a
// parameter with no values still counts as one choice. Removing a value never
// increases the cost.
//
// Two oracles sit behind the Oracle interface and are selected once from
// configuration with New:
//
//   - Local: the formula, instant and deterministic
//   - Remote: the catalog costing endpoint, wrapped in Fallback so an
//     unavailable endpoint degrades to Local
//
// The optimizer always splits with Of directly; oracles are for reporting.
package cost
