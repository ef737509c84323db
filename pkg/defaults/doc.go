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

// Package defaults provides centralized configuration constants for copper.
//
// Timeouts are grouped by component:
//
//   - Client timeouts: catalog, input schema and costing requests
//   - Job timeouts: retrieve job polling and asset downloads
//   - Server timeouts: the optional HTTP API
//
// Limits hold the budgeting defaults (budget 400, split on "year") and the
// remote API throttling defaults (10 requests per minute).
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.JobTimeout)
//	defer cancel()
package defaults
