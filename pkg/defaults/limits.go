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

package defaults

// Budgeting and catalog limits.
const (
	// BudgetLimit is the cost budget used when none is configured.
	BudgetLimit = 400

	// SplitParameter is the parameter the optimizer divides when none is given.
	SplitParameter = "year"

	// SubTemplatePadWidth is the minimum zero-padded width of sub-template indexes.
	SubTemplatePadWidth = 3

	// RateLimitPerMinute is the default number of remote API requests per minute.
	RateLimitPerMinute = 10

	// Concurrency is the default number of parallel remote fetches.
	Concurrency = 4

	// CacheSize is the default number of cached catalog responses.
	CacheSize = 256

	// SearchLimit is the default number of search results shown.
	SearchLimit = 20

	// MaxRangeValues caps how many values a single range expansion may add.
	MaxRangeValues = 10000
)
