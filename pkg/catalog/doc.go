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

// Package catalog is the client for the remote catalogue and retrieve APIs.
//
// The Client throttles every request with a token bucket (requests per
// minute), caches GET responses in an LRU keyed by URL and maps HTTP
// failures onto the shared error codes:
//
//   - 401, 403: UNAUTHORIZED
//   - 404: NOT_FOUND
//   - 429: RATE_LIMIT_EXCEEDED (Retry-After kept in the error context)
//   - other non-2xx and transport failures: UNAVAILABLE
//   - deadlines: TIMEOUT
//
// Requests are not retried.
//
// Usage:
//
//	client, err := catalog.NewClient(
//		catalog.WithAPIKey(os.Getenv("CDS_API_KEY")),
//		catalog.WithRateLimit(10),
//	)
//	in, err := client.Inputs(ctx, "reanalysis-era5-single-levels")
//	allowed := in.AllowedValues()
//
// Sync walks the catalogue root, fetching collections and input schemas in
// parallel into a Sink. Search ranks stored collections with fuzzy matching.
package catalog
