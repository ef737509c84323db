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

// Package server implements the copper HTTP API.
//
// The API exposes stored templates, their cost and the budget optimizer:
//
//	GET  /v1/templates                          list templates
//	GET  /v1/templates/{name}                   one template with its parameters
//	GET  /v1/templates/{name}/cost              cost estimate from the configured oracle
//	POST /v1/templates/{name}/optimize          split into within-budget sub-templates
//	GET  /health                                liveness
//	GET  /ready                                 readiness, including a store ping
//	GET  /metrics                               Prometheus metrics
//
// The optimize route accepts the query parameters parameter (default "year"),
// budget (default 400) and persist. With persist=true every sub-template is
// written in a single transaction and the response status is 201.
//
// API routes run behind a middleware chain that records metrics, negotiates
// the API version (Accept: application/vnd.copper.v1+json, echoed in
// X-Copper-API-Version, 406 when no listed version is served), assigns an
// X-Request-Id, recovers panics, applies a token bucket rate limit and logs
// the request.
//
// Failures are returned as ErrorResponse bodies. The error code selects the
// status: NOT_FOUND is 404, INVALID_REQUEST is 400, UNSATISFIABLE_BUDGET is
// 422, UNAVAILABLE is 503 and TIMEOUT is 504. Anything else is a 500 whose
// message is not exposed.
//
// Usage:
//
//	s := server.New(
//	    server.WithName("copper"),
//	    server.WithTemplates(st),
//	    server.WithOracle(oracle),
//	)
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
//
// The listen port is taken from PORT and the graceful shutdown window from
// SHUTDOWN_TIMEOUT_SECONDS.
package server
