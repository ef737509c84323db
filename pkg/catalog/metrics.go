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

package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copper_catalog_requests_total",
			Help: "Total number of remote API requests by method and status",
		},
		[]string{"method", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "copper_catalog_request_duration_seconds",
			Help:    "Remote API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copper_catalog_cache_hits_total",
			Help: "Total number of responses served from the cache",
		},
	)

	syncFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copper_catalog_sync_failures_total",
			Help: "Total number of collections skipped during sync",
		},
	)
)
