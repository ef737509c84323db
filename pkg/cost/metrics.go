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

package cost

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	estimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copper_cost_estimates_total",
			Help: "Total number of cost estimates by oracle",
		},
		[]string{"oracle"},
	)

	fallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copper_cost_oracle_fallbacks_total",
			Help: "Total number of estimates answered by the fallback oracle",
		},
	)
)
