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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK            = "ok"
	resultUnsatisfiable = "unsatisfiable"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copper_optimizer_runs_total",
			Help: "Total number of optimizer runs by result",
		},
		[]string{"result"},
	)

	popsObserved = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "copper_optimizer_pops",
			Help:    "Worklist pops per successful optimizer run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	splitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "copper_optimizer_splits_total",
			Help: "Total number of halvings performed by the optimizer",
		},
	)
)
