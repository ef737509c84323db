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
	"math"

	"github.com/velarno/copper/pkg/template"
)

// Of returns the multiplicative cost of params: the product over all
// parameters of max(1, number of values). The result saturates at
// math.MaxInt64.
func Of(params template.Parameters) int64 {
	total := int64(1)
	for _, values := range params {
		n := int64(max(1, len(values)))
		if total > math.MaxInt64/n {
			return math.MaxInt64
		}
		total *= n
	}
	return total
}
