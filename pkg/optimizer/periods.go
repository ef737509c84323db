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
	"fmt"
	"strconv"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// Periods lists the years from start to end inclusive, grouped into chunks
// of size years. A size of zero or less yields a single chunk.
func Periods(start, end, size int) ([][]string, error) {
	if start > end {
		return nil, cerrors.Validation("period", fmt.Sprintf("start %d is after end %d", start, end))
	}

	years := make([]string, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, strconv.Itoa(y))
	}
	return Chunk(years, size), nil
}

// Chunk splits values into consecutive groups of at most size elements.
// A size of zero or less yields a single group.
func Chunk(values []string, size int) [][]string {
	if size <= 0 || size >= len(values) {
		return [][]string{values}
	}
	out := make([][]string, 0, (len(values)+size-1)/size)
	for i := 0; i < len(values); i += size {
		out = append(out, values[i:min(i+size, len(values))])
	}
	return out
}
