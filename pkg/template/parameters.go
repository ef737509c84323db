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

package template

import (
	"maps"
	"slices"
)

// Parameters maps a parameter name to its ordered, duplicate-free values.
type Parameters map[string][]string

// Clone returns a deep copy; nil yields an empty mapping.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for name, values := range p {
		out[name] = slices.Clone(values)
	}
	return out
}

// Names returns the parameter names in sorted order.
func (p Parameters) Names() []string {
	return slices.Sorted(maps.Keys(p))
}

// Has reports whether name is present with at least one value.
func (p Parameters) Has(name string) bool {
	return len(p[name]) > 0
}

// Contains reports whether value is one of name's values.
func (p Parameters) Contains(name, value string) bool {
	return slices.Contains(p[name], value)
}

// Equal reports whether both mappings hold the same values per parameter,
// ignoring value order.
func (p Parameters) Equal(other Parameters) bool {
	if len(p) != len(other) {
		return false
	}
	for name, values := range p {
		theirs, ok := other[name]
		if !ok || len(theirs) != len(values) {
			return false
		}
		a, b := slices.Clone(values), slices.Clone(theirs)
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			return false
		}
	}
	return true
}

// dedupe drops repeated values while keeping first-seen order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
