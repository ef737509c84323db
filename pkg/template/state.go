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
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/velarno/copper/pkg/defaults"
	cerrors "github.com/velarno/copper/pkg/errors"
)

// State is a request template: a dataset-bound, named mapping of parameter
// values. Methods on State only touch its own copy of the mapping.
type State struct {
	DatasetID string
	Name      string
	params    Parameters
}

// NewState returns an empty state for the given template name and dataset.
func NewState(name, datasetID string) *State {
	return &State{
		DatasetID: datasetID,
		Name:      name,
		params:    Parameters{},
	}
}

// NewStateFromParameters returns a state holding a deduplicated copy of params.
func NewStateFromParameters(name, datasetID string, params Parameters) *State {
	s := NewState(name, datasetID)
	for _, n := range params.Names() {
		s.params[n] = dedupe(params[n])
	}
	return s
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	return &State{
		DatasetID: s.DatasetID,
		Name:      s.Name,
		params:    s.params.Clone(),
	}
}

// ToMapping returns a copy of the parameter mapping used as cost input.
func (s *State) ToMapping() Parameters {
	return s.params.Clone()
}

// Values returns a copy of the values recorded for name.
func (s *State) Values(name string) []string {
	return slices.Clone(s.params[name])
}

// AddValue appends value to name unless already present. It reports whether
// the mapping changed.
func (s *State) AddValue(name, value string) bool {
	if s.params == nil {
		s.params = Parameters{}
	}
	if slices.Contains(s.params[name], value) {
		return false
	}
	s.params[name] = append(s.params[name], value)
	return true
}

// AddRange adds every integer in the inclusive range [from, to] to name and
// returns the values that were new.
func (s *State) AddRange(name, from, to string) ([]string, error) {
	values, err := ExpandRange(from, to)
	if err != nil {
		return nil, err
	}
	var added []string
	for _, v := range values {
		if s.AddValue(name, v) {
			added = append(added, v)
		}
	}
	return added, nil
}

// RemoveValue drops value from name. A parameter left without values is removed.
func (s *State) RemoveValue(name, value string) error {
	idx := slices.Index(s.params[name], value)
	if idx < 0 {
		return cerrors.NewWithContext(cerrors.ErrCodeNotFound,
			fmt.Sprintf("value %q not set for parameter %q", value, name),
			map[string]any{"parameter": name, "value": value})
	}
	s.params[name] = slices.Delete(s.params[name], idx, idx+1)
	if len(s.params[name]) == 0 {
		delete(s.params, name)
	}
	return nil
}

// ReplaceValue swaps oldValue for newValue in place. Replacing with a value
// already present behaves like RemoveValue(oldValue).
func (s *State) ReplaceValue(name, oldValue, newValue string) error {
	idx := slices.Index(s.params[name], oldValue)
	if idx < 0 {
		return cerrors.NewWithContext(cerrors.ErrCodeNotFound,
			fmt.Sprintf("value %q not set for parameter %q", oldValue, name),
			map[string]any{"parameter": name, "value": oldValue})
	}
	if oldValue == newValue {
		return nil
	}
	if slices.Contains(s.params[name], newValue) {
		return s.RemoveValue(name, oldValue)
	}
	s.params[name][idx] = newValue
	return nil
}

// RemoveParameter drops every value of name.
func (s *State) RemoveParameter(name string) error {
	if !s.params.Has(name) {
		return cerrors.NotFound("parameter", name)
	}
	delete(s.params, name)
	return nil
}

// ExpandRange returns the inclusive integer range [from, to] as strings.
// When from is written with leading zeros ("01") every value keeps that width.
func ExpandRange(from, to string) ([]string, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	start, err := strconv.Atoi(from)
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("from: %q is not an integer", from), err, map[string]any{"field": "from"})
	}
	end, err := strconv.Atoi(to)
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("to: %q is not an integer", to), err, map[string]any{"field": "to"})
	}
	if start > end {
		return nil, cerrors.Validation("range", fmt.Sprintf("start %d is after end %d", start, end))
	}
	// end >= start, so the unsigned difference is exact for any pair of ints.
	if span := uint64(end) - uint64(start); span >= defaults.MaxRangeValues {
		return nil, cerrors.Validation("range",
			fmt.Sprintf("%d..%d exceeds %d values", start, end, defaults.MaxRangeValues))
	}

	width := 0
	if len(from) > 1 && from[0] == '0' {
		width = len(from)
	}

	values := make([]string, 0, end-start+1)
	for i := start; ; i++ {
		values = append(values, fmt.Sprintf("%0*d", width, i))
		if i == end {
			break
		}
	}
	return values, nil
}

// ParseRange splits a "from-to" expression such as "2010-2019". The
// separator is the last dash that follows a digit, so either bound may be
// negative ("-5-3", "-10--2").
func ParseRange(expr string) (string, string, error) {
	expr = strings.TrimSpace(expr)
	sep := -1
	for i := len(expr) - 1; i > 0; i-- {
		if expr[i] == '-' && expr[i-1] >= '0' && expr[i-1] <= '9' {
			sep = i
			break
		}
	}
	if sep < 0 || sep == len(expr)-1 {
		return "", "", cerrors.Validation("range", fmt.Sprintf("%q is not in from-to form", expr))
	}
	return expr[:sep], expr[sep+1:], nil
}
