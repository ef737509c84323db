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

import "slices"

// Violation is a template value the dataset does not accept.
type Violation struct {
	Parameter string `json:"parameter" yaml:"parameter"`
	Value     string `json:"value" yaml:"value"`
}

// Validate compares params with the dataset's allowed values. Parameters with
// no allowed list are free-form and always pass.
func Validate(params Parameters, allowed map[string][]string) []Violation {
	var out []Violation
	for _, name := range params.Names() {
		choices, ok := allowed[name]
		if !ok || len(choices) == 0 {
			continue
		}
		for _, v := range params[name] {
			if !slices.Contains(choices, v) {
				out = append(out, Violation{Parameter: name, Value: v})
			}
		}
	}
	return out
}

// Mandatory returns the names in required that params does not set.
func Mandatory(params Parameters, required []string) []string {
	var missing []string
	for _, name := range required {
		if !params.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
