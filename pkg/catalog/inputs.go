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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// InputKind classifies a retrieve process input.
type InputKind string

const (
	// KindEnum is a single choice among enumerated values.
	KindEnum InputKind = "enum"
	// KindArray is any number of choices among enumerated values.
	KindArray InputKind = "array"
	// KindNumberArray is a fixed-size numeric array with a default, such as an area box.
	KindNumberArray InputKind = "number_array"
	// KindFree accepts any value.
	KindFree InputKind = "free"
)

// Choice cardinalities.
const (
	ChoiceOne  = "one"
	ChoiceMany = "many"
)

// InputParameter is one input of a dataset's retrieve process.
type InputParameter struct {
	Name      string    `json:"name" yaml:"name"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	Kind      InputKind `json:"kind" yaml:"kind"`
	Choice    string    `json:"choice" yaml:"choice"`
	Values    []string  `json:"values,omitempty" yaml:"values,omitempty"`
	Default   []string  `json:"default,omitempty" yaml:"default,omitempty"`
	Mandatory bool      `json:"mandatory" yaml:"mandatory"`
}

// Inputs is the input schema of a dataset.
type Inputs struct {
	DatasetID  string           `json:"dataset_id" yaml:"dataset_id"`
	Parameters []InputParameter `json:"parameters" yaml:"parameters"`
}

// AllowedValues maps enumerated parameters to their allowed values.
// Number arrays and free-form inputs are left out.
func (in *Inputs) AllowedValues() map[string][]string {
	out := make(map[string][]string, len(in.Parameters))
	for _, p := range in.Parameters {
		if p.Kind == KindEnum || p.Kind == KindArray {
			out[p.Name] = slices.Clone(p.Values)
		}
	}
	return out
}

// Mandatory returns the names of parameters without a default.
func (in *Inputs) Mandatory() []string {
	var out []string
	for _, p := range in.Parameters {
		if p.Mandatory {
			out = append(out, p.Name)
		}
	}
	return out
}

// Parameter returns the named input.
func (in *Inputs) Parameter(name string) (*InputParameter, bool) {
	for i := range in.Parameters {
		if in.Parameters[i].Name == name {
			return &in.Parameters[i], true
		}
	}
	return nil, false
}

type inputDocument struct {
	Title  string         `json:"title"`
	Schema map[string]any `json:"schema"`
}

// Inputs fetches and parses the input schema of datasetID.
func (c *Client) Inputs(ctx context.Context, datasetID string) (*Inputs, error) {
	data, err := c.Get(ctx, c.RetrieveURL(datasetID))
	if err != nil {
		return nil, err
	}
	return ParseInputs(datasetID, data)
}

// ParseInputs decodes a process description. The inputs may sit under an
// "inputs" key or be the whole document.
func ParseInputs(datasetID string, data []byte) (*Inputs, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "malformed process description", err)
	}
	if nested, ok := raw["inputs"]; ok {
		raw = nil
		dec := json.NewDecoder(bytes.NewReader(nested))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "malformed process inputs", err)
		}
	}

	in := &Inputs{DatasetID: datasetID}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		var doc inputDocument
		dec := json.NewDecoder(bytes.NewReader(raw[name]))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeUnavailable,
				fmt.Sprintf("malformed input %q", name), err, map[string]any{"field": name})
		}
		in.Parameters = append(in.Parameters, inferParameter(name, doc))
	}
	return in, nil
}

// inferParameter classifies an input from its JSON schema: an enum is a single
// choice, a default makes it a numeric array, items make it a multi-choice array.
func inferParameter(name string, doc inputDocument) InputParameter {
	p := InputParameter{
		Name:   name,
		Title:  doc.Title,
		Kind:   KindFree,
		Choice: ChoiceOne,
	}
	schema := doc.Schema
	def, hasDefault := schema["default"]
	p.Mandatory = !hasDefault
	if hasDefault {
		p.Default = stringsOf(def)
	}

	if enum, ok := schema["enum"]; ok {
		p.Kind = KindEnum
		p.Values = stringsOf(enum)
		return p
	}
	if hasDefault {
		p.Kind = KindNumberArray
		p.Choice = ChoiceMany
		p.Values = p.Default
		return p
	}
	if items, ok := schema["items"].(map[string]any); ok {
		p.Kind = KindArray
		p.Choice = ChoiceMany
		p.Values = stringsOf(items["enum"])
		return p
	}
	return p
}

// stringsOf renders a scalar or a list of scalars as strings.
func stringsOf(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, scalar(item))
		}
		return out
	default:
		return []string{scalar(val)}
	}
}

func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
