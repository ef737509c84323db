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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// Metadata identifies the template inside a document.
type Metadata struct {
	DatasetID    string `json:"dataset_id" yaml:"dataset_id"`
	TemplateName string `json:"template_name" yaml:"template_name"`
}

// Document is the canonical import/export shape of a template.
type Document struct {
	Metadata   Metadata   `json:"metadata" yaml:"metadata"`
	Parameters Parameters `json:"parameters" yaml:"parameters"`
}

// Parse builds a State from a template document. Parameter values may be
// scalars or lists; scalars become single-element lists and duplicates are dropped.
func Parse(data []byte) (*State, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
			"document: malformed JSON", err, map[string]any{"field": "document"})
	}

	metaRaw, ok := raw["metadata"]
	if !ok {
		return nil, cerrors.Validation("metadata", "missing required key")
	}
	paramsRaw, ok := raw["parameters"]
	if !ok {
		return nil, cerrors.Validation("parameters", "missing required key")
	}

	var meta Metadata
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
			"metadata: must be an object", err, map[string]any{"field": "metadata"})
	}
	if strings.TrimSpace(meta.DatasetID) == "" {
		return nil, cerrors.Validation("metadata.dataset_id", "missing required key")
	}
	if strings.TrimSpace(meta.TemplateName) == "" {
		return nil, cerrors.Validation("metadata.template_name", "missing required key")
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(paramsRaw, &entries); err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
			"parameters: must be an object", err, map[string]any{"field": "parameters"})
	}

	state := NewState(meta.TemplateName, meta.DatasetID)
	for name, value := range entries {
		values, err := decodeValues(value)
		if err != nil {
			field := "parameters." + name
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
				field+": "+err.Error(), err, map[string]any{"field": field})
		}
		if len(values) == 0 {
			return nil, cerrors.Validation("parameters."+name, "at least one value is required")
		}
		state.params[name] = dedupe(values)
	}
	return state, nil
}

// decodeValues accepts a scalar or a list of scalars and renders each as a string.
func decodeValues(raw json.RawMessage) ([]string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		values := make([]string, 0, len(items))
		for _, item := range items {
			v, err := decodeScalar(item)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return values, nil
	}

	v, err := decodeScalar(trimmed)
	if err != nil {
		return nil, err
	}
	return []string{v}, nil
}

func decodeScalar(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return fmt.Sprintf("%t", val), nil
	default:
		return "", fmt.Errorf("unsupported value %s", string(raw))
	}
}

// Document returns the canonical document for the state.
func (s *State) Document() Document {
	return Document{
		Metadata: Metadata{
			DatasetID:    s.DatasetID,
			TemplateName: s.Name,
		},
		Parameters: s.ToMapping(),
	}
}

// Serialize renders the state as indented JSON. With includeMetadata the
// mapping is nested under "parameters" next to a "metadata" object; without
// it the bare mapping is returned.
func (s *State) Serialize(includeMetadata bool) ([]byte, error) {
	var v any = s.ToMapping()
	if includeMetadata {
		v = s.Document()
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to serialize template", err)
	}
	return data, nil
}
