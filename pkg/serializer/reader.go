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

package serializer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Reader decodes JSON or YAML from an io.Reader. Table format is write-only.
// Close must be called for readers created with NewFileReader.
type Reader struct {
	format Format
	input  io.Reader
	closer io.Closer
}

// NewReader creates a Reader over input. If input implements io.Closer it is
// closed by Reader.Close.
func NewReader(format Format, input io.Reader) (*Reader, error) {
	if format.IsUnknown() {
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	if format == FormatTable {
		return nil, fmt.Errorf("table format does not support deserialization")
	}

	r := &Reader{
		format: format,
		input:  input,
	}
	if closer, ok := input.(io.Closer); ok {
		r.closer = closer
	}
	return r, nil
}

// NewFileReader opens filePath for decoding in the given format.
func NewFileReader(format Format, filePath string) (*Reader, error) {
	if format == FormatTable {
		return nil, fmt.Errorf("table format does not support deserialization")
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r, err := NewReader(format, file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

// NewFileReaderAuto opens filePath with the format implied by its extension.
func NewFileReaderAuto(filePath string) (*Reader, error) {
	return NewFileReader(FormatFromPath(filePath), filePath)
}

// Deserialize decodes the input into v, which must be a pointer.
func (r *Reader) Deserialize(v any) error {
	if r == nil {
		return fmt.Errorf("reader is nil")
	}
	if r.input == nil {
		return fmt.Errorf("input source is nil")
	}

	switch r.format {
	case FormatJSON:
		if err := json.NewDecoder(r.input).Decode(v); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		if err := yaml.NewDecoder(r.input).Decode(v); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format for deserialization: %s", r.format)
	}
}

// Close releases the underlying file, if any. Safe to call more than once.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// FromFile loads path, detecting the format from its extension, into a new T.
func FromFile[T any](path string) (*T, error) {
	reader, err := NewFileReaderAuto(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var out T
	if err := reader.Deserialize(&out); err != nil {
		return nil, fmt.Errorf("failed to deserialize %s: %w", path, err)
	}
	return &out, nil
}

// ReadFileAsJSON returns the document at path as JSON bytes. JSON files are
// returned as-is; YAML files are decoded and re-encoded.
func ReadFileAsJSON(path string) ([]byte, error) {
	if FormatFromPath(path) != FormatYAML {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return data, nil
	}

	doc, err := FromFile[any](path)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(*doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s to JSON: %w", path, err)
	}
	return data, nil
}
