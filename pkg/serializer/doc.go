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

// Package serializer writes command and API output as JSON, YAML or a table,
// and reads JSON or YAML documents back.
//
// Table output has two shapes. Values implementing Tabular print as columns
// with a header row; anything else is flattened into sorted FIELD/VALUE
// pairs keyed by json tag names, where fields tagged json:"-" are hidden.
//
// Usage:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, path)
//	defer w.Close()
//	if err := w.Serialize(ctx, plan); err != nil {
//	    return err
//	}
//
// Template documents can be imported from either JSON or YAML:
//
//	data, err := serializer.ReadFileAsJSON("era5.yaml")
//
// For HTTP responses:
//
//	serializer.RespondJSON(w, http.StatusOK, data)
package serializer
