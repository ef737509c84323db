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

// Package template holds the request template model.
//
// A template is a named, dataset-bound mapping from parameter names to
// ordered, duplicate-free value lists. Its cross-product of values describes
// the family of retrieval requests it stands for.
//
// # State
//
// State is the in-memory model. It can be created empty (NewState), rebuilt
// from a mapping (NewStateFromParameters) or parsed from a document (Parse):
//
//	{
//	  "metadata": {"dataset_id": "reanalysis-era5-single-levels", "template_name": "era5"},
//	  "parameters": {"year": ["2010", "2011"], "variable": "2m_temperature"}
//	}
//
// Scalars become single-element lists and duplicates are dropped. Missing
// "metadata" or "parameters" keys fail with an INVALID_REQUEST error whose
// context names the field.
//
// ToMapping always returns a deep copy, so a mapping handed to the optimizer
// or a store never aliases the state it came from.
//
// # Editor
//
// Editor binds a State to a Store and walks the lifecycle
// Unbound -> Bound -> Deleted:
//
//	ed := template.NewEditor(store)
//	if err := ed.Create(ctx, "era5", "reanalysis-era5-single-levels"); err != nil {
//		return err
//	}
//	if err := ed.AddRange(ctx, "year", "2010", "2019"); err != nil {
//		return err
//	}
//
// Every mutation is written through to the store and followed by a history
// snapshot. Operations on an unbound or deleted editor fail with NOT_FOUND.
package template
