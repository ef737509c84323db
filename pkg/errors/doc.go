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

// Package errors provides the structured error taxonomy shared by every copper package.
//
// Each error carries an ErrorCode so callers can branch on the failure class
// without string matching:
//
//   - NOT_FOUND: a dataset, template, parameter or value does not exist
//   - INVALID_REQUEST: malformed input; the context "field" key names the offending field
//   - UNSATISFIABLE_BUDGET: the optimizer exhausted its splits while still over budget
//   - UNAVAILABLE: a remote collaborator (cost oracle, catalog) could not answer
//
// Usage:
//
//	if err := editor.RemoveValue(ctx, "year", "1999"); err != nil {
//		if errors.IsCode(err, errors.ErrCodeNotFound) {
//			// nothing to remove
//		}
//		return err
//	}
//
// Wrapping keeps the original cause reachable through errors.Is and errors.As:
//
//	return errors.Wrap(errors.ErrCodeUnavailable, "costing request failed", err)
package errors
