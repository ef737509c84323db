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
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// SearchOptions narrow a collection search.
type SearchOptions struct {
	// Keyword keeps only collections tagged with it (case-insensitive).
	Keyword string
	// Limit caps the number of results; zero means no cap.
	Limit int
}

type searchSource []string

func (s searchSource) String(i int) string { return s[i] }
func (s searchSource) Len() int            { return len(s) }

// Search ranks collections by fuzzy match of query against their id, title
// and keywords. An empty query returns the keyword-filtered collections in
// their original order.
func Search(collections []Collection, query string, opts SearchOptions) []Collection {
	fold := cases.Fold()

	candidates := collections
	if kw := strings.TrimSpace(opts.Keyword); kw != "" {
		want := fold.String(kw)
		candidates = nil
		for _, c := range collections {
			for _, k := range c.Keywords {
				if fold.String(k) == want {
					candidates = append(candidates, c)
					break
				}
			}
		}
	}

	var out []Collection
	query = strings.TrimSpace(query)
	if query == "" {
		out = candidates
	} else {
		source := make(searchSource, len(candidates))
		for i, c := range candidates {
			source[i] = fold.String(c.ID + " " + c.Title + " " + strings.Join(c.Keywords, " "))
		}
		for _, m := range fuzzy.FindFrom(fold.String(query), source) {
			out = append(out, candidates[m.Index])
		}
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}
