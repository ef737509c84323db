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
	"context"
	"encoding/json"
	"time"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// RelChild marks catalogue links that point at collections.
const RelChild = "child"

// Link is a STAC link.
type Link struct {
	Href  string `json:"href" yaml:"href"`
	Rel   string `json:"rel" yaml:"rel"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Collection describes one dataset.
type Collection struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Published   time.Time `json:"published" yaml:"published"`
	Updated     time.Time `json:"updated" yaml:"updated"`
	DOI         string    `json:"doi,omitempty" yaml:"doi,omitempty"`
	Keywords    []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Links       []Link    `json:"links,omitempty" yaml:"links,omitempty"`
}

// CostingResult is the answer of the costing endpoint.
type CostingResult struct {
	Cost           float64 `json:"cost"`
	Limit          float64 `json:"limit"`
	RequestIsValid bool    `json:"request_is_valid"`
	InvalidReason  string  `json:"invalid_reason,omitempty"`
}

type catalogDocument struct {
	Links []Link `json:"links"`
}

type collectionDocument struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Published   string   `json:"published"`
	Updated     string   `json:"updated"`
	DOI         string   `json:"sci:doi"`
	LegacyDOI   string   `json:"doi"`
	Keywords    []string `json:"keywords"`
	Links       []Link   `json:"links"`
}

// CatalogLinks returns the catalogue root links, deduplicated by href.
func (c *Client) CatalogLinks(ctx context.Context) ([]Link, error) {
	data, err := c.Get(ctx, c.catalogueURL)
	if err != nil {
		return nil, err
	}
	return ParseCatalogLinks(data)
}

// ParseCatalogLinks decodes a catalogue root document.
func ParseCatalogLinks(data []byte) ([]Link, error) {
	var doc catalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "malformed catalogue document", err)
	}
	seen := make(map[string]struct{}, len(doc.Links))
	links := make([]Link, 0, len(doc.Links))
	for _, l := range doc.Links {
		if l.Href == "" {
			continue
		}
		if _, ok := seen[l.Href]; ok {
			continue
		}
		seen[l.Href] = struct{}{}
		links = append(links, l)
	}
	return links, nil
}

// Collection fetches the collection document at url.
func (c *Client) Collection(ctx context.Context, url string) (*Collection, error) {
	data, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseCollection(data)
}

// CollectionByID fetches the collection of datasetID.
func (c *Client) CollectionByID(ctx context.Context, datasetID string) (*Collection, error) {
	return c.Collection(ctx, c.CollectionURL(datasetID))
}

// ParseCollection decodes a STAC collection document.
func ParseCollection(data []byte) (*Collection, error) {
	var doc collectionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "malformed collection document", err)
	}
	if doc.ID == "" {
		return nil, cerrors.New(cerrors.ErrCodeUnavailable, "collection document has no id")
	}
	doi := doc.DOI
	if doi == "" {
		doi = doc.LegacyDOI
	}
	return &Collection{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		Published:   parseTime(doc.Published),
		Updated:     parseTime(doc.Updated),
		DOI:         doi,
		Keywords:    doc.Keywords,
		Links:       doc.Links,
	}, nil
}

// parseTime accepts RFC 3339 timestamps and bare dates; anything else is zero.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Costing asks the costing endpoint for the cost of inputs.
func (c *Client) Costing(ctx context.Context, datasetID string, inputs map[string][]string) (*CostingResult, error) {
	data, err := c.PostJSON(ctx, c.CostURL(datasetID), map[string]any{"inputs": inputs})
	if err != nil {
		return nil, err
	}
	var res CostingResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "malformed costing response", err)
	}
	return &res, nil
}
