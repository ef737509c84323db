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
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/velarno/copper/pkg/defaults"
)

// Sink receives what a sync fetches. Implementations must be safe for
// concurrent use.
type Sink interface {
	SaveLinks(ctx context.Context, links []Link) error
	SaveCollection(ctx context.Context, c *Collection) error
	SaveInputs(ctx context.Context, in *Inputs) error
}

// SyncOptions tune a catalogue sync.
type SyncOptions struct {
	// Limit caps the number of collections fetched; zero means all.
	Limit int
	// WithInputs also fetches each collection's input schema.
	WithInputs bool
	// Concurrency bounds parallel fetches.
	Concurrency int
}

// SyncResult summarizes a sync.
type SyncResult struct {
	Links       int      `json:"links" yaml:"links"`
	Collections int      `json:"collections" yaml:"collections"`
	Inputs      int      `json:"inputs" yaml:"inputs"`
	Failed      []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Sync fetches the catalogue links, then every child collection (and
// optionally its inputs) in parallel, handing each result to sink. A
// collection that fails to fetch is recorded in Failed and skipped; sink
// errors and cancellation abort the sync.
func (c *Client) Sync(ctx context.Context, sink Sink, opts SyncOptions) (*SyncResult, error) {
	links, err := c.CatalogLinks(ctx)
	if err != nil {
		return nil, err
	}
	if err := sink.SaveLinks(ctx, links); err != nil {
		return nil, err
	}

	var children []Link
	for _, l := range links {
		if l.Rel == RelChild {
			children = append(children, l)
		}
	}
	if opts.Limit > 0 && len(children) > opts.Limit {
		children = children[:opts.Limit]
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaults.Concurrency
	}

	res := &SyncResult{Links: len(links)}
	var mu sync.Mutex
	fail := func(href string, err error) {
		slog.Warn("skipping collection", "url", href, "error", err)
		syncFailures.Inc()
		mu.Lock()
		res.Failed = append(res.Failed, href)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, link := range children {
		g.Go(func() error {
			col, err := c.Collection(gctx, link.Href)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fail(link.Href, err)
				return nil
			}
			if err := sink.SaveCollection(gctx, col); err != nil {
				return err
			}
			mu.Lock()
			res.Collections++
			mu.Unlock()

			if !opts.WithInputs {
				return nil
			}
			in, err := c.Inputs(gctx, col.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				fail(c.RetrieveURL(col.ID), err)
				return nil
			}
			if err := sink.SaveInputs(gctx, in); err != nil {
				return err
			}
			mu.Lock()
			res.Inputs++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}

	slog.Info("catalog synced",
		"links", res.Links,
		"collections", res.Collections,
		"inputs", res.Inputs,
		"failed", len(res.Failed))
	return res, nil
}
