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

package api

import (
	"context"
	"log/slog"

	"github.com/velarno/copper/pkg/cost"
	"github.com/velarno/copper/pkg/optimizer"
	"github.com/velarno/copper/pkg/server"
)

const name = "copper-api"

// Options wires the API to its collaborators.
type Options struct {
	// Version is reported by the index route.
	Version string
	// Templates is the template backend, normally a *store.Store.
	Templates server.Templates
	// Oracle answers GET /v1/templates/{name}/cost.
	Oracle cost.Oracle
	// Budget and SplitParameter are the optimize defaults.
	Budget         int64
	SplitParameter string
	// Port overrides the listen port when positive.
	Port int
}

// newServer builds the HTTP server for opts without starting it.
func newServer(opts Options) *server.Server {
	cfg := server.NewConfig()
	cfg.Name = name
	if opts.Version != "" {
		cfg.Version = opts.Version
	}
	if opts.Port > 0 {
		cfg.Port = opts.Port
	}
	if opts.Budget > 0 {
		cfg.Budget = opts.Budget
	}
	if opts.SplitParameter != "" {
		cfg.SplitParameter = opts.SplitParameter
	}

	return server.New(
		server.WithConfig(cfg),
		server.WithTemplates(opts.Templates),
		server.WithOracle(opts.Oracle),
		server.WithOptimizer(optimizer.New()),
	)
}

// Serve starts the API server and blocks until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func Serve(ctx context.Context, opts Options) error {
	s := newServer(opts)
	if err := s.Run(ctx); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}
