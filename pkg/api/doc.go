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

// Package api assembles the copper HTTP API from a template backend and a
// cost oracle and runs it until shutdown.
//
//	err := api.Serve(ctx, api.Options{
//	    Version:   version,
//	    Templates: st,
//	    Oracle:    oracle,
//	    Port:      8080,
//	})
//
// Routes, middleware and error mapping live in pkg/server.
package api
