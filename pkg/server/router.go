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

package server

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/velarno/copper/pkg/serializer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes lists the API routes served behind the middleware chain.
var routes = []string{
	"GET /v1/templates",
	"GET /v1/templates/{name}",
	"GET /v1/templates/{name}/cost",
	"POST /v1/templates/{name}/optimize",
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleDefault)

	// System endpoints (no rate limiting)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc(routes[0], s.withMiddleware(s.handleListTemplates))
	mux.HandleFunc(routes[1], s.withMiddleware(s.handleGetTemplate))
	mux.HandleFunc(routes[2], s.withMiddleware(s.handleTemplateCost))
	mux.HandleFunc(routes[3], s.withMiddleware(s.handleOptimize))

	for path, h := range s.config.Handlers {
		mux.HandleFunc(path, s.withMiddleware(h))
	}

	return mux
}

// routeList returns every route the index advertises.
func (s *Server) routeList() []string {
	out := append([]string{}, routes...)
	for path := range s.config.Handlers {
		out = append(out, path)
	}
	out = append(out, "GET /health", "GET /ready", "GET /metrics")
	sort.Strings(out)
	return out
}

func (s *Server) handleDefault(w http.ResponseWriter, r *http.Request) {
	slog.Debug("handling default route",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)

	resp := struct {
		Name      string   `json:"name"`
		Version   string   `json:"version"`
		Ready     bool     `json:"ready"`
		Timestamp string   `json:"timestamp"`
		Routes    []string `json:"routes"`
	}{
		Name:      s.config.Name,
		Version:   s.config.Version,
		Ready:     s.isReady(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Routes:    s.routeList(),
	}

	serializer.RespondJSON(w, http.StatusOK, resp)
}
