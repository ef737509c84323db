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
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/velarno/copper/pkg/cost"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/optimizer"
	"github.com/velarno/copper/pkg/serializer"
	"github.com/velarno/copper/pkg/template"
)

// TemplateList is the body of GET /v1/templates.
type TemplateList struct {
	Count     int               `json:"count"`
	Templates []template.Record `json:"templates"`
}

// CostResponse is the body of GET /v1/templates/{name}/cost.
type CostResponse struct {
	Template  string         `json:"template"`
	DatasetID string         `json:"dataset_id"`
	Estimate  *cost.Estimate `json:"estimate"`
}

func (s *Server) backend() (Templates, error) {
	if s.templates == nil {
		return nil, cerrors.New(cerrors.ErrCodeUnavailable, "no template store configured")
	}
	return s.templates, nil
}

func (s *Server) lookup(ctx context.Context, name string) (*template.Record, error) {
	t, err := s.backend()
	if err != nil {
		return nil, err
	}
	return t.GetTemplateByName(ctx, name)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	t, err := s.backend()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	records, err := t.ListTemplates(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if records == nil {
		records = []template.Record{}
	}
	serializer.RespondJSON(w, http.StatusOK, TemplateList{Count: len(records), Templates: records})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	rec, err := s.lookup(r.Context(), r.PathValue("name"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleTemplateCost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := s.lookup(ctx, r.PathValue("name"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	est, err := s.oracle.Estimate(ctx, rec.DatasetID, rec.Parameters)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	if rec.ID != 0 {
		if cr, ok := s.templates.(costRecorder); ok {
			if err := cr.AppendCost(ctx, rec.ID, est); err != nil {
				slog.Warn("failed to record cost", "template", rec.Name, "error", err)
			}
		}
	}

	serializer.RespondJSON(w, http.StatusOK, CostResponse{
		Template:  rec.Name,
		DatasetID: rec.DatasetID,
		Estimate:  est,
	})
}

// optimizeRequest holds the query parameters of an optimize call.
type optimizeRequest struct {
	parameter string
	budget    int64
	persist   bool
}

func (s *Server) parseOptimizeRequest(r *http.Request) (*optimizeRequest, error) {
	q := r.URL.Query()
	req := &optimizeRequest{
		parameter: s.config.SplitParameter,
		budget:    s.config.Budget,
	}
	if v := q.Get("parameter"); v != "" {
		req.parameter = v
	}
	if v := q.Get("budget"); v != "" {
		b, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, cerrors.Validation("budget", "budget must be an integer")
		}
		req.budget = b
	}
	if v := q.Get("persist"); v != "" {
		p, err := strconv.ParseBool(v)
		if err != nil {
			return nil, cerrors.Validation("persist", "persist must be a boolean")
		}
		req.persist = p
	}
	return req, nil
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseOptimizeRequest(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.OptimizeTimeout)
	defer cancel()

	rec, err := s.lookup(ctx, r.PathValue("name"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	state := template.NewStateFromParameters(rec.Name, rec.DatasetID, rec.Parameters)
	plan, err := s.optimizer.Plan(state, req.parameter, req.budget)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	status := http.StatusOK
	if req.persist {
		if err := optimizer.Persist(ctx, s.templates, plan); err != nil {
			writeErr(w, r, err)
			return
		}
		status = http.StatusCreated
	}

	serializer.RespondJSON(w, status, plan)
}
