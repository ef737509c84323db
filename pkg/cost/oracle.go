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

package cost

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/velarno/copper/pkg/catalog"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/template"
)

// Estimate is the answer of a cost oracle.
type Estimate struct {
	Cost           float64 `json:"cost" yaml:"cost"`
	Limit          float64 `json:"limit" yaml:"limit"`
	RequestIsValid bool    `json:"request_is_valid" yaml:"request_is_valid"`
	InvalidReason  string  `json:"invalid_reason,omitempty" yaml:"invalid_reason,omitempty"`
	Oracle         string  `json:"oracle" yaml:"oracle"`
}

// WithinLimit reports whether the cost fits the limit.
func (e *Estimate) WithinLimit() bool {
	return e.Cost <= e.Limit
}

// Oracle estimates the cost of a parameter assignment for a dataset.
type Oracle interface {
	Name() string
	Estimate(ctx context.Context, datasetID string, params template.Parameters) (*Estimate, error)
}

// Method selects which oracle answers cost questions.
type Method string

const (
	// MethodLocal uses the multiplicative formula.
	MethodLocal Method = "local"
	// MethodAPI asks the remote costing endpoint, falling back to local when it is unavailable.
	MethodAPI Method = "api"
)

// SupportedMethods lists the accepted cost methods.
func SupportedMethods() []string {
	return []string{string(MethodLocal), string(MethodAPI)}
}

// ParseMethod converts a configuration value into a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodLocal, "":
		return MethodLocal, nil
	case MethodAPI:
		return MethodAPI, nil
	default:
		return "", cerrors.Validation("cost_method",
			fmt.Sprintf("%q is not one of %s", s, strings.Join(SupportedMethods(), ", ")))
	}
}

// CostingClient is the remote costing endpoint.
type CostingClient interface {
	Costing(ctx context.Context, datasetID string, inputs map[string][]string) (*catalog.CostingResult, error)
}

// New returns the oracle for method. MethodAPI requires client.
func New(method Method, client CostingClient, limit float64) (Oracle, error) {
	local := &Local{Limit: limit}
	switch method {
	case MethodLocal, "":
		return local, nil
	case MethodAPI:
		if client == nil {
			return nil, cerrors.Validation("cost_method", "api method requires a catalog client")
		}
		return &Fallback{
			Primary:   &Remote{Client: client, Limit: limit},
			Secondary: local,
		}, nil
	default:
		return nil, cerrors.Validation("cost_method", fmt.Sprintf("unsupported method %q", method))
	}
}

// Local answers with the multiplicative formula.
type Local struct {
	Limit float64
}

// Name implements Oracle.
func (l *Local) Name() string { return string(MethodLocal) }

// Estimate implements Oracle. The request is valid when the cost fits the limit.
func (l *Local) Estimate(_ context.Context, _ string, params template.Parameters) (*Estimate, error) {
	c := float64(Of(params))
	est := &Estimate{
		Cost:           c,
		Limit:          l.Limit,
		RequestIsValid: c <= l.Limit,
		Oracle:         l.Name(),
	}
	if !est.RequestIsValid {
		est.InvalidReason = fmt.Sprintf("cost %.0f exceeds limit %.0f", c, l.Limit)
	}
	estimatesTotal.WithLabelValues(l.Name()).Inc()
	return est, nil
}

// Remote asks the costing endpoint. Every failure is reported as UNAVAILABLE.
type Remote struct {
	Client CostingClient
	Limit  float64
}

// Name implements Oracle.
func (r *Remote) Name() string { return string(MethodAPI) }

// Estimate implements Oracle.
func (r *Remote) Estimate(ctx context.Context, datasetID string, params template.Parameters) (*Estimate, error) {
	res, err := r.Client.Costing(ctx, datasetID, params)
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeUnavailable, "cost oracle unavailable", err,
			map[string]any{"dataset": datasetID})
	}
	limit := res.Limit
	if limit == 0 {
		limit = r.Limit
	}
	estimatesTotal.WithLabelValues(r.Name()).Inc()
	return &Estimate{
		Cost:           res.Cost,
		Limit:          limit,
		RequestIsValid: res.RequestIsValid,
		InvalidReason:  res.InvalidReason,
		Oracle:         r.Name(),
	}, nil
}

// Fallback tries Primary and answers with Secondary when Primary is unavailable.
type Fallback struct {
	Primary   Oracle
	Secondary Oracle
}

// Name implements Oracle.
func (f *Fallback) Name() string { return f.Primary.Name() }

// Estimate implements Oracle.
func (f *Fallback) Estimate(ctx context.Context, datasetID string, params template.Parameters) (*Estimate, error) {
	est, err := f.Primary.Estimate(ctx, datasetID, params)
	if err == nil {
		return est, nil
	}
	if !cerrors.IsCode(err, cerrors.ErrCodeUnavailable) {
		return nil, err
	}
	slog.Warn("cost oracle unavailable, using fallback",
		"oracle", f.Primary.Name(),
		"fallback", f.Secondary.Name(),
		"dataset", datasetID,
		"error", err)
	fallbacksTotal.Inc()
	return f.Secondary.Estimate(ctx, datasetID, params)
}
