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

package optimizer

import (
	"context"
	"log/slog"

	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/template"
)

// SubTemplate is one within-budget part of a plan.
type SubTemplate struct {
	ID         template.ID         `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string              `json:"name" yaml:"name"`
	Cost       int64               `json:"cost" yaml:"cost"`
	Parameters template.Parameters `json:"parameters" yaml:"parameters"`
}

// Plan is the outcome of optimizing one template.
type Plan struct {
	Template     string        `json:"template" yaml:"template"`
	DatasetID    string        `json:"dataset_id" yaml:"dataset_id"`
	Parameter    string        `json:"parameter" yaml:"parameter"`
	Budget       int64         `json:"budget" yaml:"budget"`
	OriginalCost int64         `json:"original_cost" yaml:"original_cost"`
	Pops         int           `json:"pops" yaml:"pops"`
	Splits       int           `json:"splits" yaml:"splits"`
	Persisted    bool          `json:"persisted" yaml:"persisted"`
	SubTemplates []SubTemplate `json:"sub_templates" yaml:"sub_templates"`
}

// Plan optimizes the state's mapping and names the resulting parts.
func (o *Optimizer) Plan(state *template.State, param string, budget int64) (*Plan, error) {
	mapping := state.ToMapping()
	res, err := o.Optimize(mapping, param, budget)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		Template:     state.Name,
		DatasetID:    state.DatasetID,
		Parameter:    param,
		Budget:       budget,
		OriginalCost: o.cost(mapping),
		Pops:         res.Pops,
		Splits:       res.Splits,
		SubTemplates: make([]SubTemplate, 0, len(res.Parts)),
	}
	for i, part := range res.Parts {
		p.SubTemplates = append(p.SubTemplates, SubTemplate{
			Name:       SubTemplateName(state.Name, i+1, len(res.Parts)),
			Cost:       o.cost(part),
			Parameters: part,
		})
	}
	return p, nil
}

// States returns the plan's parts as template states.
func (p *Plan) States() []*template.State {
	out := make([]*template.State, 0, len(p.SubTemplates))
	for _, sub := range p.SubTemplates {
		out = append(out, template.NewStateFromParameters(sub.Name, p.DatasetID, sub.Parameters))
	}
	return out
}

// Persister stores a batch of templates atomically.
type Persister interface {
	CreateTemplates(ctx context.Context, states []*template.State) ([]template.ID, error)
}

// Persist writes every part of the plan in one batch and records the
// assigned identifiers. Nothing is written when any part fails.
func Persist(ctx context.Context, store Persister, p *Plan) error {
	return PersistAll(ctx, store, []*Plan{p})
}

// PersistAll writes the parts of every plan in a single batch, so a name
// collision in any plan leaves all of them unpersisted.
func PersistAll(ctx context.Context, store Persister, plans []*Plan) error {
	var states []*template.State
	for _, p := range plans {
		states = append(states, p.States()...)
	}
	if len(states) == 0 {
		return nil
	}

	ids, err := store.CreateTemplates(ctx, states)
	if err != nil {
		code := cerrors.CodeOf(err)
		if code == "" {
			code = cerrors.ErrCodeInternal
		}
		return cerrors.Wrap(code, "failed to persist sub-templates", err)
	}
	if len(ids) != len(states) {
		return cerrors.New(cerrors.ErrCodeInternal, "store returned a mismatched number of identifiers")
	}

	for _, p := range plans {
		for i := range p.SubTemplates {
			p.SubTemplates[i].ID, ids = ids[0], ids[1:]
		}
		if len(p.SubTemplates) == 0 {
			continue
		}
		p.Persisted = true
		slog.Info("persisted sub-templates",
			"template", p.Template,
			"count", len(p.SubTemplates))
	}
	return nil
}
