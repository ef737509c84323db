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

package store

import (
	"context"
	"time"

	"github.com/velarno/copper/pkg/cost"
	"github.com/velarno/copper/pkg/template"
)

// CostRecord is one stored estimate of a template.
type CostRecord struct {
	ID        int64         `json:"id" yaml:"id"`
	Estimate  cost.Estimate `json:"estimate" yaml:"estimate"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}

// AppendCost records an estimate against a template.
func (s *Store) AppendCost(ctx context.Context, id template.ID, est *cost.Estimate) error {
	if err := s.requireTemplate(ctx, s.db, id); err != nil {
		return err
	}
	if _, err := s.exec(ctx, s.db, `
		INSERT INTO cost_history (template_id, oracle, cost, cost_limit, valid, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, est.Oracle, est.Cost, est.Limit, boolInt(est.RequestIsValid), est.InvalidReason, s.timestamp()); err != nil {
		return internal("failed to record cost", err)
	}
	return nil
}

// CostHistory returns the template's estimates, newest first.
func (s *Store) CostHistory(ctx context.Context, id template.ID) ([]CostRecord, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, oracle, cost, cost_limit, valid, reason, created_at
		FROM cost_history WHERE template_id = ? ORDER BY id DESC`, id)
	if err != nil {
		return nil, internal("failed to read cost history", err)
	}
	defer rows.Close()

	var out []CostRecord
	for rows.Next() {
		var (
			r       CostRecord
			valid   int
			created string
		)
		if err := rows.Scan(&r.ID, &r.Estimate.Oracle, &r.Estimate.Cost, &r.Estimate.Limit,
			&valid, &r.Estimate.InvalidReason, &created); err != nil {
			return nil, internal("failed to scan cost record", err)
		}
		r.Estimate.RequestIsValid = valid != 0
		r.CreatedAt = parseTimestamp(created)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("failed to read cost history", err)
	}
	return out, nil
}
