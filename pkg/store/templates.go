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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/template"
)

var _ template.Store = (*Store)(nil)

// DatasetExists reports whether the catalogue mirror holds datasetID.
func (s *Store) DatasetExists(ctx context.Context, datasetID string) (bool, error) {
	var one int
	err := s.queryRow(ctx, s.db, `SELECT 1 FROM collection WHERE id = ?`, datasetID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, internal("failed to look up dataset", err)
	}
	return true, nil
}

// GetTemplateByName returns the template called name with its parameters.
func (s *Store) GetTemplateByName(ctx context.Context, name string) (*template.Record, error) {
	row := s.queryRow(ctx, s.db, `
		SELECT id, name, dataset_id, created_at, updated_at
		FROM template WHERE name = ?`, name)
	rec, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cerrors.NotFound("template", name)
	}
	if err != nil {
		return nil, internal("failed to read template", err)
	}
	if rec.Parameters, err = s.parameters(ctx, s.db, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListTemplates returns every template with its parameters, ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]template.Record, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, name, dataset_id, created_at, updated_at
		FROM template ORDER BY name`)
	if err != nil {
		return nil, internal("failed to list templates", err)
	}

	var out []template.Record
	for rows.Next() {
		rec, err := scanTemplate(rows)
		if err != nil {
			_ = rows.Close()
			return nil, internal("failed to scan template", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, internal("failed to list templates", err)
	}
	_ = rows.Close()

	// parameters are read after the cursor closes; sqlite runs on one connection
	for i := range out {
		if out[i].Parameters, err = s.parameters(ctx, s.db, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(r rowScanner) (*template.Record, error) {
	var (
		rec              template.Record
		created, updated string
	)
	if err := r.Scan(&rec.ID, &rec.Name, &rec.DatasetID, &created, &updated); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTimestamp(created)
	rec.UpdatedAt = parseTimestamp(updated)
	return &rec, nil
}

func (s *Store) parameters(ctx context.Context, q querier, id template.ID) (template.Parameters, error) {
	rows, err := s.query(ctx, q, `
		SELECT name, value FROM template_parameter
		WHERE template_id = ? ORDER BY name, position`, id)
	if err != nil {
		return nil, internal("failed to read parameters", err)
	}
	defer rows.Close()

	params := template.Parameters{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, internal("failed to scan parameter", err)
		}
		params[name] = append(params[name], value)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("failed to read parameters", err)
	}
	return params, nil
}

// CreateTemplate inserts a template, its values and a history entry tagged
// action in one transaction. Names are unique.
func (s *Store) CreateTemplate(ctx context.Context, name, datasetID string, params template.Parameters, action string) (template.ID, error) {
	var id template.ID
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = s.insertTemplate(ctx, tx, name, datasetID, params); err != nil {
			return err
		}
		return s.appendHistory(ctx, tx, id, action, params)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateTemplates inserts states in one transaction, recording an optimize
// history entry for each. Either every template is created or none is.
func (s *Store) CreateTemplates(ctx context.Context, states []*template.State) ([]template.ID, error) {
	ids := make([]template.ID, 0, len(states))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, st := range states {
			params := st.ToMapping()
			id, err := s.insertTemplate(ctx, tx, st.Name, st.DatasetID, params)
			if err != nil {
				return err
			}
			if err := s.appendHistory(ctx, tx, id, template.ActionOptimize, params); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) insertTemplate(ctx context.Context, tx *sql.Tx, name, datasetID string, params template.Parameters) (template.ID, error) {
	var exists int
	err := s.queryRow(ctx, tx, `SELECT 1 FROM template WHERE name = ?`, name).Scan(&exists)
	if err == nil {
		return 0, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("template %q already exists", name),
			map[string]any{"field": "template_name"})
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, internal("failed to check template name", err)
	}

	now := s.timestamp()
	var id template.ID
	err = s.queryRow(ctx, tx, `
		INSERT INTO template (name, dataset_id, created_at, updated_at)
		VALUES (?, ?, ?, ?) RETURNING id`, name, datasetID, now, now).Scan(&id)
	if err != nil {
		return 0, internal("failed to insert template", err)
	}

	for _, pname := range params.Names() {
		for pos, value := range params[pname] {
			if _, err := s.exec(ctx, tx, `
				INSERT INTO template_parameter (template_id, name, value, position)
				VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`, id, pname, value, pos); err != nil {
				return 0, internal("failed to insert parameter value", err)
			}
		}
	}
	return id, nil
}

// requireTemplate fails with NOT_FOUND when id is unknown.
func (s *Store) requireTemplate(ctx context.Context, q querier, id template.ID) error {
	var one int
	err := s.queryRow(ctx, q, `SELECT 1 FROM template WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return cerrors.NotFound("template", fmt.Sprint(id))
	}
	if err != nil {
		return internal("failed to look up template", err)
	}
	return nil
}

func (s *Store) touch(ctx context.Context, q querier, id template.ID) error {
	if _, err := s.exec(ctx, q, `UPDATE template SET updated_at = ? WHERE id = ?`, s.timestamp(), id); err != nil {
		return internal("failed to update template", err)
	}
	return nil
}

// GetValues returns the persisted values of one parameter in insertion order.
func (s *Store) GetValues(ctx context.Context, id template.ID, name string) ([]string, error) {
	if err := s.requireTemplate(ctx, s.db, id); err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, s.db, `
		SELECT value FROM template_parameter
		WHERE template_id = ? AND name = ? ORDER BY position`, id, name)
	if err != nil {
		return nil, internal("failed to read values", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, internal("failed to scan value", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("failed to read values", err)
	}
	return out, nil
}

// AddValue appends value to name; adding an existing value is a no-op.
func (s *Store) AddValue(ctx context.Context, id template.ID, name, value string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireTemplate(ctx, tx, id); err != nil {
			return err
		}
		var next int
		if err := s.queryRow(ctx, tx, `
			SELECT COALESCE(MAX(position), -1) + 1 FROM template_parameter
			WHERE template_id = ? AND name = ?`, id, name).Scan(&next); err != nil {
			return internal("failed to read value position", err)
		}
		if _, err := s.exec(ctx, tx, `
			INSERT INTO template_parameter (template_id, name, value, position)
			VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`, id, name, value, next); err != nil {
			return internal("failed to insert value", err)
		}
		return s.touch(ctx, tx, id)
	})
}

// RemoveValue deletes one value; NOT_FOUND when it is not recorded.
func (s *Store) RemoveValue(ctx context.Context, id template.ID, name, value string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireTemplate(ctx, tx, id); err != nil {
			return err
		}
		if err := s.deleteValue(ctx, tx, id, name, value); err != nil {
			return err
		}
		return s.touch(ctx, tx, id)
	})
}

func (s *Store) deleteValue(ctx context.Context, tx *sql.Tx, id template.ID, name, value string) error {
	res, err := s.exec(ctx, tx, `
		DELETE FROM template_parameter
		WHERE template_id = ? AND name = ? AND value = ?`, id, name, value)
	if err != nil {
		return internal("failed to delete value", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cerrors.NotFound("value", value)
	}
	return nil
}

// ReplaceValue swaps oldValue for newValue in place. When newValue is
// already recorded the old value is dropped so no duplicate appears.
func (s *Store) ReplaceValue(ctx context.Context, id template.ID, name, oldValue, newValue string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireTemplate(ctx, tx, id); err != nil {
			return err
		}

		var one int
		err := s.queryRow(ctx, tx, `
			SELECT 1 FROM template_parameter
			WHERE template_id = ? AND name = ? AND value = ?`, id, name, newValue).Scan(&one)
		if oldValue == newValue {
			if errors.Is(err, sql.ErrNoRows) {
				return cerrors.NotFound("value", oldValue)
			}
			if err != nil {
				return internal("failed to check value", err)
			}
			return nil
		}
		switch {
		case err == nil:
			if err := s.deleteValue(ctx, tx, id, name, oldValue); err != nil {
				return err
			}
		case errors.Is(err, sql.ErrNoRows):
			res, err := s.exec(ctx, tx, `
				UPDATE template_parameter SET value = ?
				WHERE template_id = ? AND name = ? AND value = ?`, newValue, id, name, oldValue)
			if err != nil {
				return internal("failed to replace value", err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				return cerrors.NotFound("value", oldValue)
			}
		default:
			return internal("failed to check value", err)
		}
		return s.touch(ctx, tx, id)
	})
}

// RemoveParameter deletes every value of name.
func (s *Store) RemoveParameter(ctx context.Context, id template.ID, name string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireTemplate(ctx, tx, id); err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, `
			DELETE FROM template_parameter WHERE template_id = ? AND name = ?`, id, name); err != nil {
			return internal("failed to delete parameter", err)
		}
		return s.touch(ctx, tx, id)
	})
}

// DeleteTemplate removes a template together with its values and history.
func (s *Store) DeleteTemplate(ctx context.Context, id template.ID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.requireTemplate(ctx, tx, id); err != nil {
			return err
		}
		for _, q := range []string{
			`DELETE FROM template_parameter WHERE template_id = ?`,
			`DELETE FROM template_history WHERE template_id = ?`,
			`DELETE FROM cost_history WHERE template_id = ?`,
			`DELETE FROM template WHERE id = ?`,
		} {
			if _, err := s.exec(ctx, tx, q, id); err != nil {
				return internal("failed to delete template", err)
			}
		}
		return nil
	})
}

// AppendHistory records a snapshot of params under action.
func (s *Store) AppendHistory(ctx context.Context, id template.ID, action string, params template.Parameters) error {
	return s.appendHistory(ctx, s.db, id, action, params)
}

func (s *Store) appendHistory(ctx context.Context, q querier, id template.ID, action string, params template.Parameters) error {
	if params == nil {
		params = template.Parameters{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return internal("failed to encode snapshot", err)
	}
	if _, err := s.exec(ctx, q, `
		INSERT INTO template_history (template_id, action, parameters, created_at)
		VALUES (?, ?, ?, ?)`, id, action, string(data), s.timestamp()); err != nil {
		return internal("failed to record history", err)
	}
	return nil
}

// History returns the template's snapshots, newest first.
func (s *Store) History(ctx context.Context, id template.ID) ([]template.HistoryEntry, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, action, parameters, created_at FROM template_history
		WHERE template_id = ? ORDER BY id DESC`, id)
	if err != nil {
		return nil, internal("failed to read history", err)
	}
	defer rows.Close()

	var out []template.HistoryEntry
	for rows.Next() {
		var (
			e             template.HistoryEntry
			data, created string
		)
		if err := rows.Scan(&e.ID, &e.Action, &data, &created); err != nil {
			return nil, internal("failed to scan history", err)
		}
		if err := json.Unmarshal([]byte(data), &e.Parameters); err != nil {
			return nil, internal("failed to decode snapshot", err)
		}
		e.CreatedAt = parseTimestamp(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("failed to read history", err)
	}
	return out, nil
}
