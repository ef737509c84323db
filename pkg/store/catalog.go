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
	"time"

	"github.com/velarno/copper/pkg/catalog"
	cerrors "github.com/velarno/copper/pkg/errors"
)

var _ catalog.Sink = (*Store)(nil)

// SaveLinks upserts the catalogue's child links.
func (s *Store) SaveLinks(ctx context.Context, links []catalog.Link) error {
	now := s.timestamp()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range links {
			if _, err := s.exec(ctx, tx, `
				INSERT INTO catalog_link (href, rel, title, media_type, fetched_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (href) DO UPDATE SET
					rel = excluded.rel,
					title = excluded.title,
					media_type = excluded.media_type,
					fetched_at = excluded.fetched_at`,
				l.Href, l.Rel, l.Title, l.Type, now); err != nil {
				return internal("failed to save catalogue link", err)
			}
		}
		return nil
	})
}

// ListLinks returns the stored catalogue links ordered by href.
func (s *Store) ListLinks(ctx context.Context) ([]catalog.Link, error) {
	rows, err := s.query(ctx, s.db, `SELECT href, rel, title, media_type FROM catalog_link ORDER BY href`)
	if err != nil {
		return nil, internal("failed to list catalogue links", err)
	}
	defer rows.Close()

	var out []catalog.Link
	for rows.Next() {
		var l catalog.Link
		if err := rows.Scan(&l.Href, &l.Rel, &l.Title, &l.Type); err != nil {
			return nil, internal("failed to scan catalogue link", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("failed to list catalogue links", err)
	}
	return out, nil
}

// SaveCollection upserts a collection and replaces its keywords and links.
func (s *Store) SaveCollection(ctx context.Context, c *catalog.Collection) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `
			INSERT INTO collection (id, title, description, published, updated, doi, synced_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				published = excluded.published,
				updated = excluded.updated,
				doi = excluded.doi,
				synced_at = excluded.synced_at`,
			c.ID, c.Title, c.Description, formatTime(c.Published), formatTime(c.Updated), c.DOI, s.timestamp()); err != nil {
			return internal("failed to save collection", err)
		}

		if _, err := s.exec(ctx, tx, `DELETE FROM collection_keyword WHERE collection_id = ?`, c.ID); err != nil {
			return internal("failed to clear keywords", err)
		}
		for pos, kw := range c.Keywords {
			if _, err := s.exec(ctx, tx, `
				INSERT INTO collection_keyword (collection_id, keyword, position)
				VALUES (?, ?, ?) ON CONFLICT DO NOTHING`, c.ID, kw, pos); err != nil {
				return internal("failed to save keyword", err)
			}
		}

		if _, err := s.exec(ctx, tx, `DELETE FROM collection_link WHERE collection_id = ?`, c.ID); err != nil {
			return internal("failed to clear collection links", err)
		}
		for pos, l := range c.Links {
			if _, err := s.exec(ctx, tx, `
				INSERT INTO collection_link (collection_id, href, rel, title, media_type, position)
				VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				c.ID, l.Href, l.Rel, l.Title, l.Type, pos); err != nil {
				return internal("failed to save collection link", err)
			}
		}
		return nil
	})
}

// ListCollections returns stored collections ordered by id, with keywords
// and links. A limit of zero returns all.
func (s *Store) ListCollections(ctx context.Context, limit int) ([]catalog.Collection, error) {
	query := `SELECT id, title, description, published, updated, doi FROM collection ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, internal("failed to list collections", err)
	}
	var out []catalog.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			_ = rows.Close()
			return nil, internal("failed to scan collection", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, internal("failed to list collections", err)
	}
	_ = rows.Close()

	for i := range out {
		if err := s.loadCollectionDetails(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetCollection returns one collection; NOT_FOUND when it was never synced.
func (s *Store) GetCollection(ctx context.Context, id string) (*catalog.Collection, error) {
	row := s.queryRow(ctx, s.db, `
		SELECT id, title, description, published, updated, doi
		FROM collection WHERE id = ?`, id)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cerrors.NotFound("dataset", id)
	}
	if err != nil {
		return nil, internal("failed to read collection", err)
	}
	if err := s.loadCollectionDetails(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func scanCollection(r rowScanner) (*catalog.Collection, error) {
	var (
		c                  catalog.Collection
		published, updated string
	)
	if err := r.Scan(&c.ID, &c.Title, &c.Description, &published, &updated, &c.DOI); err != nil {
		return nil, err
	}
	c.Published = parseTimestamp(published)
	c.Updated = parseTimestamp(updated)
	return &c, nil
}

func (s *Store) loadCollectionDetails(ctx context.Context, c *catalog.Collection) error {
	kw, err := s.query(ctx, s.db, `
		SELECT keyword FROM collection_keyword
		WHERE collection_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return internal("failed to read keywords", err)
	}
	for kw.Next() {
		var k string
		if err := kw.Scan(&k); err != nil {
			_ = kw.Close()
			return internal("failed to scan keyword", err)
		}
		c.Keywords = append(c.Keywords, k)
	}
	err = kw.Err()
	_ = kw.Close()
	if err != nil {
		return internal("failed to read keywords", err)
	}

	links, err := s.query(ctx, s.db, `
		SELECT href, rel, title, media_type FROM collection_link
		WHERE collection_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return internal("failed to read collection links", err)
	}
	defer links.Close()
	for links.Next() {
		var l catalog.Link
		if err := links.Scan(&l.Href, &l.Rel, &l.Title, &l.Type); err != nil {
			return internal("failed to scan collection link", err)
		}
		c.Links = append(c.Links, l)
	}
	if err := links.Err(); err != nil {
		return internal("failed to read collection links", err)
	}
	return nil
}

// SaveInputs replaces the stored input schema of a collection.
func (s *Store) SaveInputs(ctx context.Context, in *catalog.Inputs) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, `DELETE FROM input_parameter WHERE collection_id = ?`, in.DatasetID); err != nil {
			return internal("failed to clear inputs", err)
		}
		for pos, p := range in.Parameters {
			allowed, err := json.Marshal(nonNil(p.Values))
			if err != nil {
				return internal("failed to encode allowed values", err)
			}
			def, err := json.Marshal(nonNil(p.Default))
			if err != nil {
				return internal("failed to encode default", err)
			}
			if _, err := s.exec(ctx, tx, `
				INSERT INTO input_parameter
					(collection_id, name, title, kind, choice, allowed, default_value, mandatory, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				in.DatasetID, p.Name, p.Title, string(p.Kind), p.Choice,
				string(allowed), string(def), boolInt(p.Mandatory), pos); err != nil {
				return internal("failed to save input parameter", err)
			}
		}
		return nil
	})
}

// GetInputs returns the stored input schema; NOT_FOUND when none was synced.
func (s *Store) GetInputs(ctx context.Context, datasetID string) (*catalog.Inputs, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT name, title, kind, choice, allowed, default_value, mandatory
		FROM input_parameter WHERE collection_id = ? ORDER BY position`, datasetID)
	if err != nil {
		return nil, internal("failed to read inputs", err)
	}
	defer rows.Close()

	in := &catalog.Inputs{DatasetID: datasetID}
	for rows.Next() {
		var (
			p            catalog.InputParameter
			kind         string
			allowed, def string
			mandatory    int
		)
		if err := rows.Scan(&p.Name, &p.Title, &kind, &p.Choice, &allowed, &def, &mandatory); err != nil {
			return nil, internal("failed to scan input parameter", err)
		}
		p.Kind = catalog.InputKind(kind)
		p.Mandatory = mandatory != 0
		if err := json.Unmarshal([]byte(allowed), &p.Values); err != nil {
			return nil, internal("failed to decode allowed values", err)
		}
		if err := json.Unmarshal([]byte(def), &p.Default); err != nil {
			return nil, internal("failed to decode default", err)
		}
		if len(p.Values) == 0 {
			p.Values = nil
		}
		if len(p.Default) == 0 {
			p.Default = nil
		}
		in.Parameters = append(in.Parameters, p)
	}
	if err := rows.Err(); err != nil {
		return nil, internal("failed to read inputs", err)
	}
	if len(in.Parameters) == 0 {
		return nil, cerrors.NotFound("inputs", datasetID)
	}
	return in, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
