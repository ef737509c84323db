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

// Dialect differences are limited to key generation and wide integers;
// timestamps are RFC 3339 text and booleans are 0/1 in both.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS catalog_link (
	href       TEXT PRIMARY KEY,
	rel        TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	media_type TEXT NOT NULL DEFAULT '',
	fetched_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS collection (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	published   TEXT NOT NULL DEFAULT '',
	updated     TEXT NOT NULL DEFAULT '',
	doi         TEXT NOT NULL DEFAULT '',
	synced_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS collection_keyword (
	collection_id TEXT NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
	keyword       TEXT NOT NULL,
	position      INTEGER NOT NULL,
	PRIMARY KEY (collection_id, keyword)
);

CREATE TABLE IF NOT EXISTS collection_link (
	collection_id TEXT NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
	href          TEXT NOT NULL,
	rel           TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	media_type    TEXT NOT NULL DEFAULT '',
	position      INTEGER NOT NULL,
	PRIMARY KEY (collection_id, href)
);

CREATE TABLE IF NOT EXISTS input_parameter (
	collection_id TEXT NOT NULL,
	name          TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	kind          TEXT NOT NULL,
	choice        TEXT NOT NULL,
	allowed       TEXT NOT NULL DEFAULT '[]',
	default_value TEXT NOT NULL DEFAULT '[]',
	mandatory     INTEGER NOT NULL DEFAULT 0,
	position      INTEGER NOT NULL,
	PRIMARY KEY (collection_id, name)
);

CREATE TABLE IF NOT EXISTS template (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	dataset_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS template_parameter (
	template_id INTEGER NOT NULL REFERENCES template(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	value       TEXT NOT NULL,
	position    INTEGER NOT NULL,
	PRIMARY KEY (template_id, name, value)
);

CREATE TABLE IF NOT EXISTS template_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	template_id INTEGER NOT NULL REFERENCES template(id) ON DELETE CASCADE,
	action      TEXT NOT NULL,
	parameters  TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cost_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	template_id INTEGER NOT NULL REFERENCES template(id) ON DELETE CASCADE,
	oracle      TEXT NOT NULL,
	cost        REAL NOT NULL,
	cost_limit  REAL NOT NULL,
	valid       INTEGER NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_template_history_template ON template_history(template_id);
CREATE INDEX IF NOT EXISTS idx_cost_history_template ON cost_history(template_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS catalog_link (
	href       TEXT PRIMARY KEY,
	rel        TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	media_type TEXT NOT NULL DEFAULT '',
	fetched_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS collection (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	published   TEXT NOT NULL DEFAULT '',
	updated     TEXT NOT NULL DEFAULT '',
	doi         TEXT NOT NULL DEFAULT '',
	synced_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS collection_keyword (
	collection_id TEXT NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
	keyword       TEXT NOT NULL,
	position      INTEGER NOT NULL,
	PRIMARY KEY (collection_id, keyword)
);

CREATE TABLE IF NOT EXISTS collection_link (
	collection_id TEXT NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
	href          TEXT NOT NULL,
	rel           TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	media_type    TEXT NOT NULL DEFAULT '',
	position      INTEGER NOT NULL,
	PRIMARY KEY (collection_id, href)
);

CREATE TABLE IF NOT EXISTS input_parameter (
	collection_id TEXT NOT NULL,
	name          TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	kind          TEXT NOT NULL,
	choice        TEXT NOT NULL,
	allowed       TEXT NOT NULL DEFAULT '[]',
	default_value TEXT NOT NULL DEFAULT '[]',
	mandatory     INTEGER NOT NULL DEFAULT 0,
	position      INTEGER NOT NULL,
	PRIMARY KEY (collection_id, name)
);

CREATE TABLE IF NOT EXISTS template (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	dataset_id TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS template_parameter (
	template_id BIGINT NOT NULL REFERENCES template(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	value       TEXT NOT NULL,
	position    INTEGER NOT NULL,
	PRIMARY KEY (template_id, name, value)
);

CREATE TABLE IF NOT EXISTS template_history (
	id          BIGSERIAL PRIMARY KEY,
	template_id BIGINT NOT NULL REFERENCES template(id) ON DELETE CASCADE,
	action      TEXT NOT NULL,
	parameters  TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cost_history (
	id          BIGSERIAL PRIMARY KEY,
	template_id BIGINT NOT NULL REFERENCES template(id) ON DELETE CASCADE,
	oracle      TEXT NOT NULL,
	cost        DOUBLE PRECISION NOT NULL,
	cost_limit  DOUBLE PRECISION NOT NULL,
	valid       INTEGER NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_template_history_template ON template_history(template_id);
CREATE INDEX IF NOT EXISTS idx_cost_history_template ON cost_history(template_id);
`
