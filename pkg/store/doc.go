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

// Package store persists the catalogue mirror and request templates in
// SQLite (modernc.org/sqlite, the default) or PostgreSQL (pgx stdlib).
//
// Store implements template.Store for the editor and catalog.Sink for
// catalogue syncs. Multi-row writes run in a single transaction; the
// sub-templates produced by one optimization are created atomically with
// CreateTemplates.
//
// Queries are written with ? placeholders and rebound to $n for PostgreSQL.
package store
