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

// Package cli implements the copper command-line interface.
//
// # Overview
//
// copper keeps a local catalog of climate reanalysis collections, lets users
// build request templates against them, estimates what a request costs and
// splits requests that exceed the per-request budget into sub-templates that
// each fit. Templates can be downloaded through the retrieve API and copied
// to an S3-compatible bucket.
//
// # Commands
//
// catalog - Mirror and browse the remote catalogue:
//
//	copper catalog sync [--inputs] [--limit N]
//	copper catalog list
//	copper catalog search era5 --keyword Temperature
//	copper catalog show reanalysis-era5-single-levels
//	copper catalog inputs reanalysis-era5-single-levels
//
// template - Edit request templates:
//
//	copper template new era5 reanalysis-era5-single-levels
//	copper template add era5 year --range 1990-2020
//	copper template add era5 variable --value 2m_temperature
//	copper template update era5 variable 2m_temperature total_precipitation
//	copper template remove era5 month --value 02
//	copper template show era5 [--metadata]
//	copper template validate era5
//	copper template history era5
//	copper template export era5 --output era5.json
//	copper template import era5.json
//	copper template delete era5
//
// cost and optimize - Check a template against the budget:
//
//	copper template cost era5
//	copper template optimize era5 --budget 400 --persist
//
// Optimization first removes values from the split parameter (year by
// default) while the cost exceeds the budget, then partitions those values
// into consecutive groups. Each group becomes a sub-template named
// sub_<name>_NNN.
//
// download - Retrieve data:
//
//	copper template download era5 --chunk 5 --upload
//
// serve - Run the HTTP API:
//
//	copper serve --port 8080
//
// # Global Flags
//
//	--config       Config file (default: ~/.config/copper/config.yaml)
//	--db-driver    sqlite or postgres
//	--db           SQLite path or PostgreSQL URL
//	--format, -t   Output format: yaml, json, table
//	--cost-method  local or api
//	--log-level    debug, info, warn, error
//
// # Configuration
//
// Settings resolve in order: built-in defaults, the YAML config file, a .env
// file in the working directory, COPPER_* environment variables, then global
// flags. See package config for the full list.
//
// # Exit Codes
//
// 0 on success, 1 on any error. Errors are logged with their code, for
// example NOT_FOUND or UNSATISFIABLE_BUDGET.
package cli
