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

// Package config resolves copper's runtime configuration.
//
// Sources are applied in increasing precedence:
//
//  1. built-in defaults (Default)
//  2. a YAML file: the path passed to Load, else $COPPER_CONFIG, else
//     ~/.config/copper/config.yaml when present
//  3. a .env file in the working directory
//  4. environment variables (COPPER_*, CDS_API_KEY, LOG_LEVEL)
//  5. command-line flags, applied by the CLI before Validate
//
// Example file:
//
//	base_url: https://cds.climate.copernicus.eu/api
//	timeout: 90s
//	default_budget: 400
//	database:
//	  driver: sqlite
//	  dsn: ~/.local/share/copper/copper.db
//	upload:
//	  endpoint: localhost:9000
//	  bucket: reanalysis
//	  use_ssl: false
package config
