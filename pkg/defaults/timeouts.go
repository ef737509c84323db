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

package defaults

import "time"

// Remote API client timeouts.
const (
	// HTTPClientTimeout is the default total timeout for catalog and costing requests.
	HTTPClientTimeout = 60 * time.Second

	// HTTPConnectTimeout is the timeout for establishing connections.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout is the timeout for TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout is the timeout for reading response headers.
	HTTPResponseHeaderTimeout = 30 * time.Second

	// HTTPIdleConnTimeout is the timeout for idle connections in the pool.
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPKeepAlive is the keep-alive duration for connections.
	HTTPKeepAlive = 30 * time.Second
)

// Retrieval job timeouts.
const (
	// JobPollInterval is the delay between retrieve job status checks.
	JobPollInterval = 5 * time.Second

	// JobTimeout bounds the wait for a single retrieve job.
	JobTimeout = 2 * time.Hour

	// DownloadTimeout bounds streaming a finished job's asset to disk.
	DownloadTimeout = 30 * time.Minute
)

// API server timeouts.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second

	// OptimizeHandlerTimeout bounds an optimize request including persistence.
	OptimizeHandlerTimeout = 30 * time.Second
)

// CLI timeouts.
const (
	// CLISyncTimeout is the default timeout for a full catalog sync.
	CLISyncTimeout = 15 * time.Minute
)
