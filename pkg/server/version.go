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

package server

import (
	"mime"
	"net/http"
	"strings"
)

const (
	// DefaultAPIVersion is served when the client does not ask for one.
	DefaultAPIVersion = "v1"

	// APIVersionHeader carries the negotiated version on every response.
	APIVersionHeader = "X-Copper-API-Version"

	vendorPrefix = "application/vnd.copper."
)

var supportedAPIVersions = map[string]bool{
	"v1": true,
}

// negotiateAPIVersion picks the API version for r from its Accept header.
// Generic JSON and wildcard ranges get the default version; a vendor range
// such as application/vnd.copper.v1+json selects that version. ok is false
// when no listed range can be served.
func negotiateAPIVersion(r *http.Request) (version string, ok bool) {
	accept := strings.TrimSpace(r.Header.Get("Accept"))
	if accept == "" {
		return DefaultAPIVersion, true
	}

	generic := false
	for _, entry := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(entry))
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(mediaType, vendorPrefix):
			v, suffix, _ := strings.Cut(strings.TrimPrefix(mediaType, vendorPrefix), "+")
			if suffix == "json" && supportedAPIVersions[v] {
				return v, true
			}
		case mediaType == "application/json", mediaType == "application/*", mediaType == "*/*":
			generic = true
		}
	}
	if generic {
		return DefaultAPIVersion, true
	}
	return "", false
}

// SetAPIVersionHeader records the negotiated version on the response.
func SetAPIVersionHeader(w http.ResponseWriter, version string) {
	w.Header().Set(APIVersionHeader, version)
}
