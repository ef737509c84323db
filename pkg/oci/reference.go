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

package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// URIScheme marks a registry target, e.g. "oci://ghcr.io/org/era5:2020".
const URIScheme = "oci://"

// Reference is a parsed publish target: a registry repository when IsOCI is
// true, otherwise a local OCI image layout directory.
type Reference struct {
	IsOCI bool
	// Registry host, e.g. "ghcr.io" or "localhost:5000".
	Registry string
	// Repository path, e.g. "org/era5".
	Repository string
	// Tag may be empty; callers apply a default with WithTag.
	Tag string
	// LocalPath is the layout directory for non-registry targets.
	LocalPath string
}

// ParseTarget parses an oci:// URI or treats target as a local layout directory.
func ParseTarget(target string) (*Reference, error) {
	if strings.TrimSpace(target) == "" {
		return nil, cerrors.Validation("push", "target must not be empty")
	}
	if !strings.HasPrefix(target, URIScheme) {
		return &Reference{LocalPath: target}, nil
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest, "invalid OCI reference", err,
			map[string]any{"field": "push", "target": target})
	}

	r := &Reference{
		IsOCI:      true,
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		r.Tag = tagged.Tag()
	}
	if err := validateReference(r.Registry, r.Repository); err != nil {
		return nil, err
	}
	return r, nil
}

// String returns the target in the form ParseTarget accepts.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	return URIScheme + r.ImageReference()
}

// ImageReference returns registry/repository[:tag], or "" for local targets.
func (r *Reference) ImageReference() string {
	if !r.IsOCI {
		return ""
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy of r carrying tag.
func (r *Reference) WithTag(tag string) *Reference {
	out := *r
	out.Tag = tag
	return &out
}

// validateReference checks that registry and repository form a valid image name.
func validateReference(registry, repository string) error {
	if registry == "" {
		return cerrors.Validation("push", "registry is required")
	}
	if repository == "" {
		return cerrors.Validation("push", "repository is required")
	}
	name := stripProtocol(registry) + "/" + repository
	if _, err := reference.ParseNormalizedNamed(name); err != nil {
		return cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid registry reference %q", name), err,
			map[string]any{"field": "push"})
	}
	return nil
}

// stripProtocol removes an http:// or https:// prefix from a registry host.
func stripProtocol(registry string) string {
	registry = strings.TrimPrefix(registry, "https://")
	return strings.TrimPrefix(registry, "http://")
}
