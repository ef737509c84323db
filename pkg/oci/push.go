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
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"
	oras "oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/file"
	ocilayout "oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	cerrors "github.com/velarno/copper/pkg/errors"
)

// ArtifactType is the artifact type of published downloads.
const ArtifactType = "application/vnd.copper.download.v1"

// Layer media types by file format.
const (
	MediaTypeGRIB   = "application/vnd.copper.grib"
	MediaTypeNetCDF = "application/x-netcdf"
	MediaTypeZip    = "application/zip"
	MediaTypeData   = "application/octet-stream"
)

// Annotation keys set on the manifest in addition to the OCI standard ones.
const (
	AnnotationDataset  = "io.copper.dataset"
	AnnotationTemplate = "io.copper.template"
)

// MediaTypeFor picks the layer media type from the file extension.
func MediaTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".grib", ".grb", ".grib2", ".grb2":
		return MediaTypeGRIB
	case ".nc", ".netcdf":
		return MediaTypeNetCDF
	case ".zip":
		return MediaTypeZip
	default:
		return MediaTypeData
	}
}

// PushOptions configures Push.
type PushOptions struct {
	// Files are added as one layer each, titled by their base name.
	Files []string
	// Target is the registry repository or local layout. Its tag is required.
	Target *Reference
	// Annotations are added to the manifest.
	Annotations map[string]string
	// PlainHTTP talks to the registry over HTTP.
	PlainHTTP bool
	// InsecureTLS skips registry certificate verification.
	InsecureTLS bool
}

// PushResult describes a published artifact.
type PushResult struct {
	Digest    string `json:"digest" yaml:"digest"`
	Reference string `json:"reference" yaml:"reference"`
	Layers    int    `json:"layers" yaml:"layers"`
	Size      int64  `json:"size" yaml:"size"`
}

// Push packs Files into an OCI 1.1 artifact and copies it to Target.
func Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	if opts.Target == nil {
		return nil, cerrors.Validation("push", "target is required")
	}
	if opts.Target.Tag == "" {
		return nil, cerrors.Validation("push", "tag is required to push an OCI artifact")
	}
	if len(opts.Files) == 0 {
		return nil, cerrors.Validation("push", "no files to push")
	}

	workDir, err := os.MkdirTemp("", "copper-oci-*")
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to create staging directory", err)
	}
	defer os.RemoveAll(workDir)

	fs, err := file.New(workDir)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to create file store", err)
	}
	defer func() { _ = fs.Close() }()

	layers := make([]ociv1.Descriptor, 0, len(opts.Files))
	seen := make(map[string]bool, len(opts.Files))
	var size int64
	for _, path := range opts.Files {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to resolve file path", err)
		}
		name := filepath.Base(abs)
		if seen[name] {
			return nil, cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("duplicate file name %q", name), map[string]any{"field": "push", "path": path})
		}
		seen[name] = true

		desc, err := fs.Add(ctx, name, MediaTypeFor(abs), abs)
		if err != nil {
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeInternal, "failed to add file to artifact", err,
				map[string]any{"path": path})
		}
		layers = append(layers, desc)
		size += desc.Size
	}

	manifestDesc, err := oras.PackManifest(ctx, fs, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers:              layers,
			ManifestAnnotations: opts.Annotations,
		})
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to pack manifest", err)
	}
	tag := opts.Target.Tag
	if err := fs.Tag(ctx, manifestDesc, tag); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to tag manifest", err)
	}

	dst, err := target(opts)
	if err != nil {
		return nil, err
	}
	desc, err := oras.Copy(ctx, fs, tag, dst, tag, oras.DefaultCopyOptions)
	if err != nil {
		code := cerrors.ErrCodeInternal
		if opts.Target.IsOCI {
			code = cerrors.ErrCodeUnavailable
		}
		return nil, cerrors.WrapWithContext(code, "failed to push artifact", err,
			map[string]any{"target": opts.Target.String()})
	}

	res := &PushResult{
		Digest:    desc.Digest.String(),
		Reference: opts.Target.String(),
		Layers:    len(layers),
		Size:      size,
	}
	slog.Info("artifact pushed", "reference", res.Reference, "digest", res.Digest, "layers", res.Layers)
	return res, nil
}

// target opens the copy destination for opts.Target.
func target(opts PushOptions) (oras.Target, error) {
	if !opts.Target.IsOCI {
		store, err := ocilayout.New(opts.Target.LocalPath)
		if err != nil {
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeInternal, "failed to open OCI layout", err,
				map[string]any{"path": opts.Target.LocalPath})
		}
		return store, nil
	}

	repo, err := remote.NewRepository(fmt.Sprintf("%s/%s", stripProtocol(opts.Target.Registry), opts.Target.Repository))
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidRequest, "failed to initialize remote repository", err)
	}
	repo.PlainHTTP = opts.PlainHTTP
	repo.Client = authClient(opts.PlainHTTP, opts.InsecureTLS)
	return repo, nil
}

// authClient builds a registry client that reads Docker credentials when present.
func authClient(plainHTTP, insecureTLS bool) *auth.Client {
	credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
	if err != nil {
		slog.Debug("docker credentials unavailable", "error", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !plainHTTP && insecureTLS {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{} //nolint:gosec
		}
		transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec
	}

	client := &auth.Client{
		Client: &http.Client{Transport: transport},
		Cache:  auth.NewCache(),
	}
	if credStore != nil {
		client.Credential = credentials.Credential(credStore)
	}
	return client
}
