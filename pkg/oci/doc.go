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

// Package oci publishes downloaded data files as OCI artifacts.
//
// Each file becomes one layer of an OCI 1.1 artifact manifest with artifact
// type application/vnd.copper.download.v1. Layers are titled by file name so
// tools such as oras pull restore the original files:
//
//	ref, _ := oci.ParseTarget("oci://ghcr.io/org/era5:2020")
//	res, err := oci.Push(ctx, oci.PushOptions{
//	    Files:  []string{"/data/era5-1.grib"},
//	    Target: ref,
//	})
//
// A target without the oci:// scheme is a local OCI image layout directory,
// which is useful for air-gapped transfer and for tests. Registry
// credentials are read from the Docker config when present.
package oci
