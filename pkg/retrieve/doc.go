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

// Package retrieve runs request templates against the retrieve API and
// saves the produced files.
//
// A download submits the template's mapping as a job, polls the job until it
// is successful, resolves the result asset and streams it to
// <download_dir>/<dataset>-<run id><ext>. When an Uploader is configured the
// file is also copied to <bucket>/<dataset>/<file>.
package retrieve
