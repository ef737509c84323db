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

package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/velarno/copper/pkg/defaults"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/template"
)

// Job statuses reported by the retrieve API.
const (
	StatusAccepted   = "accepted"
	StatusRunning    = "running"
	StatusSuccessful = "successful"
	StatusFailed     = "failed"
	StatusDismissed  = "dismissed"
)

// API is the subset of the catalog client used to run retrieve jobs.
type API interface {
	BaseURL() string
	RetrieveURL(datasetID string) string
	PostJSON(ctx context.Context, url string, body any) ([]byte, error)
	Do(ctx context.Context, method, url string, body []byte) ([]byte, error)
}

// Uploader copies a downloaded file to long-term storage and returns its
// object location.
type Uploader interface {
	Upload(ctx context.Context, key, localPath string) (string, error)
}

// Job is the remote state of one retrieve request.
type Job struct {
	ID      string `json:"jobID"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type resultsDocument struct {
	Asset struct {
		Value struct {
			Href string `json:"href"`
			Type string `json:"type"`
			Size int64  `json:"file:size"`
		} `json:"value"`
	} `json:"asset"`
}

// Result describes a finished download.
type Result struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	JobID     string        `json:"job_id" yaml:"job_id"`
	Template  string        `json:"template" yaml:"template"`
	DatasetID string        `json:"dataset_id" yaml:"dataset_id"`
	Path      string        `json:"path" yaml:"path"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	Object    string        `json:"object,omitempty" yaml:"object,omitempty"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithPollInterval sets the delay between job status checks.
func WithPollInterval(d time.Duration) Option {
	return func(dl *Downloader) {
		dl.poll = d
	}
}

// WithHTTPClient sets the client used to fetch result assets.
func WithHTTPClient(hc *http.Client) Option {
	return func(dl *Downloader) {
		dl.http = hc
	}
}

// WithUploader copies each download to object storage.
func WithUploader(u Uploader) Option {
	return func(dl *Downloader) {
		dl.uploader = u
	}
}

// Downloader submits templates as retrieve jobs and saves their results.
type Downloader struct {
	api      API
	dir      string
	poll     time.Duration
	http     *http.Client
	uploader Uploader
	newRunID func() string
}

// NewDownloader returns a downloader writing into dir.
func NewDownloader(api API, dir string, opts ...Option) *Downloader {
	d := &Downloader{
		api:      api,
		dir:      dir,
		poll:     defaults.JobPollInterval,
		http:     &http.Client{Timeout: defaults.DownloadTimeout},
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download runs the whole retrieve flow for state: submit, wait, fetch and
// optionally upload. The job is bounded by ctx and defaults.JobTimeout.
func (d *Downloader) Download(ctx context.Context, state *template.State) (*Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, defaults.JobTimeout)
	defer cancel()

	runID := d.newRunID()
	log := slog.With("run_id", runID, "template", state.Name, "dataset", state.DatasetID)

	job, err := d.Submit(ctx, state.DatasetID, state.ToMapping())
	if err != nil {
		return nil, err
	}
	log.Info("retrieve job submitted", "job_id", job.ID)

	if _, err := d.Wait(ctx, job.ID); err != nil {
		return nil, err
	}

	href, err := d.ResultURL(ctx, job.ID)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(d.dir, fmt.Sprintf("%s-%s%s", state.DatasetID, runID, extension(href)))
	n, err := d.Fetch(ctx, href, target)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     runID,
		JobID:     job.ID,
		Template:  state.Name,
		DatasetID: state.DatasetID,
		Path:      target,
		Bytes:     n,
	}

	if d.uploader != nil {
		key := path.Join(state.DatasetID, filepath.Base(target))
		obj, err := d.uploader.Upload(ctx, key, target)
		if err != nil {
			return nil, err
		}
		res.Object = obj
	}

	res.Elapsed = time.Since(start)
	log.Info("download complete", "path", target, "bytes", n, "elapsed", res.Elapsed)
	return res, nil
}

// Submit posts the parameter mapping as a retrieve job.
func (d *Downloader) Submit(ctx context.Context, datasetID string, params template.Parameters) (*Job, error) {
	body := map[string]any{"inputs": params}
	data, err := d.api.PostJSON(ctx, d.api.RetrieveURL(datasetID)+"/execution", body)
	if err != nil {
		return nil, err
	}
	job, err := decodeJob(data)
	if err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, cerrors.New(cerrors.ErrCodeUnavailable, "retrieve API returned no job id")
	}
	return job, nil
}

func (d *Downloader) jobURL(jobID string) string {
	return strings.TrimRight(d.api.BaseURL(), "/") + "/retrieve/v1/jobs/" + url.PathEscape(jobID)
}

// Status returns the current state of a job.
func (d *Downloader) Status(ctx context.Context, jobID string) (*Job, error) {
	data, err := d.api.Do(ctx, http.MethodGet, d.jobURL(jobID), nil)
	if err != nil {
		return nil, err
	}
	return decodeJob(data)
}

// Wait polls the job until it succeeds, fails or ctx ends.
func (d *Downloader) Wait(ctx context.Context, jobID string) (*Job, error) {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		job, err := d.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case StatusSuccessful:
			return job, nil
		case StatusFailed, StatusDismissed:
			return nil, cerrors.NewWithContext(cerrors.ErrCodeUnavailable,
				fmt.Sprintf("retrieve job %s %s", jobID, job.Status),
				map[string]any{"job_id": jobID, "status": job.Status, "message": job.Message})
		}

		slog.Debug("waiting for retrieve job", "job_id", jobID, "status", job.Status)
		select {
		case <-ctx.Done():
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeTimeout, "stopped waiting for retrieve job",
				ctx.Err(), map[string]any{"job_id": jobID})
		case <-ticker.C:
		}
	}
}

// ResultURL returns the download location of a finished job.
func (d *Downloader) ResultURL(ctx context.Context, jobID string) (string, error) {
	data, err := d.api.Do(ctx, http.MethodGet, d.jobURL(jobID)+"/results", nil)
	if err != nil {
		return "", err
	}
	var doc resultsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", cerrors.Wrap(cerrors.ErrCodeUnavailable, "malformed results document", err)
	}
	if doc.Asset.Value.Href == "" {
		return "", cerrors.NewWithContext(cerrors.ErrCodeUnavailable, "results carry no asset",
			map[string]any{"job_id": jobID})
	}
	return doc.Asset.Value.Href, nil
}

// Fetch streams href into target, creating its directory, and returns the
// number of bytes written. A partial file is removed on failure.
func (d *Downloader) Fetch(ctx context.Context, href, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to create download directory", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return 0, cerrors.WrapWithContext(cerrors.ErrCodeInvalidRequest, "invalid asset URL", err,
			map[string]any{"url": href})
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return 0, cerrors.WrapWithContext(cerrors.ErrCodeUnavailable, "failed to fetch asset", err,
			map[string]any{"url": href})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, cerrors.NewWithContext(cerrors.ErrCodeUnavailable,
			fmt.Sprintf("asset download returned %s", resp.Status),
			map[string]any{"url": href, "status": resp.StatusCode})
	}

	f, err := os.Create(target)
	if err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to create download file", err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return 0, cerrors.WrapWithContext(cerrors.ErrCodeUnavailable, "download interrupted", err,
			map[string]any{"url": href})
	}
	return n, nil
}

func decodeJob(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeUnavailable, "malformed job document", err)
	}
	return &job, nil
}

// extension returns the file extension of the asset URL's path.
func extension(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return path.Ext(u.Path)
}
