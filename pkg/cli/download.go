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

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/oci"
	"github.com/velarno/copper/pkg/optimizer"
	"github.com/velarno/copper/pkg/retrieve"
	"github.com/velarno/copper/pkg/template"
)

func downloadCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Submit a template as retrieve jobs and save the results",
		Description: `Submits the template to the retrieve API, waits for the job and streams the
result into the download directory as <dataset>-<run id>.<ext>.

With --chunk N the split parameter is divided into consecutive groups of N
values and each group is downloaded as its own job. With --upload every file
is also copied to the configured object store bucket. With --push the files are
published as one OCI artifact, to a registry (oci://host/repo[:tag]) or to a
local OCI layout directory; the tag defaults to the template name.`,
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "download directory (default from download_dir)",
			},
			&cli.BoolFlag{
				Name:  "upload",
				Usage: "copy each file to the configured S3 bucket",
			},
			&cli.IntFlag{
				Name:    "chunk",
				Aliases: []string{"c"},
				Usage:   "values of the split parameter per job (0 for one job)",
			},
			&cli.StringFlag{
				Name:    "parameter",
				Aliases: []string{"p"},
				Usage:   "parameter divided by --chunk (default from split_parameter)",
			},
			&cli.StringFlag{
				Name:  "push",
				Usage: "publish the files as an OCI artifact (oci://registry/repo[:tag] or a layout directory)",
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "use HTTP for the OCI registry",
			},
			&cli.BoolFlag{
				Name:  "insecure-tls",
				Usage: "skip OCI registry certificate verification",
			},
			outputFlag(),
		},
		Action: a.templateDownload,
	}
}

func (a *app) templateDownload(ctx context.Context, cmd *cli.Command) error {
	state, err := a.editorState(ctx, cmd)
	if err != nil {
		return err
	}
	client, err := a.catalogClient()
	if err != nil {
		return err
	}

	dir := a.cfg.DownloadDir
	if cmd.IsSet("output-dir") {
		dir = cmd.String("output-dir")
	}

	var opts []retrieve.Option
	if cmd.Bool("upload") {
		if !a.cfg.Upload.Enabled() {
			return cerrors.Validation("upload", "no object store configured (set COPPER_S3_ENDPOINT and COPPER_S3_BUCKET)")
		}
		up, err := retrieve.NewS3Uploader(retrieve.S3Config{
			Endpoint:  a.cfg.Upload.Endpoint,
			Region:    a.cfg.Upload.Region,
			AccessKey: a.cfg.Upload.AccessKey,
			SecretKey: a.cfg.Upload.SecretKey,
			Bucket:    a.cfg.Upload.Bucket,
			UseSSL:    a.cfg.Upload.UseSSL,
		})
		if err != nil {
			return err
		}
		opts = append(opts, retrieve.WithUploader(up))
	}

	var target *oci.Reference
	if push := cmd.String("push"); push != "" {
		if target, err = oci.ParseTarget(push); err != nil {
			return err
		}
		if target.Tag == "" {
			target = target.WithTag(state.Name)
		}
	}

	parts, err := a.downloadParts(cmd, state)
	if err != nil {
		return err
	}

	dl := retrieve.NewDownloader(client, dir, opts...)
	results := make([]*retrieve.Result, 0, len(parts))
	for i, part := range parts {
		slog.Info("downloading", "template", part.Name, "part", i+1, "of", len(parts))
		res, err := dl.Download(ctx, part)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	report := downloadReport{Downloads: results}
	if target != nil {
		files := make([]string, 0, len(results))
		for _, r := range results {
			files = append(files, r.Path)
		}
		report.Artifact, err = oci.Push(ctx, oci.PushOptions{
			Files:  files,
			Target: target,
			Annotations: map[string]string{
				oci.AnnotationDataset:  state.DatasetID,
				oci.AnnotationTemplate: state.Name,
			},
			PlainHTTP:   cmd.Bool("plain-http"),
			InsecureTLS: cmd.Bool("insecure-tls"),
		})
		if err != nil {
			return err
		}
	}
	return a.write(ctx, cmd, report)
}

// downloadParts splits state into one state per chunk of the split parameter.
func (a *app) downloadParts(cmd *cli.Command, state *template.State) ([]*template.State, error) {
	size := cmd.Int("chunk")
	if size <= 0 {
		return []*template.State{state}, nil
	}

	param := a.cfg.SplitParameter
	if cmd.IsSet("parameter") {
		param = cmd.String("parameter")
	}
	mapping := state.ToMapping()
	if !mapping.Has(param) {
		return nil, cerrors.Validation("parameter", fmt.Sprintf("%q is not set on template %q", param, state.Name))
	}

	chunks := optimizer.Chunk(mapping[param], size)
	parts := make([]template.Parameters, 0, len(chunks))
	for _, c := range chunks {
		p := mapping.Clone()
		p[param] = c
		parts = append(parts, p)
	}
	return optimizer.SubTemplates(state, parts), nil
}
