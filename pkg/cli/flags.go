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
	"strconv"

	"github.com/urfave/cli/v3"

	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/serializer"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   fmt.Sprintf("output format (%s)", serializer.SupportedFormats()),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "output file path (default: stdout)",
	}
}

func limitFlag(usage string) cli.Flag {
	return &cli.IntFlag{
		Name:  "limit",
		Usage: usage,
	}
}

// args returns exactly n positional arguments or a validation error naming
// the missing one.
func args(cmd *cli.Command, names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		v := cmd.Args().Get(i)
		if v == "" {
			return nil, cerrors.Validation(n, fmt.Sprintf("missing argument <%s>", n))
		}
		out[i] = v
	}
	if cmd.Args().Len() > len(names) {
		return nil, cerrors.New(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("unexpected arguments: %v", cmd.Args().Slice()[len(names):]))
	}
	return out, nil
}

// intArg parses a positional integer argument.
func intArg(field, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, cerrors.Validation(field, fmt.Sprintf("%q is not an integer", v))
	}
	return n, nil
}

// write renders v in the configured format to --output or the app's writer.
func (a *app) write(ctx context.Context, cmd *cli.Command, v any) error {
	format, err := serializer.ParseFormat(a.cfg.OutputFormat)
	if err != nil {
		return err
	}

	var w *serializer.Writer
	if path := cmd.String("output"); path != "" {
		w = serializer.NewFileWriterOrStdout(format, path)
	} else {
		w = serializer.NewWriter(format, a.out)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			slog.Warn("failed to close output", "error", cerr)
		}
	}()

	return w.Serialize(ctx, v)
}
