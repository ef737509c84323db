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

	"github.com/urfave/cli/v3"

	"github.com/velarno/copper/pkg/api"
)

func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve templates, costs and optimization plans over HTTP",
		Description: `Starts the copper API on the configured port. The server reads templates from
the same database as the CLI and stops on SIGINT or SIGTERM.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "listen port (default 8080 or $PORT)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			oracle, err := a.costOracle()
			if err != nil {
				return err
			}
			return api.Serve(ctx, api.Options{
				Version:        version,
				Templates:      st,
				Oracle:         oracle,
				Budget:         a.cfg.DefaultBudget,
				SplitParameter: a.cfg.SplitParameter,
				Port:           cmd.Int("port"),
			})
		},
	}
}
