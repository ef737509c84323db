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

	"github.com/velarno/copper/pkg/cost"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/optimizer"
	"github.com/velarno/copper/pkg/template"
)

// CostReport is the estimated cost of one template.
type CostReport struct {
	Template  string         `json:"template" yaml:"template"`
	DatasetID string         `json:"dataset_id" yaml:"dataset_id"`
	Estimate  *cost.Estimate `json:"estimate" yaml:"estimate"`
}

func costCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "cost",
		Usage:     "Estimate a template's cost with the configured oracle (see --cost-method)",
		ArgsUsage: "<name>",
		Action:    a.templateCost,
	}
}

func (a *app) templateCost(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "name")
	if err != nil {
		return err
	}
	ed, err := a.editor(ctx, in[0])
	if err != nil {
		return err
	}
	state, err := ed.State()
	if err != nil {
		return err
	}
	oracle, err := a.costOracle()
	if err != nil {
		return err
	}

	est, err := oracle.Estimate(ctx, state.DatasetID, state.ToMapping())
	if err != nil {
		return err
	}
	if err := a.store.AppendCost(ctx, ed.ID(), est); err != nil {
		return err
	}
	if !est.RequestIsValid {
		slog.Warn("template is over its cost limit",
			"template", state.Name,
			"cost", est.Cost,
			"limit", est.Limit,
			"reason", est.InvalidReason)
	}
	return a.write(ctx, cmd, CostReport{Template: state.Name, DatasetID: state.DatasetID, Estimate: est})
}

func optimizeCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Split templates into sub-templates that each fit the budget",
		Description: `Halves the values of the split parameter until every part costs at most
the budget under the local cost function. The parts are named
sub_<name>_001, sub_<name>_002, ... in value order.

Several templates are optimized in parallel. With --persist every part is
stored as a new template; nothing is stored when any part fails. With
--check each part is also priced by the configured cost oracle.`,
		ArgsUsage: "<name> [name...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "parameter",
				Aliases: []string{"p"},
				Usage:   "parameter to split (default from split_parameter)",
			},
			&cli.Int64Flag{
				Name:    "budget",
				Aliases: []string{"b"},
				Usage:   "maximum cost per sub-template (default from default_budget)",
			},
			&cli.BoolFlag{
				Name:  "persist",
				Usage: "store the sub-templates",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "price every sub-template with the configured cost oracle",
			},
			outputFlag(),
		},
		Action: a.templateOptimize,
	}
}

func (a *app) templateOptimize(ctx context.Context, cmd *cli.Command) error {
	names := cmd.Args().Slice()
	if len(names) == 0 {
		return cerrors.Validation("name", "missing argument <name>")
	}
	param := a.cfg.SplitParameter
	if cmd.IsSet("parameter") {
		param = cmd.String("parameter")
	}
	budget := a.cfg.DefaultBudget
	if cmd.IsSet("budget") {
		budget = cmd.Int64("budget")
	}

	states := make([]*template.State, 0, len(names))
	for _, n := range names {
		ed, err := a.editor(ctx, n)
		if err != nil {
			return err
		}
		st, err := ed.State()
		if err != nil {
			return err
		}
		states = append(states, st)
	}

	plans, err := optimizer.New().OptimizeAll(ctx, states, param, budget, a.cfg.Concurrency)
	if err != nil {
		return err
	}

	if cmd.Bool("check") {
		if err := a.checkPlans(ctx, plans); err != nil {
			return err
		}
	}
	if cmd.Bool("persist") {
		if err := optimizer.PersistAll(ctx, a.store, plans); err != nil {
			return err
		}
	}

	if len(plans) == 1 {
		return a.write(ctx, cmd, planView{Plan: *plans[0]})
	}
	return a.write(ctx, cmd, planList(plans))
}

// checkPlans prices every part with the configured oracle and fails when
// one is rejected.
func (a *app) checkPlans(ctx context.Context, plans []*optimizer.Plan) error {
	oracle, err := a.costOracle()
	if err != nil {
		return err
	}
	for _, p := range plans {
		for _, sub := range p.SubTemplates {
			est, err := oracle.Estimate(ctx, p.DatasetID, sub.Parameters)
			if err != nil {
				return err
			}
			slog.Debug("sub-template priced",
				"template", sub.Name,
				"oracle", est.Oracle,
				"cost", est.Cost,
				"limit", est.Limit)
			if !est.RequestIsValid {
				return cerrors.NewWithContext(cerrors.ErrCodeUnsatisfiableBudget,
					fmt.Sprintf("%s rejected by %s oracle: %s", sub.Name, est.Oracle, est.InvalidReason),
					map[string]any{"template": sub.Name, "cost": est.Cost, "limit": est.Limit})
			}
		}
	}
	return nil
}

func periodsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "periods",
		Usage:     "List the years from start to end, grouped into chunks",
		ArgsUsage: "<start> <end>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "chunk",
				Aliases: []string{"c"},
				Usage:   "years per chunk (0 for a single chunk)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			in, err := args(cmd, "start", "end")
			if err != nil {
				return err
			}
			start, err := intArg("start", in[0])
			if err != nil {
				return err
			}
			end, err := intArg("end", in[1])
			if err != nil {
				return err
			}
			periods, err := optimizer.Periods(start, end, cmd.Int("chunk"))
			if err != nil {
				return err
			}
			return a.write(ctx, cmd, periodList(periods))
		},
	}
}
