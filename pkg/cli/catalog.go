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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/velarno/copper/pkg/catalog"
	cerrors "github.com/velarno/copper/pkg/errors"
)

func catalogCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Synchronize, list and search the dataset catalogue",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Fetch the remote catalogue into local storage",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "inputs",
						Usage: "also fetch each dataset's input schema",
					},
					limitFlag("maximum number of collections to fetch (0 for all)"),
				},
				Action: a.catalogSync,
			},
			{
				Name:   "list",
				Usage:  "List stored datasets, most recently updated first",
				Flags:  []cli.Flag{limitFlag("maximum number of datasets to list (0 for all)")},
				Action: a.catalogList,
			},
			{
				Name:      "search",
				Usage:     "Fuzzy search stored datasets by id, title and keywords",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "keyword",
						Usage: "only datasets tagged with this keyword",
					},
					limitFlag("maximum number of results (0 for all)"),
				},
				Action: a.catalogSearch,
			},
			{
				Name:      "show",
				Usage:     "Show one dataset, fetching it when it is not stored",
				ArgsUsage: "<dataset>",
				Action:    a.catalogShow,
			},
			{
				Name:      "inputs",
				Usage:     "Show a dataset's input parameters, fetching them when not stored",
				ArgsUsage: "<dataset>",
				Action:    a.catalogInputs,
			},
		},
	}
}

func (a *app) catalogSync(ctx context.Context, cmd *cli.Command) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	client, err := a.catalogClient()
	if err != nil {
		return err
	}

	res, err := client.Sync(ctx, st, catalog.SyncOptions{
		Limit:       cmd.Int("limit"),
		WithInputs:  cmd.Bool("inputs"),
		Concurrency: a.cfg.Concurrency,
	})
	if err != nil {
		return err
	}
	slog.Info("catalog synchronized",
		"links", res.Links,
		"collections", res.Collections,
		"inputs", res.Inputs,
		"failed", len(res.Failed))
	return a.write(ctx, cmd, res)
}

func (a *app) catalogList(ctx context.Context, cmd *cli.Command) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	cols, err := st.ListCollections(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return a.write(ctx, cmd, collectionList(cols))
}

func (a *app) catalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	cols, err := st.ListCollections(ctx, 0)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return cerrors.New(cerrors.ErrCodeNotFound, "no datasets stored, run 'copper catalog sync' first")
	}

	found := catalog.Search(cols, query, catalog.SearchOptions{
		Keyword: cmd.String("keyword"),
		Limit:   cmd.Int("limit"),
	})
	return a.write(ctx, cmd, collectionList(found))
}

func (a *app) catalogShow(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "dataset")
	if err != nil {
		return err
	}
	c, err := a.collection(ctx, in[0])
	if err != nil {
		return err
	}
	return a.write(ctx, cmd, c)
}

func (a *app) catalogInputs(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "dataset")
	if err != nil {
		return err
	}
	inputs, err := a.inputs(ctx, in[0])
	if err != nil {
		return err
	}
	return a.write(ctx, cmd, inputsView{Inputs: *inputs})
}

// collection reads a dataset from storage, fetching and storing it when it
// has not been synchronized.
func (a *app) collection(ctx context.Context, datasetID string) (*catalog.Collection, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	c, err := st.GetCollection(ctx, datasetID)
	if err == nil || !cerrors.IsCode(err, cerrors.ErrCodeNotFound) {
		return c, err
	}

	client, err := a.catalogClient()
	if err != nil {
		return nil, err
	}
	c, err = client.CollectionByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if err := st.SaveCollection(ctx, c); err != nil {
		return nil, err
	}
	slog.Debug("dataset fetched", "dataset", datasetID)
	return c, nil
}

// inputs reads a dataset's input schema from storage, fetching and storing
// it on a miss.
func (a *app) inputs(ctx context.Context, datasetID string) (*catalog.Inputs, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	in, err := st.GetInputs(ctx, datasetID)
	if err == nil || !cerrors.IsCode(err, cerrors.ErrCodeNotFound) {
		return in, err
	}

	if _, err := a.collection(ctx, datasetID); err != nil {
		return nil, err
	}
	client, err := a.catalogClient()
	if err != nil {
		return nil, err
	}
	in, err = client.Inputs(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if err := st.SaveInputs(ctx, in); err != nil {
		return nil, err
	}
	slog.Debug("inputs fetched", "dataset", datasetID, "parameters", len(in.Parameters))
	return in, nil
}
