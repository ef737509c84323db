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
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/velarno/copper/pkg/catalog"
	"github.com/velarno/copper/pkg/config"
	"github.com/velarno/copper/pkg/cost"
	"github.com/velarno/copper/pkg/logging"
	"github.com/velarno/copper/pkg/store"
)

const (
	name           = "copper"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// app holds what the commands share. Resources are opened on first use and
// released by the root After hook.
type app struct {
	cfg       *config.Config
	out       io.Writer
	store     *store.Store
	client    *catalog.Client
	oracle    cost.Oracle
	logCloser io.Closer
}

func newApp(out io.Writer) *app {
	if out == nil {
		out = os.Stdout
	}
	return &app{out: out}
}

// Execute runs the copper CLI with os.Args and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp(os.Stdout)).Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:                  name,
		Usage:                 "Catalog, template, cost and download climate reanalysis data",
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: fmt.Sprintf("config file (default is %s)", config.DefaultPath()),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "db-driver",
				Usage: fmt.Sprintf("storage driver (%s)", store.SupportedDrivers),
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "storage DSN: a SQLite file path or a PostgreSQL URL",
			},
			formatFlag(),
			&cli.StringFlag{
				Name:  "cost-method",
				Usage: fmt.Sprintf("cost oracle (%s)", cost.SupportedMethods()),
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			catalogCmd(a),
			templateCmd(a),
			periodsCmd(a),
			serveCmd(a),
		},
	}
}

// before resolves the configuration: defaults, file, .env, environment and
// finally the global flags.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return ctx, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"log-level", &cfg.LogLevel},
		{"db-driver", &cfg.Database.Driver},
		{"db", &cfg.Database.DSN},
		{"format", &cfg.OutputFormat},
		{"cost-method", &cfg.CostMethod},
	}
	for _, o := range overrides {
		if cmd.IsSet(o.flag) {
			*o.dst = cmd.String(o.flag)
		}
	}

	if err := cfg.Validate(); err != nil {
		return ctx, err
	}
	a.cfg = cfg

	a.logCloser = logging.SetDefaultStructuredLoggerToFile(name, version, cfg.LogLevel, cfg.LogFile)
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"driver", cfg.Database.Driver,
		"costMethod", cfg.CostMethod)

	return ctx, nil
}

func (a *app) after(_ context.Context, _ *cli.Command) error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
	return err
}

// openStore opens the configured database once per invocation.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

// catalogClient builds the remote API client once per invocation.
func (a *app) catalogClient() (*catalog.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := catalog.NewClient(a.cfg.ClientOptions()...)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// costOracle selects the oracle for the configured cost method.
func (a *app) costOracle() (cost.Oracle, error) {
	if a.oracle != nil {
		return a.oracle, nil
	}
	method, err := cost.ParseMethod(a.cfg.CostMethod)
	if err != nil {
		return nil, err
	}

	var client cost.CostingClient
	if method == cost.MethodAPI {
		c, err := a.catalogClient()
		if err != nil {
			return nil, err
		}
		client = c
	}

	o, err := cost.New(method, client, float64(a.cfg.DefaultBudget))
	if err != nil {
		return nil, err
	}
	a.oracle = o
	return o, nil
}
