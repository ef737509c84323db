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
	"github.com/velarno/copper/pkg/serializer"
	"github.com/velarno/copper/pkg/template"
)

func templateCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:    "template",
		Aliases: []string{"tpl"},
		Usage:   "Create, edit, cost, optimize and download request templates",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List stored templates",
				Action: a.templateList,
			},
			{
				Name:      "new",
				Usage:     "Create an empty template for a dataset",
				ArgsUsage: "<name> <dataset>",
				Action:    a.templateNew,
			},
			{
				Name:      "add",
				Usage:     "Add values, or an inclusive integer range, to a parameter",
				ArgsUsage: "<name> <parameter>",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "value",
						Aliases: []string{"v"},
						Usage:   "value to add (repeatable)",
					},
					&cli.StringFlag{
						Name:    "range",
						Aliases: []string{"r"},
						Usage:   "inclusive integer range FROM-TO, e.g. 2000-2010",
					},
				},
				Action: a.templateAdd,
			},
			{
				Name:      "update",
				Usage:     "Replace one value of a parameter",
				ArgsUsage: "<name> <parameter> <old> <new>",
				Action:    a.templateUpdate,
			},
			{
				Name:      "remove",
				Usage:     "Remove one value, or the whole parameter when --value is omitted",
				ArgsUsage: "<name> <parameter>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "value",
						Aliases: []string{"v"},
						Usage:   "value to remove",
					},
				},
				Action: a.templateRemove,
			},
			{
				Name:      "show",
				Usage:     "Show a template's parameter mapping",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "metadata",
						Aliases: []string{"m"},
						Usage:   "wrap the mapping in a document with dataset and template name",
					},
					outputFlag(),
				},
				Action: a.templateShow,
			},
			{
				Name:      "parameters",
				Usage:     "List a template's parameters and value counts",
				ArgsUsage: "<name>",
				Action:    a.templateParameters,
			},
			{
				Name:      "mandatory",
				Usage:     "Report the dataset's mandatory parameters the template does not set",
				ArgsUsage: "<name>",
				Action:    a.templateMandatory,
			},
			{
				Name:      "validate",
				Usage:     "Check template values against the dataset's input schema",
				ArgsUsage: "<name>",
				Action:    a.templateValidate,
			},
			costCmd(a),
			optimizeCmd(a),
			{
				Name:      "history",
				Usage:     "Show the template's change history, newest first",
				ArgsUsage: "<name>",
				Action:    a.templateHistory,
			},
			{
				Name:      "import",
				Usage:     "Create a template from a JSON or YAML document",
				ArgsUsage: "<file>",
				Action:    a.templateImport,
			},
			{
				Name:      "export",
				Usage:     "Write a template document (format from the file extension)",
				ArgsUsage: "<name>",
				Flags:     []cli.Flag{outputFlag()},
				Action:    a.templateExport,
			},
			{
				Name:      "delete",
				Usage:     "Delete a template and its history",
				ArgsUsage: "<name>",
				Action:    a.templateDelete,
			},
			downloadCmd(a),
		},
	}
}

// editor returns an editor bound to the stored template called name.
func (a *app) editor(ctx context.Context, name string) (*template.Editor, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	ed := template.NewEditor(st)
	if err := ed.Load(ctx, name); err != nil {
		return nil, err
	}
	return ed, nil
}

// editorState loads the template called by the first argument and returns its state.
func (a *app) editorState(ctx context.Context, cmd *cli.Command) (*template.State, error) {
	in, err := args(cmd, "name")
	if err != nil {
		return nil, err
	}
	ed, err := a.editor(ctx, in[0])
	if err != nil {
		return nil, err
	}
	return ed.State()
}

// writeRecord prints the stored form of the template called name.
func (a *app) writeRecord(ctx context.Context, cmd *cli.Command, name string) error {
	rec, err := a.store.GetTemplateByName(ctx, name)
	if err != nil {
		return err
	}
	return a.write(ctx, cmd, templateList{*rec})
}

func (a *app) templateList(ctx context.Context, cmd *cli.Command) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	records, err := st.ListTemplates(ctx)
	if err != nil {
		return err
	}
	if records == nil {
		records = []template.Record{}
	}
	return a.write(ctx, cmd, templateList(records))
}

func (a *app) templateNew(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "name", "dataset")
	if err != nil {
		return err
	}
	if _, err := a.collection(ctx, in[1]); err != nil {
		return err
	}

	ed := template.NewEditor(a.store)
	if err := ed.Create(ctx, in[0], in[1]); err != nil {
		return err
	}
	slog.Info("template created", "template", in[0], "dataset", in[1], "id", ed.ID())
	return a.writeRecord(ctx, cmd, in[0])
}

func (a *app) templateAdd(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "name", "parameter")
	if err != nil {
		return err
	}
	values := cmd.StringSlice("value")
	expr := cmd.String("range")
	if (len(values) == 0) == (expr == "") {
		return cerrors.Validation("value", "exactly one of --value or --range is required")
	}

	ed, err := a.editor(ctx, in[0])
	if err != nil {
		return err
	}
	if expr != "" {
		from, to, err := template.ParseRange(expr)
		if err != nil {
			return err
		}
		if err := ed.AddRange(ctx, in[1], from, to); err != nil {
			return err
		}
	}
	for _, v := range values {
		if err := ed.AddValue(ctx, in[1], v); err != nil {
			return err
		}
	}
	return a.writeRecord(ctx, cmd, in[0])
}

func (a *app) templateUpdate(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "name", "parameter", "old", "new")
	if err != nil {
		return err
	}
	ed, err := a.editor(ctx, in[0])
	if err != nil {
		return err
	}
	if err := ed.ReplaceValue(ctx, in[1], in[2], in[3]); err != nil {
		return err
	}
	return a.writeRecord(ctx, cmd, in[0])
}

func (a *app) templateRemove(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "name", "parameter")
	if err != nil {
		return err
	}
	ed, err := a.editor(ctx, in[0])
	if err != nil {
		return err
	}
	if v := cmd.String("value"); v != "" {
		err = ed.RemoveValue(ctx, in[1], v)
	} else {
		err = ed.RemoveParameter(ctx, in[1])
	}
	if err != nil {
		return err
	}
	return a.writeRecord(ctx, cmd, in[0])
}

func (a *app) templateShow(ctx context.Context, cmd *cli.Command) error {
	state, err := a.editorState(ctx, cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("metadata") {
		return a.write(ctx, cmd, documentView(state.Document()))
	}
	return a.write(ctx, cmd, parameterView(state.ToMapping()))
}

func (a *app) templateParameters(ctx context.Context, cmd *cli.Command) error {
	state, err := a.editorState(ctx, cmd)
	if err != nil {
		return err
	}
	counts := make(parameterCounts, 0)
	mapping := state.ToMapping()
	for _, name := range mapping.Names() {
		counts = append(counts, parameterCount{Name: name, Count: len(mapping[name])})
	}
	return a.write(ctx, cmd, counts)
}

// MandatoryReport lists the dataset's mandatory parameters and those the
// template leaves unset.
type MandatoryReport struct {
	Template  string   `json:"template" yaml:"template"`
	DatasetID string   `json:"dataset_id" yaml:"dataset_id"`
	Mandatory []string `json:"mandatory" yaml:"mandatory"`
	Missing   []string `json:"missing" yaml:"missing"`
}

func (a *app) templateMandatory(ctx context.Context, cmd *cli.Command) error {
	state, err := a.editorState(ctx, cmd)
	if err != nil {
		return err
	}
	inputs, err := a.inputs(ctx, state.DatasetID)
	if err != nil {
		return err
	}
	required := inputs.Mandatory()
	return a.write(ctx, cmd, MandatoryReport{
		Template:  state.Name,
		DatasetID: state.DatasetID,
		Mandatory: nonNil(required),
		Missing:   nonNil(template.Mandatory(state.ToMapping(), required)),
	})
}

// ValidationReport is the outcome of checking a template against its
// dataset's input schema.
type ValidationReport struct {
	Template   string               `json:"template" yaml:"template"`
	DatasetID  string               `json:"dataset_id" yaml:"dataset_id"`
	Valid      bool                 `json:"valid" yaml:"valid"`
	Violations []template.Violation `json:"violations" yaml:"violations"`
	Missing    []string             `json:"missing" yaml:"missing"`
}

func (a *app) templateValidate(ctx context.Context, cmd *cli.Command) error {
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
	inputs, err := a.inputs(ctx, state.DatasetID)
	if err != nil {
		return err
	}
	violations, err := ed.Validate(inputs.AllowedValues())
	if err != nil {
		return err
	}

	report := ValidationReport{
		Template:   state.Name,
		DatasetID:  state.DatasetID,
		Violations: violations,
		Missing:    nonNil(template.Mandatory(state.ToMapping(), inputs.Mandatory())),
	}
	if report.Violations == nil {
		report.Violations = []template.Violation{}
	}
	report.Valid = len(report.Violations) == 0 && len(report.Missing) == 0
	if err := a.write(ctx, cmd, report); err != nil {
		return err
	}
	if !report.Valid {
		return cerrors.NewWithContext(cerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("template %q has %d invalid values and %d missing parameters",
				state.Name, len(report.Violations), len(report.Missing)),
			map[string]any{"field": "parameters"})
	}
	return nil
}

func (a *app) templateHistory(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "name")
	if err != nil {
		return err
	}
	ed, err := a.editor(ctx, in[0])
	if err != nil {
		return err
	}
	history, err := ed.History(ctx)
	if err != nil {
		return err
	}
	return a.write(ctx, cmd, historyList(history))
}

func (a *app) templateImport(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "file")
	if err != nil {
		return err
	}
	data, err := serializer.ReadFileAsJSON(in[0])
	if err != nil {
		return err
	}
	state, err := template.Parse(data)
	if err != nil {
		return err
	}
	if _, err := a.collection(ctx, state.DatasetID); err != nil {
		return err
	}

	ed := template.NewEditor(a.store)
	if err := ed.Import(ctx, data); err != nil {
		return err
	}
	slog.Info("template imported", "template", state.Name, "dataset", state.DatasetID, "file", in[0])
	return a.writeRecord(ctx, cmd, state.Name)
}

func (a *app) templateExport(ctx context.Context, cmd *cli.Command) error {
	state, err := a.editorState(ctx, cmd)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		data, err := state.Serialize(true)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	}

	w := serializer.NewFileWriterOrStdout(serializer.FormatFromPath(path), path)
	defer w.Close()
	if err := w.Serialize(ctx, state.Document()); err != nil {
		return err
	}
	slog.Info("template exported", "template", state.Name, "path", path)
	return nil
}

// DeleteResult reports a deleted template.
type DeleteResult struct {
	Template string      `json:"template" yaml:"template"`
	ID       template.ID `json:"id" yaml:"id"`
	Deleted  bool        `json:"deleted" yaml:"deleted"`
}

func (a *app) templateDelete(ctx context.Context, cmd *cli.Command) error {
	in, err := args(cmd, "name")
	if err != nil {
		return err
	}
	ed, err := a.editor(ctx, in[0])
	if err != nil {
		return err
	}
	id := ed.ID()
	if err := ed.Delete(ctx); err != nil {
		return err
	}
	slog.Info("template deleted", "template", in[0], "id", id)
	return a.write(ctx, cmd, DeleteResult{Template: in[0], ID: id, Deleted: true})
}

type parameterCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

type parameterCounts []parameterCount

func (c parameterCounts) Header() []string { return []string{"PARAMETER", "VALUES"} }

func (c parameterCounts) Rows() [][]string {
	rows := make([][]string, 0, len(c))
	for _, p := range c {
		rows = append(rows, []string{p.Name, fmt.Sprint(p.Count)})
	}
	return rows
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
