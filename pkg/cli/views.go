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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/velarno/copper/pkg/catalog"
	"github.com/velarno/copper/pkg/cost"
	"github.com/velarno/copper/pkg/oci"
	"github.com/velarno/copper/pkg/optimizer"
	"github.com/velarno/copper/pkg/retrieve"
	"github.com/velarno/copper/pkg/template"
)

// Views wrap domain values so the table format prints columns while JSON and
// YAML keep the domain shape.

type collectionList []catalog.Collection

func (l collectionList) Header() []string {
	return []string{"ID", "TITLE", "UPDATED", "KEYWORDS"}
}

func (l collectionList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		rows = append(rows, []string{c.ID, c.Title, day(c.Updated), strings.Join(c.Keywords, ", ")})
	}
	return rows
}

type inputsView struct {
	catalog.Inputs `yaml:",inline"`
}

func (v inputsView) Header() []string {
	return []string{"NAME", "KIND", "CHOICE", "MANDATORY", "VALUES"}
}

func (v inputsView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Parameters))
	for _, p := range v.Parameters {
		values := p.Values
		if len(values) == 0 {
			values = p.Default
		}
		rows = append(rows, []string{p.Name, string(p.Kind), p.Choice, strconv.FormatBool(p.Mandatory), abbreviate(values)})
	}
	return rows
}

type templateList []template.Record

func (l templateList) Header() []string {
	return []string{"ID", "NAME", "DATASET", "COST", "PARAMETERS", "UPDATED"}
}

func (l templateList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		rows = append(rows, []string{
			strconv.FormatInt(int64(r.ID), 10),
			r.Name,
			r.DatasetID,
			strconv.FormatInt(cost.Of(r.Parameters), 10),
			summarize(r.Parameters),
			r.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

type parameterView template.Parameters

func (v parameterView) Header() []string {
	return []string{"PARAMETER", "COUNT", "VALUES"}
}

func (v parameterView) Rows() [][]string {
	p := template.Parameters(v)
	rows := make([][]string, 0, len(p))
	for _, name := range p.Names() {
		rows = append(rows, []string{name, strconv.Itoa(len(p[name])), abbreviate(p[name])})
	}
	return rows
}

type documentView template.Document

func (v documentView) Header() []string {
	return []string{"PARAMETER", "COUNT", "VALUES"}
}

func (v documentView) Rows() [][]string {
	rows := [][]string{
		{"metadata.template_name", "", v.Metadata.TemplateName},
		{"metadata.dataset_id", "", v.Metadata.DatasetID},
	}
	return append(rows, parameterView(v.Parameters).Rows()...)
}

type historyList []template.HistoryEntry

func (l historyList) Header() []string {
	return []string{"ID", "ACTION", "CREATED", "COST", "PARAMETERS"}
}

func (l historyList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, h := range l {
		rows = append(rows, []string{
			strconv.FormatInt(h.ID, 10),
			h.Action,
			h.CreatedAt.Local().Format(time.DateTime),
			strconv.FormatInt(cost.Of(h.Parameters), 10),
			summarize(h.Parameters),
		})
	}
	return rows
}

type planView struct {
	optimizer.Plan `yaml:",inline"`
}

func (v planView) Header() []string {
	return []string{"NAME", "ID", "COST", strings.ToUpper(v.Parameter)}
}

func (v planView) Rows() [][]string {
	rows := make([][]string, 0, len(v.SubTemplates))
	for _, sub := range v.SubTemplates {
		id := "-"
		if sub.ID != 0 {
			id = strconv.FormatInt(int64(sub.ID), 10)
		}
		rows = append(rows, []string{sub.Name, id, strconv.FormatInt(sub.Cost, 10), abbreviate(sub.Parameters[v.Parameter])})
	}
	return rows
}

type planList []*optimizer.Plan

func (l planList) Header() []string {
	return []string{"TEMPLATE", "COST", "BUDGET", "PARTS", "PERSISTED"}
}

func (l planList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, p := range l {
		rows = append(rows, []string{
			p.Template,
			strconv.FormatInt(p.OriginalCost, 10),
			strconv.FormatInt(p.Budget, 10),
			strconv.Itoa(len(p.SubTemplates)),
			strconv.FormatBool(p.Persisted),
		})
	}
	return rows
}

type periodList [][]string

func (l periodList) Header() []string {
	return []string{"PERIOD", "FROM", "TO", "YEARS"}
}

func (l periodList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for i, years := range l {
		if len(years) == 0 {
			continue
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), years[0], years[len(years)-1], strconv.Itoa(len(years))})
	}
	return rows
}

type downloadReport struct {
	Downloads []*retrieve.Result `json:"downloads" yaml:"downloads"`
	Artifact  *oci.PushResult    `json:"artifact,omitempty" yaml:"artifact,omitempty"`
}

func (v downloadReport) Header() []string {
	return []string{"TEMPLATE", "JOB", "PATH", "BYTES", "OBJECT", "ELAPSED"}
}

// Rows lists the downloads; a published artifact adds a final row.
func (v downloadReport) Rows() [][]string {
	rows := make([][]string, 0, len(v.Downloads)+1)
	for _, r := range v.Downloads {
		rows = append(rows, []string{
			r.Template, r.JobID, r.Path, strconv.FormatInt(r.Bytes, 10),
			r.Object, r.Elapsed.Round(time.Second).String(),
		})
	}
	if a := v.Artifact; a != nil {
		rows = append(rows, []string{"(artifact)", a.Digest, a.Reference, strconv.FormatInt(a.Size, 10), "", ""})
	}
	return rows
}

// summarize renders a mapping as name=count pairs in name order.
func summarize(p template.Parameters) string {
	parts := make([]string, 0, len(p))
	for _, name := range p.Names() {
		parts = append(parts, fmt.Sprintf("%s=%d", name, len(p[name])))
	}
	return strings.Join(parts, " ")
}

// abbreviate joins short value lists and elides the middle of long ones.
func abbreviate(values []string) string {
	const maxShown = 6
	if len(values) <= maxShown {
		return strings.Join(values, ", ")
	}
	return fmt.Sprintf("%s, ..., %s (%d values)",
		strings.Join(values[:3], ", "), values[len(values)-1], len(values))
}

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
