package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velarno/copper/pkg/catalog"
	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/oci"
	"github.com/velarno/copper/pkg/optimizer"
	"github.com/velarno/copper/pkg/retrieve"
	"github.com/velarno/copper/pkg/store"
	"github.com/velarno/copper/pkg/template"
)

const testDataset = "reanalysis-era5-single-levels"

// harness runs the root command against a temporary sqlite database.
type harness struct {
	t   *testing.T
	dir string
	db  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("COPPER_CONFIG", "")
	t.Setenv("COPPER_BASE_URL", "http://127.0.0.1:1/api")
	t.Setenv("COPPER_S3_ENDPOINT", "")
	t.Setenv("COPPER_S3_BUCKET", "")
	t.Setenv("COPPER_LOG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("COPPER_RATE_LIMIT", "0")
	t.Setenv("CDS_API_KEY", "")

	h := &harness{t: t, dir: dir, db: filepath.Join(dir, "copper.db")}
	h.seed()
	return h
}

// seed stores one dataset and its input schema so no command reaches the network.
func (h *harness) seed() {
	h.t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.DriverSQLite, h.db)
	require.NoError(h.t, err)
	defer st.Close()

	require.NoError(h.t, st.SaveCollection(ctx, &catalog.Collection{
		ID:       testDataset,
		Title:    "ERA5 hourly data on single levels from 1940 to present",
		Updated:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Keywords: []string{"Variable domain: Atmosphere (surface)", "Temporal coverage: Past"},
	}))

	years := make([]string, 0, 86)
	for y := 1940; y <= 2025; y++ {
		years = append(years, time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006"))
	}
	require.NoError(h.t, st.SaveInputs(ctx, &catalog.Inputs{
		DatasetID: testDataset,
		Parameters: []catalog.InputParameter{
			{Name: "variable", Kind: catalog.KindArray, Choice: catalog.ChoiceMany, Values: []string{"2m_temperature", "total_precipitation"}, Mandatory: true},
			{Name: "year", Kind: catalog.KindArray, Choice: catalog.ChoiceMany, Values: years, Mandatory: true},
			{Name: "month", Kind: catalog.KindArray, Choice: catalog.ChoiceMany, Values: []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"}},
		},
	}))
}

// run executes copper with the harness database and JSON output.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	full := append([]string{name, "--db", h.db, "--format", "json"}, args...)
	err := newRootCmd(newApp(&out)).Run(context.Background(), full)
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "copper %v", args)
	return out
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

// decadeTemplate creates template name with years 2000-2009 and twelve months.
func (h *harness) decadeTemplate(name string) {
	h.t.Helper()
	h.mustRun("template", "new", name, testDataset)
	h.mustRun("template", "add", name, "year", "--range", "2000-2009")
	h.mustRun("template", "add", name, "month", "--range", "1-12")
}

func TestCatalogCommands(t *testing.T) {
	h := newHarness(t)

	cols := decode[[]catalog.Collection](t, h.mustRun("catalog", "list"))
	require.Len(t, cols, 1)
	assert.Equal(t, testDataset, cols[0].ID)

	found := decode[[]catalog.Collection](t, h.mustRun("catalog", "search", "era5"))
	require.Len(t, found, 1)

	none := decode[[]catalog.Collection](t, h.mustRun("catalog", "search", "era5", "--keyword", "Ocean"))
	assert.Empty(t, none)

	c := decode[catalog.Collection](t, h.mustRun("catalog", "show", testDataset))
	assert.Equal(t, "ERA5 hourly data on single levels from 1940 to present", c.Title)

	in := decode[catalog.Inputs](t, h.mustRun("catalog", "inputs", testDataset))
	assert.Equal(t, []string{"variable", "year"}, in.Mandatory())
}

func TestTemplateLifecycle(t *testing.T) {
	h := newHarness(t)

	created := decode[[]template.Record](t, h.mustRun("template", "new", "era5", testDataset))
	require.Len(t, created, 1)
	assert.Equal(t, "era5", created[0].Name)
	assert.Empty(t, created[0].Parameters)

	h.mustRun("template", "add", "era5", "year", "--range", "2000-2002")
	h.mustRun("template", "add", "era5", "variable", "--value", "2m_temperature", "--value", "total_precipitation")
	h.mustRun("template", "update", "era5", "year", "2002", "2003")
	h.mustRun("template", "remove", "era5", "variable", "--value", "total_precipitation")

	shown := decode[map[string][]string](t, h.mustRun("template", "show", "era5"))
	assert.Equal(t, map[string][]string{
		"year":     {"2000", "2001", "2003"},
		"variable": {"2m_temperature"},
	}, shown)

	doc := decode[template.Document](t, h.mustRun("template", "show", "era5", "--metadata"))
	assert.Equal(t, "era5", doc.Metadata.TemplateName)
	assert.Equal(t, testDataset, doc.Metadata.DatasetID)

	counts := decode[[]parameterCount](t, h.mustRun("template", "parameters", "era5"))
	assert.Equal(t, []parameterCount{{Name: "variable", Count: 1}, {Name: "year", Count: 3}}, counts)

	history := decode[[]template.HistoryEntry](t, h.mustRun("template", "history", "era5"))
	assert.GreaterOrEqual(t, len(history), 5)

	h.mustRun("template", "remove", "era5", "variable")
	shown = decode[map[string][]string](t, h.mustRun("template", "show", "era5"))
	assert.NotContains(t, shown, "variable")

	list := decode[[]template.Record](t, h.mustRun("template", "list"))
	require.Len(t, list, 1)

	deleted := decode[DeleteResult](t, h.mustRun("template", "delete", "era5"))
	assert.True(t, deleted.Deleted)
	assert.Equal(t, created[0].ID, deleted.ID)

	list = decode[[]template.Record](t, h.mustRun("template", "list"))
	assert.Empty(t, list)

	_, err := h.run("template", "show", "era5")
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeNotFound), "got %v", err)
}

func TestTemplateAdd_Errors(t *testing.T) {
	h := newHarness(t)
	h.mustRun("template", "new", "era5", testDataset)

	tests := []struct {
		name string
		args []string
	}{
		{"neither value nor range", []string{"template", "add", "era5", "year"}},
		{"both value and range", []string{"template", "add", "era5", "year", "--value", "2000", "--range", "2000-2001"}},
		{"bad range", []string{"template", "add", "era5", "year", "--range", "2000"}},
		{"missing parameter arg", []string{"template", "add", "era5"}},
		{"extra args", []string{"template", "add", "era5", "year", "month", "--value", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
		})
	}
}

func TestTemplateNew_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.mustRun("template", "new", "era5", testDataset)

	_, err := h.run("template", "new", "era5", testDataset)
	require.Error(t, err)
	assert.NotEmpty(t, cerrors.CodeOf(err))
}

func TestTemplateMandatoryAndValidate(t *testing.T) {
	h := newHarness(t)
	h.mustRun("template", "new", "era5", testDataset)
	h.mustRun("template", "add", "era5", "year", "--value", "2000", "--value", "1900")

	report := decode[MandatoryReport](t, h.mustRun("template", "mandatory", "era5"))
	assert.Equal(t, []string{"variable", "year"}, report.Mandatory)
	assert.Equal(t, []string{"variable"}, report.Missing)

	out, err := h.run("template", "validate", "era5")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
	invalid := decode[ValidationReport](t, out)
	assert.False(t, invalid.Valid)
	assert.Equal(t, []template.Violation{{Parameter: "year", Value: "1900"}}, invalid.Violations)

	h.mustRun("template", "remove", "era5", "year", "--value", "1900")
	h.mustRun("template", "add", "era5", "variable", "--value", "2m_temperature")
	valid := decode[ValidationReport](t, h.mustRun("template", "validate", "era5"))
	assert.True(t, valid.Valid)
	assert.Empty(t, valid.Violations)
	assert.Empty(t, valid.Missing)
}

func TestTemplateExportImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("template", "new", "era5", testDataset)
	h.mustRun("template", "add", "era5", "year", "--range", "2010-2012")

	stdout := h.mustRun("template", "export", "era5")
	doc := decode[template.Document](t, stdout)
	assert.Equal(t, []string{"2010", "2011", "2012"}, doc.Parameters["year"])

	path := filepath.Join(h.dir, "era5.json")
	h.mustRun("template", "export", "era5", "--output", path)
	require.FileExists(t, path)

	h.mustRun("template", "delete", "era5")
	imported := decode[[]template.Record](t, h.mustRun("template", "import", path))
	require.Len(t, imported, 1)
	assert.Equal(t, "era5", imported[0].Name)
	assert.Equal(t, []string{"2010", "2011", "2012"}, imported[0].Parameters["year"])

	_, err := h.run("template", "import", path)
	require.Error(t, err, "importing an existing name must fail")
}

func TestTemplateImport_UnknownDataset(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "other.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"metadata":{"dataset_id":"other","template_name":"x"},"parameters":{"year":"2000"}}`), 0o600))

	// the catalogue at COPPER_BASE_URL is unreachable, so the lookup fails
	_, err := h.run("template", "import", path)
	require.Error(t, err)
}

func TestTemplateCost(t *testing.T) {
	h := newHarness(t)
	h.decadeTemplate("era5")

	report := decode[CostReport](t, h.mustRun("template", "cost", "era5"))
	require.NotNil(t, report.Estimate)
	assert.InDelta(t, 120, report.Estimate.Cost, 0)
	assert.InDelta(t, 400, report.Estimate.Limit, 0)
	assert.True(t, report.Estimate.RequestIsValid)
	assert.Equal(t, "local", report.Estimate.Oracle)

	ctx := context.Background()
	st, err := store.Open(ctx, store.DriverSQLite, h.db)
	require.NoError(t, err)
	defer st.Close()
	rec, err := st.GetTemplateByName(ctx, "era5")
	require.NoError(t, err)
	costs, err := st.CostHistory(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, costs, 1)
	assert.InDelta(t, 120, costs[0].Estimate.Cost, 0)
}

func TestTemplateCost_OverLimit(t *testing.T) {
	h := newHarness(t)
	h.decadeTemplate("era5")
	t.Setenv("COPPER_BUDGET", "100")

	report := decode[CostReport](t, h.mustRun("template", "cost", "era5"))
	assert.False(t, report.Estimate.RequestIsValid)
	assert.NotEmpty(t, report.Estimate.InvalidReason)
}

func TestTemplateOptimize(t *testing.T) {
	h := newHarness(t)
	h.decadeTemplate("era5")

	plan := decode[optimizer.Plan](t, h.mustRun("template", "optimize", "era5", "--budget", "60", "--check", "--persist"))
	assert.Equal(t, "era5", plan.Template)
	assert.Equal(t, int64(120), plan.OriginalCost)
	assert.True(t, plan.Persisted)
	require.Len(t, plan.SubTemplates, 2)
	assert.Equal(t, "sub_era5_001", plan.SubTemplates[0].Name)
	assert.Equal(t, "sub_era5_002", plan.SubTemplates[1].Name)
	for _, sub := range plan.SubTemplates {
		assert.LessOrEqual(t, sub.Cost, int64(60))
		assert.NotZero(t, sub.ID)
	}

	list := decode[[]template.Record](t, h.mustRun("template", "list"))
	assert.Len(t, list, 3)
}

func TestTemplateOptimize_Several(t *testing.T) {
	h := newHarness(t)
	h.decadeTemplate("a")
	h.decadeTemplate("b")

	plans := decode[[]optimizer.Plan](t, h.mustRun("template", "optimize", "a", "b", "--budget", "60"))
	require.Len(t, plans, 2)
	assert.Equal(t, "a", plans[0].Template)
	assert.Equal(t, "b", plans[1].Template)
	assert.False(t, plans[0].Persisted)

	list := decode[[]template.Record](t, h.mustRun("template", "list"))
	assert.Len(t, list, 2)
}

func TestTemplateOptimize_PersistSeveralIsAtomic(t *testing.T) {
	h := newHarness(t)
	h.decadeTemplate("a")
	h.decadeTemplate("b")
	h.decadeTemplate("sub_b_002")

	_, err := h.run("template", "optimize", "a", "b", "--budget", "60", "--persist")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))

	list := decode[[]template.Record](t, h.mustRun("template", "list"))
	names := make([]string, 0, len(list))
	for _, rec := range list {
		names = append(names, rec.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b", "sub_b_002"}, names)
}

func TestTemplateOptimize_Errors(t *testing.T) {
	h := newHarness(t)
	h.decadeTemplate("era5")

	tests := []struct {
		name string
		args []string
		code cerrors.ErrorCode
	}{
		{"no name", []string{"template", "optimize"}, cerrors.ErrCodeInvalidRequest},
		{"unknown template", []string{"template", "optimize", "missing"}, cerrors.ErrCodeNotFound},
		{"budget below fixed cost", []string{"template", "optimize", "era5", "--budget", "11"}, cerrors.ErrCodeUnsatisfiableBudget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, cerrors.CodeOf(err))
		})
	}
}

func TestPeriods(t *testing.T) {
	h := newHarness(t)

	got := decode[[][]string](t, h.mustRun("periods", "2000", "2004", "--chunk", "2"))
	assert.Equal(t, [][]string{{"2000", "2001"}, {"2002", "2003"}, {"2004"}}, got)

	_, err := h.run("periods", "2004", "2000")
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))

	_, err = h.run("periods", "x", "2000")
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
}

func TestTemplateDownload_Errors(t *testing.T) {
	h := newHarness(t)
	h.decadeTemplate("era5")

	_, err := h.run("template", "download", "era5", "--upload")
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))

	_, err = h.run("template", "download", "era5", "--chunk", "2", "--parameter", "variable")
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))

	_, err = h.run("template", "download", "era5", "--push", "oci://")
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
}

// fakeRetrieve answers the retrieve API with an immediately finished job.
func fakeRetrieve(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var jobs atomic.Int32
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("POST /retrieve/v1/processes/{dataset}/execution", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"jobID":"job-%d","status":"accepted"}`, jobs.Add(1))
	})
	mux.HandleFunc("GET /retrieve/v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"jobID":%q,"status":"successful"}`, r.PathValue("id"))
	})
	mux.HandleFunc("GET /retrieve/v1/jobs/{id}/results", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"asset":{"value":{"href":%q,"type":"application/netcdf"}}}`,
			srv.URL+"/files/"+r.PathValue("id")+".nc")
	})
	mux.HandleFunc("GET /files/{name}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "netcdf "+r.PathValue("name"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &jobs
}

func TestTemplateDownload_ChunkAndPush(t *testing.T) {
	h := newHarness(t)
	h.decadeTemplate("era5")
	srv, jobs := fakeRetrieve(t)
	t.Setenv("COPPER_BASE_URL", srv.URL)

	downloads := filepath.Join(h.dir, "downloads")
	layout := filepath.Join(h.dir, "layout")
	out := h.mustRun("template", "download", "era5", "--chunk", "5", "--output-dir", downloads, "--push", layout)

	var report struct {
		Downloads []retrieve.Result `json:"downloads"`
		Artifact  *oci.PushResult   `json:"artifact"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)

	require.Len(t, report.Downloads, 2)
	assert.Equal(t, int32(2), jobs.Load())
	assert.Equal(t, "sub_era5_001", report.Downloads[0].Template)
	assert.Equal(t, "sub_era5_002", report.Downloads[1].Template)
	for _, d := range report.Downloads {
		assert.Equal(t, downloads, filepath.Dir(d.Path))
		assert.FileExists(t, d.Path)
	}

	require.NotNil(t, report.Artifact)
	assert.Equal(t, 2, report.Artifact.Layers)
	assert.NotEmpty(t, report.Artifact.Digest)
	assert.FileExists(t, filepath.Join(layout, "index.json"))
}

func TestInvalidGlobalFlags(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("--cost-method", "guess", "template", "list")
	require.Error(t, err)

	_, err = h.run("--db-driver", "mysql", "template", "list")
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
}
